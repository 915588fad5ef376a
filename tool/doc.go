// Package tool turns plain Go functions into tool definitions an agent
// can advertise to a model. Parameter schemas are derived by reflection
// and rendered as JSON schema; parameter names are supplied explicitly
// since reflection cannot recover them.
package tool
