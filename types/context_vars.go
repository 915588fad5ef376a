// Package types holds core type definitions shared across the module.
package types

import json "github.com/goccy/go-json"

// ContextVars is a key-value store of variables available to instruction
// templates and tool functions. Typical uses are passing user identity,
// menu data or feature toggles into an agent, and sharing state between
// conversation turns.
type ContextVars map[string]any

// String renders the variables as JSON. The empty string is returned when
// marshaling fails, template rendering treats that as "no context".
func (cv ContextVars) String() string {
	jsonData, err := json.Marshal(cv)
	if err != nil {
		return ""
	}
	return string(jsonData)
}
