// Package artifact maintains structured, schema-validated JSON
// documents that an agent fills in incrementally through discrete edit
// operations.
//
// An Artifact is a raw JSON document with a monotonically increasing
// version. Patches (set, append, remove) address fields by gjson path
// and never mutate the document when rejected. Drafts may be invalid
// against their schema; Finalize requires a clean validation result.
//
// Stores persist every version for audit: NewMemoryStore for tests and
// short-lived sessions, NewSQLiteStore for durable history.
//
// The Editor ties a store, a kind, and a schema together and exposes
// the operations as tool definitions, so an agent can create, edit,
// inspect, validate, and finalize artifacts over the course of a
// conversation:
//
//	editor := artifact.NewEditor(store, "order", orderSchema)
//	waiter := agent.New(
//		agent.Name("waiter"),
//		agent.Tools(editor.Tools()[0], editor.Tools()[1:]...),
//	)
package artifact
