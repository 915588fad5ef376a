// Package engine defines the query engine abstraction shared by the
// retrieval-style packages: a QueryEngine answers a natural language
// question against some underlying data and reports how it got there
// through Response.Meta.
//
// Concrete engines live in the subpackages:
//
//   - jsonquery answers questions over an in-memory JSON document
//   - router dispatches questions to sub-engines via an LLM selector
//   - summarize condenses many candidate answers into one
//
// Complete is the shared single-shot completion helper the engines
// build on.
package engine
