// Package jsonquery answers natural language questions over a JSON
// document without sending the whole document to the model.
//
// A query runs in two steps. First the model sees a compact outline of
// the document (one line per path with its type and a sample value)
// and replies with gjson path expressions. The engine evaluates those
// paths locally and hands the extracted values back to the model to
// synthesize a prose answer. With the Raw option the second step is
// skipped and the extracted values are returned as JSON.
//
//	e, err := jsonquery.New("menu", "answers questions about the menu",
//		openai.GPT4oMini(), menuJSON)
//	if err != nil { ... }
//	resp, err := e.Query(ctx, "which dishes cost less than 10 euros?")
//
// Response.Meta records the selected paths and the values they
// resolved to.
package jsonquery
