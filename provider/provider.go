package provider

import (
	"context"

	"github.com/garcon-ai/garcon/internal/shorttermmemory"
	"github.com/garcon-ai/garcon/tool"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
)

// Provider is the interface to a chat completion backend. Implementations
// translate the thread and tools into an API request and report results
// as a stream of events, whether or not the backend streams.
type Provider interface {
	ChatCompletion(context.Context, CompletionParams) (<-chan StreamEvent, error)
}

// CompletionParams carries everything a provider needs for one
// completion request.
type CompletionParams struct {
	// RunID identifies this completion for correlation across events
	RunID uuid.UUID

	// Instructions is the system prompt
	Instructions string

	// Thread holds the conversation history
	Thread *shorttermmemory.Aggregator

	// Stream selects incremental chunks over a single response
	Stream bool

	// ResponseSchema, when set, constrains the reply to a JSON document
	// matching the schema
	ResponseSchema *StructuredOutput

	// Model names the model and knows which provider serves it
	Model interface {
		Name() string
		Provider() Provider
	}

	// Tools lists the functions the model may call
	Tools []tool.Definition

	_ struct{} // prevents unkeyed literals
}

// StructuredOutput names a JSON schema for formatted replies.
type StructuredOutput struct {
	Name        string
	Description string
	Schema      *jsonschema.Schema
}
