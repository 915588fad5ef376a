package api

import (
	"github.com/garcon-ai/garcon/tool"
	"github.com/garcon-ai/garcon/types"
)

// Agent is the capability surface the runtime needs from an agent.
// Implementations are immutable once built; configuration happens at
// construction time, not at run time.
type Agent interface {
	// Name returns the agent's unique identifier. It stays stable
	// across sessions and is used for logging and routing.
	Name() string

	// Model returns the model this agent completes with.
	Model() Model

	// Tools returns the functions this agent may call.
	Tools() []tool.Definition

	// ParallelToolCalls reports whether tool calls from a single
	// completion may run concurrently.
	ParallelToolCalls() bool

	// RenderInstructions produces the system prompt, interpolating the
	// given context variables. It returns an error when the template
	// references a variable that is not present.
	RenderInstructions(types.ContextVars) (string, error)
}
