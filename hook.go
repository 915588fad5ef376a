package garcon

import (
	"context"

	"github.com/garcon-ai/garcon/events"
)

// Hook extends events.Hook with run-level callbacks: the typed final
// result and the end of the conversation.
type Hook[T any] interface {
	events.Hook
	OnResult(context.Context, T)
	OnClose(context.Context)
}
