package events

import (
	"context"
	"log/slog"

	"github.com/garcon-ai/garcon/messages"
	json "github.com/goccy/go-json"
)

// Hook receives conversation events as they happen. Implementations
// must be safe for concurrent use; the runtime may call them from
// multiple goroutines.
type Hook interface {
	OnUserPrompt(context.Context, messages.Message[messages.UserMessage])
	OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage])
	OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage])
	OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage])
	OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage])
	OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])
	OnError(context.Context, error)
}

// NoopHook ignores every event. Embed it to implement only the
// callbacks you care about.
type NoopHook struct{}

var _ Hook = NoopHook{}

func (NoopHook) OnUserPrompt(context.Context, messages.Message[messages.UserMessage])         {}
func (NoopHook) OnAssistantChunk(context.Context, messages.Message[messages.AssistantMessage]) {}
func (NoopHook) OnToolCallChunk(context.Context, messages.Message[messages.ToolCallMessage])   {}
func (NoopHook) OnAssistantMessage(context.Context, messages.Message[messages.AssistantMessage]) {
}
func (NoopHook) OnToolCallMessage(context.Context, messages.Message[messages.ToolCallMessage]) {}
func (NoopHook) OnToolCallResponse(context.Context, messages.Message[messages.ToolResponse])   {}
func (NoopHook) OnError(context.Context, error)                                                {}

type compositeHook struct {
	hooks []Hook
}

// NewCompositeHook fans every event out to all the given hooks, in
// order.
func NewCompositeHook(hooks ...Hook) Hook {
	return &compositeHook{hooks: hooks}
}

func (c *compositeHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	for _, h := range c.hooks {
		h.OnUserPrompt(ctx, msg)
	}
}

func (c *compositeHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range c.hooks {
		h.OnAssistantChunk(ctx, msg)
	}
}

func (c *compositeHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range c.hooks {
		h.OnToolCallChunk(ctx, msg)
	}
}

func (c *compositeHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	for _, h := range c.hooks {
		h.OnAssistantMessage(ctx, msg)
	}
}

func (c *compositeHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	for _, h := range c.hooks {
		h.OnToolCallMessage(ctx, msg)
	}
}

func (c *compositeHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	for _, h := range c.hooks {
		h.OnToolCallResponse(ctx, msg)
	}
}

func (c *compositeHook) OnError(ctx context.Context, err error) {
	for _, h := range c.hooks {
		h.OnError(ctx, err)
	}
}

// LoggingHook writes every event to slog at debug level.
func LoggingHook() Hook {
	return loggingHook{}
}

type loggingHook struct{}

func (loggingHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	slog.DebugContext(ctx, "user prompt", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	slog.DebugContext(ctx, "assistant chunk", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	slog.DebugContext(ctx, "tool call chunk", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	slog.DebugContext(ctx, "assistant message", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	slog.DebugContext(ctx, "tool call message", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	slog.DebugContext(ctx, "tool call response", slog.String("message", mustJSON(msg)))
}

func (loggingHook) OnError(ctx context.Context, err error) {
	slog.ErrorContext(ctx, "conversation error", slog.Any("error", err))
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
