package broker

import (
	"context"
	"fmt"

	"github.com/garcon-ai/garcon/events"
	"github.com/garcon-ai/garcon/messages"
)

type Broker interface {
	Topic(context.Context, string) Topic
}

type Topic interface {
	Publish(context.Context, events.Event) error
	Subscribe(context.Context, events.Hook) (Subscription, error)
}

type Subscription interface {
	ID() string
	Unsubscribe()
}

// resultReceiver is implemented by hooks that also want terminal run
// results. Result events are dropped for hooks that don't.
type resultReceiver interface {
	OnResult(context.Context, any)
}

func dispatchEvent(ctx context.Context, hook events.Hook, event events.Event) {
	switch event := event.(type) {
	case events.Delim:
		// stream control only, not forwarded
	case events.Request[messages.UserMessage]:
		hook.OnUserPrompt(ctx, messages.Message[messages.UserMessage]{
			Payload:   event.Message,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Chunk[messages.AssistantMessage]:
		hook.OnAssistantChunk(ctx, messages.Message[messages.AssistantMessage]{
			Payload:   event.Chunk,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Chunk[messages.ToolCallMessage]:
		hook.OnToolCallChunk(ctx, messages.Message[messages.ToolCallMessage]{
			Payload:   event.Chunk,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Request[messages.ToolResponse]:
		hook.OnToolCallResponse(ctx, messages.Message[messages.ToolResponse]{
			Payload:   event.Message,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Response[messages.ToolCallMessage]:
		hook.OnToolCallMessage(ctx, messages.Message[messages.ToolCallMessage]{
			Payload:   event.Response,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Response[messages.AssistantMessage]:
		hook.OnAssistantMessage(ctx, messages.Message[messages.AssistantMessage]{
			Payload:   event.Response,
			Sender:    event.Sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		})
	case events.Result[any]:
		if recv, ok := hook.(resultReceiver); ok {
			recv.OnResult(ctx, event.Result)
		}
	case events.Error:
		hook.OnError(ctx, event.Err)
	default:
		panic(fmt.Sprintf("unknown event type: %T", event))
	}
}

func forwardToHook(ctx context.Context, ch <-chan events.Event, hook events.Hook) {
	for {
		select {
		case event, ok := <-ch:
			if !ok {
				return
			}
			dispatchEvent(ctx, hook, event)
		case <-ctx.Done():
			return
		}
	}
}
