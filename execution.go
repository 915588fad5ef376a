package garcon

import (
	"context"
	"reflect"

	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/events"
	"github.com/garcon-ai/garcon/internal/broker"
	"github.com/garcon-ai/garcon/internal/executor"
	"github.com/garcon-ai/garcon/internal/shorttermmemory"
	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/provider"
	"github.com/garcon-ai/garcon/types"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

func jsonSchema[T any]() *jsonschema.Schema {
	var schema *jsonschema.Schema
	var isGjsonResult bool
	var t T
	_, isGjsonResult = any(t).(gjson.Result)
	isString := reflect.TypeFor[T]().Kind() == reflect.String

	if !isGjsonResult && !isString {
		schema = executor.ToJSONSchema[T]()
	}

	return schema
}

// ExecutionContext carries everything a conversation run needs: the
// executor, the hook receiving events, the promise resolving the final
// answer, and per-run settings.
type ExecutionContext struct {
	executor       executor.Executor
	hook           events.Hook
	promise        executor.Promise
	broker         broker.Broker
	responseSchema *provider.StructuredOutput
	contextVars    types.ContextVars
	onClose        func(context.Context)
	stream         bool
	maxTurns       int
}

func (e *ExecutionContext) createCommand(agent api.Agent, mem *shorttermmemory.Aggregator) (executor.RunCommand, error) {
	cmd, err := executor.NewRunCommand(agent, mem, e.hook)
	if err != nil {
		return executor.RunCommand{}, err
	}
	if len(e.contextVars) > 0 {
		cmd = cmd.WithContextVariables(e.contextVars)
	}
	if e.responseSchema != nil {
		cmd = cmd.WithStructuredOutput(e.responseSchema)
	}
	if e.stream {
		cmd = cmd.WithStream(e.stream)
	}
	if e.maxTurns > 0 {
		cmd = cmd.WithMaxTurns(e.maxTurns)
	}
	return cmd, nil
}

var (
	WithContextVars = opts.ForName[ExecutionContext, types.ContextVars]("contextVars")
	Streaming       = opts.ForName[ExecutionContext, bool]("stream")
	WithMaxTurns    = opts.ForName[ExecutionContext, int]("maxTurns")

	// WithBroker routes conversation events through a broker topic
	// instead of calling the hook directly. With a NATS broker this
	// makes the event stream observable across processes.
	WithBroker = opts.ForName[ExecutionContext, broker.Broker]("broker")
)

// StructuredOutput constrains the final answer of a run to a JSON
// document matching the schema of T. String and gjson.Result results
// stay free-form.
func StructuredOutput[T any](name, description string) opts.Option[ExecutionContext] {
	return opts.Type[ExecutionContext](func(s *ExecutionContext) error {
		schema := jsonSchema[T]()
		if schema != nil {
			s.responseSchema = &provider.StructuredOutput{
				Name:        name,
				Description: description,
				Schema:      schema,
			}
		}
		return nil
	})
}

// Local creates an execution context that runs conversations in
// process. The hook receives every event, the typed result, and the
// close notification.
func Local[T any](hook Hook[T], options ...opts.Option[ExecutionContext]) ExecutionContext {
	fut := executor.NewFuture(executor.DefaultUnmarshal[T]())
	dp := &deferredPromise[T]{
		promise: fut,
		hook:    hook,
	}

	execCtx := ExecutionContext{
		executor: executor.NewLocal(),
		hook:     hook,
		promise:  dp,
		onClose: func(ctx context.Context) {
			dp.Forward(ctx)
			hook.OnClose(ctx)
		},
	}

	if err := opts.Apply(&execCtx, options); err != nil {
		panic(err)
	}

	return execCtx
}

// topicHook republishes hook callbacks as events on a broker topic.
type topicHook struct {
	topic broker.Topic
}

var _ events.Hook = topicHook{}

func (h topicHook) OnUserPrompt(ctx context.Context, msg messages.Message[messages.UserMessage]) {
	_ = h.topic.Publish(ctx, events.Request[messages.UserMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Message:   msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h topicHook) OnAssistantChunk(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	_ = h.topic.Publish(ctx, events.Chunk[messages.AssistantMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Chunk:     msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h topicHook) OnToolCallChunk(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	_ = h.topic.Publish(ctx, events.Chunk[messages.ToolCallMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Chunk:     msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h topicHook) OnAssistantMessage(ctx context.Context, msg messages.Message[messages.AssistantMessage]) {
	_ = h.topic.Publish(ctx, events.Response[messages.AssistantMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Response:  msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h topicHook) OnToolCallMessage(ctx context.Context, msg messages.Message[messages.ToolCallMessage]) {
	_ = h.topic.Publish(ctx, events.Response[messages.ToolCallMessage]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Response:  msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h topicHook) OnToolCallResponse(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
	_ = h.topic.Publish(ctx, events.Request[messages.ToolResponse]{
		RunID:     msg.RunID,
		TurnID:    msg.TurnID,
		Message:   msg.Payload,
		Sender:    msg.Sender,
		Timestamp: msg.Timestamp,
		Meta:      msg.Meta,
	})
}

func (h topicHook) OnError(ctx context.Context, err error) {
	if ee, ok := err.(events.Error); ok { //nolint: errorlint
		_ = h.topic.Publish(ctx, ee)
		return
	}
	_ = h.topic.Publish(ctx, events.Error{Err: err})
}
