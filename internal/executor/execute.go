package executor

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"math"
	"reflect"
	"sync"
	"sync/atomic"

	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/events"
	"github.com/garcon-ai/garcon/internal/shorttermmemory"
	"github.com/garcon-ai/garcon/pkg/stdx"
	"github.com/garcon-ai/garcon/pkg/uuidx"
	"github.com/garcon-ai/garcon/provider"
	"github.com/garcon-ai/garcon/types"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"github.com/tidwall/gjson"
)

// Structured outputs use a subset of JSON schema. These reflector
// flags keep the generated schemas inside that subset.
var reflector = jsonschema.Reflector{
	AllowAdditionalProperties: false,
	DoNotReference:            true,
}

func ToJSONSchema[T any]() *jsonschema.Schema {
	var v T
	return reflector.Reflect(v)
}

func NewRunCommand(agent api.Agent, thread *shorttermmemory.Aggregator, hook events.Hook) (RunCommand, error) {
	var err error
	if agent == nil {
		err = errors.Join(err, errors.New("agent is required"))
	}
	if thread == nil {
		err = errors.Join(err, errors.New("thread is required"))
	}
	if hook == nil {
		err = errors.Join(err, errors.New("hook is required"))
	}

	if err != nil {
		return RunCommand{}, err
	}

	return RunCommand{
		id:       uuidx.New(),
		Agent:    agent,
		Thread:   thread,
		Hook:     hook,
		MaxTurns: math.MaxInt,
	}, nil
}

type RunCommand struct {
	id               uuid.UUID
	Agent            api.Agent
	Thread           *shorttermmemory.Aggregator
	StructuredOutput *provider.StructuredOutput
	Stream           bool
	MaxTurns         int
	ContextVariables types.ContextVars
	Hook             events.Hook
}

func (r *RunCommand) Validate() error {
	if r.Agent == nil {
		return fmt.Errorf("agent cannot be nil")
	}
	if r.Thread == nil {
		return fmt.Errorf("thread cannot be nil")
	}
	if r.Hook == nil {
		return fmt.Errorf("hook cannot be nil")
	}
	return nil
}

func (r *RunCommand) initializeContextVars() types.ContextVars {
	if r.ContextVariables != nil {
		return maps.Clone(r.ContextVariables)
	}
	return nil
}

func (r *RunCommand) ID() uuid.UUID {
	return r.id
}

func (r RunCommand) WithStream(stream bool) RunCommand {
	r.Stream = stream
	return r
}

func (r RunCommand) WithMaxTurns(maxTurns int) RunCommand {
	r.MaxTurns = maxTurns
	return r
}

func (r RunCommand) WithContextVariables(contextVariables types.ContextVars) RunCommand {
	r.ContextVariables = contextVariables
	return r
}

func (r RunCommand) WithStructuredOutput(output *provider.StructuredOutput) RunCommand {
	r.StructuredOutput = output
	return r
}

// DefaultUnmarshal returns the decoder for run results of type T.
// Strings and gjson results pass through untouched, everything else is
// JSON decoded.
func DefaultUnmarshal[T any]() func([]byte) (T, error) {
	var t T
	_, isGjsonResult := any(t).(gjson.Result)
	isString := reflect.TypeFor[T]().Kind() == reflect.String

	switch {
	case isGjsonResult:
		return func(data []byte) (T, error) {
			result := gjson.ParseBytes(data)
			return any(result).(T), nil
		}
	case isString:
		return func(data []byte) (T, error) {
			return any(string(data)).(T), nil
		}
	default:
		return func(data []byte) (T, error) {
			var v T
			if err := json.Unmarshal(data, &v); err != nil {
				return v, err
			}
			return v, nil
		}
	}
}

type CompletableFuture[T any] interface {
	Future[T]
	Promise
}

type Promise interface {
	Complete(string)
	Error(error)
}

type Future[T any] interface {
	Get() (T, error)
}

type futState struct {
	value string
	err   error
}

type futResult[T any] struct {
	result T
	err    error
	done   bool
}

type future[T any] struct {
	unmarshal func([]byte) (T, error)
	ch        chan futState
	result    atomic.Value // holds *futResult[T]
	once      sync.Once
	mu        sync.Mutex
}

func NewFuture[T any](unmarshal func([]byte) (T, error)) CompletableFuture[T] {
	f := &future[T]{
		unmarshal: unmarshal,
		ch:        make(chan futState, 1),
	}
	f.result.Store(&futResult[T]{})
	return f
}

func (f *future[T]) Get() (T, error) {
	res := f.result.Load().(*futResult[T])
	if res.done {
		return res.result, res.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	res = f.result.Load().(*futResult[T])
	if res.done {
		return res.result, res.err
	}

	r := <-f.ch
	var newResult futResult[T]
	if r.err != nil {
		newResult = futResult[T]{
			result: stdx.Zero[T](),
			err:    r.err,
			done:   true,
		}
	} else {
		result, err := f.unmarshal([]byte(r.value))
		newResult = futResult[T]{
			result: result,
			err:    err,
			done:   true,
		}
	}
	f.result.Store(&newResult)
	return newResult.result, newResult.err
}

func (f *future[T]) Complete(data string) {
	f.once.Do(func() {
		f.ch <- futState{value: data}
	})
}

func (f *future[T]) Error(err error) {
	f.once.Do(func() {
		f.ch <- futState{err: err}
	})
}

type Executor interface {
	Run(context.Context, RunCommand, Promise) error
	handleToolCalls(ctx context.Context, params toolCallParams) (api.Agent, error)
}
