package executor

import (
	"context"
	"encoding"
	"fmt"
	"reflect"
	"testing"
	"time"

	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/artifact"
	"github.com/garcon-ai/garcon/internal/shorttermmemory"
	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/pkg/uuidx"
	"github.com/garcon-ai/garcon/provider"
	"github.com/garcon-ai/garcon/tool"
	"github.com/garcon-ai/garcon/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

type tableLabel struct {
	number int
	broken bool
}

func (l tableLabel) MarshalText() ([]byte, error) {
	if l.broken {
		return nil, fmt.Errorf("no such table")
	}
	return []byte(fmt.Sprintf("table %d", l.number)), nil
}

func TestBuildArgList(t *testing.T) {
	editParams := map[string]string{
		"param0": "id",
		"param1": "op",
		"param2": "path",
		"param3": "value",
	}

	t.Run("all arguments present", func(t *testing.T) {
		got := buildArgList(`{"id":"ord-1","op":"set","path":"table","value":"12"}`, editParams)
		require.Len(t, got, 4)
		assert.Equal(t, "ord-1", got[0].Interface())
		assert.Equal(t, "set", got[1].Interface())
		assert.Equal(t, "table", got[2].Interface())
		assert.Equal(t, "12", got[3].Interface())
	})

	t.Run("argument order follows the declaration, not the json", func(t *testing.T) {
		got := buildArgList(`{"value":"12","path":"table","op":"set","id":"ord-1"}`, editParams)
		require.Len(t, got, 4)
		assert.Equal(t, "ord-1", got[0].Interface())
		assert.Equal(t, "set", got[1].Interface())
	})

	t.Run("missing trailing argument keeps its slot", func(t *testing.T) {
		got := buildArgList(`{"id":"ord-1","op":"remove","path":"note"}`, editParams)
		require.Len(t, got, 4)
		assert.Equal(t, "remove", got[1].Interface())
		assert.Equal(t, "note", got[2].Interface())
		assert.False(t, got[3].IsValid(), "omitted value should leave an invalid slot, not shift")
	})

	t.Run("missing middle argument does not shift later ones", func(t *testing.T) {
		got := buildArgList(`{"id":"ord-1","path":"note","value":"extra bread"}`, editParams)
		require.Len(t, got, 4)
		assert.False(t, got[1].IsValid())
		assert.Equal(t, "note", got[2].Interface(), "path must stay in the path slot")
		assert.Equal(t, "extra bread", got[3].Interface())
	})

	t.Run("null argument keeps its slot", func(t *testing.T) {
		got := buildArgList(`{"id":"ord-1","op":"set","path":"table","value":null}`, editParams)
		require.Len(t, got, 4)
		assert.False(t, got[3].IsValid())
	})

	t.Run("empty arguments object", func(t *testing.T) {
		got := buildArgList(`{}`, map[string]string{"param0": "dish"})
		require.Len(t, got, 1)
		assert.False(t, got[0].IsValid())
	})

	t.Run("mixed json types", func(t *testing.T) {
		got := buildArgList(`{"guests":4,"outside":true,"dish":"onion soup"}`, map[string]string{
			"param0": "guests",
			"param1": "outside",
			"param2": "dish",
		})
		require.Len(t, got, 3)
		assert.Equal(t, float64(4), got[0].Interface())
		assert.Equal(t, true, got[1].Interface())
		assert.Equal(t, "onion soup", got[2].Interface())
	})
}

func TestCallFunction(t *testing.T) {
	t.Run("string return", func(t *testing.T) {
		result, err := callFunction(func() string { return "coming right up" }, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "coming right up", result.Value)
	})

	t.Run("numeric returns", func(t *testing.T) {
		result, err := callFunction(func() int { return 12 }, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "12", result.Value)

		result, err = callFunction(func() float64 { return 8.5 }, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "8.5", result.Value)
	})

	t.Run("time return", func(t *testing.T) {
		seating := time.Date(2026, 8, 30, 19, 30, 0, 0, time.UTC)
		result, err := callFunction(func() time.Time { return seating }, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "2026-08-30T19:30:00Z", result.Value)
	})

	t.Run("error return", func(t *testing.T) {
		_, err := callFunction(func() error { return assert.AnError }, nil, nil)
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("context vars do not consume positional slots", func(t *testing.T) {
		fn := func(cv types.ContextVars, dish string) string {
			return dish + " for " + cv["diner"].(string)
		}
		args := []reflect.Value{reflect.ValueOf("croque monsieur")}
		result, err := callFunction(fn, args, types.ContextVars{"diner": "Ada"})
		require.NoError(t, err)
		assert.Equal(t, "croque monsieur for Ada", result.Value)
	})

	t.Run("missing argument becomes the zero value", func(t *testing.T) {
		fn := func(path, value string) string {
			return fmt.Sprintf("path=%q value=%q", path, value)
		}
		args := []reflect.Value{reflect.ValueOf("note"), {}}
		result, err := callFunction(fn, args, nil)
		require.NoError(t, err)
		assert.Equal(t, `path="note" value=""`, result.Value)
	})

	t.Run("fewer arguments than parameters", func(t *testing.T) {
		fn := func(dish, note string) string { return dish + "|" + note }
		args := []reflect.Value{reflect.ValueOf("onion soup")}
		result, err := callFunction(fn, args, nil)
		require.NoError(t, err)
		assert.Equal(t, "onion soup|", result.Value)
	})

	t.Run("unconvertible argument becomes the zero value", func(t *testing.T) {
		fn := func(guests int) string { return fmt.Sprintf("party of %d", guests) }
		args := []reflect.Value{reflect.ValueOf("four")}
		result, err := callFunction(fn, args, nil)
		require.NoError(t, err)
		assert.Equal(t, "party of 0", result.Value)
	})
}

func TestCallFunctionReturnKinds(t *testing.T) {
	t.Run("text marshaler", func(t *testing.T) {
		result, err := callFunction(func() encoding.TextMarshaler {
			return tableLabel{number: 7}
		}, nil, nil)
		require.NoError(t, err)
		assert.Equal(t, "table 7", result.Value)
	})

	t.Run("text marshaler failure", func(t *testing.T) {
		_, err := callFunction(func() encoding.TextMarshaler {
			return tableLabel{broken: true}
		}, nil, nil)
		assert.Error(t, err)
	})

	t.Run("struct return is marshaled to json", func(t *testing.T) {
		type orderLine struct {
			Dish     string
			Quantity int
		}
		result, err := callFunction(func() orderLine {
			return orderLine{Dish: "ratatouille", Quantity: 2}
		}, nil, nil)
		require.NoError(t, err)
		assert.JSONEq(t, `{"Dish":"ratatouille","Quantity":2}`, result.Value)
	})
}

func toolCallsOf(calls ...messages.ToolCallData) messages.ToolCallMessage {
	return messages.ToolCallMessage{ToolCalls: calls}
}

func newToolCallParams(agent api.Agent, hook *mockHook, calls ...messages.ToolCallData) toolCallParams {
	return toolCallParams{
		runID:     uuidx.New(),
		agent:     agent,
		mem:       shorttermmemory.New(),
		hook:      hook,
		toolCalls: toolCallsOf(calls...),
	}
}

func TestHandleToolCalls(t *testing.T) {
	t.Run("plain tool call", func(t *testing.T) {
		l := NewLocal()

		var responses []string
		hook := &mockHook{
			onToolCallResponse: func(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
				responses = append(responses, msg.Payload.Content)
			},
		}

		waiter := &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: &mockProvider{}},
			testTools: []tool.Definition{
				{Name: "todays_special", Function: func() string { return "bouillabaisse" }},
			},
		}

		nextAgent, err := l.handleToolCalls(context.Background(), newToolCallParams(waiter, hook,
			messages.ToolCallData{Name: "todays_special", Arguments: "{}"},
		))
		require.NoError(t, err)
		assert.Nil(t, nextAgent)
		assert.Equal(t, []string{"bouillabaisse"}, responses)
	})

	t.Run("handoff wins over regular tools", func(t *testing.T) {
		l := NewLocal()

		sommelier := &mockAgent{testName: "sommelier"}
		var ran []string
		waiter := &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: &mockProvider{}},
			testTools: []tool.Definition{
				{Name: "todays_special", Function: func() string {
					ran = append(ran, "todays_special")
					return "bouillabaisse"
				}},
				{Name: "call_sommelier", Function: func() api.Agent {
					ran = append(ran, "call_sommelier")
					return sommelier
				}},
			},
		}

		nextAgent, err := l.handleToolCalls(context.Background(), newToolCallParams(waiter, &mockHook{},
			messages.ToolCallData{Name: "todays_special", Arguments: "{}"},
			messages.ToolCallData{Name: "call_sommelier", Arguments: "{}"},
		))
		require.NoError(t, err)
		assert.Equal(t, sommelier, nextAgent)
		assert.Equal(t, []string{"call_sommelier"}, ran,
			"a handoff should run first and skip the remaining tools")
	})

	t.Run("context variables flow between tools", func(t *testing.T) {
		l := NewLocal()

		var seen string
		waiter := &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: &mockProvider{}},
			testTools: []tool.Definition{
				{Name: "greet", Function: func() types.ContextVars {
					return types.ContextVars{"diner": "Ada"}
				}},
				{Name: "confirm", Function: func(cv types.ContextVars) string {
					seen, _ = cv["diner"].(string)
					return "noted"
				}},
			},
		}

		nextAgent, err := l.handleToolCalls(context.Background(), newToolCallParams(waiter, &mockHook{},
			messages.ToolCallData{Name: "greet", Arguments: "{}"},
			messages.ToolCallData{Name: "confirm", Arguments: "{}"},
		))
		require.NoError(t, err)
		assert.Nil(t, nextAgent)
		assert.Equal(t, "Ada", seen)
	})

	t.Run("tools run in the order the model called them", func(t *testing.T) {
		l := NewLocal()

		var ran []string
		note := func(name string) func() string {
			return func() string {
				ran = append(ran, name)
				return "ok"
			}
		}
		waiter := &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: &mockProvider{}},
			testTools: []tool.Definition{
				{Name: "pour_water", Function: note("pour_water")},
				{Name: "bring_bread", Function: note("bring_bread")},
			},
		}

		_, err := l.handleToolCalls(context.Background(), newToolCallParams(waiter, &mockHook{},
			messages.ToolCallData{Name: "pour_water", Arguments: "{}"},
			messages.ToolCallData{Name: "bring_bread", Arguments: "{}"},
		))
		require.NoError(t, err)
		assert.Equal(t, []string{"pour_water", "bring_bread"}, ran)
	})

	t.Run("unknown tool", func(t *testing.T) {
		l := NewLocal()

		_, err := l.handleToolCalls(context.Background(), newToolCallParams(newTestAgent(), &mockHook{},
			messages.ToolCallData{Name: "flambe", Arguments: "{}"},
		))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown tool")
	})

	t.Run("unparseable arguments fall back to zero values", func(t *testing.T) {
		l := NewLocal()

		var got string
		waiter := &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: &mockProvider{}},
			testTools: []tool.Definition{
				{
					Name:       "note_allergy",
					Function:   func(allergy string) string { got = allergy; return "noted" },
					Parameters: map[string]string{"param0": "allergy"},
				},
			},
		}

		_, err := l.handleToolCalls(context.Background(), newToolCallParams(waiter, &mockHook{},
			messages.ToolCallData{Name: "note_allergy", Arguments: "not json at all"},
		))
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestHandleToolCallsEditorTools(t *testing.T) {
	newOrderAgent := func(t *testing.T) (*artifact.Editor, *mockAgent) {
		t.Helper()
		type order struct {
			Table int      `json:"table"`
			Items []string `json:"items"`
			Note  string   `json:"note,omitempty"`
		}
		editor := artifact.NewEditor(artifact.NewMemoryStore(), "order", artifact.SchemaFor[order]())
		return editor, &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: &mockProvider{}},
			testTools: editor.Tools(),
		}
	}

	collect := func(responses *[]string) *mockHook {
		return &mockHook{
			onToolCallResponse: func(ctx context.Context, msg messages.Message[messages.ToolResponse]) {
				*responses = append(*responses, msg.Payload.Content)
			},
		}
	}

	t.Run("edit without a value removes a field", func(t *testing.T) {
		l := NewLocal()
		editor, agent := newOrderAgent(t)

		a, err := editor.Create(context.Background())
		require.NoError(t, err)
		_, err = editor.Edit(context.Background(), a.ID, artifact.Patch{Op: artifact.OpSet, Path: "note", Value: "no garlic"})
		require.NoError(t, err)

		var responses []string
		args := fmt.Sprintf(`{"id":%q,"op":"remove","path":"note"}`, a.ID)
		_, err = l.handleToolCalls(context.Background(), newToolCallParams(agent, collect(&responses),
			messages.ToolCallData{Name: "artifact_edit", Arguments: args},
		))
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.False(t, gjson.Get(responses[0], "note").Exists(), "note should be gone: %s", responses[0])
	})

	t.Run("edit without an op reports the error in band", func(t *testing.T) {
		l := NewLocal()
		editor, agent := newOrderAgent(t)

		a, err := editor.Create(context.Background())
		require.NoError(t, err)

		var responses []string
		args := fmt.Sprintf(`{"id":%q,"path":"note","value":"window seat"}`, a.ID)
		_, err = l.handleToolCalls(context.Background(), newToolCallParams(agent, collect(&responses),
			messages.ToolCallData{Name: "artifact_edit", Arguments: args},
		))
		require.NoError(t, err)
		require.Len(t, responses, 1)
		assert.Contains(t, responses[0], "error:")
		assert.Contains(t, responses[0], `unknown patch op ""`,
			"path must not slide into the op slot when op is omitted")

		current, err := editor.Show(context.Background(), a.ID)
		require.NoError(t, err)
		assert.Equal(t, "{}", string(current.Document))
	})

	t.Run("full create edit finalize round", func(t *testing.T) {
		l := NewLocal()
		editor, agent := newOrderAgent(t)

		var responses []string
		hook := collect(&responses)

		_, err := l.handleToolCalls(context.Background(), newToolCallParams(agent, hook,
			messages.ToolCallData{Name: "artifact_create", Arguments: "{}"},
		))
		require.NoError(t, err)
		require.Len(t, responses, 1)
		id := responses[0]

		edits := []string{
			fmt.Sprintf(`{"id":%q,"op":"set","path":"table","value":"12"}`, id),
			fmt.Sprintf(`{"id":%q,"op":"append","path":"items","value":"onion soup"}`, id),
		}
		for _, args := range edits {
			_, err = l.handleToolCalls(context.Background(), newToolCallParams(agent, hook,
				messages.ToolCallData{Name: "artifact_edit", Arguments: args},
			))
			require.NoError(t, err)
		}

		_, err = l.handleToolCalls(context.Background(), newToolCallParams(agent, hook,
			messages.ToolCallData{Name: "artifact_finalize", Arguments: fmt.Sprintf(`{"id":%q}`, id)},
		))
		require.NoError(t, err)

		final, err := editor.Show(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, final.Final)
		assert.Equal(t, int64(12), gjson.GetBytes(final.Document, "table").Int())
		assert.Equal(t, "onion soup", gjson.GetBytes(final.Document, "items.0").String())
	})
}

func TestLocalRun(t *testing.T) {
	t.Run("assistant reply completes the promise", func(t *testing.T) {
		l := NewLocal()
		agent := newTestAgent()

		thread := shorttermmemory.New()
		cmd, err := NewRunCommand(agent, thread, &mockHook{})
		require.NoError(t, err)

		fut := NewFuture(DefaultUnmarshal[string]())
		require.NoError(t, l.Run(context.Background(), cmd, fut))

		result, err := fut.Get()
		require.NoError(t, err)
		assert.Equal(t, "test result", result)
		assert.Len(t, thread.Messages(), 1, "assistant reply should be joined into the command thread")
	})

	t.Run("tool call turn then assistant reply", func(t *testing.T) {
		l := NewLocal()

		toolCalled := false
		prov := &mockProvider{}
		waiter := &mockAgent{
			testName:  "waiter",
			testModel: testModel{provider: prov},
			testTools: []tool.Definition{
				{Name: "todays_special", Function: func() string {
					toolCalled = true
					return "bouillabaisse"
				}},
			},
		}
		prov.responses = []provider.StreamEvent{
			provider.Response[messages.ToolCallMessage]{
				Response: toolCallsOf(messages.ToolCallData{Name: "todays_special", Arguments: "{}"}),
			},
			provider.Response[messages.AssistantMessage]{
				Response: messages.AssistantMessage{
					Content: messages.AssistantContentOrParts{Content: "Today we have bouillabaisse."},
				},
			},
		}

		thread := shorttermmemory.New()
		cmd, err := NewRunCommand(waiter, thread, &mockHook{})
		require.NoError(t, err)

		fut := NewFuture(DefaultUnmarshal[string]())
		require.NoError(t, l.Run(context.Background(), cmd, fut))

		result, err := fut.Get()
		require.NoError(t, err)
		assert.True(t, toolCalled)
		assert.Equal(t, "Today we have bouillabaisse.", result)
		assert.Equal(t, "mock instructions", prov.lastParams.Instructions)
		assert.Len(t, prov.lastParams.Tools, 1)
	})

	t.Run("max turns exceeded", func(t *testing.T) {
		l := NewLocal()

		prov := &mockProvider{
			responses: []provider.StreamEvent{
				provider.Response[messages.ToolCallMessage]{
					Response: toolCallsOf(messages.ToolCallData{Name: "test_tool", Arguments: "{}"}),
				},
			},
		}
		agent := newTestAgent()
		agent.testModel = testModel{provider: prov}

		cmd, err := NewRunCommand(agent, shorttermmemory.New(), &mockHook{})
		require.NoError(t, err)
		cmd = cmd.WithMaxTurns(1)

		fut := NewFuture(DefaultUnmarshal[string]())
		err = l.Run(context.Background(), cmd, fut)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "max turns exceeded")
	})

	t.Run("provider error fails the promise", func(t *testing.T) {
		l := NewLocal()

		prov := &mockProvider{
			responses: []provider.StreamEvent{
				provider.Error{Err: assert.AnError},
			},
		}
		agent := newTestAgent()
		agent.testModel = testModel{provider: prov}

		var hookErr error
		hook := &mockHook{
			onError: func(ctx context.Context, err error) {
				hookErr = err
			},
		}

		cmd, err := NewRunCommand(agent, shorttermmemory.New(), hook)
		require.NoError(t, err)

		fut := NewFuture(DefaultUnmarshal[string]())
		err = l.Run(context.Background(), cmd, fut)
		require.Error(t, err)
		assert.Error(t, hookErr)

		_, err = fut.Get()
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("nil model", func(t *testing.T) {
		l := NewLocal()

		agent := &mockAgent{testName: "waiter"}
		cmd, err := NewRunCommand(agent, shorttermmemory.New(), &mockHook{})
		require.NoError(t, err)

		err = l.Run(context.Background(), cmd, NewFuture(DefaultUnmarshal[string]()))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "model cannot be nil")
	})

	t.Run("invalid command", func(t *testing.T) {
		l := NewLocal()
		err := l.Run(context.Background(), RunCommand{}, NewFuture(DefaultUnmarshal[string]()))
		assert.Error(t, err)
	})
}
