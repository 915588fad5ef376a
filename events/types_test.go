package events

import (
	"errors"
	"testing"
	"time"

	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/provider"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

func TestDelimJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	d := Delim{RunID: runID, TurnID: turnID, Delim: "start"}

	data, err := d.MarshalJSON()
	require.NoError(t, err)

	parsed := gjson.ParseBytes(data)
	assert.Equal(t, "delim", parsed.Get("type").String())
	assert.Equal(t, runID.String(), parsed.Get("run_id").String())
	assert.Equal(t, "start", parsed.Get("delim").String())

	var back Delim
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, d, back)

	t.Run("rejects wrong type", func(t *testing.T) {
		var d Delim
		err := d.UnmarshalJSON([]byte(`{"type":"chunk"}`))
		assert.Error(t, err)
	})

	t.Run("requires run_id", func(t *testing.T) {
		var d Delim
		err := d.UnmarshalJSON([]byte(`{"type":"delim","delim":"start"}`))
		assert.Error(t, err)
	})
}

func TestChunkJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))
	meta := gjson.Parse(`{"key":"value"}`)

	c := Chunk[messages.AssistantMessage]{
		RunID:  runID,
		TurnID: turnID,
		Chunk: messages.AssistantMessage{
			Content: messages.AssistantContentOrParts{Content: "hello"},
		},
		Sender:    "assistant",
		Timestamp: timestamp,
		Meta:      meta,
	}

	data, err := c.MarshalJSON()
	require.NoError(t, err)

	parsed := gjson.ParseBytes(data)
	assert.Equal(t, "chunk", parsed.Get("type").String())
	assert.Equal(t, "assistant", parsed.Get("chunk.type").String())
	assert.Equal(t, "assistant", parsed.Get("sender").String())
	assert.Equal(t, "value", parsed.Get("meta.key").String())

	var back Chunk[messages.AssistantMessage]
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, c.RunID, back.RunID)
	assert.Equal(t, c.Chunk.Content.Content, back.Chunk.Content.Content)
	assert.Equal(t, c.Sender, back.Sender)
	assert.Equal(t, c.Meta.Raw, back.Meta.Raw)
}

func TestRequestJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	r := Request[messages.UserMessage]{
		RunID:  runID,
		TurnID: turnID,
		Message: messages.UserMessage{
			Content: messages.ContentOrParts{Content: "hi"},
		},
		Sender: "user",
	}

	data, err := r.MarshalJSON()
	require.NoError(t, err)

	parsed := gjson.ParseBytes(data)
	assert.Equal(t, "request", parsed.Get("type").String())
	assert.Equal(t, "user", parsed.Get("message.type").String())

	var back Request[messages.UserMessage]
	require.NoError(t, back.UnmarshalJSON(data))
	assert.Equal(t, "hi", back.Message.Content.Content)
}

func TestResponseJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()

	r := Response[messages.ToolCallMessage]{
		RunID:  runID,
		TurnID: turnID,
		Response: messages.ToolCallMessage{
			ToolCalls: []messages.ToolCallData{{ID: "call_1", Name: "lookup", Arguments: "{}"}},
		},
		Sender: "agent",
	}

	data, err := r.MarshalJSON()
	require.NoError(t, err)

	parsed := gjson.ParseBytes(data)
	assert.Equal(t, "response", parsed.Get("type").String())
	assert.Equal(t, "tool_call", parsed.Get("response.type").String())

	var back Response[messages.ToolCallMessage]
	require.NoError(t, back.UnmarshalJSON(data))
	require.Len(t, back.Response.ToolCalls, 1)
	assert.Equal(t, "lookup", back.Response.ToolCalls[0].Name)
}

func TestErrorJSON(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	testErr := errors.New("test error")

	e := Error{
		RunID:  runID,
		TurnID: turnID,
		Err:    testErr,
		Sender: "agent",
	}

	data, err := e.MarshalJSON()
	require.NoError(t, err)

	parsed := gjson.ParseBytes(data)
	assert.Equal(t, "error", parsed.Get("type").String())
	assert.Equal(t, "test error", parsed.Get("error").String())

	var back Error
	require.NoError(t, back.UnmarshalJSON(data))
	assert.EqualError(t, back.Err, "test error")

	assert.Contains(t, e.Error(), "test error")
	assert.Contains(t, e.Error(), runID.String())
}

func TestErrorString_NilErr(t *testing.T) {
	e := Error{}
	assert.Contains(t, e.Error(), "<nil>")
}

func TestFromStreamEvent(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now())

	t.Run("delim", func(t *testing.T) {
		event := FromStreamEvent(provider.Delim{Delim: "start"}, "agent")
		assert.Equal(t, Delim{Delim: "start"}, event)
	})

	t.Run("assistant chunk", func(t *testing.T) {
		event := FromStreamEvent(provider.Chunk[messages.AssistantMessage]{
			RunID:  runID,
			TurnID: turnID,
			Chunk: messages.AssistantMessage{
				Content: messages.AssistantContentOrParts{Content: "hello"},
			},
			Timestamp: timestamp,
		}, "agent")

		chunk, ok := event.(Chunk[messages.AssistantMessage])
		require.True(t, ok)
		assert.Equal(t, "agent", chunk.Sender)
		assert.Equal(t, "hello", chunk.Chunk.Content.Content)
	})

	t.Run("tool call response", func(t *testing.T) {
		event := FromStreamEvent(provider.Response[messages.ToolCallMessage]{
			RunID:  runID,
			TurnID: turnID,
			Response: messages.ToolCallMessage{
				ToolCalls: []messages.ToolCallData{{Name: "lookup"}},
			},
		}, "agent")

		resp, ok := event.(Response[messages.ToolCallMessage])
		require.True(t, ok)
		assert.Equal(t, "agent", resp.Sender)
	})

	t.Run("error", func(t *testing.T) {
		event := FromStreamEvent(provider.Error{
			RunID:  runID,
			TurnID: turnID,
			Err:    errors.New("boom"),
		}, "agent")

		errEvent, ok := event.(Error)
		require.True(t, ok)
		assert.EqualError(t, errEvent.Err, "boom")
	})
}

func TestEventSerialization(t *testing.T) {
	runID := uuid.New()
	turnID := uuid.New()
	timestamp := strfmt.DateTime(time.Now().UTC().Truncate(time.Millisecond))
	meta := gjson.Parse(`{"key":"value"}`)

	t.Run("ToJSON round trips", func(t *testing.T) {
		tests := []struct {
			name  string
			event Event
		}{
			{
				name:  "Delim",
				event: Delim{RunID: runID, TurnID: turnID, Delim: "test"},
			},
			{
				name: "Chunk AssistantMessage",
				event: Chunk[messages.AssistantMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Chunk:     messages.New().AssistantMessage("test").Payload,
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
			{
				name: "Chunk ToolCallMessage",
				event: Chunk[messages.ToolCallMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Chunk:     messages.New().ToolCall([]messages.ToolCallData{{Name: "test", Arguments: "{}"}}).Payload,
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
			{
				name: "Request UserMessage",
				event: Request[messages.UserMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Message:   messages.New().UserPrompt("test").Payload,
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
			{
				name: "Request ToolResponse",
				event: Request[messages.ToolResponse]{
					RunID:     runID,
					TurnID:    turnID,
					Message:   messages.New().ToolResponse("test12", "test", "{}").Payload,
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
			{
				name: "Response AssistantMessage",
				event: Response[messages.AssistantMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Response:  messages.New().AssistantMessage("test").Payload,
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
			{
				name: "Response ToolCallMessage",
				event: Response[messages.ToolCallMessage]{
					RunID:     runID,
					TurnID:    turnID,
					Response:  messages.New().ToolCall([]messages.ToolCallData{{Name: "test", Arguments: "{}"}}).Payload,
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
			{
				name: "Error",
				event: Error{
					RunID:     runID,
					TurnID:    turnID,
					Err:       errors.New("test error"),
					Sender:    "test",
					Timestamp: timestamp,
					Meta:      meta,
				},
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				data, err := ToJSON(tt.event)
				require.NoError(t, err)
				assert.NotNil(t, data)

				event, err := FromJSON(data)
				require.NoError(t, err)
				assert.IsType(t, tt.event, event)
			})
		}
	})

	t.Run("Result decodes as Result[any]", func(t *testing.T) {
		data, err := ToJSON(Result[string]{
			RunID:  runID,
			TurnID: turnID,
			Result: "done",
		})
		require.NoError(t, err)

		event, err := FromJSON(data)
		require.NoError(t, err)
		result, ok := event.(Result[any])
		require.True(t, ok)
		assert.Equal(t, "done", result.Result)
	})

	t.Run("FromJSON errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
		}{
			{
				name:  "invalid json",
				input: "invalid",
			},
			{
				name:  "missing type",
				input: `{"run_id": "` + runID.String() + `"}`,
			},
			{
				name:  "unknown type",
				input: `{"type": "unknown"}`,
			},
			{
				name:  "invalid chunk type",
				input: `{"type": "chunk", "chunk": {"type": "unknown"}}`,
			},
			{
				name:  "invalid request type",
				input: `{"type": "request", "message": {"type": "unknown"}}`,
			},
			{
				name:  "invalid response type",
				input: `{"type": "response", "response": {"type": "unknown"}}`,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := FromJSON([]byte(tt.input))
				assert.Error(t, err)
			})
		}
	})
}
