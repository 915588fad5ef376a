package messages

import (
	"time"

	"github.com/garcon-ai/garcon/pkg/uuidx"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// ModelMessage is the union of payloads that can travel through a
// conversation thread.
type ModelMessage interface {
	message()
}

// Request marks payloads that flow towards the model.
type Request interface {
	ModelMessage
	request()
}

// Response marks payloads produced by the model.
type Response interface {
	ModelMessage
	response()
}

// Message is the envelope around every payload: who sent it, in which
// run and turn, and when.
type Message[T ModelMessage] struct {
	RunID     uuid.UUID       `json:"run_id,omitempty"`
	TurnID    uuid.UUID       `json:"turn_id,omitempty"`
	Payload   T               `json:"payload"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

type InstructionsMessage struct {
	Content string `json:"content"`
	_       struct{}
}

func (InstructionsMessage) message() {}

type UserMessage struct {
	Content ContentOrParts `json:"content"`
	_       struct{}
}

func (UserMessage) message() {}
func (UserMessage) request() {}

type AssistantMessage struct {
	Content AssistantContentOrParts `json:"content"`
	Refusal string                  `json:"refusal,omitempty"`
	_       struct{}
}

func (AssistantMessage) message()  {}
func (AssistantMessage) response() {}

type ToolCallData struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
	_         struct{}
}

type ToolCallMessage struct {
	ToolCalls []ToolCallData `json:"tool_calls"`
	_         struct{}
}

func (ToolCallMessage) message()  {}
func (ToolCallMessage) response() {}

type ToolResponse struct {
	ToolName   string `json:"tool_name"`
	ToolCallID string `json:"tool_call_id"`
	Content    string `json:"content"`
	_          struct{}
}

func (ToolResponse) message() {}
func (ToolResponse) request() {}

type Retry struct {
	Error      error  `json:"error"`
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`
	_          struct{}
}

func (Retry) message() {}
func (Retry) request() {}

// New starts a message builder stamped with the current time.
func New() messageBuilder {
	return messageBuilder{timestamp: strfmt.DateTime(time.Now())}
}

type messageBuilder struct {
	runID     uuid.UUID
	turnID    uuid.UUID
	sender    string
	timestamp strfmt.DateTime
	metadata  gjson.Result
	_         struct{}
}

func (b messageBuilder) WithSender(sender string) messageBuilder {
	b.sender = sender
	return b
}

func (b messageBuilder) WithRunID(id uuid.UUID) messageBuilder {
	b.runID = id
	return b
}

func (b messageBuilder) WithTurnID(id uuid.UUID) messageBuilder {
	b.turnID = id
	return b
}

func (b messageBuilder) WithTimestamp(ts strfmt.DateTime) messageBuilder {
	b.timestamp = ts
	return b
}

func (b messageBuilder) WithMetadata(meta gjson.Result) messageBuilder {
	b.metadata = meta
	return b
}

func envelope[T ModelMessage](b messageBuilder, payload T) Message[T] {
	runID := b.runID
	if runID == uuid.Nil {
		runID = uuidx.New()
	}
	return Message[T]{
		RunID:     runID,
		TurnID:    b.turnID,
		Payload:   payload,
		Sender:    b.sender,
		Timestamp: b.timestamp,
		Meta:      b.metadata,
	}
}

// Instructions builds a system instructions message.
func (b messageBuilder) Instructions(content string) Message[InstructionsMessage] {
	return envelope(b, InstructionsMessage{Content: content})
}

// UserPrompt builds a plain-text user message.
func (b messageBuilder) UserPrompt(content string) Message[UserMessage] {
	return envelope(b, UserMessage{Content: ContentOrParts{Content: content}})
}

// UserPromptMultipart builds a user message from typed content parts.
func (b messageBuilder) UserPromptMultipart(parts ...ContentPart) Message[UserMessage] {
	return envelope(b, UserMessage{Content: ContentOrParts{Parts: parts}})
}

// AssistantMessage builds a plain-text assistant message.
func (b messageBuilder) AssistantMessage(content string) Message[AssistantMessage] {
	return envelope(b, AssistantMessage{Content: AssistantContentOrParts{Content: content}})
}

// ToolCall builds a tool call message.
func (b messageBuilder) ToolCall(calls []ToolCallData) Message[ToolCallMessage] {
	return envelope(b, ToolCallMessage{ToolCalls: calls})
}

// ToolResponse builds the reply to a single tool call.
func (b messageBuilder) ToolResponse(callID, toolName, content string) Message[ToolResponse] {
	return envelope(b, ToolResponse{ToolCallID: callID, ToolName: toolName, Content: content})
}

// Retry builds a retry request after a failed tool call.
func (b messageBuilder) Retry(err error, toolName, callID string) Message[Retry] {
	return envelope(b, Retry{Error: err, ToolName: toolName, ToolCallID: callID})
}
