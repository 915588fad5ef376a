package events

import (
	"errors"
	"fmt"

	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/provider"
	"github.com/go-openapi/strfmt"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var (
	delimJSON    = []byte(`{"type":"delim"}`)
	chunkJSON    = []byte(`{"type":"chunk"}`)
	requestJSON  = []byte(`{"type":"request"}`)
	responseJSON = []byte(`{"type":"response"}`)
	resultJSON   = []byte(`{"type":"result"}`)
	errorJSON    = []byte(`{"type":"error"}`)
)

// Event is the union of everything that can travel over a topic.
type Event interface {
	event()
}

// FromStreamEvent lifts a provider stream event into a pub/sub event,
// stamping it with the sending agent's name.
func FromStreamEvent(e provider.StreamEvent, sender string) Event {
	switch event := e.(type) {
	case provider.Delim:
		return Delim{Delim: event.Delim}
	case provider.Chunk[messages.ToolCallMessage]:
		return Chunk[messages.ToolCallMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Chunk:     event.Chunk,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Chunk[messages.AssistantMessage]:
		return Chunk[messages.AssistantMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Chunk:     event.Chunk,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Response[messages.ToolCallMessage]:
		return Response[messages.ToolCallMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Response:  event.Response,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Response[messages.AssistantMessage]:
		return Response[messages.AssistantMessage]{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Response:  event.Response,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	case provider.Error:
		return Error{
			RunID:     event.RunID,
			TurnID:    event.TurnID,
			Err:       event.Err,
			Sender:    sender,
			Timestamp: event.Timestamp,
			Meta:      event.Meta,
		}
	default:
		panic(fmt.Sprintf("unknown event type: %T", event))
	}
}

// payloadKind maps a message payload to the discriminator used when an
// event crosses a process boundary.
func payloadKind(payload messages.ModelMessage) (string, error) {
	switch payload.(type) {
	case messages.UserMessage:
		return "user", nil
	case messages.AssistantMessage:
		return "assistant", nil
	case messages.ToolCallMessage:
		return "tool_call", nil
	case messages.ToolResponse:
		return "tool_response", nil
	default:
		return "", fmt.Errorf("unknown payload type %T", payload)
	}
}

func marshalPayload(payload messages.ModelMessage) ([]byte, error) {
	kind, err := payloadKind(payload)
	if err != nil {
		return nil, err
	}
	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(pb, "type", kind)
}

type Delim struct {
	RunID  uuid.UUID `json:"run_id"`
	TurnID uuid.UUID `json:"turn_id"`
	Delim  string    `json:"delim"`
}

func (Delim) event() {}

func (d Delim) MarshalJSON() ([]byte, error) {
	result := delimJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", d.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", d.TurnID.String())
	if err != nil {
		return nil, err
	}

	return sjson.SetBytes(result, "delim", d.Delim)
}

func (d *Delim) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "delim" {
		return fmt.Errorf("missing or invalid type, expected 'delim'")
	}

	if err := unmarshalIDs(data, &d.RunID, &d.TurnID); err != nil {
		return err
	}

	delim := gjson.GetBytes(data, "delim")
	if !delim.Exists() {
		return fmt.Errorf("missing required field 'delim'")
	}
	d.Delim = delim.String()

	return nil
}

type Chunk[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Chunk     T               `json:"chunk"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Chunk[T]) event() {}

func (c Chunk[T]) MarshalJSON() ([]byte, error) {
	result := chunkJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", c.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", c.TurnID.String())
	if err != nil {
		return nil, err
	}

	chunkBytes, err := marshalPayload(c.Chunk)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chunk: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "chunk", chunkBytes)
	if err != nil {
		return nil, err
	}

	return marshalTail(result, c.Sender, c.Timestamp, c.Meta)
}

func (c *Chunk[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "chunk" {
		return fmt.Errorf("missing or invalid type, expected 'chunk'")
	}

	if err := unmarshalIDs(data, &c.RunID, &c.TurnID); err != nil {
		return err
	}

	chunk := gjson.GetBytes(data, "chunk")
	if !chunk.Exists() {
		return fmt.Errorf("missing required field 'chunk'")
	}
	if err := json.Unmarshal([]byte(chunk.Raw), &c.Chunk); err != nil {
		return fmt.Errorf("invalid chunk: %w", err)
	}

	c.Sender, c.Timestamp, c.Meta = unmarshalTail(data)
	return nil
}

type Request[T messages.Request] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Message   T               `json:"message"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Request[T]) event() {}

func (r Request[T]) MarshalJSON() ([]byte, error) {
	result := requestJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", r.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", r.TurnID.String())
	if err != nil {
		return nil, err
	}

	messageBytes, err := marshalPayload(r.Message)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal message: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "message", messageBytes)
	if err != nil {
		return nil, err
	}

	return marshalTail(result, r.Sender, r.Timestamp, r.Meta)
}

func (r *Request[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "request" {
		return fmt.Errorf("missing or invalid type, expected 'request'")
	}

	if err := unmarshalIDs(data, &r.RunID, &r.TurnID); err != nil {
		return err
	}

	message := gjson.GetBytes(data, "message")
	if !message.Exists() {
		return fmt.Errorf("missing required field 'message'")
	}
	if err := json.Unmarshal([]byte(message.Raw), &r.Message); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}

	r.Sender, r.Timestamp, r.Meta = unmarshalTail(data)
	return nil
}

type Response[T messages.Response] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Response  T               `json:"response"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Response[T]) event() {}

func (r Response[T]) MarshalJSON() ([]byte, error) {
	result := responseJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", r.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", r.TurnID.String())
	if err != nil {
		return nil, err
	}

	responseBytes, err := marshalPayload(r.Response)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal response: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "response", responseBytes)
	if err != nil {
		return nil, err
	}

	return marshalTail(result, r.Sender, r.Timestamp, r.Meta)
}

func (r *Response[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "response" {
		return fmt.Errorf("missing or invalid type, expected 'response'")
	}

	if err := unmarshalIDs(data, &r.RunID, &r.TurnID); err != nil {
		return err
	}

	response := gjson.GetBytes(data, "response")
	if !response.Exists() {
		return fmt.Errorf("missing required field 'response'")
	}
	if err := json.Unmarshal([]byte(response.Raw), &r.Response); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}

	r.Sender, r.Timestamp, r.Meta = unmarshalTail(data)
	return nil
}

type Result[T any] struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Result    T               `json:"result"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Result[T]) event() {}

func (r Result[T]) MarshalJSON() ([]byte, error) {
	result := resultJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", r.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", r.TurnID.String())
	if err != nil {
		return nil, err
	}

	resultBytes, err := json.Marshal(r.Result)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}
	result, err = sjson.SetRawBytes(result, "result", resultBytes)
	if err != nil {
		return nil, err
	}

	return marshalTail(result, r.Sender, r.Timestamp, r.Meta)
}

func (r *Result[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "result" {
		return fmt.Errorf("missing or invalid type, expected 'result'")
	}

	if err := unmarshalIDs(data, &r.RunID, &r.TurnID); err != nil {
		return err
	}

	res := gjson.GetBytes(data, "result")
	if !res.Exists() {
		return fmt.Errorf("missing required field 'result'")
	}
	if err := json.Unmarshal([]byte(res.Raw), &r.Result); err != nil {
		return fmt.Errorf("invalid result: %w", err)
	}

	r.Sender, r.Timestamp, r.Meta = unmarshalTail(data)
	return nil
}

type Error struct {
	RunID     uuid.UUID       `json:"run_id"`
	TurnID    uuid.UUID       `json:"turn_id"`
	Err       error           `json:"error"`
	Sender    string          `json:"sender,omitempty"`
	Timestamp strfmt.DateTime `json:"timestamp,omitempty"`
	Meta      gjson.Result    `json:"meta,omitempty"`
}

func (Error) event() {}

func (e Error) MarshalJSON() ([]byte, error) {
	result := errorJSON

	var err error
	result, err = sjson.SetBytes(result, "run_id", e.RunID.String())
	if err != nil {
		return nil, err
	}

	result, err = sjson.SetBytes(result, "turn_id", e.TurnID.String())
	if err != nil {
		return nil, err
	}

	if e.Err != nil {
		result, err = sjson.SetBytes(result, "error", e.Err.Error())
		if err != nil {
			return nil, err
		}
	}

	return marshalTail(result, e.Sender, e.Timestamp, e.Meta)
}

func (e *Error) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() || msgType.String() != "error" {
		return fmt.Errorf("missing or invalid type, expected 'error'")
	}

	if err := unmarshalIDs(data, &e.RunID, &e.TurnID); err != nil {
		return err
	}

	errMsg := gjson.GetBytes(data, "error")
	if !errMsg.Exists() {
		return errors.New("missing required field 'error'")
	}
	e.Err = errors.New(errMsg.String())

	e.Sender, e.Timestamp, e.Meta = unmarshalTail(data)
	return nil
}

func (e Error) Error() string {
	errStr := "<nil>"
	if e.Err != nil {
		errStr = e.Err.Error()
	}
	return fmt.Sprintf("%s run_id=%s turn_id=%s", errStr, e.RunID, e.TurnID)
}

func marshalTail(result []byte, sender string, timestamp strfmt.DateTime, meta gjson.Result) ([]byte, error) {
	var err error
	if sender != "" {
		result, err = sjson.SetBytes(result, "sender", sender)
		if err != nil {
			return nil, err
		}
	}

	if !timestamp.IsZero() {
		result, err = sjson.SetBytes(result, "timestamp", timestamp.String())
		if err != nil {
			return nil, err
		}
	}

	if meta.Exists() {
		result, err = sjson.SetRawBytes(result, "meta", []byte(meta.Raw))
		if err != nil {
			return nil, err
		}
	}

	return result, nil
}

func unmarshalTail(data []byte) (string, strfmt.DateTime, gjson.Result) {
	var sender string
	var timestamp strfmt.DateTime
	var meta gjson.Result

	if s := gjson.GetBytes(data, "sender"); s.Exists() {
		sender = s.String()
	}
	if ts := gjson.GetBytes(data, "timestamp"); ts.Exists() {
		// a bad timestamp leaves the zero value in place
		_ = timestamp.UnmarshalText([]byte(ts.String()))
	}
	if m := gjson.GetBytes(data, "meta"); m.Exists() {
		meta = m
	}
	return sender, timestamp, meta
}

func unmarshalIDs(data []byte, runID, turnID *uuid.UUID) error {
	rid := gjson.GetBytes(data, "run_id")
	if !rid.Exists() {
		return fmt.Errorf("missing required field 'run_id'")
	}
	if err := runID.UnmarshalText([]byte(rid.String())); err != nil {
		return fmt.Errorf("invalid run_id: %w", err)
	}

	tid := gjson.GetBytes(data, "turn_id")
	if !tid.Exists() {
		return fmt.Errorf("missing required field 'turn_id'")
	}
	if err := turnID.UnmarshalText([]byte(tid.String())); err != nil {
		return fmt.Errorf("invalid turn_id: %w", err)
	}
	return nil
}
