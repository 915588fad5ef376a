package messages

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Messages serialize with a type tag so a heterogeneous thread can be
// round-tripped through JSON, for checkpoints and the NATS event codec.

func payloadKind(payload ModelMessage) (string, error) {
	switch payload.(type) {
	case InstructionsMessage:
		return "instructions", nil
	case UserMessage:
		return "user", nil
	case AssistantMessage:
		return "assistant", nil
	case ToolCallMessage:
		return "tool_call", nil
	case ToolResponse:
		return "tool_response", nil
	case Retry:
		return "retry", nil
	default:
		return "", fmt.Errorf("unknown message payload type %T", payload)
	}
}

func (m Message[T]) MarshalJSON() ([]byte, error) {
	kind, err := payloadKind(m.Payload)
	if err != nil {
		return nil, err
	}

	result, err := sjson.SetBytes([]byte(`{}`), "type", kind)
	if err != nil {
		return nil, err
	}

	var payload any = m.Payload
	if r, ok := payload.(Retry); ok {
		// error values have no default JSON form
		shadow := struct {
			Error      string `json:"error,omitempty"`
			ToolName   string `json:"tool_name,omitempty"`
			ToolCallID string `json:"tool_call_id,omitempty"`
		}{ToolName: r.ToolName, ToolCallID: r.ToolCallID}
		if r.Error != nil {
			shadow.Error = r.Error.Error()
		}
		payload = shadow
	}

	pb, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	result, err = sjson.SetRawBytes(result, "payload", pb)
	if err != nil {
		return nil, err
	}

	if m.RunID.String() != "00000000-0000-0000-0000-000000000000" {
		if result, err = sjson.SetBytes(result, "run_id", m.RunID.String()); err != nil {
			return nil, err
		}
	}
	if m.TurnID.String() != "00000000-0000-0000-0000-000000000000" {
		if result, err = sjson.SetBytes(result, "turn_id", m.TurnID.String()); err != nil {
			return nil, err
		}
	}
	if m.Sender != "" {
		if result, err = sjson.SetBytes(result, "sender", m.Sender); err != nil {
			return nil, err
		}
	}
	if !m.Timestamp.IsZero() {
		if result, err = sjson.SetBytes(result, "timestamp", m.Timestamp.String()); err != nil {
			return nil, err
		}
	}
	if m.Meta.Exists() {
		if result, err = sjson.SetRawBytes(result, "meta", []byte(m.Meta.Raw)); err != nil {
			return nil, err
		}
	}

	return result, nil
}

func (m *Message[T]) UnmarshalJSON(data []byte) error {
	if !gjson.ValidBytes(data) {
		return fmt.Errorf("invalid json: %s", data)
	}

	msgType := gjson.GetBytes(data, "type")
	if !msgType.Exists() {
		return fmt.Errorf("missing required field 'type'")
	}

	raw := []byte(gjson.GetBytes(data, "payload").Raw)

	var payload ModelMessage
	switch msgType.String() {
	case "instructions":
		var p InstructionsMessage
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid instructions payload: %w", err)
		}
		payload = p
	case "user":
		var p UserMessage
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid user payload: %w", err)
		}
		payload = p
	case "assistant":
		var p AssistantMessage
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid assistant payload: %w", err)
		}
		payload = p
	case "tool_call":
		tc := gjson.GetBytes(raw, "tool_calls")
		if tc.Exists() && !tc.IsArray() {
			return fmt.Errorf("invalid tool_calls type in tool call")
		}
		var p ToolCallMessage
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid tool_call payload: %w", err)
		}
		payload = p
	case "tool_response":
		var p ToolResponse
		if err := json.Unmarshal(raw, &p); err != nil {
			return fmt.Errorf("invalid tool_response payload: %w", err)
		}
		payload = p
	case "retry":
		var shadow struct {
			Error      string `json:"error"`
			ToolName   string `json:"tool_name"`
			ToolCallID string `json:"tool_call_id"`
		}
		if err := json.Unmarshal(raw, &shadow); err != nil {
			return fmt.Errorf("invalid retry payload: %w", err)
		}
		p := Retry{ToolName: shadow.ToolName, ToolCallID: shadow.ToolCallID}
		if shadow.Error != "" {
			p.Error = errors.New(shadow.Error)
		}
		payload = p
	default:
		return fmt.Errorf("invalid message type %q", msgType.String())
	}

	typed, ok := payload.(T)
	if !ok {
		return fmt.Errorf("message type %q does not match %T", msgType.String(), m.Payload)
	}
	m.Payload = typed

	if runID := gjson.GetBytes(data, "run_id"); runID.Exists() {
		if err := m.RunID.UnmarshalText([]byte(runID.String())); err != nil {
			return fmt.Errorf("invalid run_id: %w", err)
		}
	}
	if turnID := gjson.GetBytes(data, "turn_id"); turnID.Exists() {
		if err := m.TurnID.UnmarshalText([]byte(turnID.String())); err != nil {
			return fmt.Errorf("invalid turn_id: %w", err)
		}
	}
	m.Sender = gjson.GetBytes(data, "sender").String()
	if timestamp := gjson.GetBytes(data, "timestamp"); timestamp.Exists() {
		if err := m.Timestamp.UnmarshalText([]byte(timestamp.String())); err != nil {
			return fmt.Errorf("invalid timestamp: %w", err)
		}
	}
	if meta := gjson.GetBytes(data, "meta"); meta.Exists() {
		m.Meta = meta
	}

	return nil
}
