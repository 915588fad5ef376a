package events

import (
	"fmt"

	"github.com/garcon-ai/garcon/messages"
	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// ToJSON serializes an event for transport.
func ToJSON(event Event) ([]byte, error) {
	return json.Marshal(event)
}

// FromJSON decodes a wire event. The payload discriminator written by
// the marshalers decides which concrete event type comes back; result
// payloads decode into Result[any] because the concrete type is not
// recoverable from the wire.
func FromJSON(data []byte) (Event, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid json: %s", data)
	}

	typ := gjson.GetBytes(data, "type")
	if !typ.Exists() {
		return nil, fmt.Errorf("missing required field 'type'")
	}

	switch typ.String() {
	case "delim":
		var d Delim
		if err := d.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return d, nil
	case "chunk":
		switch kind := gjson.GetBytes(data, "chunk.type").String(); kind {
		case "assistant":
			var c Chunk[messages.AssistantMessage]
			if err := c.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return c, nil
		case "tool_call":
			var c Chunk[messages.ToolCallMessage]
			if err := c.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return c, nil
		default:
			return nil, fmt.Errorf("unknown chunk payload type %q", kind)
		}
	case "request":
		switch kind := gjson.GetBytes(data, "message.type").String(); kind {
		case "user":
			var r Request[messages.UserMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		case "tool_response":
			var r Request[messages.ToolResponse]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		default:
			return nil, fmt.Errorf("unknown request payload type %q", kind)
		}
	case "response":
		switch kind := gjson.GetBytes(data, "response.type").String(); kind {
		case "assistant":
			var r Response[messages.AssistantMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		case "tool_call":
			var r Response[messages.ToolCallMessage]
			if err := r.UnmarshalJSON(data); err != nil {
				return nil, err
			}
			return r, nil
		default:
			return nil, fmt.Errorf("unknown response payload type %q", kind)
		}
	case "result":
		var r Result[any]
		if err := r.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return r, nil
	case "error":
		var e Error
		if err := e.UnmarshalJSON(data); err != nil {
			return nil, err
		}
		return e, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", typ.String())
	}
}
