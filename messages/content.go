package messages

import (
	"encoding/base64"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

var jsonNull = []byte(`null`)

// ContentOrParts is the body of a user message: either a plain string or
// a list of typed parts (text, image, audio).
type ContentOrParts struct {
	Content string
	Parts   []ContentPart
	_       struct{} // require keyed usage
}

func (c ContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

func (c *ContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]ContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "image":
				var part ImageContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid image part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "audio":
				var part AudioContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid audio part at %d: %w", idx, err)
				}
				parts[idx] = &part
			default:
				return fmt.Errorf("content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// AssistantContentOrParts is the body of an assistant message: plain
// text, a refusal, or a list of text and refusal parts. Content and
// Refusal are mutually exclusive.
type AssistantContentOrParts struct {
	Content string
	Refusal string
	Parts   []AssistantContentPart
	_       struct{} // require keyed usage
}

func (c AssistantContentOrParts) MarshalJSON() ([]byte, error) {
	if strings.TrimSpace(c.Content) != "" && strings.TrimSpace(c.Refusal) != "" {
		return nil, fmt.Errorf("both Content and Refusal are set")
	}
	if strings.TrimSpace(c.Content) != "" {
		return json.Marshal(c.Content)
	}
	if strings.TrimSpace(c.Refusal) != "" {
		return json.Marshal(c.Refusal)
	}
	if c.Parts == nil {
		return jsonNull, nil
	}
	return json.Marshal(c.Parts)
}

func (c *AssistantContentOrParts) UnmarshalJSON(input []byte) error {
	if !gjson.ValidBytes(input) {
		return fmt.Errorf("invalid json: %s", input)
	}
	jv := gjson.ParseBytes(input)
	if jv.IsArray() {
		aj := jv.Array()
		parts := make([]AssistantContentPart, len(aj))
		for idx, ajv := range aj {
			tpe := ajv.Get("type").String()
			switch tpe {
			case "text":
				var part TextContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid assistant text part at %d: %w", idx, err)
				}
				parts[idx] = part
			case "refusal":
				var part RefusalContentPart
				if err := part.UnmarshalJSON([]byte(ajv.Raw)); err != nil {
					return fmt.Errorf("invalid refusal part at %d: %w", idx, err)
				}
				parts[idx] = part
			default:
				return fmt.Errorf("assistant content part at %d has an unknown type %q", idx, tpe)
			}
		}
		c.Parts = parts
		return nil
	}
	c.Content = jv.String()
	return nil
}

// ContentPart is a single element of a multi-part user message.
type ContentPart interface {
	contentPart()
}

// AssistantContentPart is a single element of a multi-part assistant
// message.
type AssistantContentPart interface {
	assistantContentPart()
}

// Text builds a text content part.
func Text(text string) TextContentPart {
	return TextContentPart{Text: text}
}

// Image builds an image content part from a URL.
func Image(url string) ImageContentPart {
	return ImageContentPart{URL: url}
}

// Audio builds an audio content part from raw data.
func Audio(data []byte, format string) *AudioContentPart {
	return &AudioContentPart{InputAudio: InputAudio{Data: data, Format: format}}
}

// Refusal builds a refusal content part.
func Refusal(refusal string) RefusalContentPart {
	return RefusalContentPart{Refusal: refusal}
}

type TextContentPart struct {
	Text string `json:"text"`
	_    struct{}
}

func (TextContentPart) contentPart()          {}
func (TextContentPart) assistantContentPart() {}

func (t TextContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes([]byte(`{"type":"text"}`), "text", t.Text)
}

func (t *TextContentPart) UnmarshalJSON(data []byte) error {
	text := gjson.GetBytes(data, "text")
	if !text.Exists() {
		return fmt.Errorf("missing required field 'text'")
	}
	t.Text = text.String()
	return nil
}

type ImageContentPart struct {
	URL    string `json:"url"`
	Detail string `json:"detail,omitempty"`
	_      struct{}
}

func (ImageContentPart) contentPart() {}

func (i ImageContentPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes([]byte(`{"type":"image"}`), "url", i.URL)
	if err != nil {
		return nil, err
	}
	if i.Detail != "" {
		result, err = sjson.SetBytes(result, "detail", i.Detail)
	}
	return result, err
}

func (i *ImageContentPart) UnmarshalJSON(data []byte) error {
	url := gjson.GetBytes(data, "url")
	if !url.Exists() {
		return fmt.Errorf("missing required field 'url'")
	}
	i.URL = url.String()
	i.Detail = gjson.GetBytes(data, "detail").String()
	return nil
}

type InputAudio struct {
	Data   []byte `json:"data"`
	Format string `json:"format"`
	_      struct{}
}

type AudioContentPart struct {
	InputAudio InputAudio `json:"input_audio"`
	_          struct{}
}

func (*AudioContentPart) contentPart() {}

func (a AudioContentPart) MarshalJSON() ([]byte, error) {
	result, err := sjson.SetBytes([]byte(`{"type":"audio"}`), "input_audio.data", base64.StdEncoding.EncodeToString(a.InputAudio.Data))
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(result, "input_audio.format", a.InputAudio.Format)
}

func (a *AudioContentPart) UnmarshalJSON(data []byte) error {
	audio := gjson.GetBytes(data, "input_audio")
	if !audio.Exists() {
		return fmt.Errorf("missing required field 'input_audio'")
	}
	decoded, err := base64.StdEncoding.DecodeString(audio.Get("data").String())
	if err != nil {
		return fmt.Errorf("invalid audio data: %w", err)
	}
	a.InputAudio.Data = decoded
	a.InputAudio.Format = audio.Get("format").String()
	return nil
}

type RefusalContentPart struct {
	Refusal string `json:"refusal"`
	_       struct{}
}

func (RefusalContentPart) assistantContentPart() {}

func (r RefusalContentPart) MarshalJSON() ([]byte, error) {
	return sjson.SetBytes([]byte(`{"type":"refusal"}`), "refusal", r.Refusal)
}

func (r *RefusalContentPart) UnmarshalJSON(data []byte) error {
	refusal := gjson.GetBytes(data, "refusal")
	if !refusal.Exists() {
		return fmt.Errorf("missing required field 'refusal'")
	}
	r.Refusal = refusal.String()
	return nil
}
