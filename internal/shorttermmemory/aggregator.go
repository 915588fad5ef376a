// Package shorttermmemory tracks the messages and token usage of a run.
// Aggregators fork for speculative work (tool turns, parallel engines)
// and join back in order once that work settles.
package shorttermmemory

import (
	"iter"
	"slices"

	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/pkg/uuidx"
	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// AggregatedMessages is an ordered collection of type-erased messages.
type AggregatedMessages []messages.Message[messages.ModelMessage]

func (a AggregatedMessages) Len() int {
	return len(a)
}

// New creates an empty aggregator with a fresh identity.
func New() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: make(AggregatedMessages, 0),
	}
}

// Aggregator is the conversation thread: an append-only message log plus
// usage accounting. It is not safe for concurrent use; fork before
// handing it to another goroutine.
type Aggregator struct {
	id       uuid.UUID
	messages AggregatedMessages
	initLen  int // length at fork time, used when joining
	usage    Usage
}

func (a *Aggregator) ID() uuid.UUID {
	return a.id
}

func (a *Aggregator) Len() int {
	return a.messages.Len()
}

// TurnLen reports how many messages were added since the last fork.
func (a *Aggregator) TurnLen() int {
	return len(a.messages) - a.initLen
}

// Messages returns a copy of the message log.
func (a *Aggregator) Messages() AggregatedMessages {
	return slices.Clone(a.messages)
}

// MessagesIter iterates the log without copying it.
func (a *Aggregator) MessagesIter() iter.Seq[messages.Message[messages.ModelMessage]] {
	return slices.Values(a.messages)
}

func eraseType[T messages.ModelMessage](m messages.Message[T]) messages.Message[messages.ModelMessage] {
	return messages.Message[messages.ModelMessage]{
		RunID:     m.RunID,
		TurnID:    m.TurnID,
		Payload:   m.Payload,
		Sender:    m.Sender,
		Timestamp: m.Timestamp,
		Meta:      m.Meta,
	}
}

// AddMessage appends any payload type to the aggregator. Prefer the
// typed Add methods where the payload type is known.
func AddMessage[T messages.ModelMessage](a *Aggregator, m messages.Message[T]) {
	a.add(eraseType(m))
}

func (a *Aggregator) AddUserPrompt(m messages.Message[messages.UserMessage]) {
	a.add(eraseType(m))
}

func (a *Aggregator) AddAssistantMessage(m messages.Message[messages.AssistantMessage]) {
	a.add(eraseType(m))
}

func (a *Aggregator) AddToolCall(m messages.Message[messages.ToolCallMessage]) {
	a.add(eraseType(m))
}

func (a *Aggregator) AddToolResponse(m messages.Message[messages.ToolResponse]) {
	a.add(eraseType(m))
}

func (a *Aggregator) add(m messages.Message[messages.ModelMessage]) {
	a.messages = append(a.messages, m)
}

func (a *Aggregator) Usage() Usage {
	return a.usage
}

func (a *Aggregator) AddUsage(u *Usage) {
	a.usage.AddUsage(u)
}

// Fork creates a new aggregator seeded with a copy of the current log.
// The fork remembers its starting length so Join can append only the
// messages added after the fork.
func (a *Aggregator) Fork() *Aggregator {
	return &Aggregator{
		id:       uuidx.New(),
		messages: slices.Clone(a.messages),
		initLen:  a.Len(),
	}
}

// Join appends the messages b accumulated after it was forked, and folds
// b's usage into this aggregator.
func (a *Aggregator) Join(b *Aggregator) {
	a.messages = append(a.messages, b.messages[b.initLen:]...)
	a.usage.AddUsage(&b.usage)
}

// Checkpoint snapshots the aggregator so providers can hand back a
// consistent view of the thread alongside a response.
func (a *Aggregator) Checkpoint() Checkpoint {
	return Checkpoint{
		id:       a.id,
		messages: slices.Clone(a.messages),
		usage:    a.usage,
		initLen:  a.initLen,
	}
}

// Checkpoint is an immutable snapshot of an aggregator.
type Checkpoint struct {
	id       uuid.UUID
	messages AggregatedMessages
	usage    Usage
	initLen  int
}

func (c *Checkpoint) ID() uuid.UUID {
	return c.id
}

func (c *Checkpoint) Messages() AggregatedMessages {
	return slices.Clone(c.messages)
}

func (c *Checkpoint) Usage() Usage {
	return c.usage
}

// MergeInto applies what the checkpoint captured after its fork point to
// another aggregator. Messages the target already holds are not applied
// twice, so merging a checkpoint into the aggregator it was taken from
// is a no-op. Usage stays with the source aggregator.
func (c *Checkpoint) MergeInto(other *Aggregator) {
	start := max(c.initLen, other.Len())
	if start < len(c.messages) {
		other.messages = append(other.messages, c.messages[start:]...)
	}
	if other.id == uuid.Nil {
		other.id = c.id
	}
}

func (c Checkpoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ID       string             `json:"id"`
		Messages AggregatedMessages `json:"messages"`
		Usage    Usage              `json:"usage"`
		InitLen  int                `json:"init_len"`
	}{
		ID:       c.id.String(),
		Messages: c.messages,
		Usage:    c.usage,
		InitLen:  c.initLen,
	})
}

func (c *Checkpoint) UnmarshalJSON(data []byte) error {
	var tmp struct {
		ID       string             `json:"id"`
		Messages AggregatedMessages `json:"messages"`
		Usage    Usage              `json:"usage"`
		InitLen  int                `json:"init_len"`
	}
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	id, err := uuid.Parse(tmp.ID)
	if err != nil {
		return err
	}
	c.id = id
	c.messages = tmp.Messages
	c.usage = tmp.Usage
	c.initLen = tmp.InitLen
	return nil
}
