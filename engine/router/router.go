package router

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/engine"
	"github.com/garcon-ai/garcon/engine/summarize"
	"github.com/garcon-ai/garcon/internal/executor"
	"github.com/garcon-ai/garcon/provider"
	"github.com/tidwall/gjson"
)

// Choice is a candidate engine the selector can route to. Description
// defaults to the engine's own.
type Choice struct {
	Engine      engine.QueryEngine
	Description string
}

func (c Choice) description() string {
	if c.Description != "" {
		return c.Description
	}
	return c.Engine.Description()
}

// Selection is the selector's pick: a zero-based choice index and the
// reason for it.
type Selection struct {
	Index  int    `json:"index" jsonschema_description:"zero-based index of the selected choice"`
	Reason string `json:"reason" jsonschema_description:"why this choice fits the question"`
}

type selectionReply struct {
	Selections []Selection `json:"selections"`
}

// Selector picks one or more choices by matching the question against
// their descriptions with the model.
type Selector struct {
	model      api.Model
	maxChoices int
}

// MaxChoices caps how many choices a single selection may return.
// The default of 1 gives single-select behavior.
var MaxChoices = opts.ForName[Selector, int]("maxChoices")

func NewSelector(model api.Model, options ...opts.Option[Selector]) *Selector {
	s := &Selector{
		model:      model,
		maxChoices: 1,
	}
	if err := opts.Apply(s, options); err != nil {
		panic(err)
	}
	if s.maxChoices < 1 {
		s.maxChoices = 1
	}
	return s
}

// Select asks the model which choices fit the question. It returns at
// least one selection; out-of-range indices are rejected.
func (s *Selector) Select(ctx context.Context, question string, choices []Choice) ([]Selection, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("no choices to select from")
	}

	var sb strings.Builder
	for i, c := range choices {
		fmt.Fprintf(&sb, "(%d) %s\n", i, c.description())
	}

	instructions := fmt.Sprintf(`You route a question to the most relevant choices.

The numbered choices:

%s
Select up to %d choices and give a short reason for each. Only select
choices that are relevant to the question.`, sb.String(), s.maxChoices)

	schema := &provider.StructuredOutput{
		Name:        "selections",
		Description: "the selected choices",
		Schema:      executor.ToJSONSchema[selectionReply](),
	}

	reply, err := engine.Complete(ctx, s.model, instructions, question, schema)
	if err != nil {
		return nil, fmt.Errorf("selection: %w", err)
	}

	parsed := gjson.Get(engine.StripFences(reply), "selections")
	if !parsed.IsArray() {
		return nil, fmt.Errorf("selection: malformed reply %q", reply)
	}

	var selections []Selection
	seen := make(map[int]bool)
	for _, sel := range parsed.Array() {
		idx := int(sel.Get("index").Int())
		if idx < 0 || idx >= len(choices) {
			return nil, fmt.Errorf("selection: index %d out of range [0,%d)", idx, len(choices))
		}
		if seen[idx] {
			continue
		}
		seen[idx] = true
		selections = append(selections, Selection{
			Index:  idx,
			Reason: sel.Get("reason").String(),
		})
		if len(selections) == s.maxChoices {
			break
		}
	}

	if len(selections) == 0 {
		return nil, fmt.Errorf("selection: model selected nothing")
	}
	return selections, nil
}

// Engine routes a question through a selector to sub-engines. A single
// selection dispatches directly; multiple selections fan out
// concurrently and their answers are condensed with the summarizer.
type Engine struct {
	name        string
	description string
	selector    *Selector
	summarizer  *summarize.Summarizer
	choices     []Choice
}

var _ engine.QueryEngine = (*Engine)(nil)

// New creates a router over the choices.
func New(name, description string, selector *Selector, summarizer *summarize.Summarizer, choices ...Choice) (*Engine, error) {
	if len(choices) == 0 {
		return nil, fmt.Errorf("router needs at least one choice")
	}
	return &Engine{
		name:        name,
		description: description,
		selector:    selector,
		summarizer:  summarizer,
		choices:     choices,
	}, nil
}

func (e *Engine) Name() string        { return e.name }
func (e *Engine) Description() string { return e.description }

func (e *Engine) Query(ctx context.Context, question string) (engine.Response, error) {
	selections, err := e.selector.Select(ctx, question, e.choices)
	if err != nil {
		return engine.Response{}, err
	}

	if len(selections) == 1 {
		return e.choices[selections[0].Index].Engine.Query(ctx, question)
	}

	// Fan out and gather everything: failed branches are reported
	// in-line rather than failing the whole query.
	answers := make([]string, len(selections))
	var wg sync.WaitGroup
	for i, sel := range selections {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := e.choices[sel.Index].Engine
			resp, err := sub.Query(ctx, question)
			if err != nil {
				answers[i] = fmt.Sprintf("%s failed: %v", sub.Name(), err)
				return
			}
			answers[i] = resp.Answer
		}()
	}
	wg.Wait()

	combined, err := e.summarizer.Summarize(ctx, question, answers)
	if err != nil {
		return engine.Response{}, err
	}
	return engine.Response{Answer: combined}, nil
}
