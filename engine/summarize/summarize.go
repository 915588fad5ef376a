package summarize

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/engine"
)

const defaultFanIn = 5

// Summarizer condenses candidate answers bottom-up: texts are chunked
// into groups of fanIn, each group is summarized with the model guided
// by the original question, and the produced summaries feed the next
// round until a single answer remains.
type Summarizer struct {
	model api.Model
	fanIn int
}

// FanIn sets how many texts are condensed per model call.
var FanIn = opts.ForName[Summarizer, int]("fanIn")

func New(model api.Model, options ...opts.Option[Summarizer]) *Summarizer {
	s := &Summarizer{
		model: model,
		fanIn: defaultFanIn,
	}
	if err := opts.Apply(s, options); err != nil {
		panic(err)
	}
	// groups of one would never shrink the candidate set
	if s.fanIn < 2 {
		s.fanIn = 2
	}
	return s
}

// Summarize reduces the texts to a single answer to the question. A
// single input short-circuits without a model call.
func (s *Summarizer) Summarize(ctx context.Context, question string, texts []string) (string, error) {
	if len(texts) == 0 {
		return "", errors.New("nothing to summarize")
	}

	for len(texts) > 1 {
		var next []string
		for group := range slices.Chunk(texts, s.fanIn) {
			summary, err := s.summarizeGroup(ctx, question, group)
			if err != nil {
				return "", err
			}
			next = append(next, summary)
		}
		texts = next
	}

	return texts[0], nil
}

func (s *Summarizer) summarizeGroup(ctx context.Context, question string, group []string) (string, error) {
	if len(group) == 1 {
		return group[0], nil
	}

	var sb strings.Builder
	for i, text := range group {
		fmt.Fprintf(&sb, "Candidate %d:\n%s\n\n", i+1, text)
	}

	instructions := `You condense several candidate answers into one.
Keep every fact relevant to the question, drop repetition, and note
disagreements between candidates. Respond with the combined answer
only.`

	prompt := fmt.Sprintf("Question: %s\n\n%s", question, sb.String())

	answer, err := engine.Complete(ctx, s.model, instructions, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	return answer, nil
}
