package jsonquery

import (
	"context"
	"fmt"
	"strings"

	"github.com/fogfish/opts"
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/engine"
	"github.com/garcon-ai/garcon/internal/executor"
	"github.com/garcon-ai/garcon/provider"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// NoMatch marks a path that did not resolve against the document. The
// synthesizer sees misses and says so instead of failing the query.
const NoMatch = "<no match>"

// Engine answers natural language questions over an in-memory JSON
// value. It prompts the model with a compact outline of the document
// to produce gjson path expressions, evaluates them, and synthesizes
// an answer from the extracted values.
type Engine struct {
	name        string
	description string
	model       api.Model
	doc         gjson.Result
	outline     string
	raw         bool
}

var _ engine.QueryEngine = (*Engine)(nil)

// Raw disables answer synthesis: Query returns the extracted values
// as JSON instead of prose.
var Raw = opts.ForName[Engine, bool]("raw")

// New creates a JSON query engine over the document.
func New(name, description string, model api.Model, document []byte, options ...opts.Option[Engine]) (*Engine, error) {
	if !gjson.ValidBytes(document) {
		return nil, fmt.Errorf("invalid json document")
	}

	e := &Engine{
		name:        name,
		description: description,
		model:       model,
		doc:         gjson.ParseBytes(document),
	}
	e.outline = Outline(e.doc)

	if err := opts.Apply(e, options); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Engine) Name() string        { return e.name }
func (e *Engine) Description() string { return e.description }

type pathSelection struct {
	Paths []string `json:"paths" jsonschema_description:"gjson path expressions to evaluate against the document"`
}

func (e *Engine) Query(ctx context.Context, question string) (engine.Response, error) {
	paths, err := e.selectPaths(ctx, question)
	if err != nil {
		return engine.Response{}, err
	}

	values := make([]string, len(paths))
	for i, path := range paths {
		result := e.doc.Get(path)
		if !result.Exists() {
			values[i] = NoMatch
			continue
		}
		values[i] = result.Raw
	}

	meta, err := buildMeta(paths, values)
	if err != nil {
		return engine.Response{}, err
	}

	if e.raw {
		return engine.Response{
			Answer: meta.Get("values").Raw,
			Meta:   meta,
		}, nil
	}

	answer, err := e.synthesize(ctx, question, paths, values)
	if err != nil {
		return engine.Response{}, err
	}
	return engine.Response{Answer: answer, Meta: meta}, nil
}

func (e *Engine) selectPaths(ctx context.Context, question string) ([]string, error) {
	instructions := fmt.Sprintf(`You translate questions about a JSON document into gjson path expressions.

The document has this outline (path: type, sample):

%s

Use # to fan out over array elements, for example orders.#.customer.
Prefer a few precise paths over one broad one.`, e.outline)

	schema := &provider.StructuredOutput{
		Name:        "path_selection",
		Description: "gjson paths answering the question",
		Schema:      executor.ToJSONSchema[pathSelection](),
	}

	reply, err := engine.Complete(ctx, e.model, instructions, question, schema)
	if err != nil {
		return nil, fmt.Errorf("path selection: %w", err)
	}

	parsed := gjson.Get(engine.StripFences(reply), "paths")
	if !parsed.IsArray() {
		return nil, fmt.Errorf("path selection: malformed reply %q", reply)
	}

	var paths []string
	for _, p := range parsed.Array() {
		if p.String() != "" {
			paths = append(paths, p.String())
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("path selection: model selected no paths")
	}
	return paths, nil
}

func (e *Engine) synthesize(ctx context.Context, question string, paths, values []string) (string, error) {
	var sb strings.Builder
	for i, path := range paths {
		fmt.Fprintf(&sb, "%s => %s\n", path, values[i])
	}

	instructions := `You answer a question using values extracted from a JSON document.
Each line below is "path => value". A value of ` + NoMatch + ` means the
path did not resolve; when the data needed for the answer is missing,
say so plainly. Answer concisely and do not mention paths.`

	prompt := fmt.Sprintf("Question: %s\n\nExtracted values:\n%s", question, sb.String())

	answer, err := engine.Complete(ctx, e.model, instructions, prompt, nil)
	if err != nil {
		return "", fmt.Errorf("synthesis: %w", err)
	}
	return answer, nil
}

func buildMeta(paths, values []string) (gjson.Result, error) {
	meta := []byte(`{}`)

	var err error
	for i, path := range paths {
		meta, err = sjson.SetBytes(meta, fmt.Sprintf("paths.%d", i), path)
		if err != nil {
			return gjson.Result{}, err
		}
		if values[i] == NoMatch {
			meta, err = sjson.SetBytes(meta, fmt.Sprintf("values.%d", i), NoMatch)
		} else {
			meta, err = sjson.SetRawBytes(meta, fmt.Sprintf("values.%d", i), []byte(values[i]))
		}
		if err != nil {
			return gjson.Result{}, err
		}
	}
	return gjson.ParseBytes(meta), nil
}
