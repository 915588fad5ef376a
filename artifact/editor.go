package artifact

import (
	"context"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/garcon-ai/garcon/pkg/uuidx"
	"github.com/garcon-ai/garcon/tool"
)

// Editor binds a store, a schema, and an artifact kind, and exposes
// the edit operations both as methods and as tool definitions an agent
// can call.
type Editor struct {
	store  Store
	kind   string
	schema []byte
}

// NewEditor creates an editor for artifacts of the given kind,
// validated against the JSON schema.
func NewEditor(store Store, kind string, schema []byte) *Editor {
	return &Editor{store: store, kind: kind, schema: schema}
}

// Create saves a new empty artifact draft.
func (e *Editor) Create(ctx context.Context) (Artifact, error) {
	now := time.Now()
	a := Artifact{
		ID:        uuidx.NewString(),
		Kind:      e.kind,
		Document:  []byte("{}"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := e.store.Put(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Edit applies one patch to the artifact and saves the new version.
func (e *Editor) Edit(ctx context.Context, id string, p Patch) (Artifact, error) {
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	if err := a.Apply(p); err != nil {
		return Artifact{}, err
	}
	if err := e.store.Put(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// Show returns the latest version of the artifact.
func (e *Editor) Show(ctx context.Context, id string) (Artifact, error) {
	return e.store.Get(ctx, id)
}

// Validate checks the artifact document against the editor's schema.
func (e *Editor) Validate(ctx context.Context, id string) (ValidationResult, error) {
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return ValidationResult{}, err
	}
	return Validate(e.schema, a.Document)
}

// Finalize marks the artifact as complete. It fails when the document
// does not validate against the schema.
func (e *Editor) Finalize(ctx context.Context, id string) (Artifact, error) {
	a, err := e.store.Get(ctx, id)
	if err != nil {
		return Artifact{}, err
	}
	if a.Final {
		return a, nil
	}

	result, err := Validate(e.schema, a.Document)
	if err != nil {
		return Artifact{}, err
	}
	if !result.Valid {
		return Artifact{}, fmt.Errorf("artifact %s does not validate: %s", id, strings.Join(result.Errors, "; "))
	}

	a.Final = true
	a.Version++
	a.UpdatedAt = time.Now()
	if err := e.store.Put(ctx, a); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

// History returns every saved version of the artifact.
func (e *Editor) History(ctx context.Context, id string) ([]Artifact, error) {
	return e.store.History(ctx, id)
}

// Tools returns the tool definitions an agent needs to drive the
// editor. Failures come back as "error:" strings so the model can read
// them and correct course instead of aborting the run.
func (e *Editor) Tools() []tool.Definition {
	return []tool.Definition{
		tool.Must(e.createTool,
			tool.Name("artifact_create"),
			tool.Description(fmt.Sprintf("Create a new empty %s artifact. Returns the artifact id.", e.kind)),
		),
		tool.Must(e.editTool,
			tool.Name("artifact_edit"),
			tool.Description("Apply one edit operation to the artifact document. op is one of set, append, remove. path addresses a field, like items.0.name. value is the JSON value for set and append. Returns the updated document."),
			tool.Parameters("id", "op", "path", "value"),
		),
		tool.Must(e.showTool,
			tool.Name("artifact_show"),
			tool.Description("Show the current artifact document."),
			tool.Parameters("id"),
		),
		tool.Must(e.validateTool,
			tool.Name("artifact_validate"),
			tool.Description("Validate the artifact against its schema. Returns the validation result with any errors."),
			tool.Parameters("id"),
		),
		tool.Must(e.finalizeTool,
			tool.Name("artifact_finalize"),
			tool.Description("Finalize the artifact. Only valid artifacts can be finalized."),
			tool.Parameters("id"),
		),
	}
}

// Tool returns the single tool definition registered under name.
func (e *Editor) Tool(name string) (tool.Definition, bool) {
	for _, def := range e.Tools() {
		if def.Name == name {
			return def, true
		}
	}
	return tool.Definition{}, false
}

func (e *Editor) createTool() string {
	a, err := e.Create(context.Background())
	if err != nil {
		return "error: " + err.Error()
	}
	return a.ID
}

func (e *Editor) editTool(id, op, path, value string) string {
	a, err := e.Edit(context.Background(), id, Patch{Op: Op(op), Path: path, Value: value})
	if err != nil {
		return "error: " + err.Error()
	}
	return string(a.Document)
}

func (e *Editor) showTool(id string) string {
	a, err := e.Show(context.Background(), id)
	if err != nil {
		return "error: " + err.Error()
	}
	return string(a.Document)
}

func (e *Editor) validateTool(id string) string {
	result, err := e.Validate(context.Background(), id)
	if err != nil {
		return "error: " + err.Error()
	}
	b, err := json.Marshal(result)
	if err != nil {
		return "error: " + err.Error()
	}
	return string(b)
}

func (e *Editor) finalizeTool(id string) string {
	a, err := e.Finalize(context.Background(), id)
	if err != nil {
		return "error: " + err.Error()
	}
	return fmt.Sprintf("finalized %s at version %d", a.ID, a.Version)
}
