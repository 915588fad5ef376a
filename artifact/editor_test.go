package artifact

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var orderSchema = []byte(`{
	"type": "object",
	"properties": {
		"customer": {"type": "string"},
		"items": {
			"type": "array",
			"minItems": 1,
			"items": {
				"type": "object",
				"properties": {
					"name": {"type": "string"},
					"qty": {"type": "integer", "minimum": 1}
				},
				"required": ["name", "qty"]
			}
		}
	},
	"required": ["customer", "items"]
}`)

func newOrderEditor() *Editor {
	return NewEditor(NewMemoryStore(), "order", orderSchema)
}

func TestEditorLifecycle(t *testing.T) {
	ctx := context.Background()
	e := newOrderEditor()

	a, err := e.Create(ctx)
	require.NoError(t, err)
	assert.Equal(t, "order", a.Kind)
	assert.Equal(t, int64(0), a.Version)
	assert.JSONEq(t, `{}`, string(a.Document))

	a, err = e.Edit(ctx, a.ID, Patch{Op: OpSet, Path: "customer", Value: "Alice"})
	require.NoError(t, err)
	a, err = e.Edit(ctx, a.ID, Patch{Op: OpAppend, Path: "items", Value: `{"name":"soup","qty":1}`})
	require.NoError(t, err)
	assert.Equal(t, int64(2), a.Version)

	result, err := e.Validate(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, result.Valid)

	final, err := e.Finalize(ctx, a.ID)
	require.NoError(t, err)
	assert.True(t, final.Final)

	// Finalized artifacts reject further edits.
	_, err = e.Edit(ctx, a.ID, Patch{Op: OpSet, Path: "customer", Value: "Bob"})
	require.Error(t, err)

	history, err := e.History(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, history, 4)
}

func TestEditorFinalizeInvalid(t *testing.T) {
	ctx := context.Background()
	e := newOrderEditor()

	a, err := e.Create(ctx)
	require.NoError(t, err)

	_, err = e.Finalize(ctx, a.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not validate")

	// The failed finalize must not mark the draft final.
	got, err := e.Show(ctx, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Final)
}

func TestEditorMissingArtifact(t *testing.T) {
	ctx := context.Background()
	e := newOrderEditor()

	_, err := e.Edit(ctx, "nope", Patch{Op: OpSet, Path: "customer", Value: "Alice"})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Validate(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = e.Finalize(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEditorTools(t *testing.T) {
	e := newOrderEditor()
	tools := e.Tools()
	require.Len(t, tools, 5)

	names := make([]string, 0, len(tools))
	for _, td := range tools {
		names = append(names, td.Name)
	}
	assert.Equal(t, []string{
		"artifact_create",
		"artifact_edit",
		"artifact_show",
		"artifact_validate",
		"artifact_finalize",
	}, names)

	edit, found := e.Tool("artifact_edit")
	require.True(t, found)
	assert.Equal(t, "artifact_edit", edit.Name)
	_, found = e.Tool("artifact_burn")
	assert.False(t, found)

	id := e.createTool()
	require.NotContains(t, id, "error:")

	doc := e.editTool(id, "set", "customer", "Alice")
	assert.Equal(t, "Alice", gjson.Get(doc, "customer").String())

	doc = e.editTool(id, "append", "items", `{"name":"soup","qty":2}`)
	assert.Equal(t, int64(2), gjson.Get(doc, "items.0.qty").Int())

	shown := e.showTool(id)
	assert.JSONEq(t, doc, shown)

	validation := e.validateTool(id)
	assert.True(t, gjson.Get(validation, "valid").Bool())

	finalized := e.finalizeTool(id)
	assert.Contains(t, finalized, "finalized")

	// Errors come back as readable strings, not Go errors.
	assert.Contains(t, e.editTool("nope", "set", "customer", "Bob"), "error:")
	assert.Contains(t, e.editTool(id, "replace", "customer", "Bob"), "error:")
}
