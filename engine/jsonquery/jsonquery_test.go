package jsonquery

import (
	"context"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/provider"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

var menuDoc = []byte(`{
	"restaurant": "Chez Garcon",
	"open": true,
	"menu": [
		{"name": "Croque Monsieur", "price": 12.5},
		{"name": "Onion Soup", "price": 9}
	]
}`)

type scriptedProvider struct {
	mu      sync.Mutex
	replies []string
	params  []provider.CompletionParams
}

func (p *scriptedProvider) ChatCompletion(ctx context.Context, params provider.CompletionParams) (<-chan provider.StreamEvent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.params = append(p.params, params)

	var reply string
	if len(p.replies) > 0 {
		reply = p.replies[0]
		p.replies = p.replies[1:]
	}

	ch := make(chan provider.StreamEvent, 1)
	if reply != "" {
		ch <- provider.Response[messages.AssistantMessage]{
			RunID:    params.RunID,
			Response: messages.AssistantMessage{Content: messages.AssistantContentOrParts{Content: reply}},
		}
	}
	close(ch)
	return ch, nil
}

type scriptedModel struct {
	provider provider.Provider
}

func (m scriptedModel) Name() string                { return "scripted_model" }
func (m scriptedModel) Provider() provider.Provider { return m.provider }

func newEngine(t *testing.T, prov *scriptedProvider) *Engine {
	t.Helper()
	e, err := New("menu", "answers questions about the menu", scriptedModel{provider: prov}, menuDoc)
	require.NoError(t, err)
	return e
}

func userPrompt(t *testing.T, params provider.CompletionParams) string {
	t.Helper()
	for _, msg := range params.Thread.Messages() {
		if um, ok := msg.Payload.(messages.UserMessage); ok {
			return um.Content.Content
		}
	}
	t.Fatal("no user prompt in thread")
	return ""
}

func TestNew(t *testing.T) {
	t.Run("rejects invalid json", func(t *testing.T) {
		_, err := New("bad", "", scriptedModel{}, []byte(`{"oops"`))
		require.EqualError(t, err, "invalid json document")
	})

	t.Run("computes an outline", func(t *testing.T) {
		e := newEngine(t, &scriptedProvider{})
		assert.Contains(t, e.outline, "restaurant: string")
		assert.Equal(t, "menu", e.Name())
		assert.Equal(t, "answers questions about the menu", e.Description())
	})
}

func TestQuery(t *testing.T) {
	t.Run("selects paths then synthesizes", func(t *testing.T) {
		prov := &scriptedProvider{replies: []string{
			`{"paths": ["menu.#.name"]}`,
			"We serve Croque Monsieur and Onion Soup.",
		}}
		e := newEngine(t, prov)

		resp, err := e.Query(context.Background(), "what do you serve?")
		require.NoError(t, err)
		assert.Equal(t, "We serve Croque Monsieur and Onion Soup.", resp.Answer)
		assert.Equal(t, "menu.#.name", resp.Meta.Get("paths.0").String())
		assert.Equal(t, `["Croque Monsieur","Onion Soup"]`, resp.Meta.Get("values.0").Raw)

		require.Len(t, prov.params, 2)
		assert.Contains(t, prov.params[0].Instructions, e.outline)
		assert.NotNil(t, prov.params[0].ResponseSchema)
		assert.Contains(t, userPrompt(t, prov.params[1]), "menu.#.name =>")
	})

	t.Run("fenced path reply is tolerated", func(t *testing.T) {
		prov := &scriptedProvider{replies: []string{
			"```json\n{\"paths\": [\"restaurant\"]}\n```",
			"The restaurant is Chez Garcon.",
		}}
		e := newEngine(t, prov)

		resp, err := e.Query(context.Background(), "what is the restaurant called?")
		require.NoError(t, err)
		assert.Equal(t, "The restaurant is Chez Garcon.", resp.Answer)
	})

	t.Run("raw mode skips synthesis", func(t *testing.T) {
		prov := &scriptedProvider{replies: []string{`{"paths": ["menu.0.price", "open"]}`}}
		e, err := New("menu", "", scriptedModel{provider: prov}, menuDoc, Raw(true))
		require.NoError(t, err)

		resp, err := e.Query(context.Background(), "how much is the croque?")
		require.NoError(t, err)
		assert.Equal(t, `[12.5,true]`, resp.Answer)
		assert.Len(t, prov.params, 1)
	})

	t.Run("unresolved paths become misses", func(t *testing.T) {
		prov := &scriptedProvider{replies: []string{
			`{"paths": ["chef.name"]}`,
			"I don't know who the chef is.",
		}}
		e := newEngine(t, prov)

		resp, err := e.Query(context.Background(), "who is the chef?")
		require.NoError(t, err)
		assert.Equal(t, NoMatch, resp.Meta.Get("values.0").String())
		require.Len(t, prov.params, 2)
		assert.Contains(t, userPrompt(t, prov.params[1]), NoMatch)
	})

	t.Run("malformed path reply is an error", func(t *testing.T) {
		prov := &scriptedProvider{replies: []string{"sure, let me think about that"}}
		e := newEngine(t, prov)

		_, err := e.Query(context.Background(), "what do you serve?")
		require.ErrorContains(t, err, "path selection")
	})

	t.Run("empty path selection is an error", func(t *testing.T) {
		prov := &scriptedProvider{replies: []string{`{"paths": []}`}}
		e := newEngine(t, prov)

		_, err := e.Query(context.Background(), "what do you serve?")
		require.ErrorContains(t, err, "no paths")
	})
}

func TestOutline(t *testing.T) {
	outline := Outline(gjson.ParseBytes(menuDoc))

	assert.Contains(t, outline, `restaurant: string, e.g. "Chez Garcon"`)
	assert.Contains(t, outline, "open: bool")
	assert.Contains(t, outline, "menu: array (2 items)")
	assert.Contains(t, outline, `menu.#.name: string, e.g. "Croque Monsieur"`)
	assert.Contains(t, outline, "menu.#.price: number, e.g. 12.5")

	t.Run("long strings are truncated", func(t *testing.T) {
		out := Outline(gjson.Parse(`{"note": "a very long string that definitely exceeds the sample cap by a margin"}`))
		assert.Contains(t, out, `..."`)
		assert.NotContains(t, out, "margin")
	})

	t.Run("truncation lands on a rune boundary", func(t *testing.T) {
		// The é straddles the sample cap, so a byte-indexed cut would
		// leave half a rune behind.
		out := Outline(gjson.Parse(`{"note": "quiche lorraine with a side salad and épinards, plus frites"}`))
		assert.True(t, utf8.ValidString(out), "outline must stay valid utf-8: %q", out)
		assert.Contains(t, out, `..."`)
		assert.NotContains(t, out, "pinards")
	})

	t.Run("empty array yields only the parent line", func(t *testing.T) {
		out := Outline(gjson.Parse(`{"items": []}`))
		assert.Equal(t, "items: array (0 items)", out)
	})
}
