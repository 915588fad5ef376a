package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/internal/shorttermmemory"
	"github.com/garcon-ai/garcon/messages"
	"github.com/garcon-ai/garcon/pkg/uuidx"
	"github.com/garcon-ai/garcon/provider"
	"github.com/tidwall/gjson"
)

// QueryEngine answers a natural language question against some
// underlying data. Name and Description identify the engine to a
// router's selector.
type QueryEngine interface {
	Name() string
	Description() string
	Query(ctx context.Context, question string) (Response, error)
}

// Response is an engine's answer with optional structured metadata
// about how it was produced.
type Response struct {
	Answer string
	Meta   gjson.Result
}

// Complete runs a one-shot, non-streaming completion and returns the
// assistant's reply. schema, when set, constrains the reply to a JSON
// document.
func Complete(ctx context.Context, model api.Model, instructions, prompt string, schema *provider.StructuredOutput) (string, error) {
	thread := shorttermmemory.New()
	thread.AddUserPrompt(messages.New().UserPrompt(prompt))

	stream, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
		RunID:          uuidx.New(),
		Instructions:   instructions,
		Thread:         thread,
		Model:          model,
		ResponseSchema: schema,
	})
	if err != nil {
		return "", err
	}

	var content string
	for event := range stream {
		switch ev := event.(type) {
		case provider.Response[messages.AssistantMessage]:
			content = ev.Response.Content.Content
		case provider.Error:
			return "", ev.Err
		}
	}

	if content == "" {
		return "", errors.New("model returned no answer")
	}
	return content, nil
}

// StripFences removes a markdown code fence wrapped around a reply, so
// JSON answers survive models that insist on fencing them.
func StripFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	trimmed = strings.TrimPrefix(trimmed, "```")
	if idx := strings.Index(trimmed, "\n"); idx >= 0 {
		// drop the language tag line
		trimmed = trimmed[idx+1:]
	}
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}
