package api

import "github.com/garcon-ai/garcon/provider"

// Model names an LLM and knows which provider serves it.
type Model interface {
	Name() string
	Provider() provider.Provider
}
