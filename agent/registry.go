package agent

import (
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/internal/registry"
)

// Global holds every agent registered by name.
var Global = registry.New[api.Agent]()

func Add(agent api.Agent) {
	Global.Add(agent.Name(), agent)
}

func Get(name string) (api.Agent, bool) {
	return Global.Get(name)
}

func Del(name string) {
	Global.Del(name)
}
