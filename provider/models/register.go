// Package models keeps a process-wide registry of known models so that
// serialized events can resolve a model by name.
package models

import (
	"github.com/garcon-ai/garcon/api"
	"github.com/garcon-ai/garcon/internal/registry"
)

var Global = registry.New[api.Model]()

func Add(model api.Model) {
	Global.Add(model.Name(), model)
}

func Get(name string) (api.Model, bool) {
	return Global.Get(name)
}

func GetOrAdd(name string, modelF func() api.Model) api.Model {
	m, _ := Global.GetOrAdd(name, modelF)
	return m
}

func Del(name string) {
	Global.Del(name)
}
