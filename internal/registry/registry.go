// Package registry provides a tiny concurrent name-to-value registry,
// backed by a lock-free map.
package registry

import "github.com/alphadose/haxmap"

// Registry maps names to values and is safe for concurrent use.
type Registry[T any] struct {
	values *haxmap.Map[string, T]
}

func New[T any]() *Registry[T] {
	return &Registry[T]{values: haxmap.New[string, T]()}
}

func (r *Registry[T]) Add(name string, value T) {
	r.values.Set(name, value)
}

func (r *Registry[T]) Get(name string) (T, bool) {
	return r.values.Get(name)
}

// GetOrAdd returns the value registered under name, computing and
// storing it when absent. The bool reports whether the value was
// already present.
func (r *Registry[T]) GetOrAdd(name string, valueFn func() T) (T, bool) {
	return r.values.GetOrCompute(name, valueFn)
}

func (r *Registry[T]) Del(name string) {
	r.values.Del(name)
}

// Len reports how many values are registered.
func (r *Registry[T]) Len() int {
	return int(r.values.Len())
}
