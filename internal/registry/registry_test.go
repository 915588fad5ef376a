package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry(t *testing.T) {
	r := New[int]()

	_, found := r.Get("missing")
	assert.False(t, found)

	r.Add("one", 1)
	v, found := r.Get("one")
	require.True(t, found)
	assert.Equal(t, 1, v)
	assert.Equal(t, 1, r.Len())

	v, loaded := r.GetOrAdd("one", func() int { return 99 })
	assert.True(t, loaded)
	assert.Equal(t, 1, v)

	v, loaded = r.GetOrAdd("two", func() int { return 2 })
	assert.False(t, loaded)
	assert.Equal(t, 2, v)

	r.Del("one")
	_, found = r.Get("one")
	assert.False(t, found)
}
