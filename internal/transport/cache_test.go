package transport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCacheSwapAndLookup(t *testing.T) {
	c := newCache[string, int]()

	_, ok := c.Lookup("a")
	assert.False(t, ok)

	c.Swap(map[string]int{"a": 1, "b": 2})
	v, ok := c.Lookup("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Swap(map[string]int{"c": 3})
	_, ok = c.Lookup("a")
	assert.False(t, ok)
	v, ok = c.Lookup("c")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}
