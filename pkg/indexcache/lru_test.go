package indexcache_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/lattice-tok/pkg/indexcache"
)

func TestLRU_GetAfterPut_ReturnsValue(t *testing.T) {
	t.Parallel()

	c := indexcache.New[string, int](4)
	c.Put("a", 1)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	c := indexcache.New[string, int](2)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Get("a") // touch a, making b the least recently used
	c.Put("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")

	_, ok = c.Get("a")
	assert.True(t, ok, "a was touched more recently than b and should survive")

	_, ok = c.Get("c")
	assert.True(t, ok)
}

func TestLRU_Delete_RemovesEntry(t *testing.T) {
	t.Parallel()

	c := indexcache.New[string, int](4)
	c.Put("a", 1)
	c.Delete("a")

	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestLRU_Clear_RemovesAllEntries(t *testing.T) {
	t.Parallel()

	c := indexcache.New[string, int](4)
	c.Put("a", 1)
	c.Put("b", 2)
	c.Clear()

	assert.Equal(t, 0, c.Len())

	_, ok := c.Get("a")
	assert.False(t, ok)
}

func TestLRU_ZeroMax_IsUnbounded(t *testing.T) {
	t.Parallel()

	c := indexcache.New[int, int](0)
	for i := 0; i < 1000; i++ {
		c.Put(i, i)
	}

	assert.Equal(t, 1000, c.Len())
}
