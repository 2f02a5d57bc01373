package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCacheExpiresEntries(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	c := NewCache[string](time.Minute, func() time.Time { return now })

	c.Set("a", "sunny")
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "sunny", v)

	now = now.Add(time.Minute)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestCacheSweepsOnWrite(t *testing.T) {
	now := time.Date(2026, 10, 16, 8, 0, 0, 0, time.UTC)
	c := NewCache[int](time.Minute, func() time.Time { return now })

	c.Set("a", 1)
	c.Set("b", 2)
	now = now.Add(2 * time.Minute)
	c.Set("c", 3)

	assert.Equal(t, 1, c.Len())
}

func TestCacheClose(t *testing.T) {
	c := NewCache[int](time.Minute, nil)
	c.Set("a", 1)
	c.Close()

	assert.Equal(t, 0, c.Len())
	c.Set("b", 2)
	_, ok := c.Get("b")
	assert.False(t, ok)
}
