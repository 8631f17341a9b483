package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenCache_PutGet(t *testing.T) {
	c := NewTokenCache(30)

	_, ok := c.Get("tok-1")
	assert.False(t, ok)

	c.Put("tok-1", "proj-1")
	projectID, ok := c.Get("tok-1")
	assert.True(t, ok)
	assert.Equal(t, "proj-1", projectID)
}

func TestTokenCache_Invalidate(t *testing.T) {
	c := NewTokenCache(30)
	c.Put("tok-1", "proj-1")

	c.Invalidate("tok-1")

	_, ok := c.Get("tok-1")
	assert.False(t, ok)
}

func TestTokenCache_Expires(t *testing.T) {
	c := NewTokenCache(1)
	c.Put("tok-1", "proj-1")

	_, ok := c.Get("tok-1")
	assert.True(t, ok)

	time.Sleep(1100 * time.Millisecond)

	_, ok = c.Get("tok-1")
	assert.False(t, ok)
}

func TestTokenCache_DefaultTTL(t *testing.T) {
	// Zero and negative TTLs fall back to the default
	c := NewTokenCache(0)
	c.Put("tok-1", "proj-1")

	projectID, ok := c.Get("tok-1")
	assert.True(t, ok)
	assert.Equal(t, "proj-1", projectID)
}
