package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGet(t *testing.T) {
	c := NewInMemoryCache()
	c.Set("k", "v", time.Minute)

	got, ok := c.Get("k")
	require.True(t, ok)
	assert.Equal(t, "v", got)
}

func TestGetMissing(t *testing.T) {
	c := NewInMemoryCache()
	_, ok := c.Get("nope")
	assert.False(t, ok)
}

func TestExpiry(t *testing.T) {
	c := NewInMemoryCache()
	c.Set("k", "v", 10*time.Millisecond)

	time.Sleep(30 * time.Millisecond)

	_, ok := c.Get("k")
	assert.False(t, ok)
	// lazy eviction removed it on access
	assert.Equal(t, 0, c.Len())
}

func TestZeroTTLNeverExpires(t *testing.T) {
	c := NewInMemoryCache()
	c.Set("k", "v", 0)

	time.Sleep(20 * time.Millisecond)

	_, ok := c.Get("k")
	assert.True(t, ok)
}

func TestInvalidate(t *testing.T) {
	c := NewInMemoryCache()
	c.Set("k", "v", time.Minute)
	c.Invalidate("k")

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	c := NewInMemoryCache()
	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)
	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestNamespacesDoNotCollide(t *testing.T) {
	shared := NewInMemoryCache()
	queries := NewQueryCache(shared)
	partials := NewPartialResultCache(shared)

	partials.Set("X", "Y", "partial-value", time.Minute)

	_, ok := queries.Get("X", "Y")
	assert.False(t, ok, "query cache must not see partial result entries")

	got, ok := partials.Get("X", "Y")
	require.True(t, ok)
	assert.Equal(t, "partial-value", got)
}

func TestInvalidateFileScoping(t *testing.T) {
	shared := NewInMemoryCache()
	partials := NewPartialResultCache(shared)

	partials.Set("report.pdf", "ocr", "a", time.Minute)
	partials.Set("report.pdf", "tables", "b", time.Minute)
	partials.Set("other.pdf", "ocr", "c", time.Minute)

	removed := partials.InvalidateFile("report.pdf")
	assert.Equal(t, 2, removed)

	_, ok := partials.Get("report.pdf", "ocr")
	assert.False(t, ok)
	_, ok = partials.Get("report.pdf", "tables")
	assert.False(t, ok)

	got, ok := partials.Get("other.pdf", "ocr")
	require.True(t, ok, "entries for other files must survive")
	assert.Equal(t, "c", got)
}

func TestInvalidateChatScoping(t *testing.T) {
	shared := NewInMemoryCache()
	queries := NewQueryCache(shared)

	queries.Set("chat-1", "h1", "a1", time.Minute)
	queries.Set("chat-1", "h2", "a2", time.Minute)
	queries.Set("chat-2", "h1", "b1", time.Minute)

	removed := queries.InvalidateChat("chat-1")
	assert.Equal(t, 2, removed)

	_, ok := queries.Get("chat-1", "h1")
	assert.False(t, ok)
	got, ok := queries.Get("chat-2", "h1")
	require.True(t, ok)
	assert.Equal(t, "b1", got)
}

func TestAdaptiveTTL(t *testing.T) {
	assert.Equal(t, DefaultQueryTTL, AdaptiveTTL(0.1, 1))
	assert.Equal(t, DefaultQueryTTL/2, AdaptiveTTL(0.9, 1))
	assert.Equal(t, DefaultQueryTTL*2, AdaptiveTTL(0.1, 20))
	// volatility wins over popularity
	assert.Equal(t, DefaultQueryTTL/2, AdaptiveTTL(0.9, 20))
}

func TestConcurrentAccess(t *testing.T) {
	c := NewInMemoryCache()
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func(n int) {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 200; j++ {
				c.Set("k", n, time.Minute)
				c.Get("k")
				c.Keys()
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}

	_, ok := c.Get("k")
	assert.True(t, ok)
}
