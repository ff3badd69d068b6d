package cache

import (
	"fmt"
	"time"
)

// DefaultQueryTTL bounds how long a synthesized answer stays valid.
// Answers go stale faster than raw extraction output.
const DefaultQueryTTL = 10 * time.Minute

// QueryCache memoizes synthesized answers keyed by chat and query
// fingerprint. Keys carry the "faq:" prefix so they can never collide
// with partial result keys sharing the same backing store.
type QueryCache struct {
	cache *InMemoryCache
}

func NewQueryCache(cache *InMemoryCache) *QueryCache {
	return &QueryCache{cache: cache}
}

func (q *QueryCache) makeKey(chatID, queryHash string) string {
	return fmt.Sprintf("faq:%s:%s", chatID, queryHash)
}

func (q *QueryCache) Get(chatID, queryHash string) (any, bool) {
	return q.cache.Get(q.makeKey(chatID, queryHash))
}

func (q *QueryCache) Set(chatID, queryHash string, value any, ttl time.Duration) {
	q.cache.Set(q.makeKey(chatID, queryHash), value, ttl)
}

func (q *QueryCache) Invalidate(chatID, queryHash string) {
	q.cache.Invalidate(q.makeKey(chatID, queryHash))
}

// InvalidateChat drops every cached answer for the chat. Called when new
// file content is attached, since cached answers may reference outdated
// context.
func (q *QueryCache) InvalidateChat(chatID string) int {
	return q.cache.InvalidatePrefix(fmt.Sprintf("faq:%s:", chatID))
}

// AdaptiveTTL scales the base answer TTL by document volatility and query
// popularity. Volatile sources halve the TTL, hot queries double it. Not
// required for correctness, only cache efficiency.
func AdaptiveTTL(documentVolatility, accessFrequency float64) time.Duration {
	base := DefaultQueryTTL
	if documentVolatility > 0.5 {
		return base / 2
	}
	if accessFrequency > 10 {
		return base * 2
	}
	return base
}
