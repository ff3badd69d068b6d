package cache

import (
	"fmt"
	"time"
)

// DefaultPartialTTL keeps expensive extraction output around longer than
// answers; document content is stable for the life of an upload.
const DefaultPartialTTL = time.Hour

// PartialResultCache memoizes intermediate extraction output (an OCR pass,
// for example) keyed by file identity and result type, so repeated
// requests for the same file short-circuit the processing pipeline.
type PartialResultCache struct {
	cache *InMemoryCache
}

func NewPartialResultCache(cache *InMemoryCache) *PartialResultCache {
	return &PartialResultCache{cache: cache}
}

func (p *PartialResultCache) makeKey(fileID, resultType string) string {
	return fmt.Sprintf("partial:%s:%s", fileID, resultType)
}

func (p *PartialResultCache) Get(fileID, resultType string) (any, bool) {
	return p.cache.Get(p.makeKey(fileID, resultType))
}

func (p *PartialResultCache) Set(fileID, resultType string, value any, ttl time.Duration) {
	p.cache.Set(p.makeKey(fileID, resultType), value, ttl)
}

func (p *PartialResultCache) Invalidate(fileID, resultType string) {
	p.cache.Invalidate(p.makeKey(fileID, resultType))
}

// InvalidateFile drops every partial result for the file, whatever the
// result type.
func (p *PartialResultCache) InvalidateFile(fileID string) int {
	return p.cache.InvalidatePrefix(fmt.Sprintf("partial:%s:", fileID))
}
