package signal

import (
	"time"

	cache "github.com/patrickmn/go-cache"
)

// FeedCache provides short-TTL in-memory caching of engine responses, so a
// forced re-run shortly after a scheduled cycle does not hammer upstreams.
type FeedCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

// NewFeedCache creates a new feed cache
func NewFeedCache(ttl time.Duration) *FeedCache {
	return &FeedCache{
		cache: cache.New(ttl, ttl*2),
		ttl:   ttl,
	}
}

// Get retrieves a cached engine response
func (fc *FeedCache) Get(engine string) ([]RawPick, bool) {
	if v, found := fc.cache.Get(engine); found {
		if picks, ok := v.([]RawPick); ok {
			return picks, true
		}
	}
	return nil, false
}

// Set stores an engine response
func (fc *FeedCache) Set(engine string, picks []RawPick) {
	fc.cache.Set(engine, picks, fc.ttl)
}

// Clear flushes the cache
func (fc *FeedCache) Clear() {
	fc.cache.Flush()
}
