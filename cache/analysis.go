package cache

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/goradd/maps"
	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	"github.com/negbuzz/negbuzz/domain"
	"github.com/negbuzz/negbuzz/utils"
	istiocache "istio.io/pkg/cache"
)

// AnalysisCache keeps filter results keyed by the item text and source.
//
// The TTL is sliding: a hit refreshes the entry. When the cache is full the
// least recently accessed entry is evicted before inserting a new one.
type AnalysisCache struct {
	mu          sync.Mutex
	store       istiocache.ExpiringCache
	accessTimes maps.SafeMap[string, time.Time]
	maxSize     int
	ttl         time.Duration
	hits        atomic.Uint64
	misses      atomic.Uint64
	evictions   atomic.Uint64
}

func NewAnalysisCache(maxSize int, ttl, evictionInterval time.Duration) *AnalysisCache {
	c := &AnalysisCache{
		maxSize: maxSize,
		ttl:     ttl,
	}
	// accessTimes decides expiry, the store sweep only reclaims memory
	c.store = istiocache.NewTTL(ttl, evictionInterval)
	return c
}

// Key returns the cache key of an item.
func Key(item domain.ContentItem) (string, error) {
	return utils.CanonicalHashOf(item.CacheFields())
}

// Get returns a copy of the cached result for item.
func (c *AnalysisCache) Get(item domain.ContentItem) (domain.FilterResult, bool) {
	key, err := Key(item)
	if err != nil {
		logger.L().Warning("cannot compute cache key", helpers.Error(err), helpers.String("id", item.Id))
		c.misses.Add(1)
		return domain.FilterResult{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	accessed, ok := c.accessTimes.Load(key)
	if !ok || now.Sub(accessed) > c.ttl {
		c.remove(key)
		c.misses.Add(1)
		return domain.FilterResult{}, false
	}
	value, ok := c.store.Get(key)
	if !ok {
		c.accessTimes.Delete(key)
		c.misses.Add(1)
		return domain.FilterResult{}, false
	}
	result, ok := value.(domain.FilterResult)
	if !ok {
		c.remove(key)
		c.misses.Add(1)
		return domain.FilterResult{}, false
	}
	// refresh expiration
	c.store.Set(key, result)
	c.accessTimes.Set(key, now)
	c.hits.Add(1)
	return result.Clone(), true
}

// Set stores a copy of result for item.
func (c *AnalysisCache) Set(item domain.ContentItem, result domain.FilterResult) {
	key, err := Key(item)
	if err != nil {
		logger.L().Warning("cannot compute cache key", helpers.Error(err), helpers.String("id", item.Id))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := time.Now()
	c.cleanupExpired(now)
	if !c.accessTimes.Has(key) {
		c.evictLRU()
	}
	c.store.Set(key, result.Clone())
	c.accessTimes.Set(key, now)
}

// Clear removes every entry. Hit and miss counters are kept.
func (c *AnalysisCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.RemoveAll()
	c.accessTimes.Clear()
}

func (c *AnalysisCache) Stats() domain.CacheStats {
	c.mu.Lock()
	c.cleanupExpired(time.Now())
	size := c.accessTimes.Len()
	c.mu.Unlock()

	hits, misses := c.hits.Load(), c.misses.Load()
	stats := domain.CacheStats{
		CacheSize: size,
		MaxSize:   c.maxSize,
		TTL:       int(c.ttl.Seconds()),
		Hits:      hits,
		Misses:    misses,
		Evictions: c.evictions.Load(),
	}
	if c.maxSize > 0 {
		stats.UsagePercent = utils.Round(float64(size)/float64(c.maxSize)*100, 2)
	}
	if total := hits + misses; total > 0 {
		stats.HitRate = utils.Round(float64(hits)/float64(total)*100, 2)
	}
	return stats
}

// cleanupExpired drops entries not accessed within the TTL. Callers hold mu.
func (c *AnalysisCache) cleanupExpired(now time.Time) {
	var expired []string
	c.accessTimes.Range(func(key string, accessed time.Time) bool {
		if now.Sub(accessed) > c.ttl {
			expired = append(expired, key)
		}
		return true
	})
	for _, key := range expired {
		c.remove(key)
	}
}

// remove drops key from both the store and the access index. Callers hold mu.
func (c *AnalysisCache) remove(key string) {
	c.store.Remove(key)
	c.accessTimes.Delete(key)
}

// evictLRU makes room for one entry. Callers hold mu.
func (c *AnalysisCache) evictLRU() {
	if c.accessTimes.Len() < c.maxSize {
		return
	}
	var oldestKey string
	var oldest time.Time
	c.accessTimes.Range(func(key string, accessed time.Time) bool {
		if oldestKey == "" || accessed.Before(oldest) {
			oldestKey, oldest = key, accessed
		}
		return true
	})
	if oldestKey == "" {
		return
	}
	c.remove(oldestKey)
	c.evictions.Add(1)
}
