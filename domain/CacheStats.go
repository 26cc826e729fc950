package domain

// CacheStats represents a CacheStats model.
type CacheStats struct {
	CacheSize    int     `json:"cache_size"`
	MaxSize      int     `json:"max_size"`
	TTL          int     `json:"ttl"`
	UsagePercent float64 `json:"usage_percent"`
	Hits         uint64  `json:"hits"`
	Misses       uint64  `json:"misses"`
	HitRate      float64 `json:"hit_rate"`
	Evictions    uint64  `json:"evictions"`
}

// CacheCleared is the payload of the cache_cleared event.
type CacheCleared struct {
	Message string `json:"message"`
}

const CacheClearedMessage = "Cache cleared successfully"
