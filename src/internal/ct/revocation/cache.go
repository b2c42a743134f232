// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
)

// CRLCacheEntry represents a cached CRL with metadata
type CRLCacheEntry struct {
	Data       []byte    // Raw CRL data
	FetchedAt  time.Time // When this CRL was fetched
	NextUpdate time.Time // When this CRL expires (from CRL.NextUpdate)
	URL        string    // Source URL for debugging
}

// isFresh checks if the cached CRL is still fresh at now.
func (entry *CRLCacheEntry) isFresh(now time.Time) bool {
	return entry.NextUpdate.After(now) && entry.FetchedAt.After(now.Add(-24*time.Hour))
}

// isExpired checks if the CRL has expired and should be cleaned up.
func (entry *CRLCacheEntry) isExpired(now time.Time) bool {
	return entry.NextUpdate.Before(now.Add(-1 * time.Hour)) // 1 hour grace period
}

// CRLCacheConfig holds configuration for the CRL cache
type CRLCacheConfig struct {
	MaxSize         int           // Maximum number of CRLs to cache (0 = unlimited)
	CleanupInterval time.Duration // How often to run cleanup (default: 1 hour)
}

// DefaultCRLCacheConfig is used for zero fields of a caller's config.
var DefaultCRLCacheConfig = CRLCacheConfig{
	MaxSize:         100,
	CleanupInterval: 1 * time.Hour,
}

// CRLCacheMetrics tracks cache performance and usage
type CRLCacheMetrics struct {
	Size        int64 // Current number of cached CRLs
	Hits        int64 // Number of cache hits
	Misses      int64 // Number of cache misses
	Evictions   int64 // Number of LRU evictions
	Cleanups    int64 // Number of expired CRL cleanups
	TotalMemory int64 // Approximate memory usage in bytes
}

// CRLCache is an LRU cache of raw CRLs keyed by distribution point URL.
// Counters are mirrored into the metrics collector under the crl_cache
// family.
type CRLCache struct {
	mu      sync.Mutex
	entries map[string]*CRLCacheEntry
	order   []string // least recently used first
	config  CRLCacheConfig
	metrics *metrics.Collector
	now     func() time.Time

	hits, misses, evictions, cleanups atomic.Int64
}

// NewCRLCache creates a cache. A nil collector means metrics.Default.
func NewCRLCache(config CRLCacheConfig, collector *metrics.Collector) *CRLCache {
	if config.MaxSize < 0 {
		config.MaxSize = 0
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultCRLCacheConfig.CleanupInterval
	}
	if collector == nil {
		collector = metrics.Default
	}
	return &CRLCache{
		entries: make(map[string]*CRLCacheEntry),
		config:  config,
		metrics: collector,
		now:     time.Now,
	}
}

func (c *CRLCache) count(event string, counter *atomic.Int64, n int64) {
	counter.Add(n)
	c.metrics.CRLCache.WithLabelValues(event).Add(float64(n))
}

// touch moves url to the most recently used end. Callers hold mu.
func (c *CRLCache) touch(url string) {
	for i, u := range c.order {
		if u == url {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
	c.order = append(c.order, url)
}

// Get returns a copy of a fresh cached CRL.
func (c *CRLCache) Get(url string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[url]
	if !ok || !entry.isFresh(c.now()) {
		c.count("miss", &c.misses, 1)
		return nil, false
	}
	c.count("hit", &c.hits, 1)
	c.touch(url)
	return append([]byte(nil), entry.Data...), true
}

// Set stores a copy of data, evicting the least recently used entries
// when the cache is full.
func (c *CRLCache) Set(url string, data []byte, nextUpdate time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[url]; !exists {
		for c.config.MaxSize > 0 && len(c.entries) >= c.config.MaxSize && len(c.order) > 0 {
			lru := c.order[0]
			delete(c.entries, lru)
			c.order = c.order[1:]
			c.count("eviction", &c.evictions, 1)
		}
	}

	c.entries[url] = &CRLCacheEntry{
		Data:       append([]byte(nil), data...),
		FetchedAt:  c.now(),
		NextUpdate: nextUpdate,
		URL:        url,
	}
	c.touch(url)
}

// Cleanup removes CRLs past their NextUpdate and returns how many went.
func (c *CRLCache) Cleanup() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for url, entry := range c.entries {
		if !entry.isExpired(now) {
			continue
		}
		delete(c.entries, url)
		for i, u := range c.order {
			if u == url {
				c.order = append(c.order[:i], c.order[i+1:]...)
				break
			}
		}
		removed++
	}
	if removed > 0 {
		c.count("cleanup", &c.cleanups, int64(removed))
	}
	return removed
}

// Run calls Cleanup every CleanupInterval until ctx is done.
func (c *CRLCache) Run(ctx context.Context) {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Cleanup()
		}
	}
}

// Order returns the cached URLs from least to most recently used.
func (c *CRLCache) Order() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.order...)
}

// Clear drops every entry and resets the counters.
func (c *CRLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*CRLCacheEntry)
	c.order = nil
	c.hits.Store(0)
	c.misses.Store(0)
	c.evictions.Store(0)
	c.cleanups.Store(0)
}

// Metrics returns current cache metrics.
func (c *CRLCache) Metrics() CRLCacheMetrics {
	c.mu.Lock()
	defer c.mu.Unlock()

	var totalMemory int64
	for _, entry := range c.entries {
		totalMemory += int64(len(entry.Data)) + int64(len(entry.URL)) + 24 // Approximate overhead
	}
	return CRLCacheMetrics{
		Size:        int64(len(c.entries)),
		Hits:        c.hits.Load(),
		Misses:      c.misses.Load(),
		Evictions:   c.evictions.Load(),
		Cleanups:    c.cleanups.Load(),
		TotalMemory: totalMemory,
	}
}

// Stats returns a formatted string with cache statistics
func (c *CRLCache) Stats() string {
	m := c.Metrics()

	hitRate := float64(0)
	if total := m.Hits + m.Misses; total > 0 {
		hitRate = float64(m.Hits) / float64(total) * 100
	}

	return fmt.Sprintf("CRL Cache Statistics:\n"+
		"  Size: %d/%d entries\n"+
		"  Memory Usage: %.2f KB\n"+
		"  Hit Rate: %.1f%% (%d hits, %d misses)\n"+
		"  Evictions: %d\n"+
		"  Cleanups: %d\n"+
		"  Cleanup Interval: %v",
		m.Size, c.config.MaxSize,
		float64(m.TotalMemory)/1024,
		hitRate, m.Hits, m.Misses,
		m.Evictions,
		m.Cleanups,
		c.config.CleanupInterval)
}
