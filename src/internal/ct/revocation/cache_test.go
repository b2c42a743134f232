// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by terms
// of License Agreement, which you can find at LICENSE files.

package revocation

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/tls-ct-verifier/src/internal/helper/metrics"
)

func newTestCache(t *testing.T, maxSize int) (*CRLCache, *metrics.Collector, *time.Time) {
	t.Helper()
	collector := metrics.New(false)
	c := NewCRLCache(CRLCacheConfig{MaxSize: maxSize, CleanupInterval: time.Hour}, collector)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	return c, collector, &now
}

func TestLRUAccessOrder(t *testing.T) {
	tests := []struct {
		name           string
		accessSequence []string // URLs in access order
		expectLRUOrder []string // Expected LRU order (least to most recent)
	}{
		{
			name:           "Single access",
			accessSequence: []string{"url1"},
			expectLRUOrder: []string{"url1"},
		},
		{
			name:           "Sequential access",
			accessSequence: []string{"url1", "url2", "url3"},
			expectLRUOrder: []string{"url1", "url2", "url3"},
		},
		{
			name:           "Re-access moves to end",
			accessSequence: []string{"url1", "url2", "url3", "url1", "url2"},
			expectLRUOrder: []string{"url3", "url1", "url2"},
		},
		{
			name:           "Multiple re-access",
			accessSequence: []string{"a", "b", "c", "d", "b", "a", "c", "e"},
			expectLRUOrder: []string{"d", "b", "a", "c", "e"},
		},
		{
			name:           "Same URL repeated",
			accessSequence: []string{"url1", "url1", "url1", "url1"},
			expectLRUOrder: []string{"url1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, now := newTestCache(t, 10)
			for _, url := range tt.accessSequence {
				if _, ok := c.Get(url); !ok {
					c.Set(url, []byte(url), now.Add(time.Hour))
				}
			}
			assert.Equal(t, tt.expectLRUOrder, c.Order())
		})
	}
}

func TestLRUEviction(t *testing.T) {
	c, collector, now := newTestCache(t, 3)
	next := now.Add(time.Hour)

	c.Set("a", []byte("A"), next)
	c.Set("b", []byte("B"), next)
	c.Set("c", []byte("C"), next)
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("d", []byte("D"), next)
	assert.Equal(t, []string{"c", "a", "d"}, c.Order())
	_, ok = c.Get("b")
	assert.False(t, ok, "b was least recently used")

	// Replacing an entry never evicts.
	c.Set("a", []byte("A2"), next)
	assert.Len(t, c.Order(), 3)
	data, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte("A2"), data)

	m := c.Metrics()
	assert.Equal(t, int64(1), m.Evictions)
	assert.Equal(t, int64(3), m.Size)
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CRLCache.WithLabelValues("eviction")))
	assert.Equal(t, 2.0, testutil.ToFloat64(collector.CRLCache.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(collector.CRLCache.WithLabelValues("miss")))
}

func TestCRLFreshness(t *testing.T) {
	tests := []struct {
		name       string
		nextUpdate time.Duration
		advance    time.Duration
		wantHit    bool
		wantClean  int
	}{
		{name: "fresh", nextUpdate: time.Hour, advance: 0, wantHit: true},
		{name: "past next update", nextUpdate: time.Hour, advance: 90 * time.Minute, wantHit: false, wantClean: 0},
		{name: "past grace period", nextUpdate: time.Hour, advance: 3 * time.Hour, wantHit: false, wantClean: 1},
		{name: "fetched over a day ago", nextUpdate: 72 * time.Hour, advance: 25 * time.Hour, wantHit: false, wantClean: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _, now := newTestCache(t, 10)
			c.Set("url", []byte("crl"), now.Add(tt.nextUpdate))
			*now = now.Add(tt.advance)

			_, ok := c.Get("url")
			assert.Equal(t, tt.wantHit, ok)
			assert.Equal(t, tt.wantClean, c.Cleanup())
			assert.Len(t, c.Order(), 1-tt.wantClean)
		})
	}
}

func TestLRUConcurrentAccess(t *testing.T) {
	c := NewCRLCache(CRLCacheConfig{MaxSize: 8}, metrics.New(false))
	next := time.Now().Add(time.Hour)

	var wg sync.WaitGroup
	for g := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				url := fmt.Sprintf("url-%d", (g+i)%16)
				if _, ok := c.Get(url); !ok {
					c.Set(url, []byte(url), next)
				}
			}
		}()
	}
	wg.Wait()

	m := c.Metrics()
	assert.LessOrEqual(t, m.Size, int64(8))
	assert.Equal(t, int64(800), m.Hits+m.Misses)
	assert.Len(t, c.Order(), int(m.Size))
}

func TestCacheRunAndStats(t *testing.T) {
	c := NewCRLCache(CRLCacheConfig{MaxSize: 2, CleanupInterval: time.Millisecond}, metrics.New(false))
	c.Set("old", []byte("x"), time.Now().Add(-2*time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return c.Metrics().Cleanups == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	<-done

	stats := c.Stats()
	assert.Contains(t, stats, "Size: 0/2 entries")
	assert.Contains(t, stats, "Cleanups: 1")

	c.Clear()
	assert.Equal(t, CRLCacheMetrics{}, c.Metrics())
}
