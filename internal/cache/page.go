// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// page.go provides a Valkey-backed full-page HTML cache for the public
// listing pages. Rendered HTML is stored so repeat requests skip the
// database queries and template execution entirely.
package cache

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"

	"codewithbrain/internal/events"
)

const (
	// pageKeyPrefix is the Valkey key prefix for cached pages.
	pageKeyPrefix = "page:"

	// DefaultPageTTL is how long a rendered page stays cached.
	DefaultPageTTL = 5 * time.Minute
)

// PageCache manages full-page HTML caching in Valkey.
type PageCache struct {
	client   *redis.Client
	ttl      time.Duration
	requests *prometheus.CounterVec
}

// NewPageCache creates a new page cache backed by the given Valkey client.
func NewPageCache(client *redis.Client, ttl time.Duration) *PageCache {
	if ttl == 0 {
		ttl = DefaultPageTTL
	}
	return &PageCache{client: client, ttl: ttl}
}

// Instrument registers a hit/miss counter with reg.
func (pc *PageCache) Instrument(reg prometheus.Registerer) {
	pc.requests = promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
		Name: "cwb_page_cache_requests_total",
		Help: "Page cache lookups by result.",
	}, []string{"result"})
}

func (pc *PageCache) observe(result string) {
	if pc.requests != nil {
		pc.requests.WithLabelValues(result).Inc()
	}
}

// Get retrieves cached HTML for a page key.
func (pc *PageCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := pc.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if err == redis.Nil {
		pc.observe("miss")
		return nil, false
	}
	if err != nil {
		slog.Warn("page cache get error", "key", key, "error", err)
		pc.observe("error")
		return nil, false
	}
	slog.Debug("page cache hit", "key", key)
	pc.observe("hit")
	return val, true
}

// Set stores rendered HTML for a page key with the configured TTL.
func (pc *PageCache) Set(ctx context.Context, key string, html []byte) {
	if err := pc.client.Set(ctx, pageKeyPrefix+key, html, pc.ttl).Err(); err != nil {
		slog.Warn("page cache set error", "key", key, "error", err)
	}
}

// Invalidate removes a single page from the cache.
func (pc *PageCache) Invalidate(ctx context.Context, key string) {
	if err := pc.client.Del(ctx, pageKeyPrefix+key).Err(); err != nil {
		slog.Warn("page cache invalidate error", "key", key, "error", err)
	}
	slog.Debug("page cache invalidated", "key", key)
}

// InvalidateAll removes all cached pages by scanning for the prefix.
func (pc *PageCache) InvalidateAll(ctx context.Context) {
	var cursor uint64
	var deleted int
	for {
		keys, nextCursor, err := pc.client.Scan(ctx, cursor, pageKeyPrefix+"*", 100).Result()
		if err != nil {
			slog.Warn("page cache scan error", "error", err)
			return
		}
		if len(keys) > 0 {
			if err := pc.client.Del(ctx, keys...).Err(); err != nil {
				slog.Warn("page cache bulk delete error", "error", err)
			}
			deleted += len(keys)
		}
		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}
	if deleted > 0 {
		slog.Info("page cache cleared", "deleted", deleted)
	}
}

// OnContentChanged drops every cached page. Listing pages mix posts,
// categories and counts, so any change can affect any of them.
func (pc *PageCache) OnContentChanged(ctx context.Context, ev events.ContentChanged) {
	pc.InvalidateAll(ctx)
}

// Register subscribes the cache to content changes on bus.
func (pc *PageCache) Register(bus *events.Bus) {
	bus.ContentChanged.Subscribe(pc.OnContentChanged)
}

// HomepageKey returns the cache key for a page of the post index.
func HomepageKey(page int) string {
	return "index:" + strconv.Itoa(page)
}

// CategoryKey returns the cache key for a page of a category listing.
func CategoryKey(slug string, page int) string {
	return "category:" + slug + ":" + strconv.Itoa(page)
}
