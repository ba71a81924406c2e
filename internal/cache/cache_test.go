// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package cache

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/redis/go-redis/v9"

	"codewithbrain/internal/events"
	"codewithbrain/internal/models"
)

// testValkeyClient returns a Redis client backed by miniredis.
func testValkeyClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return client, mr
}

func TestConnectValkey(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := net.SplitHostPort(mr.Addr())

	client, err := ConnectValkey(host, port, "")
	if err != nil {
		t.Fatalf("ConnectValkey: %v", err)
	}
	defer client.Close()

	pong, err := client.Ping(context.Background()).Result()
	if err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if pong != "PONG" {
		t.Errorf("expected PONG, got %q", pong)
	}
}

func TestConnectValkeyUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	host, port, _ := net.SplitHostPort(mr.Addr())
	mr.Close()

	if _, err := ConnectValkey(host, port, ""); err == nil {
		t.Error("expected error for unreachable Valkey")
	}
}

func TestPageCacheSetAndGet(t *testing.T) {
	client, mr := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	reg := prometheus.NewRegistry()
	pc.Instrument(reg)

	ctx := context.Background()

	data, ok := pc.Get(ctx, "test-page")
	if ok {
		t.Error("expected cache miss")
	}
	if data != nil {
		t.Error("expected nil data on miss")
	}

	html := []byte("<html><body>Test Page</body></html>")
	pc.Set(ctx, "test-page", html)

	data, ok = pc.Get(ctx, "test-page")
	if !ok {
		t.Error("expected cache hit")
	}
	if string(data) != string(html) {
		t.Errorf("data mismatch: got %q, want %q", data, html)
	}

	if ttl := mr.TTL(pageKeyPrefix + "test-page"); ttl != time.Minute {
		t.Errorf("TTL: got %v, want 1m", ttl)
	}
	if got := testutil.ToFloat64(pc.requests.WithLabelValues("hit")); got != 1 {
		t.Errorf("hits: got %v, want 1", got)
	}
	if got := testutil.ToFloat64(pc.requests.WithLabelValues("miss")); got != 1 {
		t.Errorf("misses: got %v, want 1", got)
	}
}

func TestPageCacheExpires(t *testing.T) {
	client, mr := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	pc.Set(ctx, HomepageKey(1), []byte("home"))
	mr.FastForward(2 * time.Minute)

	if _, ok := pc.Get(ctx, HomepageKey(1)); ok {
		t.Error("expected miss after TTL")
	}
}

func TestPageCacheInvalidate(t *testing.T) {
	client, _ := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	pc.Set(ctx, "invalidate-me", []byte("cached"))
	if _, ok := pc.Get(ctx, "invalidate-me"); !ok {
		t.Fatal("expected cache hit before invalidation")
	}

	pc.Invalidate(ctx, "invalidate-me")

	if _, ok := pc.Get(ctx, "invalidate-me"); ok {
		t.Error("expected cache miss after invalidation")
	}
}

func TestPageCacheInvalidateAllKeepsOtherKeys(t *testing.T) {
	client, mr := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	ctx := context.Background()

	keys := []string{HomepageKey(1), HomepageKey(2), CategoryKey("go", 1)}
	for _, k := range keys {
		pc.Set(ctx, k, []byte(k))
	}
	mr.Set("session:abc", "keep me")

	pc.InvalidateAll(ctx)

	for _, key := range keys {
		if _, ok := pc.Get(ctx, key); ok {
			t.Errorf("expected miss for %q after InvalidateAll", key)
		}
	}
	if !mr.Exists("session:abc") {
		t.Error("InvalidateAll removed a non-page key")
	}
}

func TestPageCacheRegister(t *testing.T) {
	client, _ := testValkeyClient(t)
	pc := NewPageCache(client, time.Minute)
	bus := events.NewBus(nil)
	pc.Register(bus)

	ctx := context.Background()
	pc.Set(ctx, CategoryKey("news", 1), []byte("list"))

	bus.ContentChanged.Publish(ctx, events.ContentChanged{
		Kind: models.KindPost, ID: uuid.New(), Slug: "fresh", Action: models.ActionAddition,
	})

	if _, ok := pc.Get(ctx, CategoryKey("news", 1)); ok {
		t.Error("expected content change to clear cached pages")
	}
}

func TestKeys(t *testing.T) {
	if got := HomepageKey(3); got != "index:3" {
		t.Errorf("HomepageKey: got %q", got)
	}
	if got := CategoryKey("go", 2); got != "category:go:2" {
		t.Errorf("CategoryKey: got %q", got)
	}
}

func TestNewPageCacheDefaultTTL(t *testing.T) {
	client, _ := testValkeyClient(t)

	pc := NewPageCache(client, 0)
	if pc.ttl != DefaultPageTTL {
		t.Errorf("expected DefaultPageTTL (%v), got %v", DefaultPageTTL, pc.ttl)
	}
}
