// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// hits is the sliding window of accepted request times for one client.
type hits struct {
	mu    sync.Mutex
	times []time.Time
}

// prune drops times at or before cutoff and returns how many remain.
func (h *hits) prune(cutoff time.Time) int {
	kept := h.times[:0]
	for _, ts := range h.times {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	h.times = kept
	return len(kept)
}

// RateLimiter caps requests per client IP over a sliding window. Each
// limiter has a name (login, comment) that appears in its log lines and
// in the rejection counter.
type RateLimiter struct {
	name   string
	limit  int
	window time.Duration
	logger *slog.Logger
	now    func() time.Time

	mu      sync.RWMutex
	clients map[string]*hits

	rejected prometheus.Counter
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewRateLimiter creates a limiter allowing limit requests per window for
// each client. Rejections are logged on logger (nil means slog.Default).
// A background goroutine evicts idle clients until Stop is called.
func NewRateLimiter(name string, limit int, window time.Duration, logger *slog.Logger) *RateLimiter {
	if logger == nil {
		logger = slog.Default()
	}
	rl := &RateLimiter{
		name:    name,
		limit:   limit,
		window:  window,
		logger:  logger,
		now:     time.Now,
		clients: make(map[string]*hits),
		rejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name:        "cwb_rate_limit_rejections_total",
			Help:        "Requests rejected by a per-IP rate limiter.",
			ConstLabels: prometheus.Labels{"limiter": name},
		}),
		stopCh: make(chan struct{}),
	}

	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				rl.cleanup()
			case <-rl.stopCh:
				return
			}
		}
	}()

	return rl
}

// Instrument registers the rejection counter with reg.
func (rl *RateLimiter) Instrument(reg prometheus.Registerer) error {
	return reg.Register(rl.rejected)
}

// Stop terminates the eviction goroutine. It is safe to call twice.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCh) })
}

func (rl *RateLimiter) client(key string) *hits {
	rl.mu.RLock()
	h, ok := rl.clients[key]
	rl.mu.RUnlock()
	if ok {
		return h
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if h, ok = rl.clients[key]; !ok {
		h = &hits{}
		rl.clients[key] = h
	}
	return h
}

// allow records a request for key unless the window is already full.
func (rl *RateLimiter) allow(key string) bool {
	now := rl.now()
	h := rl.client(key)

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.prune(now.Add(-rl.window)) >= rl.limit {
		return false
	}
	h.times = append(h.times, now)
	return true
}

// cleanup forgets clients whose window has emptied.
func (rl *RateLimiter) cleanup() {
	cutoff := rl.now().Add(-rl.window)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	for key, h := range rl.clients {
		h.mu.Lock()
		idle := h.prune(cutoff) == 0
		h.mu.Unlock()
		if idle {
			delete(rl.clients, key)
		}
	}
}

// Middleware rejects clients over the limit with 429 and a Retry-After
// of one window.
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := ClientIP(r)
		if !rl.allow(ip) {
			rl.rejected.Inc()
			rl.logger.Warn("rate limit exceeded",
				"limiter", rl.name,
				"remote", ip,
				"method", r.Method,
				"path", r.URL.Path,
			)
			w.Header().Set("Retry-After", strconv.Itoa(int(rl.window.Seconds())))
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}
