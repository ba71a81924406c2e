// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"codewithbrain/internal/events"
)

const (
	startKey  contextKey = "request_start"
	accessKey contextKey = "access_state"
)

// accessState is filled in by inner middleware while the request is
// served, since AccessEvents cannot see context values added below it.
type accessState struct {
	mu       sync.Mutex
	username string
}

// RequestTimer records the time the request arrived. AccessEvents reads it
// to compute the request duration.
func RequestTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), startKey, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StartFromCtx returns the time recorded by RequestTimer, or the zero time.
func StartFromCtx(ctx context.Context) time.Time {
	t, _ := ctx.Value(startKey).(time.Time)
	return t
}

// SetAccessUser names the authenticated user for the access record of the
// current request. It is a no-op outside AccessEvents.
func SetAccessUser(ctx context.Context, username string) {
	if st, ok := ctx.Value(accessKey).(*accessState); ok {
		st.mu.Lock()
		st.username = username
		st.mu.Unlock()
	}
}

// AccessEvents publishes a RequestCompleted event once the handler has
// produced its response. The response itself is never touched.
func AccessEvents(bus *events.Bus) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := &accessState{}
			ctx := context.WithValue(r.Context(), accessKey, st)
			wrapped := wrap(w)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			st.mu.Lock()
			username := st.username
			st.mu.Unlock()

			bus.RequestCompleted.Publish(r.Context(), events.RequestCompleted{
				Method:     r.Method,
				Path:       r.URL.Path,
				StatusCode: wrapped.statusCode,
				StartedAt:  StartFromCtx(r.Context()),
				FinishedAt: time.Now(),
				Username:   username,
				RemoteAddr: ClientIP(r),
			})
		})
	}
}

// ClientIP returns the address the request came from: the first
// X-Forwarded-For hop, then X-Real-IP, then RemoteAddr without its port.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
