// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package events is a typed, synchronous in-process event bus. Each event
// type has its own Topic; listeners subscribe explicitly at startup and
// Publish calls them in registration order on the caller's goroutine.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
)

// Handler receives one event.
type Handler[T any] func(ctx context.Context, ev T)

// Topic fans an event out to its subscribers. The zero value is ready to
// use and logs handler panics to slog.Default.
type Topic[T any] struct {
	mu       sync.RWMutex
	handlers []Handler[T]
	logger   *slog.Logger
}

// Subscribe registers h. Handlers run in the order they were added.
func (t *Topic[T]) Subscribe(h Handler[T]) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.handlers = append(t.handlers, h)
}

// Len returns the number of subscribed handlers.
func (t *Topic[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.handlers)
}

// Publish delivers ev to every handler. A panicking handler is logged and
// skipped; the publisher never sees it and later handlers still run.
func (t *Topic[T]) Publish(ctx context.Context, ev T) {
	t.mu.RLock()
	handlers := make([]Handler[T], len(t.handlers))
	copy(handlers, t.handlers)
	t.mu.RUnlock()

	for _, h := range handlers {
		t.deliver(ctx, h, ev)
	}
}

func (t *Topic[T]) deliver(ctx context.Context, h Handler[T], ev T) {
	defer func() {
		if rec := recover(); rec != nil {
			logger := t.logger
			if logger == nil {
				logger = slog.Default()
			}
			logger.Error("event handler panic",
				"event", fmt.Sprintf("%T", ev),
				"error", rec,
				"stack", string(debug.Stack()),
			)
		}
	}()
	h(ctx, ev)
}

// Bus holds one topic per event type.
type Bus struct {
	LogEntrySaved    Topic[LogEntrySaved]
	UserSaved        Topic[UserSaved]
	LoginSucceeded   Topic[LoginSucceeded]
	LoginFailed      Topic[LoginFailed]
	LoggedOut        Topic[LoggedOut]
	RequestCompleted Topic[RequestCompleted]
	ContentChanged   Topic[ContentChanged]
}

// NewBus creates a bus whose topics report handler panics to logger.
// A nil logger falls back to slog.Default.
func NewBus(logger *slog.Logger) *Bus {
	b := &Bus{}
	b.LogEntrySaved.logger = logger
	b.UserSaved.logger = logger
	b.LoginSucceeded.logger = logger
	b.LoginFailed.logger = logger
	b.LoggedOut.logger = logger
	b.RequestCompleted.logger = logger
	b.ContentChanged.logger = logger
	return b
}
