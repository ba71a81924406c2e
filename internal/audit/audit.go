// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package audit turns administrative events into structured log records.
// Records go to two injected loggers: the admin channel (change log,
// account creation, authentication) and the access channel (HTTP traffic
// under the admin prefix). Listeners never return errors to the publisher;
// a failure while building a record becomes a single ERROR record instead.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"codewithbrain/internal/events"
)

// Actions written to the action field.
const (
	ActionAddition    = "ADDITION"
	ActionChange      = "CHANGE"
	ActionDeletion    = "DELETION"
	ActionUserCreated = "USER_CREATED"
	ActionLogin       = "LOGIN"
	ActionLogout      = "LOGOUT"
	ActionLoginFailed = "LOGIN_FAILED"
	ActionUnknown     = "UNKNOWN"
)

// Substitutes for auxiliary data that is missing or failed to resolve.
const (
	anonymousUser = "Anonymous"
	systemUser    = "System"
	unknownUser   = "Unknown"
	unknownModel  = "Unknown"
	unknownIP     = "Unknown"
	noDetails     = "No details"
	notApplicable = "N/A"
)

// maxDetails caps the details field, in characters.
const maxDetails = 200

// DefaultPathPrefix is the admin URL prefix watched by the access listener.
const DefaultPathPrefix = "/admin"

const (
	channelAdmin  = "admin"
	channelAccess = "access"
)

// KindResolver maps a change-log content type to a model name such as
// "post".
type KindResolver interface {
	ModelName(ctx context.Context, contentTypeID int64) (string, error)
}

// Record is one admin-channel audit record.
type Record struct {
	User     string
	Action   string
	Model    string
	ObjectID string
	Details  string
}

func (r Record) attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("user", r.User),
		slog.String("action", r.Action),
		slog.String("model", r.Model),
		slog.String("object_id", r.ObjectID),
		slog.String("details", r.Details),
	}
}

// AccessRecord is one access-channel record.
type AccessRecord struct {
	Method     string
	Path       string
	StatusCode int
	Duration   time.Duration
	User       string
	IP         string
}

func (r AccessRecord) attrs() []slog.Attr {
	return []slog.Attr{
		slog.String("method", r.Method),
		slog.String("path", r.Path),
		slog.Int("status_code", r.StatusCode),
		slog.Float64("duration", r.Duration.Seconds()),
		slog.String("user", r.User),
		slog.String("ip", r.IP),
	}
}

// Auditor owns the audit listeners and the loggers they write to.
type Auditor struct {
	admin   *slog.Logger
	access  *slog.Logger
	kinds   KindResolver
	prefix  string
	metrics *Metrics
	now     func() time.Time
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithPathPrefix changes the URL prefix the access listener records.
func WithPathPrefix(prefix string) Option {
	return func(a *Auditor) { a.prefix = prefix }
}

// WithMetrics counts emitted records and failures.
func WithMetrics(m *Metrics) Option {
	return func(a *Auditor) { a.metrics = m }
}

// WithClock overrides the time used when an access event has no finish
// time.
func WithClock(now func() time.Time) Option {
	return func(a *Auditor) { a.now = now }
}

// New creates an Auditor. kinds may be nil, in which case every change-log
// model resolves to "Unknown".
func New(admin, access *slog.Logger, kinds KindResolver, opts ...Option) *Auditor {
	a := &Auditor{
		admin:  admin,
		access: access,
		kinds:  kinds,
		prefix: DefaultPathPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Register subscribes every listener to its topic on bus.
func (a *Auditor) Register(bus *events.Bus) {
	bus.LogEntrySaved.Subscribe(a.OnLogEntrySaved)
	bus.UserSaved.Subscribe(a.OnUserSaved)
	bus.LoginSucceeded.Subscribe(a.OnLoginSucceeded)
	bus.LoggedOut.Subscribe(a.OnLoggedOut)
	bus.LoginFailed.Subscribe(a.OnLoginFailed)
	bus.RequestCompleted.Subscribe(a.OnRequestCompleted)
}

func (a *Auditor) emit(ctx context.Context, level slog.Level, rec Record) {
	a.admin.LogAttrs(ctx, level, "admin audit", rec.attrs()...)
	a.metrics.record(channelAdmin, rec.Action)
}

func (a *Auditor) emitAccess(ctx context.Context, rec AccessRecord) {
	a.access.LogAttrs(ctx, slog.LevelInfo, "admin access", rec.attrs()...)
	a.metrics.record(channelAccess, methodLabel(rec.Method))
}

// fail writes the single ERROR record for a listener that could not build
// its record.
func (a *Auditor) fail(ctx context.Context, logger *slog.Logger, channel, msg string, err error) {
	logger.LogAttrs(ctx, slog.LevelError, msg, slog.String("error", err.Error()))
	a.metrics.failure(channel)
}

// guard converts a panic inside a listener into one ERROR record. Use as
// `defer a.guard(ctx, logger, channel, msg)`.
func (a *Auditor) guard(ctx context.Context, logger *slog.Logger, channel, msg string) {
	if rec := recover(); rec != nil {
		a.fail(ctx, logger, channel, msg, fmt.Errorf("panic: %v", rec))
	}
}

// truncate shortens s to at most n characters.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
