// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package lifecycle applies the persistence-time rules shared by content
// entities: slug assignment from a human-readable source field and one-time
// stamping of the first publication time. It performs no I/O; stores call
// BeforeSave immediately before writing a row.
package lifecycle

import (
	"time"

	"codewithbrain/internal/slug"
)

// Sluggable is an entity whose URL identifier can be derived from a
// human-readable field.
type Sluggable interface {
	SlugSource() string
	SlugValue() string
	SetSlug(string)
}

// SlugLimiter is a Sluggable whose slug column has a fixed width. Derived
// slugs are cut to fit it.
type SlugLimiter interface {
	SlugMaxLen() int
}

// Publishable is an entity that records when it was first published.
type Publishable interface {
	IsPublished() bool
	PublishedAtValue() *time.Time
	SetPublishedAt(time.Time)
}

// Manager runs the lifecycle rules. The zero value is not usable; build one
// with New.
type Manager struct {
	now     func() time.Time
	slugify func(string) string
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock overrides the time source used for publish stamping.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSlugger overrides the slug transform.
func WithSlugger(fn func(string) string) Option {
	return func(m *Manager) { m.slugify = fn }
}

// New returns a Manager using the wall clock and slug.Generate.
func New(opts ...Option) *Manager {
	m := &Manager{now: time.Now, slugify: slug.Generate}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// BeforeSave applies every rule the entity supports. Entities implementing
// neither interface pass through untouched.
func (m *Manager) BeforeSave(entity any) {
	if s, ok := entity.(Sluggable); ok {
		m.AssignSlug(s)
	}
	if p, ok := entity.(Publishable); ok {
		m.StampPublished(p)
	}
}

// AssignSlug derives the slug from the source field when the slug is empty,
// bounded by SlugMaxLen when e has one. A non-empty slug is kept verbatim.
// Reports whether a slug was assigned.
func (m *Manager) AssignSlug(e Sluggable) bool {
	if e.SlugValue() != "" {
		return false
	}
	s := m.slugify(e.SlugSource())
	if l, ok := e.(SlugLimiter); ok {
		s = slug.Truncate(s, l.SlugMaxLen())
	}
	e.SetSlug(s)
	return true
}

// StampPublished records the current time as the first-publication time
// when the entity is published and has never been stamped. An existing
// timestamp is never replaced. Reports whether a stamp was written.
func (m *Manager) StampPublished(e Publishable) bool {
	if !e.IsPublished() || e.PublishedAtValue() != nil {
		return false
	}
	e.SetPublishedAt(m.now())
	return true
}
