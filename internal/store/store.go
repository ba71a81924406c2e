// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package store provides database access methods for all blog entities.
// Each store struct wraps a *sql.DB and exposes typed query methods. Writes
// run the lifecycle hooks before touching the row and announce themselves
// on the event bus afterwards.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"codewithbrain/internal/events"
	"codewithbrain/internal/models"
)

// Sentinel errors returned (wrapped) by store writes.
var (
	ErrNotFound          = errors.New("not found")
	ErrDuplicateSlug     = errors.New("slug already exists")
	ErrDuplicateUsername = errors.New("username already exists")
)

// uniqueViolation is the Postgres SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// wrapWrite wraps err for op. Unique violations also carry sentinel so
// callers can match it with errors.Is while the driver error stays
// reachable through errors.As.
func wrapWrite(op string, sentinel, err error) error {
	if isUniqueViolation(err) {
		return fmt.Errorf("%s: %w: %w", op, sentinel, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// maxPage bounds page numbers so the offset cannot overflow.
const maxPage = 10000

// pageOffset clamps page to [1, maxPage] and returns the row offset.
func pageOffset(page, size int) int {
	page = max(1, min(page, maxPage))
	return (page - 1) * size
}

func publishChange(ctx context.Context, bus *events.Bus, kind string, id uuid.UUID, slug string, action models.ActionFlag) {
	if bus == nil {
		return
	}
	bus.ContentChanged.Publish(ctx, events.ContentChanged{
		Kind:   kind,
		ID:     id,
		Slug:   slug,
		Action: action,
	})
}
