// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"codewithbrain/internal/models"
)

const (
	contentTypeCacheSize = 64
	contentTypeCacheTTL  = 10 * time.Minute
)

// ContentTypeStore resolves the content types referenced by change-log
// entries. Lookups are cached; the table only changes with migrations.
type ContentTypeStore struct {
	db      *sql.DB
	byID    *expirable.LRU[int64, models.ContentType]
	byModel *expirable.LRU[string, models.ContentType]
}

// NewContentTypeStore returns a ContentTypeStore with an empty cache.
func NewContentTypeStore(db *sql.DB) *ContentTypeStore {
	return &ContentTypeStore{
		db:      db,
		byID:    expirable.NewLRU[int64, models.ContentType](contentTypeCacheSize, nil, contentTypeCacheTTL),
		byModel: expirable.NewLRU[string, models.ContentType](contentTypeCacheSize, nil, contentTypeCacheTTL),
	}
}

func (s *ContentTypeStore) remember(ct models.ContentType) {
	s.byID.Add(ct.ID, ct)
	s.byModel.Add(ct.Model, ct)
}

// Get returns the content type with the given id.
func (s *ContentTypeStore) Get(ctx context.Context, id int64) (*models.ContentType, error) {
	if ct, ok := s.byID.Get(id); ok {
		return &ct, nil
	}

	var ct models.ContentType
	err := s.db.QueryRowContext(ctx,
		`SELECT id, app_label, model FROM content_types WHERE id = $1`, id,
	).Scan(&ct.ID, &ct.AppLabel, &ct.Model)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("get content type %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get content type %d: %w", id, err)
	}
	s.remember(ct)
	return &ct, nil
}

// ModelName returns the audit name of a content type, e.g. "post".
func (s *ContentTypeStore) ModelName(ctx context.Context, id int64) (string, error) {
	ct, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return ct.Name(), nil
}

// IDFor returns the id of the content type for model, e.g. "post".
func (s *ContentTypeStore) IDFor(ctx context.Context, model string) (int64, error) {
	if ct, ok := s.byModel.Get(model); ok {
		return ct.ID, nil
	}

	var ct models.ContentType
	err := s.db.QueryRowContext(ctx,
		`SELECT id, app_label, model FROM content_types WHERE model = $1`, model,
	).Scan(&ct.ID, &ct.AppLabel, &ct.Model)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("content type %q: %w", model, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("content type %q: %w", model, err)
	}
	s.remember(ct)
	return ct.ID, nil
}
