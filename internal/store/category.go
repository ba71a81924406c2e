// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"codewithbrain/internal/events"
	"codewithbrain/internal/lifecycle"
	"codewithbrain/internal/models"
)

// CategoryStore manages categories in the database.
type CategoryStore struct {
	db  *sql.DB
	lc  *lifecycle.Manager
	bus *events.Bus
}

// NewCategoryStore returns a new CategoryStore.
func NewCategoryStore(db *sql.DB, lc *lifecycle.Manager, bus *events.Bus) *CategoryStore {
	if lc == nil {
		lc = lifecycle.New()
	}
	return &CategoryStore{db: db, lc: lc, bus: bus}
}

const categoryColumns = `id, name, slug, description, created_at, updated_at`

// scanCategory scans a row into a Category struct.
func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	if err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}

// List returns all categories ordered by name, with the number of
// published posts in each.
func (s *CategoryStore) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       COUNT(p.id) AS post_count
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id AND p.status = 'published'
		GROUP BY c.id
		ORDER BY c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var items []models.Category
	for rows.Next() {
		var c models.Category
		err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
			&c.PostCount,
		)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

// FindByID retrieves a category by ID. Returns nil if not found.
func (s *CategoryStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE id = $1`, id)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by id: %w", err)
	}
	return c, nil
}

// FindBySlug retrieves a category by slug. Returns nil if not found.
func (s *CategoryStore) FindBySlug(ctx context.Context, slug string) (*models.Category, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+categoryColumns+` FROM categories WHERE slug = $1`, slug)
	c, err := scanCategory(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find category by slug: %w", err)
	}
	return c, nil
}

// Create inserts a new category and returns it. An empty slug is derived
// from the name.
func (s *CategoryStore) Create(ctx context.Context, c *models.Category) (*models.Category, error) {
	s.lc.BeforeSave(c)

	row := s.db.QueryRowContext(ctx, `
		INSERT INTO categories (name, slug, description)
		VALUES ($1, $2, $3)
		RETURNING `+categoryColumns,
		c.Name, c.Slug, c.Description,
	)
	result, err := scanCategory(row)
	if err != nil {
		return nil, wrapWrite("create category", ErrDuplicateSlug, err)
	}

	publishChange(ctx, s.bus, models.KindCategory, result.ID, result.Slug, models.ActionAddition)
	return result, nil
}

// Update modifies an existing category.
func (s *CategoryStore) Update(ctx context.Context, c *models.Category) error {
	s.lc.BeforeSave(c)

	err := s.db.QueryRowContext(ctx, `
		UPDATE categories SET
			name = $1, slug = $2, description = $3, updated_at = NOW()
		WHERE id = $4
		RETURNING updated_at
	`, c.Name, c.Slug, c.Description, c.ID).Scan(&c.UpdatedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("update category: %w", ErrNotFound)
	}
	if err != nil {
		return wrapWrite("update category", ErrDuplicateSlug, err)
	}

	publishChange(ctx, s.bus, models.KindCategory, c.ID, c.Slug, models.ActionChange)
	return nil
}

// Delete removes a category by ID. Its posts stay and lose their category
// (ON DELETE SET NULL).
func (s *CategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	var slug string
	err := s.db.QueryRowContext(ctx, `DELETE FROM categories WHERE id = $1 RETURNING slug`, id).Scan(&slug)
	if err == sql.ErrNoRows {
		return fmt.Errorf("delete category: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	publishChange(ctx, s.bus, models.KindCategory, id, slug, models.ActionDeletion)
	return nil
}
