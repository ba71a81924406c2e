package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"codewithbrain/internal/lifecycle"
	"codewithbrain/internal/models"
)

// TagStore manages tags and their links to posts.
type TagStore struct {
	db *sql.DB
	lc *lifecycle.Manager
}

// NewTagStore returns a new TagStore.
func NewTagStore(db *sql.DB, lc *lifecycle.Manager) *TagStore {
	if lc == nil {
		lc = lifecycle.New()
	}
	return &TagStore{db: db, lc: lc}
}

// ParseTags splits a comma-separated tag list, trimming blanks and
// dropping empty and repeated names. Order is preserved.
func ParseTags(s string) []string {
	seen := make(map[string]bool)
	var names []string
	for _, part := range strings.Split(s, ",") {
		name := strings.TrimSpace(part)
		key := strings.ToLower(name)
		if name == "" || seen[key] {
			continue
		}
		seen[key] = true
		names = append(names, name)
	}
	return names
}

// List returns every tag with the number of published posts carrying it.
func (s *TagStore) List(ctx context.Context) ([]models.Tag, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.id, t.name, t.slug, COUNT(p.id)
		FROM tags t
		LEFT JOIN post_tags pt ON pt.tag_id = t.id
		LEFT JOIN posts p ON p.id = pt.post_id AND p.status = 'published'
		GROUP BY t.id
		ORDER BY t.name
	`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var tags []models.Tag
	for rows.Next() {
		var t models.Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug, &t.PostCount); err != nil {
			return nil, fmt.Errorf("scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// FindBySlug retrieves a tag by slug. Returns nil if not found.
func (s *TagStore) FindBySlug(ctx context.Context, slug string) (*models.Tag, error) {
	var t models.Tag
	err := s.db.QueryRowContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = $1`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find tag by slug: %w", err)
	}
	return &t, nil
}

// SetForPost replaces the post's tags with names, creating missing tags.
// Names that slugify to an existing tag reuse it.
func (s *TagStore) SetForPost(ctx context.Context, postID uuid.UUID, names []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = $1`, postID); err != nil {
		return fmt.Errorf("clear post tags: %w", err)
	}

	for _, name := range names {
		tag := &models.Tag{Name: name}
		s.lc.BeforeSave(tag)
		if tag.Slug == "" {
			continue
		}

		err := tx.QueryRowContext(ctx, `
			INSERT INTO tags (name, slug) VALUES ($1, $2)
			ON CONFLICT (slug) DO UPDATE SET name = tags.name
			RETURNING id`, tag.Name, tag.Slug).Scan(&tag.ID)
		if err != nil {
			return fmt.Errorf("upsert tag %q: %w", name, err)
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO post_tags (post_id, tag_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, postID, tag.ID)
		if err != nil {
			return fmt.Errorf("link tag %q: %w", name, err)
		}
	}

	return tx.Commit()
}
