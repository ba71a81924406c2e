// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"codewithbrain/internal/events"
	"codewithbrain/internal/lifecycle"
	"codewithbrain/internal/models"
)

// PostStore handles all post-related database operations.
type PostStore struct {
	db  *sql.DB
	lc  *lifecycle.Manager
	bus *events.Bus
}

// NewPostStore creates a PostStore. A nil lifecycle manager uses the
// defaults; a nil bus disables change events.
func NewPostStore(db *sql.DB, lc *lifecycle.Manager, bus *events.Bus) *PostStore {
	if lc == nil {
		lc = lifecycle.New()
	}
	return &PostStore{db: db, lc: lc, bus: bus}
}

// postSelect joins the author and category names and aggregates tag names
// into a comma-separated column.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.author_id, p.category_id, p.excerpt,
	       p.content, p.image_key, p.status, p.views,
	       p.created_at, p.updated_at, p.published_at,
	       COALESCE(NULLIF(u.display_name, ''), u.username),
	       COALESCE(c.name, ''), COALESCE(c.slug, ''),
	       COALESCE((SELECT string_agg(t.name, ',' ORDER BY t.name)
	                 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
	                 WHERE pt.post_id = p.id), '')
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id`

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	var tags string
	err := row.Scan(
		&p.ID, &p.Title, &p.Slug, &p.AuthorID, &p.CategoryID, &p.Excerpt,
		&p.Content, &p.ImageKey, &p.Status, &p.Views,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
		&p.AuthorName, &p.CategoryName, &p.CategorySlug, &tags,
	)
	if err != nil {
		return nil, err
	}
	p.Tags = splitTags(tags)
	return &p, nil
}

func splitTags(s string) []string {
	if s == "" {
		return []string{}
	}
	return strings.Split(s, ",")
}

func (s *PostStore) queryPosts(ctx context.Context, query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// List returns posts for the admin, newest first. An empty status lists
// every post.
func (s *PostStore) List(ctx context.Context, status models.PostStatus) ([]models.Post, error) {
	var (
		posts []models.Post
		err   error
	)
	if status == "" {
		posts, err = s.queryPosts(ctx, postSelect+` ORDER BY p.created_at DESC`)
	} else {
		posts, err = s.queryPosts(ctx, postSelect+` WHERE p.status = $1 ORDER BY p.created_at DESC`, status)
	}
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	return posts, nil
}

// listPublished runs a paginated query over published posts restricted by
// an optional extra condition. Placeholders in cond start at $1; limit and
// offset are appended after args.
func (s *PostStore) listPublished(ctx context.Context, op, cond string, args []any, page, size int) ([]models.Post, int, error) {
	where := ` WHERE p.status = 'published'`
	if cond != "" {
		where += ` AND ` + cond
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM posts p LEFT JOIN categories c ON c.id = p.category_id` + where
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, err)
	}

	n := len(args)
	query := postSelect + where +
		fmt.Sprintf(` ORDER BY p.published_at DESC, p.created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	posts, err := s.queryPosts(ctx, query, append(args, size, pageOffset(page, size))...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return posts, total, nil
}

// ListPublished returns one page of published posts and the total count.
func (s *PostStore) ListPublished(ctx context.Context, page, size int) ([]models.Post, int, error) {
	return s.listPublished(ctx, "list published posts", "", nil, page, size)
}

// ByCategory returns one page of published posts in the category with the
// given slug.
func (s *PostStore) ByCategory(ctx context.Context, categorySlug string, page, size int) ([]models.Post, int, error) {
	return s.listPublished(ctx, "list posts by category", `c.slug = $1`, []any{categorySlug}, page, size)
}

// ByTag returns one page of published posts carrying the tag with the given
// slug.
func (s *PostStore) ByTag(ctx context.Context, tagSlug string, page, size int) ([]models.Post, int, error) {
	cond := `EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
	                 WHERE pt.post_id = p.id AND t.slug = $1)`
	return s.listPublished(ctx, "list posts by tag", cond, []any{tagSlug}, page, size)
}

// Search matches query case-insensitively against title and content. An
// empty query returns no results.
func (s *PostStore) Search(ctx context.Context, query string, page, size int) ([]models.Post, int, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Post{}, 0, nil
	}
	pattern := "%" + escapeLike(query) + "%"
	return s.listPublished(ctx, "search posts", `(p.title ILIKE $1 OR p.content ILIKE $1)`, []any{pattern}, page, size)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string { return likeEscaper.Replace(s) }

// FindByID retrieves a post by ID regardless of status. Returns nil if not
// found.
func (s *PostStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by id: %w", err)
	}
	return p, nil
}

// FindPublishedBySlug retrieves a published post by slug. Drafts are
// reported as not found. Returns nil if not found.
func (s *PostStore) FindPublishedBySlug(ctx context.Context, slug string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx,
		postSelect+` WHERE p.slug = $1 AND p.status = 'published'`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find published post by slug: %w", err)
	}
	return p, nil
}

// Related returns up to limit other published posts in the same category.
// Posts without a category have no related posts.
func (s *PostStore) Related(ctx context.Context, p *models.Post, limit int) ([]models.Post, error) {
	if p.CategoryID == nil {
		return []models.Post{}, nil
	}
	posts, err := s.queryPosts(ctx, postSelect+`
		WHERE p.status = 'published' AND p.category_id = $1 AND p.id <> $2
		ORDER BY p.published_at DESC
		LIMIT $3`, *p.CategoryID, p.ID, limit)
	if err != nil {
		return nil, fmt.Errorf("related posts: %w", err)
	}
	return posts, nil
}

// IncrementViews adds one to the post's view counter.
func (s *PostStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Create inserts a new post. The slug is derived from the title when empty
// and published_at is stamped when the post is created as published.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	s.lc.BeforeSave(p)
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, author_id, category_id, excerpt, content,
		                   image_key, status, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, views, created_at, updated_at`,
		p.Title, p.Slug, p.AuthorID, p.CategoryID, p.Excerpt, p.Content,
		p.ImageKey, p.Status, p.PublishedAt,
	).Scan(&p.ID, &p.Views, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, wrapWrite("create post", ErrDuplicateSlug, err)
	}

	publishChange(ctx, s.bus, models.KindPost, p.ID, p.Slug, models.ActionAddition)
	return p, nil
}

// Update saves the editable fields of p. The first publication time is
// never overwritten, even when p carries a stale copy of it.
func (s *PostStore) Update(ctx context.Context, p *models.Post) error {
	s.lc.BeforeSave(p)

	err := s.db.QueryRowContext(ctx, `
		UPDATE posts SET
			title = $1, slug = $2, category_id = $3, excerpt = $4,
			content = $5, image_key = $6, status = $7,
			published_at = COALESCE(posts.published_at, $8),
			updated_at = NOW()
		WHERE id = $9
		RETURNING updated_at, published_at`,
		p.Title, p.Slug, p.CategoryID, p.Excerpt,
		p.Content, p.ImageKey, p.Status,
		p.PublishedAt, p.ID,
	).Scan(&p.UpdatedAt, &p.PublishedAt)
	if err == sql.ErrNoRows {
		return fmt.Errorf("update post: %w", ErrNotFound)
	}
	if err != nil {
		return wrapWrite("update post", ErrDuplicateSlug, err)
	}

	publishChange(ctx, s.bus, models.KindPost, p.ID, p.Slug, models.ActionChange)
	return nil
}

// SetImage stores the object key of the post's image.
func (s *PostStore) SetImage(ctx context.Context, id uuid.UUID, key string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE posts SET image_key = $1, updated_at = NOW() WHERE id = $2`, key, id)
	if err != nil {
		return fmt.Errorf("set post image: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("set post image: %w", ErrNotFound)
	}
	publishChange(ctx, s.bus, models.KindPost, id, "", models.ActionChange)
	return nil
}

// Delete removes a post. Its comments and tag links go with it.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	var slug string
	err := s.db.QueryRowContext(ctx, `DELETE FROM posts WHERE id = $1 RETURNING slug`, id).Scan(&slug)
	if err == sql.ErrNoRows {
		return fmt.Errorf("delete post: %w", ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	publishChange(ctx, s.bus, models.KindPost, id, slug, models.ActionDeletion)
	return nil
}
