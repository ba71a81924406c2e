package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"codewithbrain/internal/events"
	"codewithbrain/internal/models"
)

// CommentStore handles reader comments.
type CommentStore struct {
	db  *sql.DB
	bus *events.Bus
}

// NewCommentStore returns a new CommentStore.
func NewCommentStore(db *sql.DB, bus *events.Bus) *CommentStore {
	return &CommentStore{db: db, bus: bus}
}

const commentColumns = `c.id, c.post_id, c.author_name, c.author_email, c.content, c.is_approved, c.created_at, p.title`

const commentSelect = `SELECT ` + commentColumns + ` FROM comments c JOIN posts p ON p.id = c.post_id`

func scanComment(row scanner) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.AuthorName, &c.AuthorEmail,
		&c.Content, &c.IsApproved, &c.CreatedAt, &c.PostTitle)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CommentStore) query(ctx context.Context, query string, args ...any) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment: %w", err)
		}
		items = append(items, *c)
	}
	return items, rows.Err()
}

// Create stores a new comment. Comments always start unapproved.
func (s *CommentStore) Create(ctx context.Context, c *models.Comment) (*models.Comment, error) {
	c.IsApproved = false
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO comments (post_id, author_name, author_email, content)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		c.PostID, c.AuthorName, c.AuthorEmail, c.Content,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	publishChange(ctx, s.bus, models.KindComment, c.ID, "", models.ActionAddition)
	return c, nil
}

// ListApproved returns the approved comments of a post, newest first.
func (s *CommentStore) ListApproved(ctx context.Context, postID uuid.UUID) ([]models.Comment, error) {
	items, err := s.query(ctx, commentSelect+`
		WHERE c.post_id = $1 AND c.is_approved
		ORDER BY c.created_at DESC`, postID)
	if err != nil {
		return nil, fmt.Errorf("list approved comments: %w", err)
	}
	return items, nil
}

// List returns comments for moderation, newest first. A nil approved lists
// every comment.
func (s *CommentStore) List(ctx context.Context, approved *bool) ([]models.Comment, error) {
	var (
		items []models.Comment
		err   error
	)
	if approved == nil {
		items, err = s.query(ctx, commentSelect+` ORDER BY c.created_at DESC`)
	} else {
		items, err = s.query(ctx, commentSelect+` WHERE c.is_approved = $1 ORDER BY c.created_at DESC`, *approved)
	}
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	return items, nil
}

// FindByID retrieves a comment. Returns nil if not found.
func (s *CommentStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	c, err := scanComment(s.db.QueryRowContext(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	return c, nil
}

// Approve marks the given comments approved in one transaction and returns
// those that exist. Unknown ids are skipped.
func (s *CommentStore) Approve(ctx context.Context, ids []uuid.UUID) ([]models.Comment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var approved []models.Comment
	for _, id := range ids {
		var c models.Comment
		err := tx.QueryRowContext(ctx, `
			UPDATE comments SET is_approved = TRUE WHERE id = $1
			RETURNING id, post_id, author_name, author_email, content, is_approved, created_at`, id,
		).Scan(&c.ID, &c.PostID, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.IsApproved, &c.CreatedAt)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("approve comment %s: %w", id, err)
		}
		approved = append(approved, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("approve comments: %w", err)
	}
	for _, c := range approved {
		publishChange(ctx, s.bus, models.KindComment, c.ID, "", models.ActionChange)
	}
	return approved, nil
}

// Delete removes a comment and returns what was deleted.
func (s *CommentStore) Delete(ctx context.Context, id uuid.UUID) (*models.Comment, error) {
	var c models.Comment
	err := s.db.QueryRowContext(ctx, `
		DELETE FROM comments WHERE id = $1
		RETURNING id, post_id, author_name, author_email, content, is_approved, created_at`, id,
	).Scan(&c.ID, &c.PostID, &c.AuthorName, &c.AuthorEmail, &c.Content, &c.IsApproved, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("delete comment: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("delete comment: %w", err)
	}
	publishChange(ctx, s.bus, models.KindComment, c.ID, "", models.ActionDeletion)
	return &c, nil
}
