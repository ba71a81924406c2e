package store

import (
	"context"
	"database/sql"
	"fmt"

	"codewithbrain/internal/events"
	"codewithbrain/internal/models"
)

// maxObjectRepr matches the object_repr column width.
const maxObjectRepr = 200

// LogEntryStore persists the admin change log.
type LogEntryStore struct {
	db    *sql.DB
	types *ContentTypeStore
	bus   *events.Bus
}

// NewLogEntryStore returns a LogEntryStore. Saved entries are announced on
// bus.LogEntrySaved when bus is non-nil.
func NewLogEntryStore(db *sql.DB, types *ContentTypeStore, bus *events.Bus) *LogEntryStore {
	return &LogEntryStore{db: db, types: types, bus: bus}
}

// Create inserts e and fills in its id and action time.
func (s *LogEntryStore) Create(ctx context.Context, e *models.LogEntry) error {
	if e.User != nil && e.UserID == nil {
		id := e.User.ID
		e.UserID = &id
	}
	if r := []rune(e.ObjectRepr); len(r) > maxObjectRepr {
		e.ObjectRepr = string(r[:maxObjectRepr])
	}

	err := s.db.QueryRowContext(ctx, `
		INSERT INTO admin_log_entries
			(user_id, content_type_id, object_id, object_repr, action_flag, change_message)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, action_time`,
		e.UserID, e.ContentTypeID, e.ObjectID, e.ObjectRepr, e.ActionFlag, e.ChangeMessage,
	).Scan(&e.ID, &e.ActionTime)
	if err != nil {
		return fmt.Errorf("create log entry: %w", err)
	}

	if s.bus != nil {
		s.bus.LogEntrySaved.Publish(ctx, events.LogEntrySaved{Entry: e, Created: true})
	}
	return nil
}

// Log records one admin action on an object of the given kind. user may be
// nil for actions without an authenticated actor. An unknown kind is saved
// without a content type.
func (s *LogEntryStore) Log(ctx context.Context, user *models.User, kind string, object fmt.Stringer, objectID string, flag models.ActionFlag, message string) (*models.LogEntry, error) {
	e := &models.LogEntry{
		User:          user,
		ObjectID:      objectID,
		ActionFlag:    flag,
		ChangeMessage: message,
	}
	if object != nil {
		e.ObjectRepr = object.String()
	}
	if s.types != nil {
		if id, err := s.types.IDFor(ctx, kind); err == nil {
			e.ContentTypeID = &id
		}
	}
	if err := s.Create(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Recent returns the newest change-log entries with their users attached.
func (s *LogEntryStore) Recent(ctx context.Context, limit int) ([]models.LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT e.id, e.action_time, e.user_id, e.content_type_id, e.object_id,
		       e.object_repr, e.action_flag, e.change_message,
		       u.username, u.display_name
		FROM admin_log_entries e
		LEFT JOIN users u ON u.id = e.user_id
		ORDER BY e.action_time DESC, e.id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent log entries: %w", err)
	}
	defer rows.Close()

	var entries []models.LogEntry
	for rows.Next() {
		var (
			e                     models.LogEntry
			username, displayName sql.NullString
		)
		err := rows.Scan(&e.ID, &e.ActionTime, &e.UserID, &e.ContentTypeID, &e.ObjectID,
			&e.ObjectRepr, &e.ActionFlag, &e.ChangeMessage, &username, &displayName)
		if err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		if e.UserID != nil && username.Valid {
			e.User = &models.User{ID: *e.UserID, Username: username.String, DisplayName: displayName.String}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
