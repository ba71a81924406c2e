package events

import (
	"time"

	"github.com/google/uuid"

	"codewithbrain/internal/models"
)

// LogEntrySaved is published after a change-log entry row is written.
type LogEntrySaved struct {
	Entry   *models.LogEntry
	Created bool
}

// UserSaved is published after a user row is inserted or updated.
type UserSaved struct {
	User    *models.User
	Created bool
}

// LoginSucceeded is published when credentials (and the second factor, if
// enrolled) were accepted.
type LoginSucceeded struct {
	User       *models.User
	RemoteAddr string
}

// LoginFailed is published when a login attempt is rejected. Credentials
// never carries the password.
type LoginFailed struct {
	Credentials map[string]string
	RemoteAddr  string
}

// LoggedOut is published when a session is ended. User is nil when the
// request carried no session.
type LoggedOut struct {
	User       *models.User
	RemoteAddr string
}

// RequestCompleted is published after a response has been produced.
// StartedAt is zero when the request timer was not installed.
type RequestCompleted struct {
	Method     string
	Path       string
	StatusCode int
	StartedAt  time.Time
	FinishedAt time.Time
	Username   string
	RemoteAddr string
}

// Duration returns FinishedAt-StartedAt, or zero when the start time is
// unknown.
func (e RequestCompleted) Duration() time.Duration {
	if e.StartedAt.IsZero() || e.FinishedAt.IsZero() {
		return 0
	}
	return e.FinishedAt.Sub(e.StartedAt)
}

// ContentChanged is published after a post, category or comment is
// created, changed or deleted.
type ContentChanged struct {
	Kind   string
	ID     uuid.UUID
	Slug   string
	Action models.ActionFlag
}
