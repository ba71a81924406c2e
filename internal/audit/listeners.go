package audit

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"codewithbrain/internal/events"
	"codewithbrain/internal/models"
)

const (
	adminFailureMsg  = "admin action logging failed"
	accessFailureMsg = "admin access logging failed"
)

// OnLogEntrySaved records newly created change-log entries. Updates to an
// existing entry are ignored.
func (a *Auditor) OnLogEntrySaved(ctx context.Context, ev events.LogEntrySaved) {
	if !ev.Created {
		return
	}
	defer a.guard(ctx, a.admin, channelAdmin, adminFailureMsg)

	rec, err := a.changeLogRecord(ctx, ev.Entry)
	if err != nil {
		a.fail(ctx, a.admin, channelAdmin, adminFailureMsg, err)
		return
	}
	a.emit(ctx, slog.LevelInfo, rec)
}

func (a *Auditor) changeLogRecord(ctx context.Context, e *models.LogEntry) (Record, error) {
	if e == nil {
		return Record{}, errors.New("change-log entry is nil")
	}

	user := anonymousUser
	if e.User != nil {
		user = e.User.Username
	}

	action := ActionUnknown
	switch e.ActionFlag {
	case models.ActionAddition:
		action = ActionAddition
	case models.ActionChange:
		action = ActionChange
	case models.ActionDeletion:
		action = ActionDeletion
	}

	details := noDetails
	if e.ChangeMessage != "" {
		details = truncate(e.ChangeMessage, maxDetails)
	}

	return Record{
		User:     user,
		Action:   action,
		Model:    a.modelName(ctx, e.ContentTypeID),
		ObjectID: e.ObjectID,
		Details:  details,
	}, nil
}

func (a *Auditor) modelName(ctx context.Context, id *int64) string {
	if id == nil || a.kinds == nil {
		return unknownModel
	}
	name, err := a.kinds.ModelName(ctx, *id)
	if err != nil || name == "" {
		return unknownModel
	}
	return name
}

// OnUserSaved records account creation. Updates are ignored.
func (a *Auditor) OnUserSaved(ctx context.Context, ev events.UserSaved) {
	if !ev.Created {
		return
	}
	defer a.guard(ctx, a.admin, channelAdmin, adminFailureMsg)

	if ev.User == nil {
		a.fail(ctx, a.admin, channelAdmin, adminFailureMsg, errors.New("created user is nil"))
		return
	}

	a.emit(ctx, slog.LevelInfo, Record{
		User:     orDefault(ev.User.Username, systemUser),
		Action:   ActionUserCreated,
		Model:    "User",
		ObjectID: ev.User.ID.String(),
		Details:  truncate("Created user: "+ev.User.Username, maxDetails),
	})
}

// OnLoginSucceeded records a successful login.
func (a *Auditor) OnLoginSucceeded(ctx context.Context, ev events.LoginSucceeded) {
	defer a.guard(ctx, a.admin, channelAdmin, adminFailureMsg)

	if ev.User == nil {
		a.fail(ctx, a.admin, channelAdmin, adminFailureMsg, errors.New("logged in user is nil"))
		return
	}

	a.emit(ctx, slog.LevelInfo, Record{
		User:     ev.User.Username,
		Action:   ActionLogin,
		Model:    "User",
		ObjectID: ev.User.ID.String(),
		Details:  truncate("Successful login from IP: "+orDefault(ev.RemoteAddr, unknownIP), maxDetails),
	})
}

// OnLoggedOut records a logout. A logout without a user produces nothing.
func (a *Auditor) OnLoggedOut(ctx context.Context, ev events.LoggedOut) {
	if ev.User == nil {
		return
	}
	defer a.guard(ctx, a.admin, channelAdmin, adminFailureMsg)

	a.emit(ctx, slog.LevelInfo, Record{
		User:     ev.User.Username,
		Action:   ActionLogout,
		Model:    "User",
		ObjectID: ev.User.ID.String(),
		Details:  truncate("Logout from IP: "+orDefault(ev.RemoteAddr, unknownIP), maxDetails),
	})
}

// OnLoginFailed records a rejected login at WARN level.
func (a *Auditor) OnLoginFailed(ctx context.Context, ev events.LoginFailed) {
	defer a.guard(ctx, a.admin, channelAdmin, adminFailureMsg)

	a.emit(ctx, slog.LevelWarn, Record{
		User:     orDefault(ev.Credentials["username"], unknownUser),
		Action:   ActionLoginFailed,
		Model:    "User",
		ObjectID: notApplicable,
		Details:  truncate("Failed login attempt from IP: "+orDefault(ev.RemoteAddr, unknownIP), maxDetails),
	})
}

// OnRequestCompleted records requests whose path starts with the admin
// prefix. Every other path is ignored.
func (a *Auditor) OnRequestCompleted(ctx context.Context, ev events.RequestCompleted) {
	if !a.watches(ev.Path) {
		return
	}
	defer a.guard(ctx, a.access, channelAccess, accessFailureMsg)

	if ev.FinishedAt.IsZero() && !ev.StartedAt.IsZero() {
		ev.FinishedAt = a.now()
	}

	a.emitAccess(ctx, AccessRecord{
		Method:     ev.Method,
		Path:       ev.Path,
		StatusCode: ev.StatusCode,
		Duration:   ev.Duration(),
		User:       orDefault(ev.Username, anonymousUser),
		IP:         orDefault(ev.RemoteAddr, unknownIP),
	})
}

func (a *Auditor) watches(path string) bool {
	return strings.HasPrefix(path, a.prefix)
}
