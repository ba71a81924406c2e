// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler tests:
// sqlmock-backed stores, a miniredis session store and request helpers.
package handlers

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"codewithbrain/internal/events"
	"codewithbrain/internal/lifecycle"
	"codewithbrain/internal/middleware"
	"codewithbrain/internal/session"
	"codewithbrain/internal/store"
)

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

var (
	postColumns = []string{
		"id", "title", "slug", "author_id", "category_id", "excerpt",
		"content", "image_key", "status", "views",
		"created_at", "updated_at", "published_at",
		"author", "category_name", "category_slug", "tags",
	}
	userColumns = []string{
		"id", "username", "email", "password_hash", "display_name", "role",
		"totp_secret", "totp_enabled", "created_at", "updated_at",
	}
	commentReturning = []string{"id", "post_id", "author_name", "author_email", "content", "is_approved", "created_at"}
)

// newMock returns a sqlmock-backed database. Unmet expectations fail the
// test at cleanup.
func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unmet sql expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

// testSessions returns a session store on an in-process Valkey.
func testSessions(t *testing.T) *session.Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewStore(client, false)
}

// testStores groups stores that share one mock database and bus.
type testStores struct {
	posts      *store.PostStore
	categories *store.CategoryStore
	tags       *store.TagStore
	comments   *store.CommentStore
	users      *store.UserStore
	log        *store.LogEntryStore
}

func newTestStores(db *sql.DB, bus *events.Bus) testStores {
	lc := lifecycle.New(lifecycle.WithClock(func() time.Time { return testNow }))
	return testStores{
		posts:      store.NewPostStore(db, lc, bus),
		categories: store.NewCategoryStore(db, lc, bus),
		tags:       store.NewTagStore(db, lc),
		comments:   store.NewCommentStore(db, bus),
		users:      store.NewUserStore(db, bus),
		log:        store.NewLogEntryStore(db, nil, bus),
	}
}

// withSession attaches sess to the request context the way LoadSession does.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, sess))
}

// withParam sets a chi URL parameter on r.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
		r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	}
	rctx.URLParams.Add(key, value)
	return r
}

func staffSession(role string) *session.Data {
	return &session.Data{
		UserID:      uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		Username:    "editor1",
		DisplayName: "Editor One",
		Role:        role,
	}
}

// postRow returns a row for a published post with the given slug.
func postRow(id uuid.UUID, title, slug, status string) *sqlmock.Rows {
	return sqlmock.NewRows(postColumns).AddRow(
		id.String(), title, slug, uuid.NewString(), nil, "", "Body", nil, status, 3,
		testNow, testNow, testNow, "Admin", "", "", "",
	)
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h(w, r)
	return w
}

// collectLogEntries subscribes to LogEntrySaved.
func collectLogEntries(bus *events.Bus) *[]events.LogEntrySaved {
	var got []events.LogEntrySaved
	bus.LogEntrySaved.Subscribe(func(_ context.Context, ev events.LogEntrySaved) {
		got = append(got, ev)
	})
	return &got
}

// expectLogInsert expects one change-log row to be written.
func expectLogInsert(mock sqlmock.Sqlmock, flag int, message string) {
	mock.ExpectQuery("INSERT INTO admin_log_entries").
		WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), flag, message).
		WillReturnRows(sqlmock.NewRows([]string{"id", "action_time"}).AddRow(1, testNow))
}
