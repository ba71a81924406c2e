package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"codewithbrain/internal/session"
)

// newTestSession creates a session.Data value suitable for testing.
func newTestSession(role string) *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Username:    "tester",
		DisplayName: "Test User",
		Role:        role,
	}
}

// ctxWithSession returns a context carrying the given session data using
// the same context key the middleware uses.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, SessionKey, data)
}

// okHandler is a simple handler that records whether it was invoked.
func okHandler() (http.Handler, *bool) {
	var called bool
	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})
	return h, &called
}

func newSessionStore(t *testing.T) (*session.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return session.NewStore(client, false), mr
}

// ---------- SessionFromCtx ----------

func TestSessionFromCtx(t *testing.T) {
	t.Run("returns session when present", func(t *testing.T) {
		sess := newTestSession("admin")
		got := SessionFromCtx(ctxWithSession(context.Background(), sess))
		if got == nil {
			t.Fatal("expected non-nil session, got nil")
		}
		if got.Username != sess.Username {
			t.Errorf("Username: got %q, want %q", got.Username, sess.Username)
		}
	})

	t.Run("returns nil when not present", func(t *testing.T) {
		if got := SessionFromCtx(context.Background()); got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("returns nil for wrong type in context", func(t *testing.T) {
		ctx := context.WithValue(context.Background(), SessionKey, "not-a-session")
		if got := SessionFromCtx(ctx); got != nil {
			t.Errorf("expected nil for wrong type, got %+v", got)
		}
	})
}

// ---------- LoadSession ----------

func TestLoadSession(t *testing.T) {
	t.Run("no session cookie proceeds without session", func(t *testing.T) {
		store, _ := newSessionStore(t)

		var got *session.Data
		called := false
		handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			got = SessionFromCtx(r.Context())
		}))

		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/posts", nil))

		if !called {
			t.Error("next handler should have been called")
		}
		if got != nil {
			t.Errorf("expected nil session, got %+v", got)
		}
	})

	t.Run("valid cookie loads session", func(t *testing.T) {
		store, _ := newSessionStore(t)
		w := httptest.NewRecorder()
		if _, err := store.Create(context.Background(), w, newTestSession("editor")); err != nil {
			t.Fatalf("Create: %v", err)
		}

		var got *session.Data
		handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = SessionFromCtx(r.Context())
		}))

		req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
		for _, c := range w.Result().Cookies() {
			req.AddCookie(c)
		}
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if got == nil {
			t.Fatal("downstream handler should have received session")
		}
		if got.Role != "editor" {
			t.Errorf("Role: got %q, want editor", got.Role)
		}
	})

	t.Run("store error is treated as anonymous", func(t *testing.T) {
		store, mr := newSessionStore(t)
		mr.SetError("LOADING")

		called := false
		handler := LoadSession(store)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			called = true
			if SessionFromCtx(r.Context()) != nil {
				t.Error("expected no session on store error")
			}
		}))

		req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
		req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "abc"})
		handler.ServeHTTP(httptest.NewRecorder(), req)

		if !called {
			t.Error("next handler should have been called")
		}
	})
}

// ---------- RequireAuth ----------

func TestRequireAuth(t *testing.T) {
	t.Run("401 when no session", func(t *testing.T) {
		inner, called := okHandler()
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/admin/posts", nil))

		if *called {
			t.Error("next handler should NOT have been called")
		}
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("status: got %d, want 401", rr.Code)
		}
		if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type: got %q", ct)
		}
	})

	t.Run("passes through when session exists", func(t *testing.T) {
		inner, called := okHandler()
		req := httptest.NewRequest(http.MethodGet, "/admin/posts", nil)
		req = req.WithContext(ctxWithSession(req.Context(), newTestSession("author")))
		rr := httptest.NewRecorder()
		RequireAuth(inner).ServeHTTP(rr, req)

		if !*called {
			t.Error("next handler should have been called")
		}
	})
}

// ---------- RequireAdmin ----------

func TestRequireAdmin(t *testing.T) {
	tests := []struct {
		name           string
		session        *session.Data
		wantCode       int
		wantNextCalled bool
	}{
		{"returns 403 when session is nil", nil, http.StatusForbidden, false},
		{"returns 403 when role is editor", newTestSession("editor"), http.StatusForbidden, false},
		{"returns 403 when role is empty", newTestSession(""), http.StatusForbidden, false},
		{"passes through when role is admin", newTestSession("admin"), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inner, called := okHandler()
			req := httptest.NewRequest(http.MethodGet, "/admin/users", nil)
			if tt.session != nil {
				req = req.WithContext(ctxWithSession(req.Context(), tt.session))
			}
			rr := httptest.NewRecorder()
			RequireAdmin(inner).ServeHTTP(rr, req)

			if *called != tt.wantNextCalled {
				t.Errorf("next handler called: got %v, want %v", *called, tt.wantNextCalled)
			}
			if rr.Code != tt.wantCode {
				t.Errorf("status: got %d, want %d", rr.Code, tt.wantCode)
			}
		})
	}
}
