package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/pquerna/otp/totp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"codewithbrain/internal/events"
	"codewithbrain/internal/session"
	"codewithbrain/internal/store"
)

type authEvents struct {
	succeeded []events.LoginSucceeded
	failed    []events.LoginFailed
	loggedOut []events.LoggedOut
}

func newAuthTest(t *testing.T) (*Auth, sqlmock.Sqlmock, *authEvents) {
	t.Helper()
	db, mock := newMock(t)
	bus := events.NewBus(nil)

	ev := &authEvents{}
	bus.LoginSucceeded.Subscribe(func(_ context.Context, e events.LoginSucceeded) { ev.succeeded = append(ev.succeeded, e) })
	bus.LoginFailed.Subscribe(func(_ context.Context, e events.LoginFailed) { ev.failed = append(ev.failed, e) })
	bus.LoggedOut.Subscribe(func(_ context.Context, e events.LoggedOut) { ev.loggedOut = append(ev.loggedOut, e) })

	return NewAuth(testSessions(t), store.NewUserStore(db, bus), bus), mock, ev
}

func loginRequest(form url.Values) *http.Request {
	req := httptest.NewRequest("POST", "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "198.51.100.4:40000"
	return req
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func userRow(t *testing.T, password string, totpSecret any, totpEnabled bool) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		uuid.NewString(), "alice", "alice@example.com", hashed(t, password), "Alice", "admin",
		totpSecret, totpEnabled, testNow, testNow,
	)
}

func TestLoginUnknownUserPublishesFailure(t *testing.T) {
	auth, mock, ev := newAuthTest(t)
	mock.ExpectQuery("FROM users WHERE username").WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows(userColumns))

	w := serve(auth.Login, loginRequest(url.Values{
		"username":   {"ghost"},
		"password":   {"hunter2"},
		"csrf_token": {"abc"},
	}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, ev.succeeded)
	require.Len(t, ev.failed, 1)
	assert.Equal(t, map[string]string{"username": "ghost"}, ev.failed[0].Credentials)
	assert.Equal(t, "198.51.100.4", ev.failed[0].RemoteAddr)
}

func TestLoginWrongPassword(t *testing.T) {
	auth, mock, ev := newAuthTest(t)
	mock.ExpectQuery("FROM users WHERE username").WithArgs("alice").
		WillReturnRows(userRow(t, "correct horse", nil, false))

	w := serve(auth.Login, loginRequest(url.Values{"username": {"alice"}, "password": {"wrong"}}))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	require.Len(t, ev.failed, 1)
	assert.NotContains(t, ev.failed[0].Credentials, "password")
	assert.Empty(t, w.Result().Cookies())
}

func TestLoginSuccessCreatesSession(t *testing.T) {
	auth, mock, ev := newAuthTest(t)
	mock.ExpectQuery("FROM users WHERE username").WithArgs("alice").
		WillReturnRows(userRow(t, "correct horse", nil, false))

	w := serve(auth.Login, loginRequest(url.Values{"username": {"alice"}, "password": {"correct horse"}}))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, ev.failed)
	require.Len(t, ev.succeeded, 1)
	assert.Equal(t, "alice", ev.succeeded[0].User.Username)
	assert.Equal(t, "198.51.100.4", ev.succeeded[0].RemoteAddr)

	var found bool
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName && c.Value != "" {
			found = true
		}
	}
	assert.True(t, found, "expected a session cookie")
	assert.NotContains(t, w.Body.String(), "password_hash")
}

func TestLoginTOTPRequired(t *testing.T) {
	key, err := totp.Generate(totp.GenerateOpts{Issuer: "test", AccountName: "alice"})
	require.NoError(t, err)

	t.Run("missing code asks for it", func(t *testing.T) {
		auth, mock, ev := newAuthTest(t)
		mock.ExpectQuery("FROM users WHERE username").
			WillReturnRows(userRow(t, "pw-123456", key.Secret(), true))

		w := serve(auth.Login, loginRequest(url.Values{"username": {"alice"}, "password": {"pw-123456"}}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		var body map[string]any
		require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
		assert.Equal(t, true, body["totp_required"])
		assert.Empty(t, ev.failed)
		assert.Empty(t, ev.succeeded)
	})

	t.Run("bad code fails", func(t *testing.T) {
		auth, mock, ev := newAuthTest(t)
		mock.ExpectQuery("FROM users WHERE username").
			WillReturnRows(userRow(t, "pw-123456", key.Secret(), true))

		w := serve(auth.Login, loginRequest(url.Values{
			"username": {"alice"}, "password": {"pw-123456"}, "code": {"not-a-code"},
		}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		require.Len(t, ev.failed, 1)
		assert.Equal(t, map[string]string{"username": "alice"}, ev.failed[0].Credentials)
	})

	t.Run("valid code signs in", func(t *testing.T) {
		auth, mock, ev := newAuthTest(t)
		mock.ExpectQuery("FROM users WHERE username").
			WillReturnRows(userRow(t, "pw-123456", key.Secret(), true))

		code, err := totp.GenerateCode(key.Secret(), time.Now())
		require.NoError(t, err)

		w := serve(auth.Login, loginRequest(url.Values{
			"username": {"alice"}, "password": {"pw-123456"}, "code": {code},
		}))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, ev.succeeded, 1)
	})
}

func TestLogoutPublishesUser(t *testing.T) {
	auth, _, ev := newAuthTest(t)

	req := withSession(httptest.NewRequest("POST", "/admin/logout", nil), staffSession("editor"))
	w := serve(auth.Logout, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.Len(t, ev.loggedOut, 1)
	require.NotNil(t, ev.loggedOut[0].User)
	assert.Equal(t, "editor1", ev.loggedOut[0].User.Username)
}

func TestSanitizeCredentials(t *testing.T) {
	got := sanitizeCredentials(url.Values{
		"username":   {"bob"},
		"password":   {"secret"},
		"code":       {"123456"},
		"csrf_token": {"tok"},
		"remember":   {"on"},
	})
	assert.Equal(t, map[string]string{"username": "bob", "remember": "on"}, got)
}
