package handlers

import (
	"encoding/base64"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/pquerna/otp/totp"
	qrcode "github.com/skip2/go-qrcode"

	"codewithbrain/internal/events"
	"codewithbrain/internal/middleware"
	"codewithbrain/internal/session"
	"codewithbrain/internal/store"
)

// totpIssuer names the site in authenticator apps.
const totpIssuer = "CodeWithBrain"

// sensitiveFields never leave the login handler in a LoginFailed event.
var sensitiveFields = map[string]bool{
	"password":               true,
	"code":                   true,
	middleware.CSRFFormField: true,
}

// Auth groups all authentication-related HTTP handlers.
type Auth struct {
	sessions  *session.Store
	userStore *store.UserStore
	bus       *events.Bus
}

// NewAuth creates a new Auth handler group. Login outcomes and logouts
// are published on bus.
func NewAuth(sessions *session.Store, userStore *store.UserStore, bus *events.Bus) *Auth {
	return &Auth{
		sessions:  sessions,
		userStore: userStore,
		bus:       bus,
	}
}

// LoginInfo reports whether the caller is signed in and hands out the
// CSRF token the login form has to send back.
func (a *Auth) LoginInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": middleware.SessionFromCtx(r.Context()) != nil,
		"csrf_token":    middleware.CSRFTokenFromCtx(r.Context()),
	})
}

// Login checks username, password and, for enrolled users, the TOTP code.
// A session is created only once every factor has passed.
func (a *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := r.ParseForm(); err != nil {
		writeError(w, http.StatusBadRequest, "invalid form")
		return
	}

	username := r.PostFormValue("username")
	password := r.PostFormValue("password")
	code := r.PostFormValue("code")

	user, err := a.userStore.FindByUsername(ctx, username)
	if err != nil {
		serverError(w, "login lookup failed", err)
		return
	}

	if user == nil || !a.userStore.CheckPassword(user, password) {
		a.failed(r)
		writeError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}

	if user.TOTPEnabled && user.TOTPSecret != nil {
		if code == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{
				"error":         "two-factor code required",
				"totp_required": true,
			})
			return
		}
		if !totp.Validate(code, *user.TOTPSecret) {
			a.failed(r)
			writeError(w, http.StatusUnauthorized, "invalid two-factor code")
			return
		}
	}

	_, err = a.sessions.Create(ctx, w, &session.Data{
		UserID:      user.ID,
		Username:    user.Username,
		DisplayName: user.DisplayName,
		Role:        string(user.Role),
	})
	if err != nil {
		serverError(w, "session create failed", err)
		return
	}

	middleware.SetAccessUser(ctx, user.Username)
	a.bus.LoginSucceeded.Publish(ctx, events.LoginSucceeded{
		User:       user,
		RemoteAddr: middleware.ClientIP(r),
	})

	writeJSON(w, http.StatusOK, map[string]any{
		"user":       user,
		"csrf_token": middleware.CSRFTokenFromCtx(ctx),
	})
}

// failed publishes LoginFailed with the submitted form minus secrets.
func (a *Auth) failed(r *http.Request) {
	a.bus.LoginFailed.Publish(r.Context(), events.LoginFailed{
		Credentials: sanitizeCredentials(r.PostForm),
		RemoteAddr:  middleware.ClientIP(r),
	})
}

// sanitizeCredentials flattens form values, dropping password-like fields.
func sanitizeCredentials(form url.Values) map[string]string {
	creds := make(map[string]string, len(form))
	for k := range form {
		if sensitiveFields[k] {
			continue
		}
		creds[k] = form.Get(k)
	}
	return creds
}

// Logout destroys the session. Logging out without a session still
// succeeds.
func (a *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	user := actor(r)

	if err := a.sessions.Destroy(r.Context(), w, r); err != nil {
		slog.Warn("session destroy failed", "error", err)
	}
	// The request finishes signed out.
	middleware.SetAccessUser(r.Context(), "")
	a.bus.LoggedOut.Publish(r.Context(), events.LoggedOut{
		User:       user,
		RemoteAddr: middleware.ClientIP(r),
	})

	w.WriteHeader(http.StatusNoContent)
}

// TwoFASetup generates a new TOTP secret for the signed-in user and returns
// it with a QR code PNG. The secret takes effect after TwoFAVerify.
func (a *Auth) TwoFASetup(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	user, err := a.userStore.FindByID(r.Context(), sess.UserID)
	if err != nil {
		serverError(w, "user lookup for 2fa failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if user.TOTPEnabled {
		writeError(w, http.StatusConflict, "two-factor authentication is already enabled")
		return
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      totpIssuer,
		AccountName: sess.Username,
	})
	if err != nil {
		serverError(w, "totp generate failed", err)
		return
	}

	if err := a.userStore.SetTOTPSecret(r.Context(), sess.UserID, key.Secret()); err != nil {
		serverError(w, "save totp secret failed", err)
		return
	}

	qrPNG, err := qrcode.Encode(key.URL(), qrcode.Medium, 256)
	if err != nil {
		serverError(w, "qr code generation failed", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"secret":  key.Secret(),
		"url":     key.URL(),
		"qr_code": "data:image/png;base64," + base64.StdEncoding.EncodeToString(qrPNG),
	})
}

// TwoFAVerify checks a code against the pending secret and enables TOTP.
func (a *Auth) TwoFAVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := middleware.SessionFromCtx(ctx)

	user, err := a.userStore.FindByID(ctx, sess.UserID)
	if err != nil {
		serverError(w, "user lookup for 2fa failed", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if user.TOTPSecret == nil {
		writeError(w, http.StatusConflict, "two-factor setup has not been started")
		return
	}

	if !totp.Validate(r.FormValue("code"), *user.TOTPSecret) {
		writeError(w, http.StatusBadRequest, "invalid code")
		return
	}

	if !user.TOTPEnabled {
		if err := a.userStore.EnableTOTP(ctx, user.ID); err != nil {
			serverError(w, "enable totp failed", err)
			return
		}
		user.TOTPEnabled = true
	}

	writeJSON(w, http.StatusOK, map[string]any{"user": user})
}

// TwoFAReset turns two-factor authentication off for the signed-in user.
func (a *Auth) TwoFAReset(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if err := a.userStore.ResetTOTP(r.Context(), sess.UserID); err != nil {
		serverError(w, "reset totp failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
