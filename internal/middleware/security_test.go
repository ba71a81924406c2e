// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func serveSecure(opts SecurityOptions) http.Header {
	h := SecureHeaders(opts)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	return w.Header()
}

func TestSecureHeadersDefaults(t *testing.T) {
	h := serveSecure(SecurityOptions{})

	assert.Equal(t, "nosniff", h.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", h.Get("X-Frame-Options"))
	assert.Equal(t, "strict-origin-when-cross-origin", h.Get("Referrer-Policy"))
	assert.Contains(t, h.Get("Permissions-Policy"), "camera=()")
	assert.Empty(t, h.Get("Strict-Transport-Security"))

	csp := h.Get("Content-Security-Policy")
	assert.Contains(t, csp, "default-src 'self'")
	assert.Contains(t, csp, "script-src 'self' https://unpkg.com")
	assert.Contains(t, csp, "style-src 'self' 'unsafe-inline'")
	assert.Contains(t, csp, "img-src 'self' data:;")
	assert.Contains(t, csp, "frame-ancestors 'none'")
}

func TestSecureHeadersImageSourcesAndHSTS(t *testing.T) {
	h := serveSecure(SecurityOptions{
		ImageSources: []string{"https://cdn.example.com/", " ", ""},
		HSTS:         true,
	})

	assert.Contains(t, h.Get("Content-Security-Policy"), "img-src 'self' data: https://cdn.example.com/;")
	assert.Equal(t, "max-age=31536000; includeSubDomains", h.Get("Strict-Transport-Security"))
}
