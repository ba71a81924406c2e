// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
)

// Recoverer turns a panicking handler into a 500 and reports the panic,
// with its stack, on logger. Clients that speak JSON get a JSON body and
// everything else plain text. A nil logger falls back to slog.Default.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			wrapped := wrap(w)
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.Error("handler panic",
					"panic", rec,
					"method", r.Method,
					"path", r.URL.Path,
					"remote", ClientIP(r),
					"stack", string(debug.Stack()),
				)
				if wrapped.written {
					return
				}
				if wantsJSON(r) {
					writeError(wrapped, http.StatusInternalServerError, "internal server error")
					return
				}
				http.Error(wrapped, "Internal Server Error", http.StatusInternalServerError)
			}()

			next.ServeHTTP(wrapped, r)
		})
	}
}

// wantsJSON reports whether the failure should be answered in JSON.
func wantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json")
}
