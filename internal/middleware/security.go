package middleware

import (
	"net/http"
	"strings"
)

// htmxSource is where the public templates load htmx from.
const htmxSource = "https://unpkg.com"

// SecurityOptions tunes SecureHeaders for a deployment.
type SecurityOptions struct {
	// ImageSources are extra img-src entries, typically the public URL
	// of the post image bucket.
	ImageSources []string
	// HSTS adds Strict-Transport-Security. Only set it behind TLS.
	HSTS bool
}

// SecureHeaders sets the browser hardening headers on every response,
// including a Content-Security-Policy that admits htmx, highlighted code
// blocks (inline styles) and post images served from object storage.
func SecureHeaders(opts SecurityOptions) func(http.Handler) http.Handler {
	csp := contentSecurityPolicy(opts.ImageSources)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			h.Set("Content-Security-Policy", csp)
			h.Set("X-Content-Type-Options", "nosniff")
			h.Set("X-Frame-Options", "DENY")
			h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
			h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=(), interest-cohort=()")
			if opts.HSTS {
				h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
			}
			next.ServeHTTP(w, r)
		})
	}
}

func contentSecurityPolicy(imageSources []string) string {
	img := []string{"'self'", "data:"}
	for _, src := range imageSources {
		if src = strings.TrimSpace(src); src != "" {
			img = append(img, src)
		}
	}
	return strings.Join([]string{
		"default-src 'self'",
		"script-src 'self' " + htmxSource,
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(img, " "),
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"form-action 'self'",
	}, "; ")
}
