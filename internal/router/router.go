// Package router sets up all HTTP routes and middleware chains for the
// blog. It organizes routes into public, API and admin groups with
// appropriate middleware stacks.
package router

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"codewithbrain/internal/events"
	"codewithbrain/internal/handlers"
	"codewithbrain/internal/middleware"
	"codewithbrain/internal/session"
)

// Deps carries everything the route tree needs.
type Deps struct {
	Sessions *session.Store
	Bus      *events.Bus

	// Logger receives request lines and recovered panics; nil means
	// slog.Default.
	Logger   *slog.Logger
	Security middleware.SecurityOptions

	Public *handlers.Public
	API    *handlers.API
	Admin  *handlers.Admin
	Auth   *handlers.Auth

	// Metrics and Gatherer are optional; without a Gatherer /metrics is
	// not mounted.
	Metrics  *middleware.HTTPMetrics
	Gatherer prometheus.Gatherer

	// Optional per-IP limiters for login attempts and comment submission.
	LoginLimiter   *middleware.RateLimiter
	CommentLimiter *middleware.RateLimiter

	AdminPrefix   string // defaults to "/admin"
	SecureCookies bool
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware: applied to every request. The timer and access
	// publisher sit outside the recoverer so panics still produce a
	// RequestCompleted with status 500.
	r.Use(middleware.RequestTimer)
	r.Use(middleware.AccessEvents(d.Bus))
	r.Use(middleware.Recoverer(d.Logger))
	if d.Metrics != nil {
		r.Use(d.Metrics.Middleware)
	}
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.SecureHeaders(d.Security))
	r.Use(chimw.StripSlashes)

	// Health check and metrics: no auth, no CSRF.
	r.Get("/health", healthHandler)
	if d.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	}

	prefix := d.AdminPrefix
	if prefix == "" {
		prefix = "/admin"
	}

	// Admin JSON: CSRF protected, session loaded for every route.
	r.Route(prefix, func(r chi.Router) {
		r.Use(middleware.NewCSRF(d.SecureCookies))
		r.Use(middleware.LoadSession(d.Sessions))

		// Accessible without a session.
		r.Get("/login", d.Auth.LoginInfo)
		r.With(limit(d.LoginLimiter)).Post("/login", d.Auth.Login)
		r.Post("/logout", d.Auth.Logout)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)

			r.Get("/me", d.Admin.Me)
			r.Get("/log", d.Admin.Log)

			r.Get("/2fa/setup", d.Auth.TwoFASetup)
			r.Post("/2fa/verify", d.Auth.TwoFAVerify)
			r.Delete("/2fa", d.Auth.TwoFAReset)

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", d.Admin.ListPosts)
				r.Post("/", d.Admin.CreatePost)
				r.Get("/{id}", d.Admin.GetPost)
				r.Put("/{id}", d.Admin.UpdatePost)
				r.Delete("/{id}", d.Admin.DeletePost)
				r.Post("/{id}/image", d.Admin.UploadPostImage)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", d.Admin.ListCategories)
				r.Post("/", d.Admin.CreateCategory)
				r.Get("/{id}", d.Admin.GetCategory)
				r.Put("/{id}", d.Admin.UpdateCategory)
				r.Delete("/{id}", d.Admin.DeleteCategory)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Get("/", d.Admin.ListComments)
				r.Post("/approve", d.Admin.ApproveComments)
				r.Delete("/{id}", d.Admin.DeleteComment)
			})

			// User management: admin only
			r.Route("/users", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", d.Admin.ListUsers)
				r.Post("/", d.Admin.CreateUser)
				r.Delete("/{id}", d.Admin.DeleteUser)
			})
		})
	})

	// Public JSON API.
	r.Route("/api", func(r chi.Router) {
		r.Get("/posts", d.API.Posts)
		r.Get("/posts/{slug}", d.API.Post)
		r.Get("/posts/{slug}/comments", d.API.Comments)
		r.With(limit(d.CommentLimiter)).Post("/posts/{slug}/comment", d.API.CreateComment)
		r.Get("/categories", d.API.Categories)
		r.Get("/categories/{slug}", d.API.Category)
	})

	// Public pages.
	r.Get("/", d.Public.Index)
	r.Get("/blog/{slug}", d.Public.Detail)
	r.Get("/category/{slug}", d.Public.Category)
	r.Get("/tag/{tag}", d.Public.Tag)
	r.Get("/search", d.Public.Search)

	return r
}

// limit returns rl's middleware, or a pass-through when rl is nil.
func limit(rl *middleware.RateLimiter) func(http.Handler) http.Handler {
	if rl == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	return rl.Middleware
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
