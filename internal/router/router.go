// Package router sets up all HTTP routes and middleware chains for the
// Quillpress API. Reads require a verified user; writes additionally
// require the admin role or the matching permission.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"quillpress/internal/handlers"
	"quillpress/internal/middleware"
	"quillpress/internal/models"
)

// Deps holds everything the router wires together. Limiter and Recorder
// may be nil.
type Deps struct {
	Posts      *handlers.Posts
	Categories *handlers.Categories
	Users      *handlers.Users
	Dashboard  *handlers.Dashboard
	Settings   *handlers.Settings

	Roles    middleware.RoleChecker
	Recorder middleware.ActiveUserRecorder
	Limiter  *middleware.RateLimiter
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(d Deps) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Metrics)
	r.Use(middleware.SecureHeaders)

	r.NotFound(notFoundHandler)
	r.MethodNotAllowed(methodNotAllowedHandler)

	// Health and metrics, no identity.
	r.Get("/health", healthHandler)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.Middleware)
		}
		r.Use(middleware.RequireUser(d.Recorder))

		// Posts
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", d.Posts.List)
			r.Get("/{id}", d.Posts.Get)
			r.Post("/{id}/view", d.Posts.RecordView)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(d.Roles, models.PermPostsWrite))
				r.Post("/", d.Posts.Create)
				r.Put("/{id}", d.Posts.Update)
				r.Delete("/{id}", d.Posts.Delete)
				r.Post("/{id}/status", d.Posts.SetStatus)
			})
		})

		// Categories
		r.Route("/categories", func(r chi.Router) {
			r.Get("/", d.Categories.List)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequirePermission(d.Roles, models.PermCategoriesWrite))
				r.Post("/", d.Categories.Create)
				r.Post("/reconcile", d.Categories.Reconcile)
				r.Put("/{id}", d.Categories.Update)
				r.Delete("/{id}", d.Categories.Delete)
				r.Post("/{id}/move", d.Categories.Move)
			})
		})

		// User management, admin only
		r.Route("/admin/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(d.Roles))
			r.Get("/", d.Users.List)
			r.Put("/{id}", d.Users.Update)
			r.Delete("/{id}", d.Users.Delete)
		})

		// Dashboard
		r.Route("/dashboard", func(r chi.Router) {
			r.Get("/stats", d.Dashboard.Stats)
			r.Get("/views", d.Dashboard.Views)
			r.Get("/popular", d.Dashboard.Popular)
			r.Get("/categories", d.Dashboard.Categories)
			r.Get("/activity", d.Dashboard.Activity)
			r.Get("/users", d.Dashboard.Users)
		})

		// Settings
		r.Get("/settings", d.Settings.Get)
		r.With(middleware.RequirePermission(d.Roles, models.PermSettingsWrite)).
			Put("/settings", d.Settings.Update)
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusNotFound)
	w.Write([]byte(`{"success":false,"error":"not found"}`))
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	w.Write([]byte(`{"success":false,"error":"method not allowed"}`))
}
