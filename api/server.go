/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:       Request logging
  2. Recoverer:    Panic recovery (500 instead of crash)
  3. RequestID:    Unique ID per request for tracing
  4. CORS:         Cross-origin requests for the web client
  5. Authenticate: Resolves the caller from the Authorization header
                   (every /api route except /healthz)

ROUTE GROUPS:
  /api/flows/*   Flow listing, CRUD, merge/unmerge
  /api/groups/*  Group summary read/edit
  /api/undo      Snapshot-based compensation
  /api/books/*   Book listing and creation
  /healthz       Liveness probe (unauthenticated)

SEE ALSO:
  - handlers.go: Handler implementations
  - context.go: Authentication middleware
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, auth Authenticator) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Use(Authenticate(auth))

		// Flow routes
		r.Route("/flows", func(r chi.Router) {
			r.Post("/", h.CreateFlow)
			r.Post("/page", h.PageFlows)
			r.Post("/batch-delete", h.BatchDeleteFlows)
			r.Post("/merge", h.MergeFlows)
			r.Post("/unmerge", h.UnmergeFlows)
			r.Get("/first-time", h.FirstTime)
			r.Get("/{id}", h.GetFlow)
			r.Put("/{id}", h.UpdateFlow)
			r.Delete("/{id}", h.DeleteFlow)
		})

		// Group summary routes
		r.Route("/groups", func(r chi.Router) {
			r.Get("/{groupId}", h.GetGroup)
			r.Put("/{groupId}", h.UpdateGroup)
		})

		// Undo
		r.Post("/undo", h.UndoOperation)

		// Book routes
		r.Route("/books", func(r chi.Router) {
			r.Get("/", h.ListBooks)
			r.Post("/", h.CreateBook)
		})
	})

	return r
}
