package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/liftlog/internal/mcp"
	"github.com/claude/liftlog/internal/workout"
	"github.com/go-chi/chi/v5"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc      *workout.Service
	identity func(http.Handler) http.Handler
	log      *slog.Logger
	router   chi.Router
}

// New creates a new Server with all routes configured. identity resolves the
// caller of every /api/v1 request; see DevIdentity, APIKeyIdentity and
// TailscaleIdentity.
func New(svc *workout.Service, identity func(http.Handler) http.Handler, log *slog.Logger) *Server {
	s := &Server{
		svc:      svc,
		identity: identity,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Use(s.identity)
		r.Get("/me", s.handleMe)

		r.Route("/workouts", func(r chi.Router) {
			r.Get("/active", s.handleGetActive)
			r.Post("/save", s.handleSaveActive)
			r.Put("/sets", s.handleUpdateSets)
			r.Post("/finish", s.handleFinish)
			r.Post("/discard", s.handleDiscard)
			r.Put("/details", s.handleUpdateDetails)
			r.Get("/history", s.handleHistory)
			r.Delete("/{id}", s.handleDelete)
		})

		r.Route("/routines", func(r chi.Router) {
			r.Get("/", s.handleListRoutines)
			r.Post("/", s.handleSaveRoutine)
			r.Put("/", s.handleUpdateRoutine)
		})
	})
}

// MountMCP serves an MCP transport handler at /mcp behind the same identity
// middleware as the REST API. The caller is handed to MCP tools through
// mcp.WithUserID.
func (s *Server) MountMCP(h http.Handler) {
	s.router.With(s.identity).Handle("/mcp", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		uid, ok := mustUserID(w, r)
		if !ok {
			return
		}
		h.ServeHTTP(w, r.WithContext(mcp.WithUserID(r.Context(), uid)))
	}))
}
