package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/rajcare/claimsight/internal/access"
	"github.com/rajcare/claimsight/internal/audit"
	"github.com/rajcare/claimsight/internal/config"
	"github.com/rajcare/claimsight/internal/store"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, st *store.Store, policy *access.Policy, auditLog *audit.Logger) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(st, policy, auditLog),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.CORS.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Get("/", s.handlers.ListClaims)
			r.Post("/", s.handlers.CreateClaim)
			r.Post("/filter-by-access", s.handlers.FilterByAccess)
			r.Get("/{id}", s.handlers.GetClaim)
			r.Put("/{id}", s.handlers.UpdateClaim)
			r.Delete("/{id}", s.handlers.DeleteClaim)
		})

		r.Get("/stats", s.handlers.GetStats)

		r.Route("/audit", func(r chi.Router) {
			r.Get("/events", s.handlers.ListAuditEvents)
			r.Get("/stats", s.handlers.GetAuditStats)
		})
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
