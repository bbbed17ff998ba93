package routes

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/socdesk/playbook-rag/handlers"
	"github.com/socdesk/playbook-rag/services/query"
)

// NewRouter builds the HTTP router with all endpoints and middleware.
func NewRouter(service *query.Service, requestTimeout time.Duration, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	queryHandler := handlers.NewQueryHandler(service, logger)
	statusHandler := handlers.NewStatusHandler(service, logger)
	healthHandler := handlers.NewHealthHandler(service, logger)

	r.Get("/healthz", healthHandler.HandleHealth)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/query", queryHandler.HandleQuery)
		r.Get("/requests/{id}", statusHandler.HandleGetStatus)
	})

	return r
}
