package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID)
	router.Use(h.withLogging)

	router.Post("/api/message", h.message)
	router.Get("/api/version", h.version)

	router.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.sessions)
		r.Post("/allow", h.allow)
	})

	return router
}
