package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// Thing endpoints
		r.Route("/things", func(r chi.Router) {
			r.Get("/", s.handleListThings)
			r.Post("/", s.handleCreateThing)

			r.Route("/{uid}", func(r chi.Router) {
				r.Get("/", s.handleGetThing)
				r.Delete("/", s.handleDeleteThing)
				r.Put("/status", s.handleSetThingStatus)
				r.Get("/links", s.handleThingLinks)
				r.Delete("/links", s.handleDeleteThingLinks)
			})
		})

		// Channel-type endpoints
		r.Get("/channel-types/{uid}", s.handleGetChannelType)

		// Item endpoints
		r.Route("/items", func(r chi.Router) {
			r.Get("/", s.handleListItems)
			r.Post("/", s.handleCreateItem)

			r.Route("/{name}", func(r chi.Router) {
				r.Get("/", s.handleGetItem)
				r.Delete("/", s.handleDeleteItem)
				r.Post("/rename", s.handleRenameItem)
				r.Get("/links", s.handleItemLinks)
			})
		})

		// Link endpoints
		r.Route("/links", func(r chi.Router) {
			r.Get("/", s.handleListLinks)
			r.Post("/", s.handleCreateLink)
			r.Delete("/", s.handleDeleteLink)
		})
	})

	return r
}
