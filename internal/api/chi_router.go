// Soapbox - Story Rotation Bridge for Discord
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/soapbox

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Router wires handlers and middleware into a chi mux.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	apiKey        string
}

// NewRouter creates a Router. apiKey guards the admin and witness routes.
func NewRouter(handler *Handler, mw *ChiMiddleware, apiKey string) *Router {
	if mw == nil {
		mw = NewChiMiddleware(nil)
	}
	return &Router{handler: handler, chiMiddleware: mw, apiKey: apiKey}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // global so OPTIONS preflight is answered
	r.Use(RequestMetrics())

	r.With(APISecurityHeaders()).Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	requireKey := RequireAPIKey(router.apiKey)

	r.Route("/admin", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(requireKey)

		long := r.With(router.chiMiddleware.LongRequest())
		long.Post("/sync-stories", router.handler.SyncStories)
		long.Post("/rotate-stories", router.handler.RotateStories)
		long.Post("/rotate-story/{id}", router.handler.RotateStory)
		r.Get("/ledger", router.handler.Ledger)
		r.Get("/stories/{id}", router.handler.InspectStory)
		r.Get("/events", router.handler.Events)
	})

	// Public feeds, rate limited but keyless.
	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())

		r.Get("/stories", router.handler.Stories)
		r.Get("/spotlights", router.handler.Spotlights)
		r.Get("/confessions", router.handler.Confessions)
		r.Post("/confessions", router.handler.SubmitConfession)
		r.Get("/voicemails", router.handler.Voicemails)
		r.With(router.chiMiddleware.LongRequest()).Get("/voicemails/{id}/stream", router.handler.StreamVoicemail)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(APISecurityHeaders())
		r.Use(requireKey)

		r.With(router.chiMiddleware.LongRequest()).Post("/witness", router.handler.Witness)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusNotFound, CodeNotFound, "Not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	return r
}
