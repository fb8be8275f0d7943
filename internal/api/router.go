/**
 * @description
 * This file sets up the HTTP router for the agent service. It defines the
 * API endpoints, associates them with their corresponding handlers, and
 * applies middleware for logging, panic recovery, timeouts, CORS, and
 * authentication.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/go-chi/cors: CORS middleware.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes creates and returns the router for the agent service.
func Routes(h *Handlers, cronSecret string) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and timeouts.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	r.Post("/auth/login", h.LoginHandler)

	// Cron surface, guarded by the cron secret rather than a session.
	r.Group(func(r chi.Router) {
		r.Use(CronAuthMiddleware(cronSecret))
		r.Get("/cron/reminders", h.RemindersHandler)
		r.Post("/cron/reminders", h.RemindersHandler)
	})

	// Group routes that require an authenticated session.
	r.Group(func(r chi.Router) {
		r.Use(SessionAuthMiddleware(h.auth.Secret))

		r.Get("/accounts", h.ListAccountsHandler)
		r.Post("/accounts", h.CreateAccountHandler)
		r.Get("/accounts/{id}", h.GetAccountHandler)
		r.Patch("/accounts/{id}", h.UpdateAccountHandler)
		r.Delete("/accounts/{id}", h.DeleteAccountHandler)

		r.Post("/accounts/{id}/archive", h.ToggleArchiveHandler)
		r.Post("/accounts/{id}/chat", h.ChatHandler)
		r.Post("/accounts/{id}/summary", h.SyncSummaryHandler)
		r.Post("/accounts/{id}/actions", h.NextActionsHandler)
	})

	return r
}
