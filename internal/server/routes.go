package server

import (
	"database/sql"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

func addRoutes(r chi.Router, logger *slog.Logger, db *sql.DB, store Store, secret []byte, tokenTTL time.Duration) {
	broker := NewBroker()

	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("TrailHunt API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, db))

	// Public identity routes.
	r.Post("/signup", handleSignup(store))
	r.Post("/login", handleLogin(store, secret, tokenTTL))

	// SSE — EventSource passes the token as a query parameter.
	r.Get("/player/events", handleEvents(store, broker, secret))

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware(store, secret))

		// Game flow — any authenticated caller.
		r.Post("/player/start-game/{playerId}", handleStartGame(store, broker))
		r.Post("/player/verify-qr/{playerId}", handleVerifyQR(store, broker))

		r.Group(func(r chi.Router) {
			r.Use(requireAdmin)

			// Identity CRUD.
			r.Post("/create", handleCreateUser(store))
			r.Get("/retrieve", handleListUsers(store))
			r.Get("/retrieve/{id}", handleGetUser(store))
			r.Put("/update/{id}", handleUpdateUser(store))
			r.Delete("/delete/{id}", handleDeleteUser(store))

			// Progress inspection.
			r.Get("/admin/player", handleListPlayerProgress(store))
			r.Get("/admin/player/{playerId}", handleGetPlayerProgress(store))

			// Trail catalog — mounted under /users for client compatibility.
			r.Post("/users/trailCreate", handleTrailCreate(store))
			r.Get("/users/trail", handleListLevels(store))
			r.Get("/users/trail/{levelNumber}", handleGetLevel(store))
			r.Put("/users/trail/{levelNumber}", handleUpdateLevel(store))
			r.Delete("/users/trail/{levelNumber}", handleDeleteLevel(store))

			r.Post("/player/generate-qr", handleGenerateQR(store))
		})
	})
}
