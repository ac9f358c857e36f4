package server

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// PlayerProgress joins a progress record with its player's public details.
// Player is nil when the user record was deleted after the game started —
// progress records outlive their players as permanent game history.
type PlayerProgress struct {
	Player   *userDoc    `json:"player"`
	Progress progressDoc `json:"progress"`
}

type PlayersProgressResponse struct {
	Message string           `json:"message"`
	Players []PlayerProgress `json:"players"`
}

type PlayerProgressResponse struct {
	Message  string      `json:"message"`
	Player   *userDoc    `json:"player"`
	Progress progressDoc `json:"progress"`
}

func handleListPlayerProgress(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		records, err := store.ListProgress(r.Context())
		if err != nil {
			writeServerError(w, err)
			return
		}

		players := make([]PlayerProgress, 0, len(records))
		for _, p := range records {
			entry := PlayerProgress{Progress: p}
			user, err := store.UserByID(r.Context(), p.PlayerID)
			if err == nil {
				entry.Player = &user
			} else if !errors.Is(err, ErrNotFound) {
				writeServerError(w, err)
				return
			}
			players = append(players, entry)
		}

		writeJSON(w, http.StatusOK, PlayersProgressResponse{
			Message: "All Players Progress",
			Players: players,
		})
	}
}

func handleGetPlayerProgress(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerId")

		progress, err := store.ProgressByPlayer(r.Context(), playerID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Player not found or game not started")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		resp := PlayerProgressResponse{
			Message:  "Player Full Details",
			Progress: progress,
		}
		if user, err := store.UserByID(r.Context(), playerID); err == nil {
			resp.Player = &user
		}

		writeJSON(w, http.StatusOK, resp)
	}
}
