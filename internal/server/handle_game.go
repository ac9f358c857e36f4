package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type StartGameResponse struct {
	Message    string  `json:"message"`
	NextTarget *Target `json:"nextTarget"`
}

type VerifyQRRequest struct {
	LevelNumber int    `json:"levelNumber"`
	Place       string `json:"place"`
}

type VerifyQRResponse struct {
	Message     string  `json:"message"`
	NextTarget  *Target `json:"nextTarget,omitempty"`
	TotalLevels int     `json:"totalLevels,omitempty"`
	FinalTime   *string `json:"finalTime,omitempty"`
}

// handleStartGame starts a new game for the player or resumes the one in
// flight. The path is randomized exactly once, at creation; repeated start
// calls while the game is incomplete never mutate state or reshuffle.
func handleStartGame(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerId")

		player, err := store.UserByID(r.Context(), playerID)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}
		if player.Role == RoleAdmin {
			writeError(w, http.StatusForbidden, "Admins cannot play the game.")
			return
		}

		progress, err := store.ProgressByPlayer(r.Context(), playerID)
		switch {
		case err == nil:
			if progress.Completed {
				writeError(w, http.StatusConflict, "Game already completed.")
				return
			}
			writeJSON(w, http.StatusOK, StartGameResponse{
				Message:    "Resuming your game...",
				NextTarget: currentTarget(progress),
			})
			return
		case errors.Is(err, ErrNotFound):
			// First start: fall through and build a fresh path.
		default:
			writeServerError(w, err)
			return
		}

		levels, err := store.Levels(r.Context())
		if err != nil {
			writeServerError(w, err)
			return
		}

		path := newPath(levels)
		if len(path) == 0 {
			writeError(w, http.StatusNotFound, "No trail levels found")
			return
		}

		progress = progressDoc{
			PlayerID:           playerID,
			Path:               path,
			PlaceIndex:         0,
			CurrentLevelNumber: 1,
			StartTime:          nowUTC(),
			TimeLog:            []timeLogDoc{},
		}
		if err := store.CreateProgress(r.Context(), progress); err != nil {
			writeServerError(w, err)
			return
		}

		broker.Publish(playerID, GameEvent{
			Type:        "game_started",
			LevelNumber: path[0].LevelNumber,
			Place:       path[0].Place,
		})

		writeJSON(w, http.StatusOK, StartGameResponse{
			Message:    "Game Started!",
			NextTarget: currentTarget(progress),
		})
	}
}

// handleVerifyQR advances the player's cursor when the scanned
// (levelNumber, place) matches the current path entry. A mismatch leaves
// the record untouched; the whole transition runs inside the store's
// modify transaction.
func handleVerifyQR(store Store, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		playerID := chi.URLParam(r, "playerId")

		var req VerifyQRRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		req.Place = strings.TrimSpace(req.Place)
		if req.LevelNumber == 0 || req.Place == "" {
			writeError(w, http.StatusBadRequest, "levelNumber and place are required.")
			return
		}

		progress, err := store.ModifyProgress(r.Context(), playerID, func(p *progressDoc) error {
			if p.Completed || p.PlaceIndex >= len(p.Path) {
				return errGameCompleted
			}
			if !matchesTarget(p.Path[p.PlaceIndex], req.LevelNumber, req.Place) {
				return errWrongPlace
			}
			advance(p, nowUTC())
			return nil
		})
		switch {
		case errors.Is(err, ErrNotFound):
			writeError(w, http.StatusNotFound, "Player not found or game not started")
			return
		case errors.Is(err, errGameCompleted):
			writeError(w, http.StatusConflict, "Game already completed.")
			return
		case errors.Is(err, errWrongPlace):
			broker.Publish(playerID, GameEvent{
				Type:        "wrong_place",
				LevelNumber: req.LevelNumber,
				Place:       req.Place,
			})
			writeError(w, http.StatusBadRequest, "Wrong place for this level.")
			return
		case err != nil:
			writeServerError(w, err)
			return
		}

		scanned := progress.TimeLog[len(progress.TimeLog)-1]

		if progress.Completed {
			broker.Publish(playerID, GameEvent{
				Type:        "game_completed",
				LevelNumber: scanned.Level,
				Place:       scanned.Place,
			})
			writeJSON(w, http.StatusOK, VerifyQRResponse{
				Message:     "Congratulations! You finished all levels!",
				TotalLevels: len(progress.Path),
				FinalTime:   progress.EndTime,
			})
			return
		}

		broker.Publish(playerID, GameEvent{
			Type:        "place_scanned",
			LevelNumber: scanned.Level,
			Place:       scanned.Place,
		})
		writeJSON(w, http.StatusOK, VerifyQRResponse{
			Message:    "Correct! Go to next location!",
			NextTarget: currentTarget(progress),
		})
	}
}
