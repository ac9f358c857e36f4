package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

type TrailCreateRequest struct {
	LevelNumber int      `json:"levelNumber"`
	Place       placeDoc `json:"place"`
}

type LevelResponse struct {
	Message string        `json:"message,omitempty"`
	Level   trailLevelDoc `json:"level"`
}

type LevelsResponse struct {
	Message string          `json:"message"`
	Levels  []trailLevelDoc `json:"levels"`
}

type UpdateLevelRequest struct {
	Index    *int     `json:"index"`
	NewPlace placeDoc `json:"newPlace"`
}

func levelNumberParam(r *http.Request) (int, error) {
	return strconv.Atoi(chi.URLParam(r, "levelNumber"))
}

func handleTrailCreate(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req TrailCreateRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Place.Name = strings.TrimSpace(req.Place.Name)
		if req.LevelNumber == 0 || req.Place.Name == "" || req.Place.Answer == "" {
			writeError(w, http.StatusBadRequest, "levelNumber and place are required.")
			return
		}
		if req.LevelNumber < minLevelNumber || req.LevelNumber > maxLevelNumber {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("levelNumber must be between %d and %d.", minLevelNumber, maxLevelNumber))
			return
		}

		level, err := store.AppendPlace(r.Context(), req.LevelNumber, req.Place)
		if errors.Is(err, ErrLevelFull) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Level %d already has 4 places.", req.LevelNumber))
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LevelResponse{
			Message: fmt.Sprintf("Place '%s' added to Level %d.", req.Place.Name, req.LevelNumber),
			Level:   level,
		})
	}
}

func handleListLevels(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		levels, err := store.Levels(r.Context())
		if err != nil {
			writeServerError(w, err)
			return
		}
		if levels == nil {
			levels = []trailLevelDoc{}
		}

		writeJSON(w, http.StatusOK, LevelsResponse{
			Message: "All levels retrieved",
			Levels:  levels,
		})
	}
}

func handleGetLevel(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := levelNumberParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "levelNumber must be a number.")
			return
		}

		level, err := store.Level(r.Context(), n)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Level not found")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LevelResponse{
			Message: "Level retrieved successfully",
			Level:   level,
		})
	}
}

func handleUpdateLevel(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := levelNumberParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "levelNumber must be a number.")
			return
		}

		var req UpdateLevelRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Index == nil || strings.TrimSpace(req.NewPlace.Name) == "" {
			writeError(w, http.StatusBadRequest, "You must send index and newPlace.")
			return
		}

		level, err := store.ReplacePlace(r.Context(), n, *req.Index, req.NewPlace)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Level not found")
			return
		}
		if errors.Is(err, ErrBadPlaceIndex) {
			writeError(w, http.StatusBadRequest,
				fmt.Sprintf("Invalid index for Level %d.", n))
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LevelResponse{
			Message: fmt.Sprintf("Place at index %d updated successfully", *req.Index),
			Level:   level,
		})
	}
}

func handleDeleteLevel(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := levelNumberParam(r)
		if err != nil {
			writeError(w, http.StatusBadRequest, "levelNumber must be a number.")
			return
		}

		err = store.DeleteLevel(r.Context(), n)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "Level not found")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("Level %d deleted successfully", n),
		})
	}
}
