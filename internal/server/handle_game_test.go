package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/campusquest/trailhunt/internal/database"
)

var testSecret = []byte("test-secret")

const testTokenTTL = time.Hour

func testRouter(t *testing.T) (*chi.Mux, *DocStore) {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store, err := NewDocStore(ctx, db)
	if err != nil {
		t.Fatalf("init doc store: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	addRoutes(r, logger, db, store, testSecret, testTokenTTL)
	return r, store
}

// signupUser registers an account through the public signup route and
// returns the created user document.
func signupUser(t *testing.T, r *chi.Mux, name, phone, password, role string) userDoc {
	t.Helper()
	body, _ := json.Marshal(SignupRequest{
		Name:        name,
		Department:  "Engineering",
		PhoneNumber: phone,
		Password:    password,
		Role:        role,
	})
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("signup %s: expected 201, got %d: %s", phone, w.Code, w.Body.String())
	}
	var resp SignupResponse
	json.NewDecoder(w.Body).Decode(&resp)
	return resp.User
}

func loginToken(t *testing.T, r *chi.Mux, phone, password string) string {
	t.Helper()
	body, _ := json.Marshal(LoginRequest{PhoneNumber: phone, Password: password})
	req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("login %s: expected 200, got %d: %s", phone, w.Code, w.Body.String())
	}
	var resp LoginResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Token == "" {
		t.Fatal("login returned empty token")
	}
	return resp.Token
}

func authedRequest(method, target, token string, body any) *http.Request {
	var reader io.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// seedLinearTrail creates five levels with a single place each, so the
// assigned path is fully deterministic.
func seedLinearTrail(t *testing.T, store *DocStore) {
	t.Helper()
	for n := 1; n <= 5; n++ {
		place := placeDoc{
			Name:   fmt.Sprintf("Place %d", n),
			Answer: fmt.Sprintf("answer-%d", n),
		}
		if _, err := store.AppendPlace(context.Background(), n, place); err != nil {
			t.Fatalf("seed level %d: %v", n, err)
		}
	}
}

func TestStartGameAssignsPath(t *testing.T) {
	r, store := testRouter(t)
	seedLinearTrail(t, store)

	player := signupUser(t, r, "Maria", "9111111111", "secret1", "")
	token := loginToken(t, r, "9111111111", "secret1")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp StartGameResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "Game Started!" {
		t.Errorf("expected 'Game Started!', got %q", resp.Message)
	}
	if resp.NextTarget == nil || resp.NextTarget.LevelNumber != 1 {
		t.Fatalf("expected first target at level 1, got %+v", resp.NextTarget)
	}

	progress, err := store.ProgressByPlayer(context.Background(), player.ID)
	if err != nil {
		t.Fatalf("progress lookup: %v", err)
	}
	if len(progress.Path) != 5 {
		t.Errorf("expected path of 5 entries, got %d", len(progress.Path))
	}
	for i, e := range progress.Path {
		if e.LevelNumber != i+1 {
			t.Errorf("path[%d]: expected level %d, got %d", i, i+1, e.LevelNumber)
		}
	}
	if progress.PlaceIndex != 0 || progress.CurrentLevelNumber != 1 || progress.Completed {
		t.Errorf("fresh progress has wrong cursor state: %+v", progress)
	}
}

func TestStartGameResumeDoesNotReshuffle(t *testing.T) {
	r, store := testRouter(t)
	// Several places per level, so a reshuffle would be visible.
	for n := 1; n <= 5; n++ {
		for i := 0; i < 4; i++ {
			place := placeDoc{
				Name:   fmt.Sprintf("L%dP%d", n, i),
				Answer: fmt.Sprintf("a-%d-%d", n, i),
			}
			if _, err := store.AppendPlace(context.Background(), n, place); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
	}

	player := signupUser(t, r, "Jorge", "9222222222", "secret2", "")
	token := loginToken(t, r, "9222222222", "secret2")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("first start: expected 200, got %d", w.Code)
	}
	first, _ := store.ProgressByPlayer(context.Background(), player.ID)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("resume: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp StartGameResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "Resuming your game..." {
		t.Errorf("expected resume message, got %q", resp.Message)
	}

	second, _ := store.ProgressByPlayer(context.Background(), player.ID)
	if second.StartTime != first.StartTime {
		t.Error("resume changed start time")
	}
	for i := range first.Path {
		if second.Path[i] != first.Path[i] {
			t.Fatalf("resume reshuffled path at %d: %+v vs %+v", i, first.Path[i], second.Path[i])
		}
	}
}

func TestStartGameNoLevels(t *testing.T) {
	r, _ := testRouter(t)

	player := signupUser(t, r, "Lena", "9333333333", "secret3", "")
	token := loginToken(t, r, "9333333333", "secret3")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestStartGameAdminForbidden(t *testing.T) {
	r, store := testRouter(t)
	seedLinearTrail(t, store)

	admin := signupUser(t, r, "Boss", "9444444444", "secret4", "admin")
	token := loginToken(t, r, "9444444444", "secret4")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+admin.ID, token, nil))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyQRBeforeStart(t *testing.T) {
	r, store := testRouter(t)
	seedLinearTrail(t, store)

	player := signupUser(t, r, "Ana", "9555555555", "secret5", "")
	token := loginToken(t, r, "9555555555", "secret5")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/verify-qr/"+player.ID, token,
		VerifyQRRequest{LevelNumber: 1, Place: "Place 1"}))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestVerifyQRWrongPlaceDoesNotAdvance(t *testing.T) {
	r, store := testRouter(t)
	seedLinearTrail(t, store)

	player := signupUser(t, r, "Tomas", "9666666666", "secret6", "")
	token := loginToken(t, r, "9666666666", "secret6")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}

	// Right level, wrong place.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/verify-qr/"+player.ID, token,
		VerifyQRRequest{LevelNumber: 1, Place: "Nowhere"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	// Right place, wrong level.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/verify-qr/"+player.ID, token,
		VerifyQRRequest{LevelNumber: 2, Place: "Place 1"}))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}

	progress, _ := store.ProgressByPlayer(context.Background(), player.ID)
	if progress.PlaceIndex != 0 || len(progress.TimeLog) != 0 {
		t.Errorf("failed scans mutated progress: index=%d timeLog=%d",
			progress.PlaceIndex, len(progress.TimeLog))
	}
}

func TestFullPlaythrough(t *testing.T) {
	r, store := testRouter(t)
	seedLinearTrail(t, store)

	player := signupUser(t, r, "Sofia", "9777777777", "secret7", "")
	token := loginToken(t, r, "9777777777", "secret7")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusOK {
		t.Fatalf("start: expected 200, got %d", w.Code)
	}
	var start StartGameResponse
	json.NewDecoder(w.Body).Decode(&start)
	target := start.NextTarget

	for scan := 1; scan <= 5; scan++ {
		if target == nil {
			t.Fatalf("scan %d: no target", scan)
		}
		w = httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/verify-qr/"+player.ID, token,
			VerifyQRRequest{LevelNumber: target.LevelNumber, Place: target.Place}))
		if w.Code != http.StatusOK {
			t.Fatalf("scan %d: expected 200, got %d: %s", scan, w.Code, w.Body.String())
		}
		var resp VerifyQRResponse
		json.NewDecoder(w.Body).Decode(&resp)

		if scan < 5 {
			if resp.Message != "Correct! Go to next location!" {
				t.Errorf("scan %d: got message %q", scan, resp.Message)
			}
			if resp.NextTarget == nil || resp.NextTarget.LevelNumber != scan+1 {
				t.Fatalf("scan %d: expected next target at level %d, got %+v",
					scan, scan+1, resp.NextTarget)
			}
			target = resp.NextTarget
			continue
		}

		if resp.Message != "Congratulations! You finished all levels!" {
			t.Errorf("final scan: got message %q", resp.Message)
		}
		if resp.TotalLevels != 5 {
			t.Errorf("expected totalLevels 5, got %d", resp.TotalLevels)
		}
		if resp.FinalTime == nil {
			t.Error("expected finalTime on completion")
		}
	}

	progress, _ := store.ProgressByPlayer(context.Background(), player.ID)
	if !progress.Completed {
		t.Error("progress not marked completed")
	}
	if len(progress.TimeLog) != progress.PlaceIndex || progress.PlaceIndex != 5 {
		t.Errorf("timeLog/cursor mismatch: timeLog=%d index=%d",
			len(progress.TimeLog), progress.PlaceIndex)
	}
	if progress.EndTime == nil || *progress.EndTime < progress.StartTime {
		t.Errorf("endTime %v not after startTime %s", progress.EndTime, progress.StartTime)
	}

	// Scans and restarts after completion are rejected.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/verify-qr/"+player.ID, token,
		VerifyQRRequest{LevelNumber: 5, Place: "Place 5"}))
	if w.Code != http.StatusConflict {
		t.Fatalf("verify after completion: expected 409, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusConflict {
		t.Fatalf("start after completion: expected 409, got %d", w.Code)
	}
}
