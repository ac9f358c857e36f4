package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSignupDuplicatePhone(t *testing.T) {
	r, _ := testRouter(t)

	signupUser(t, r, "First", "9100000001", "pass1", "")

	body, _ := json.Marshal(SignupRequest{
		Name:        "Second",
		Department:  "Sales",
		PhoneNumber: "9100000001",
		Password:    "pass2",
	})
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
	var resp ErrorResponse
	json.NewDecoder(w.Body).Decode(&resp)
	if resp.Message != "User already exists." {
		t.Errorf("expected duplicate message, got %q", resp.Message)
	}
}

func TestSignupRejectsUnknownRole(t *testing.T) {
	r, _ := testRouter(t)

	body, _ := json.Marshal(SignupRequest{
		Name:        "Eve",
		Department:  "Ops",
		PhoneNumber: "9100000002",
		Password:    "pass",
		Role:        "superadmin",
	})
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
	}
}

func TestSignupResponseOmitsPasswordHash(t *testing.T) {
	r, _ := testRouter(t)

	body, _ := json.Marshal(SignupRequest{
		Name:        "Hash",
		Department:  "Ops",
		PhoneNumber: "9100000003",
		Password:    "topsecret",
	})
	req := httptest.NewRequest(http.MethodPost, "/signup", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}
	var raw map[string]json.RawMessage
	json.NewDecoder(w.Body).Decode(&raw)
	var user map[string]any
	json.Unmarshal(raw["user"], &user)
	for _, key := range []string{"password", "passwordHash"} {
		if _, ok := user[key]; ok {
			t.Errorf("signup response leaked %q", key)
		}
	}
}

func TestLoginWrongCredentials(t *testing.T) {
	r, _ := testRouter(t)
	signupUser(t, r, "Carlos", "9100000004", "rightpass", "")

	cases := []struct {
		name    string
		phone   string
		pass    string
		message string
	}{
		{"unknown phone", "9999999999", "rightpass", "User not found."},
		{"wrong password", "9100000004", "wrongpass", "Invalid password."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			body, _ := json.Marshal(LoginRequest{PhoneNumber: tc.phone, Password: tc.pass})
			req := httptest.NewRequest(http.MethodPost, "/login", bytes.NewReader(body))
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", w.Code, w.Body.String())
			}
			var resp ErrorResponse
			json.NewDecoder(w.Body).Decode(&resp)
			if resp.Message != tc.message {
				t.Errorf("expected %q, got %q", tc.message, resp.Message)
			}
		})
	}
}

func TestAuthMiddlewareRejectsBadTokens(t *testing.T) {
	r, _ := testRouter(t)
	player := signupUser(t, r, "Nina", "9100000005", "pass", "")

	// No token.
	req := httptest.NewRequest(http.MethodPost, "/player/start-game/"+player.ID, nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: expected 401, got %d", w.Code)
	}

	// Garbage token.
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, "not-a-jwt", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("garbage token: expected 401, got %d", w.Code)
	}

	// Token signed with the wrong secret.
	forged, err := issueToken(player.ID, RoleUser, []byte("other-secret"), testTokenTTL)
	if err != nil {
		t.Fatalf("issue forged token: %v", err)
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, forged, nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("forged token: expected 401, got %d", w.Code)
	}
}

func TestAuthMiddlewareDeletedUser(t *testing.T) {
	r, store := testRouter(t)
	player := signupUser(t, r, "Ghost", "9100000006", "pass", "")
	token := loginToken(t, r, "9100000006", "pass")

	if err := store.DeleteUser(context.Background(), player.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(http.MethodPost, "/player/start-game/"+player.ID, token, nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %s", w.Code, w.Body.String())
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	r, _ := testRouter(t)
	signupUser(t, r, "Plain", "9100000007", "pass", "")
	token := loginToken(t, r, "9100000007", "pass")

	for _, target := range []string{"/retrieve", "/admin/player", "/users/trail"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, authedRequest(http.MethodGet, target, token, nil))
		if w.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403 for user role, got %d", target, w.Code)
		}
	}
}
