package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type SignupRequest struct {
	Name        string `json:"name"`
	Department  string `json:"department"`
	PhoneNumber string `json:"phonenumber"`
	Password    string `json:"password"`
	Role        string `json:"role"`
}

type SignupResponse struct {
	Message string  `json:"message"`
	User    userDoc `json:"user"`
}

type LoginRequest struct {
	PhoneNumber string `json:"phonenumber"`
	Password    string `json:"password"`
}

type LoginResponse struct {
	Message string  `json:"message"`
	Token   string  `json:"token"`
	User    userDoc `json:"user"`
}

func handleSignup(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SignupRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Department = strings.TrimSpace(req.Department)
		req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
		if req.Name == "" || req.Department == "" || req.PhoneNumber == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Name, department, phonenumber and password are required.")
			return
		}

		role := RoleUser
		if req.Role != "" {
			parsed, err := ParseRole(req.Role)
			if err != nil {
				writeError(w, http.StatusBadRequest, "Role must be 'user' or 'admin'.")
				return
			}
			role = parsed
		}

		user, err := createUser(r, store, req, role)
		if errors.Is(err, ErrDuplicatePhone) {
			writeError(w, http.StatusBadRequest, "User already exists.")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, SignupResponse{
			Message: "User registered successfully.",
			User:    user,
		})
	}
}

// createUser checks for an existing phone number, hashes the password, and
// inserts the user. The UNIQUE phonenumber column backstops the check
// against concurrent signups.
func createUser(r *http.Request, store Store, req SignupRequest, role Role) (userDoc, error) {
	if _, err := store.UserByPhone(r.Context(), req.PhoneNumber); err == nil {
		return userDoc{}, ErrDuplicatePhone
	} else if !errors.Is(err, ErrNotFound) {
		return userDoc{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return userDoc{}, err
	}

	user := userDoc{
		ID:           newID(),
		Name:         req.Name,
		Department:   req.Department,
		PhoneNumber:  req.PhoneNumber,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    nowUTC(),
	}
	if err := store.CreateUser(r.Context(), user); err != nil {
		return userDoc{}, err
	}
	return user, nil
}

func handleLogin(store Store, secret []byte, ttl time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
		if req.PhoneNumber == "" || req.Password == "" {
			writeError(w, http.StatusBadRequest, "Phonenumber and password are required.")
			return
		}

		user, err := store.UserByPhone(r.Context(), req.PhoneNumber)
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusBadRequest, "User not found.")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid password.")
			return
		}

		token, err := issueToken(user.ID, user.Role, secret, ttl)
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, LoginResponse{
			Message: "Login successful.",
			Token:   token,
			User:    user,
		})
	}
}
