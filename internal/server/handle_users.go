package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"
)

type UsersResponse struct {
	Count int       `json:"count"`
	Users []userDoc `json:"users"`
}

type UserResponse struct {
	Message string  `json:"message,omitempty"`
	User    userDoc `json:"user"`
}

type UpdateUserRequest struct {
	Name        *string `json:"name"`
	Department  *string `json:"department"`
	PhoneNumber *string `json:"phonenumber"`
	Password    *string `json:"password"`
	Role        *string `json:"role"`
}

func handleCreateUser(store Store) http.HandlerFunc {
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

		writeJSON(w, http.StatusCreated, UserResponse{
			Message: "User created successfully by admin.",
			User:    user,
		})
	}
}

func handleListUsers(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := store.ListUsers(r.Context())
		if err != nil {
			writeServerError(w, err)
			return
		}
		if len(users) == 0 {
			writeError(w, http.StatusNotFound, "No users found.")
			return
		}

		writeJSON(w, http.StatusOK, UsersResponse{Count: len(users), Users: users})
	}
}

func handleGetUser(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.UserByID(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{User: user})
	}
}

func handleUpdateUser(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req UpdateUserRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var badRole bool
		user, err := store.ModifyUser(r.Context(), chi.URLParam(r, "id"), func(u *userDoc) error {
			if req.Name != nil {
				u.Name = strings.TrimSpace(*req.Name)
			}
			if req.Department != nil {
				u.Department = strings.TrimSpace(*req.Department)
			}
			if req.PhoneNumber != nil {
				u.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
			}
			if req.Role != nil {
				parsed, err := ParseRole(*req.Role)
				if err != nil {
					badRole = true
					return err
				}
				u.Role = parsed
			}
			if req.Password != nil {
				hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
				if err != nil {
					return err
				}
				u.PasswordHash = string(hash)
			}
			return nil
		})
		if badRole {
			writeError(w, http.StatusBadRequest, "Role must be 'user' or 'admin'.")
			return
		}
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		if errors.Is(err, ErrDuplicatePhone) {
			writeError(w, http.StatusBadRequest, "User already exists.")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, UserResponse{
			Message: "User updated successfully.",
			User:    user,
		})
	}
}

func handleDeleteUser(store Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := store.DeleteUser(r.Context(), chi.URLParam(r, "id"))
		if errors.Is(err, ErrNotFound) {
			writeError(w, http.StatusNotFound, "User not found.")
			return
		}
		if err != nil {
			writeServerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully."})
	}
}
