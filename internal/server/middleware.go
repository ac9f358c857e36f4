package server

import (
	"context"
	"errors"
	"net/http"
)

type ctxKey int

const ctxKeyIdentity ctxKey = iota

// authMiddleware validates the bearer token and resolves it against the
// user collection: 401 for a missing/invalid/expired token, 404 when the
// token is valid but the user no longer exists.
func authMiddleware(store Store, secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			userID, err := parseToken(token, secret)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Invalid or expired token.")
				return
			}

			user, err := store.UserByID(r.Context(), userID)
			if errors.Is(err, ErrNotFound) {
				writeError(w, http.StatusNotFound, "User not found.")
				return
			}
			if err != nil {
				writeServerError(w, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyIdentity, identity{
				ID:   user.ID,
				Role: user.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// requireAdmin gates a route on the admin role with an exhaustive switch
// over the closed role set.
func requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch identityFrom(r).Role {
		case RoleAdmin:
			next.ServeHTTP(w, r)
		case RoleUser:
			writeError(w, http.StatusForbidden, "Access denied. Admin role required.")
		default:
			writeError(w, http.StatusForbidden, "Access denied. Admin role required.")
		}
	})
}

func identityFrom(r *http.Request) identity {
	return r.Context().Value(ctxKeyIdentity).(identity)
}
