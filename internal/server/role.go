package server

import "fmt"

// Role is the closed set of authorization roles. Authorization decisions
// switch exhaustively over it; anything outside the set is rejected at the
// boundary.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleUser, RoleAdmin:
		return Role(s), nil
	default:
		return "", fmt.Errorf("unknown role %q", s)
	}
}
