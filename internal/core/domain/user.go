package domain

import "errors"

// Role is the access tier of an authenticated user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

var ErrUnknownRole = errors.New("unknown role")

// ParseRole accepts only the closed set of roles.
func ParseRole(s string) (Role, error) {
	switch Role(s) {
	case RoleAdmin, RoleUser:
		return Role(s), nil
	}
	return "", ErrUnknownRole
}

// User is the identity held by the session. It is replaced wholesale on
// login and never mutated in place.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Credentials are transient login input. They are never persisted or logged.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
