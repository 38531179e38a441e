package api

import (
	"time"

	"github.com/portier-auth/portier/pkg/identity"
)

// SignupRequest creates a new account.
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest exchanges credentials for a bearer token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest updates an existing account. Password is optional;
// when empty the stored password is kept.
type UpdateUserRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
}

// User is the public representation of a principal.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// LoginResponse carries the issued token and the principal's public
// attributes.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// UserList wraps a list of users.
type UserList struct {
	Users []User `json:"users"`
}

// UserFromPrincipal converts a stored principal to its public form.
// The password hash does not cross this boundary.
func UserFromPrincipal(p *identity.Principal) User {
	return User{
		ID:        p.ID,
		Name:      p.Name,
		Email:     p.Email,
		Active:    p.Active,
		CreatedAt: p.CreatedAt,
	}
}
