// Package auth implements user accounts, session tokens and the HTTP
// middleware that enforces role-based access.
package auth

import "errors"

// Roles. Admin passes every role check.
const (
	RoleFarmer     = "farmer"
	RoleMandiOwner = "mandi_owner"
	RoleRetailer   = "retailer"
	RoleAdmin      = "admin"
)

// ValidRoles lists the roles accepted at registration.
var ValidRoles = []string{RoleFarmer, RoleMandiOwner, RoleRetailer, RoleAdmin}

// Sentinel errors surfaced to handlers.
var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrSessionInvalid     = errors.New("session invalid or expired")
	ErrInvalidRole        = errors.New("invalid role")
)

// User is an account row. The password hash never leaves the server.
type User struct {
	ID           int64   `json:"id"`
	Username     string  `json:"username"`
	PasswordHash string  `json:"-"`
	Role         string  `json:"role"`
	Contact      string  `json:"contact,omitempty"`
	Latitude     float64 `json:"latitude"`
	Longitude    float64 `json:"longitude"`
	CreatedAt    int64   `json:"created_at"`
}

// Session is a bearer token row. Tokens are random UUIDs; expiry is
// enforced on every lookup and swept hourly by the reaper job.
type Session struct {
	Token     string `json:"token"`
	UserID    int64  `json:"user_id"`
	CreatedAt int64  `json:"created_at"`
	ExpiresAt int64  `json:"expires_at"`
}

// IsValidRole reports whether role is one of the accepted roles.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}
