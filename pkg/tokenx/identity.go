package tokenx

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/perseusdefend/perseus/pkg/idx"
)

// Role is an account's authorization tier.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleUser     Role = "USER"
	RoleDemoUser Role = "DEMO_USER"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleDemoUser:
		return true
	}
	return false
}

// Identity is the account snapshot embedded in every token. Tokens are
// self-contained: request authorization reads this snapshot and never
// touches the database.
type Identity struct {
	ID    idx.ID `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`

	// WaitingFor2FA marks a half-open login: the password was accepted
	// but the second factor has not been presented yet. A token carrying
	// this flag must not reach protected resources.
	WaitingFor2FA bool `json:"waitingFor2FA,omitempty"`
}

// Claims is the JWT payload: registered claims plus the identity
// snapshot flattened alongside them.
type Claims struct {
	jwt.RegisteredClaims

	Email         string `json:"email,omitempty"`
	Name          string `json:"name,omitempty"`
	Role          Role   `json:"role,omitempty"`
	WaitingFor2FA bool   `json:"waitingFor2FA,omitempty"`
}

// Identity rebuilds the account snapshot from the claims.
func (c *Claims) Identity() *Identity {
	return &Identity{
		ID:            idx.ID(c.Subject),
		Email:         c.Email,
		Name:          c.Name,
		Role:          c.Role,
		WaitingFor2FA: c.WaitingFor2FA,
	}
}
