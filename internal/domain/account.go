package domain

import (
	"time"

	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

type Account struct {
	ID           idx.ID
	Email        string
	Name         string
	PasswordHash string // argon2 encoded
	Role         tokenx.Role

	// Lockout bookkeeping. Attempts reset after a quiet period; once the
	// cap is hit the account locks until LockedUntil.
	FailedLoginAttempts int
	LastFailedLogin     *time.Time
	LockedUntil         *time.Time

	// TwoFactorEnabled gates the email-code second factor on login.
	TwoFactorEnabled bool
	// TOTPSecret is set when the account enrolled an authenticator app
	// (base32 encoded, nullable).
	TOTPSecret *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Locked reports whether the account is still inside a lockout window.
func (a *Account) Locked(now time.Time) bool {
	return a.LockedUntil != nil && now.Before(*a.LockedUntil)
}

// Identity returns the token snapshot for this account.
func (a *Account) Identity(waitingFor2FA bool) tokenx.Identity {
	return tokenx.Identity{
		ID:            a.ID,
		Email:         a.Email,
		Name:          a.Name,
		Role:          a.Role,
		WaitingFor2FA: waitingFor2FA,
	}
}
