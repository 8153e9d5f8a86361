package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pquerna/otp/totp"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/cryptox"
	"github.com/perseusdefend/perseus/pkg/slogx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// Default lockout policy. Five strikes within the amnesty window locks
// the account for a day.
const (
	MaxFailedAttempts = 5
	LockDuration      = 24 * time.Hour
	ResetAttemptsAfter = 15 * time.Minute
)

// DefaultLockoutPolicy returns the stock policy; the app layer may
// override individual knobs from the environment.
func DefaultLockoutPolicy() store.LockoutPolicy {
	return store.LockoutPolicy{
		MaxAttempts:  MaxFailedAttempts,
		LockDuration: LockDuration,
		ResetAfter:   ResetAttemptsAfter,
	}
}

// AuthService implements login, the second factor and token refresh.
type AuthService struct {
	Store        store.Store
	Sessions     *tokenx.SessionFactory
	Verification *VerificationService
	Lockout      store.LockoutPolicy
}

// LoginInput carries one login attempt. Code switches the attempt into
// second-factor mode; RememberMe only stretches the refresh token.
type LoginInput struct {
	Email      string
	Password   string
	Code       string
	RememberMe bool
}

// LoginResult is the outcome of a login attempt. Session and Account
// are set only on the success outcomes.
type LoginResult struct {
	Outcome string

	Session *tokenx.Session
	Account *domain.Account

	// LockedUntil accompanies ACCOUNT_LOCKED.
	LockedUntil *time.Time
	// AttemptsRemaining accompanies INVALID_PASSWORD.
	AttemptsRemaining int
}

// Login runs the full flow: lockout check, then either the password
// stage or the second-factor stage depending on whether a code was
// supplied.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (LoginResult, error) {
	l := slogx.FromContext(ctx)
	now := time.Now().UTC()

	account, err := s.Store.Accounts().GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{Outcome: OutcomeInvalidEmail}, nil
		}
		return LoginResult{}, fmt.Errorf("load account: %w", err)
	}

	if account.Locked(now) {
		l.Info("login rejected, account locked", "account_id", account.ID)
		return LoginResult{Outcome: OutcomeAccountLocked, LockedUntil: account.LockedUntil}, nil
	}

	if in.Code != "" {
		return s.loginSecondFactor(ctx, &account, in, now)
	}

	return s.loginPassword(ctx, &account, in, now)
}

func (s *AuthService) loginPassword(ctx context.Context, account *domain.Account, in LoginInput, now time.Time) (LoginResult, error) {
	l := slogx.FromContext(ctx)

	if err := cryptox.VerifyPassword(in.Password, account.PasswordHash); err != nil {
		failed, err := s.Store.Accounts().RecordFailedLogin(ctx, account.ID, now, s.Lockout)
		if err != nil {
			return LoginResult{}, fmt.Errorf("record failed login: %w", err)
		}

		if failed.Locked(now) {
			l.Info("account locked after repeated failures", "account_id", account.ID)
			return LoginResult{Outcome: OutcomeAccountLocked, LockedUntil: failed.LockedUntil}, nil
		}

		return LoginResult{
			Outcome:           OutcomeInvalidPassword,
			AttemptsRemaining: s.Lockout.MaxAttempts - failed.FailedLoginAttempts,
		}, nil
	}

	if err := s.Store.Accounts().ClearLockout(ctx, account.ID); err != nil {
		return LoginResult{}, fmt.Errorf("clear lockout: %w", err)
	}

	if account.TwoFactorEnabled {
		res, err := s.Verification.Send(ctx, account.Email, domain.CodeTwoFactor)
		if err != nil {
			return LoginResult{}, err
		}
		if res.Outcome == OutcomeTooManyRequests {
			return LoginResult{Outcome: OutcomeTooManyRequests}, nil
		}

		// The pair is minted half-open: it proves the password stage but
		// the gate refuses it everywhere until the code lands.
		session, err := s.Sessions.Create(account.Identity(true), in.RememberMe)
		if err != nil {
			return LoginResult{}, err
		}

		return LoginResult{
			Outcome: OutcomeTwoFactorCodeSent,
			Session: &session,
			Account: account,
		}, nil
	}

	session, err := s.Sessions.Create(account.Identity(false), in.RememberMe)
	if err != nil {
		return LoginResult{}, err
	}

	l.Info("login success", "account_id", account.ID)
	return LoginResult{Outcome: OutcomeLoginSuccess, Session: &session, Account: account}, nil
}

// loginSecondFactor accepts either the emailed TWO_FACTOR code or, for
// accounts enrolled with an authenticator app, a current TOTP code. A
// wrong code counts against the same lockout budget as a wrong
// password; otherwise the 6-char code space could be ground down.
func (s *AuthService) loginSecondFactor(ctx context.Context, account *domain.Account, in LoginInput, now time.Time) (LoginResult, error) {
	ok := false

	if account.TOTPSecret != nil && *account.TOTPSecret != "" {
		ok = totp.Validate(in.Code, *account.TOTPSecret)
	}
	if !ok {
		consumed, err := s.Verification.Consume(ctx, account.Email, in.Code, domain.CodeTwoFactor)
		if err != nil {
			return LoginResult{}, err
		}
		ok = consumed
	}

	if !ok {
		failed, err := s.Store.Accounts().RecordFailedLogin(ctx, account.ID, now, s.Lockout)
		if err != nil {
			return LoginResult{}, fmt.Errorf("record failed login: %w", err)
		}

		if failed.Locked(now) {
			slogx.FromContext(ctx).Info("account locked after repeated code failures", "account_id", account.ID)
			return LoginResult{Outcome: OutcomeAccountLocked, LockedUntil: failed.LockedUntil}, nil
		}

		return LoginResult{
			Outcome:           OutcomeInvalidCode,
			AttemptsRemaining: s.Lockout.MaxAttempts - failed.FailedLoginAttempts,
		}, nil
	}

	if err := s.Store.Accounts().ClearLockout(ctx, account.ID); err != nil {
		return LoginResult{}, fmt.Errorf("clear lockout: %w", err)
	}

	session, err := s.Sessions.Create(account.Identity(false), in.RememberMe)
	if err != nil {
		return LoginResult{}, err
	}

	slogx.FromContext(ctx).Info("second factor accepted", "account_id", account.ID)
	return LoginResult{Outcome: OutcomeTwoFactorSuccess, Session: &session, Account: account}, nil
}

// RefreshResult reports a refresh attempt. AccessToken is set only on
// TOKEN_REFRESHED.
type RefreshResult struct {
	Outcome     string
	AccessToken string
	Identity    *tokenx.Identity
}

// Refresh mints a new access token from a live refresh token. The
// identity snapshot is carried over verbatim, so a half-open pair stays
// half-open.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (RefreshResult, error) {
	res, err := s.Sessions.Codec.Verify(refreshToken)
	if err != nil || res.Expired {
		return RefreshResult{Outcome: OutcomeInvalidRefresh}, nil
	}

	access, err := s.Sessions.Codec.Issue(*res.Identity, s.Sessions.AccessTTL)
	if err != nil {
		return RefreshResult{}, err
	}

	return RefreshResult{
		Outcome:     OutcomeTokenRefreshed,
		AccessToken: access,
		Identity:    res.Identity,
	}, nil
}
