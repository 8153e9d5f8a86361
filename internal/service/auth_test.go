package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/internal/store/drivers/sqlite"
	"github.com/perseusdefend/perseus/pkg/cryptox"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// captureMailer records deliveries instead of sending them.
type captureMailer struct {
	mu    sync.Mutex
	codes map[string]string // email -> last code
	demos []string
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{codes: make(map[string]string)}
}

func (m *captureMailer) SendVerificationCode(_ context.Context, email, code string, _ domain.CodeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.codes[email] = code
	return nil
}

func (m *captureMailer) SendDemoRequestNotice(_ context.Context, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.demos = append(m.demos, email)
	return nil
}

func (m *captureMailer) lastCode(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

type testEnv struct {
	store    store.Store
	mailer   *captureMailer
	auth     *AuthService
	accounts *AccountService
	verify   *VerificationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cryptox.SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	t.Cleanup(func() { cryptox.SetPepperPath("") })

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, st.ApplyMigrations())
	t.Cleanup(func() { _ = st.Close() })

	mailer := newCaptureMailer()
	verify := &VerificationService{Store: st, Mailer: mailer}
	codec := &tokenx.Codec{Secret: []byte("test-secret"), Issuer: "perseus-test"}

	return &testEnv{
		store:  st,
		mailer: mailer,
		verify: verify,
		auth: &AuthService{
			Store:        st,
			Sessions:     tokenx.NewSessionFactory(codec),
			Verification: verify,
			Lockout:      DefaultLockoutPolicy(),
		},
		accounts: &AccountService{Store: st, Verification: verify},
	}
}

func (e *testEnv) createAccount(t *testing.T, email, password string, twoFactor bool) domain.Account {
	t.Helper()

	hash, err := cryptox.HashPassword(password)
	require.NoError(t, err)

	now := time.Now().UTC()
	a := domain.Account{
		ID:               idx.New(),
		Email:            email,
		Name:             "Test User",
		PasswordHash:     hash,
		Role:             tokenx.RoleUser,
		TwoFactorEnabled: twoFactor,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	require.NoError(t, e.store.Accounts().Create(context.Background(), a))
	return a
}

func TestLoginPassword(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createAccount(t, "user@example.com", "Sup3r-Secret", false)

	t.Run("unknown email", func(t *testing.T) {
		res, err := env.auth.Login(ctx, LoginInput{Email: "nobody@example.com", Password: "x"})
		require.NoError(t, err)
		require.Equal(t, OutcomeInvalidEmail, res.Outcome)
		require.Nil(t, res.Session)
	})

	t.Run("wrong password counts down", func(t *testing.T) {
		res, err := env.auth.Login(ctx, LoginInput{Email: "user@example.com", Password: "nope"})
		require.NoError(t, err)
		require.Equal(t, OutcomeInvalidPassword, res.Outcome)
		require.Equal(t, MaxFailedAttempts-1, res.AttemptsRemaining)
	})

	t.Run("success clears the counter and mints a session", func(t *testing.T) {
		res, err := env.auth.Login(ctx, LoginInput{Email: "user@example.com", Password: "Sup3r-Secret"})
		require.NoError(t, err)
		require.Equal(t, OutcomeLoginSuccess, res.Outcome)
		require.NotNil(t, res.Session)

		verified, err := env.auth.Sessions.Codec.Verify(res.Session.AccessToken)
		require.NoError(t, err)
		require.False(t, verified.Identity.WaitingFor2FA)
		require.Equal(t, tokenx.RoleUser, verified.Identity.Role)

		account, err := env.store.Accounts().GetByEmail(ctx, "user@example.com")
		require.NoError(t, err)
		require.Zero(t, account.FailedLoginAttempts)
	})
}

func TestLoginLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createAccount(t, "locked@example.com", "Sup3r-Secret", false)

	var last LoginResult
	for range MaxFailedAttempts {
		var err error
		last, err = env.auth.Login(ctx, LoginInput{Email: "locked@example.com", Password: "wrong"})
		require.NoError(t, err)
	}

	t.Run("fifth failure locks", func(t *testing.T) {
		require.Equal(t, OutcomeAccountLocked, last.Outcome)
		require.NotNil(t, last.LockedUntil)
		require.WithinDuration(t, time.Now().Add(LockDuration), *last.LockedUntil, time.Minute)
	})

	t.Run("even the right password is refused while locked", func(t *testing.T) {
		res, err := env.auth.Login(ctx, LoginInput{Email: "locked@example.com", Password: "Sup3r-Secret"})
		require.NoError(t, err)
		require.Equal(t, OutcomeAccountLocked, res.Outcome)
	})
}

func TestLoginTwoFactor(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createAccount(t, "2fa@example.com", "Sup3r-Secret", true)

	res, err := env.auth.Login(ctx, LoginInput{Email: "2fa@example.com", Password: "Sup3r-Secret"})
	require.NoError(t, err)

	t.Run("password stage sends a code and a half-open session", func(t *testing.T) {
		require.Equal(t, OutcomeTwoFactorCodeSent, res.Outcome)
		require.NotNil(t, res.Session)

		verified, err := env.auth.Sessions.Codec.Verify(res.Session.AccessToken)
		require.NoError(t, err)
		require.True(t, verified.Identity.WaitingFor2FA)

		require.Len(t, env.mailer.lastCode("2fa@example.com"), cryptox.CodeLength)
	})

	t.Run("wrong code is rejected", func(t *testing.T) {
		got, err := env.auth.Login(ctx, LoginInput{Email: "2fa@example.com", Code: "WRONG1"})
		require.NoError(t, err)
		require.Equal(t, OutcomeInvalidCode, got.Outcome)
	})

	t.Run("emailed code completes the login", func(t *testing.T) {
		code := env.mailer.lastCode("2fa@example.com")

		got, err := env.auth.Login(ctx, LoginInput{Email: "2fa@example.com", Code: code})
		require.NoError(t, err)
		require.Equal(t, OutcomeTwoFactorSuccess, got.Outcome)

		verified, err := env.auth.Sessions.Codec.Verify(got.Session.AccessToken)
		require.NoError(t, err)
		require.False(t, verified.Identity.WaitingFor2FA)
	})

	t.Run("the code is single use", func(t *testing.T) {
		code := env.mailer.lastCode("2fa@example.com")

		got, err := env.auth.Login(ctx, LoginInput{Email: "2fa@example.com", Code: code})
		require.NoError(t, err)
		require.Equal(t, OutcomeInvalidCode, got.Outcome)
	})
}

func TestLoginSecondFactorLockout(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.createAccount(t, "2fa-lock@example.com", "Sup3r-Secret", true)

	res, err := env.auth.Login(ctx, LoginInput{Email: "2fa-lock@example.com", Password: "Sup3r-Secret"})
	require.NoError(t, err)
	require.Equal(t, OutcomeTwoFactorCodeSent, res.Outcome)

	var last LoginResult
	for range MaxFailedAttempts {
		last, err = env.auth.Login(ctx, LoginInput{Email: "2fa-lock@example.com", Code: "WRONG0"})
		require.NoError(t, err)
	}

	t.Run("wrong codes spend the lockout budget", func(t *testing.T) {
		require.Equal(t, OutcomeAccountLocked, last.Outcome)
		require.NotNil(t, last.LockedUntil)
	})

	t.Run("even the real code is refused while locked", func(t *testing.T) {
		code := env.mailer.lastCode("2fa-lock@example.com")

		got, err := env.auth.Login(ctx, LoginInput{Email: "2fa-lock@example.com", Code: code})
		require.NoError(t, err)
		require.Equal(t, OutcomeAccountLocked, got.Outcome)
	})
}

func TestRefresh(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	account := env.createAccount(t, "refresh@example.com", "Sup3r-Secret", false)

	login, err := env.auth.Login(ctx, LoginInput{Email: "refresh@example.com", Password: "Sup3r-Secret"})
	require.NoError(t, err)

	t.Run("live refresh token mints an access token", func(t *testing.T) {
		res, err := env.auth.Refresh(ctx, login.Session.RefreshToken)
		require.NoError(t, err)
		require.Equal(t, OutcomeTokenRefreshed, res.Outcome)

		verified, err := env.auth.Sessions.Codec.Verify(res.AccessToken)
		require.NoError(t, err)
		require.Equal(t, account.ID, verified.Identity.ID)
	})

	t.Run("garbage refresh token is rejected", func(t *testing.T) {
		res, err := env.auth.Refresh(ctx, "garbage")
		require.NoError(t, err)
		require.Equal(t, OutcomeInvalidRefresh, res.Outcome)
	})

	t.Run("expired refresh token is rejected", func(t *testing.T) {
		expired, err := env.auth.Sessions.Codec.Issue(account.Identity(false), -time.Minute)
		require.NoError(t, err)

		res, err := env.auth.Refresh(ctx, expired)
		require.NoError(t, err)
		require.Equal(t, OutcomeInvalidRefresh, res.Outcome)
	})
}

func TestRegisterAndPasswordReset(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("register needs a redeemed email code", func(t *testing.T) {
		res, err := env.accounts.Register(ctx, RegisterInput{
			Email: "new@example.com", Password: "Pass-1234", Role: tokenx.RoleUser, Code: "NOPE00",
		})
		require.NoError(t, err)
		require.Equal(t, OutcomeCodeInvalidOrExpired, res.Outcome)

		send, err := env.verify.Send(ctx, "new@example.com", domain.CodeEmailVerify)
		require.NoError(t, err)
		require.Equal(t, OutcomeVerificationCodeSent, send.Outcome)

		res, err = env.accounts.Register(ctx, RegisterInput{
			Email: "new@example.com", Password: "Pass-1234", Name: "New User",
			Role: tokenx.RoleUser, Code: env.mailer.lastCode("new@example.com"),
		})
		require.NoError(t, err)
		require.Equal(t, OutcomeRegisterSuccess, res.Outcome)
		require.NotNil(t, res.Account)
	})

	t.Run("duplicate email is reported", func(t *testing.T) {
		send, err := env.verify.Send(ctx, "new@example.com", domain.CodeEmailVerify)
		require.NoError(t, err)
		require.Equal(t, OutcomeVerificationCodeSent, send.Outcome)

		res, err := env.accounts.Register(ctx, RegisterInput{
			Email: "new@example.com", Password: "Pass-1234",
			Role: tokenx.RoleUser, Code: env.mailer.lastCode("new@example.com"),
		})
		require.NoError(t, err)
		require.Equal(t, OutcomeEmailInUse, res.Outcome)
	})

	t.Run("reset request for unknown address", func(t *testing.T) {
		res, err := env.accounts.RequestPasswordReset(ctx, "ghost@example.com")
		require.NoError(t, err)
		require.Equal(t, OutcomeUserNotFound, res.Outcome)
	})

	t.Run("full reset flow", func(t *testing.T) {
		res, err := env.accounts.RequestPasswordReset(ctx, "new@example.com")
		require.NoError(t, err)
		require.Equal(t, OutcomePasswordResetRequestSent, res.Outcome)

		res, err = env.accounts.ResetPassword(ctx, ResetPasswordInput{
			Email: "new@example.com", Code: "WRONG0", NewPassword: "Changed-99",
		})
		require.NoError(t, err)
		require.Equal(t, OutcomeLinkInvalidOrExpired, res.Outcome)

		res, err = env.accounts.ResetPassword(ctx, ResetPasswordInput{
			Email:       "new@example.com",
			Code:        env.mailer.lastCode("new@example.com"),
			NewPassword: "Changed-99",
		})
		require.NoError(t, err)
		require.Equal(t, OutcomePasswordResetSuccess, res.Outcome)

		login, err := env.auth.Login(ctx, LoginInput{Email: "new@example.com", Password: "Changed-99"})
		require.NoError(t, err)
		require.Equal(t, OutcomeLoginSuccess, login.Outcome)
	})
}
