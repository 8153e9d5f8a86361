package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/pkg/idx"
)

func TestVerificationSendCaps(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("issue cap is counted per type", func(t *testing.T) {
		email := "capped@example.com"
		for range IssueCap {
			res, err := env.verify.Send(ctx, email, domain.CodeTwoFactor)
			require.NoError(t, err)
			require.Equal(t, OutcomeVerificationCodeSent, res.Outcome)
		}

		res, err := env.verify.Send(ctx, email, domain.CodeTwoFactor)
		require.NoError(t, err)
		require.Equal(t, OutcomeTooManyRequests, res.Outcome)

		// An exhausted window for one type leaves the others untouched.
		res, err = env.verify.Send(ctx, email, domain.CodeEmailVerify)
		require.NoError(t, err)
		require.Equal(t, OutcomeVerificationCodeSent, res.Outcome)
	})

	t.Run("reset cap is stricter than the generic cap", func(t *testing.T) {
		email := "resets@example.com"

		// Seed two resets issued hours ago: outside the generic window,
		// inside the daily reset window.
		earlier := time.Now().UTC().Add(-2 * time.Hour)
		for range ResetCap - 1 {
			require.NoError(t, env.store.VerificationCodes().Create(ctx, domain.VerificationCode{
				ID: idx.New(), Email: email, Code: "SEED00",
				Type: domain.CodePasswordReset, ExpiresAt: earlier.Add(ResetCodeTTL), CreatedAt: earlier,
			}))
		}

		res, err := env.verify.Send(ctx, email, domain.CodePasswordReset)
		require.NoError(t, err)
		require.Equal(t, OutcomeVerificationCodeSent, res.Outcome)

		res, err = env.verify.Send(ctx, email, domain.CodePasswordReset)
		require.NoError(t, err)
		require.Equal(t, OutcomeTooManyRequests, res.Outcome)
	})

	t.Run("caps are per address", func(t *testing.T) {
		res, err := env.verify.Send(ctx, "other@example.com", domain.CodeTwoFactor)
		require.NoError(t, err)
		require.Equal(t, OutcomeVerificationCodeSent, res.Outcome)
	})
}

func TestVerificationSupersede(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	email := "supersede@example.com"

	first, err := env.verify.Send(ctx, email, domain.CodeTwoFactor)
	require.NoError(t, err)
	require.Equal(t, OutcomeVerificationCodeSent, first.Outcome)
	oldCode := env.mailer.lastCode(email)

	second, err := env.verify.Send(ctx, email, domain.CodeTwoFactor)
	require.NoError(t, err)
	require.Equal(t, OutcomeVerificationCodeSent, second.Outcome)
	newCode := env.mailer.lastCode(email)

	t.Run("reissue revokes the older code", func(t *testing.T) {
		ok, err := env.verify.Consume(ctx, email, oldCode, domain.CodeTwoFactor)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("latest code still works", func(t *testing.T) {
		ok, err := env.verify.Consume(ctx, email, newCode, domain.CodeTwoFactor)
		require.NoError(t, err)
		require.True(t, ok)
	})
}

func TestVerificationDemoRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	res, err := env.verify.Send(ctx, "prospect@example.com", domain.CodeDemoRequest)
	require.NoError(t, err)
	require.Equal(t, OutcomeDemoRequest, res.Outcome)

	t.Run("prospect recorded as pending", func(t *testing.T) {
		d, err := env.store.DemoRequests().GetByEmail(ctx, "prospect@example.com")
		require.NoError(t, err)
		require.Equal(t, domain.DemoPending, d.Status)
	})

	t.Run("sales notified, no code issued", func(t *testing.T) {
		require.Contains(t, env.mailer.demos, "prospect@example.com")
		require.Empty(t, env.mailer.lastCode("prospect@example.com"))
	})
}
