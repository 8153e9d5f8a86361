package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perseusdefend/perseus/internal/domain"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(":memory:")
	require.NoError(t, err)
	require.NoError(t, s.ApplyMigrations())
	t.Cleanup(func() { _ = s.Close() })

	return s
}

func newTestAccount(email string) domain.Account {
	now := time.Now().UTC()
	return domain.Account{
		ID:           idx.New(),
		Email:        email,
		Name:         "Test User",
		PasswordHash: "$argon2id$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		Role:         tokenx.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestAccountsCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accounts := s.Accounts()

	a := newTestAccount("crud@example.com")
	require.NoError(t, accounts.Create(ctx, a))

	t.Run("get by id and email", func(t *testing.T) {
		byID, err := accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, a.Email, byID.Email)
		require.Equal(t, tokenx.RoleUser, byID.Role)

		byEmail, err := accounts.GetByEmail(ctx, "crud@example.com")
		require.NoError(t, err)
		require.Equal(t, a.ID, byEmail.ID)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		dup := newTestAccount("CRUD@example.com") // case-insensitive match
		err := accounts.Create(ctx, dup)
		require.ErrorIs(t, err, store.ErrAlreadyExists)
	})

	t.Run("update profile", func(t *testing.T) {
		require.NoError(t, accounts.UpdateProfile(ctx, a.ID, "renamed@example.com", "Renamed", "ADMIN"))

		got, err := accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Equal(t, "renamed@example.com", got.Email)
		require.Equal(t, tokenx.RoleAdmin, got.Role)
	})

	t.Run("missing rows map to ErrNotFound", func(t *testing.T) {
		_, err := accounts.GetByID(ctx, idx.New())
		require.ErrorIs(t, err, store.ErrNotFound)

		err = accounts.Delete(ctx, idx.New())
		require.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, accounts.Delete(ctx, a.ID))
		_, err := accounts.GetByID(ctx, a.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestAccountsLockout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	accounts := s.Accounts()

	policy := store.LockoutPolicy{
		MaxAttempts:  5,
		LockDuration: 24 * time.Hour,
		ResetAfter:   15 * time.Minute,
	}

	a := newTestAccount("lockout@example.com")
	require.NoError(t, accounts.Create(ctx, a))

	now := time.Now().UTC()

	t.Run("counter increments under the cap without locking", func(t *testing.T) {
		for i := 1; i < policy.MaxAttempts; i++ {
			got, err := accounts.RecordFailedLogin(ctx, a.ID, now, policy)
			require.NoError(t, err)
			require.Equal(t, i, got.FailedLoginAttempts)
			require.False(t, got.Locked(now))
		}
	})

	t.Run("hitting the cap locks the account", func(t *testing.T) {
		got, err := accounts.RecordFailedLogin(ctx, a.ID, now, policy)
		require.NoError(t, err)
		require.Equal(t, policy.MaxAttempts, got.FailedLoginAttempts)
		require.True(t, got.Locked(now))
		require.WithinDuration(t, now.Add(policy.LockDuration), *got.LockedUntil, time.Second)
	})

	t.Run("stale counter restarts at one", func(t *testing.T) {
		b := newTestAccount("stale@example.com")
		require.NoError(t, accounts.Create(ctx, b))

		_, err := accounts.RecordFailedLogin(ctx, b.ID, now.Add(-time.Hour), policy)
		require.NoError(t, err)
		_, err = accounts.RecordFailedLogin(ctx, b.ID, now.Add(-time.Hour), policy)
		require.NoError(t, err)

		// Third failure lands after the quiet period.
		got, err := accounts.RecordFailedLogin(ctx, b.ID, now, policy)
		require.NoError(t, err)
		require.Equal(t, 1, got.FailedLoginAttempts)
	})

	t.Run("clear lockout resets everything", func(t *testing.T) {
		require.NoError(t, accounts.ClearLockout(ctx, a.ID))

		got, err := accounts.GetByID(ctx, a.ID)
		require.NoError(t, err)
		require.Zero(t, got.FailedLoginAttempts)
		require.Nil(t, got.LockedUntil)
		require.Nil(t, got.LastFailedLogin)
	})
}

func TestVerificationCodes(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	codes := s.VerificationCodes()

	now := time.Now().UTC()

	newCode := func(email, code string, typ domain.CodeType, expires time.Time) domain.VerificationCode {
		return domain.VerificationCode{
			ID:        idx.New(),
			Email:     email,
			Code:      code,
			Type:      typ,
			ExpiresAt: expires,
			CreatedAt: now,
		}
	}

	t.Run("consume is single use", func(t *testing.T) {
		c := newCode("consume@example.com", "ABC123", domain.CodeTwoFactor, now.Add(2*time.Minute))
		require.NoError(t, codes.Create(ctx, c))

		ok, err := codes.Consume(ctx, c.Email, c.Code, c.Type, now)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = codes.Consume(ctx, c.Email, c.Code, c.Type, now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("expired codes cannot be consumed", func(t *testing.T) {
		c := newCode("expired@example.com", "ZZZ999", domain.CodeTwoFactor, now.Add(-time.Second))
		require.NoError(t, codes.Create(ctx, c))

		ok, err := codes.Consume(ctx, c.Email, c.Code, c.Type, now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("type partitions consumption", func(t *testing.T) {
		c := newCode("typed@example.com", "TYPE01", domain.CodePasswordReset, now.Add(15*time.Minute))
		require.NoError(t, codes.Create(ctx, c))

		ok, err := codes.Consume(ctx, c.Email, c.Code, domain.CodeTwoFactor, now)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = codes.Consume(ctx, c.Email, c.Code, domain.CodePasswordReset, now)
		require.NoError(t, err)
		require.True(t, ok)
	})

	t.Run("invalidate unused revokes older codes", func(t *testing.T) {
		old := newCode("super@example.com", "OLD111", domain.CodeTwoFactor, now.Add(2*time.Minute))
		require.NoError(t, codes.Create(ctx, old))

		require.NoError(t, codes.InvalidateUnused(ctx, "super@example.com", domain.CodeTwoFactor))

		ok, err := codes.Consume(ctx, old.Email, old.Code, old.Type, now)
		require.NoError(t, err)
		require.False(t, ok)
	})

	t.Run("issuance counters", func(t *testing.T) {
		email := "count@example.com"
		for _, typ := range []domain.CodeType{domain.CodeTwoFactor, domain.CodePasswordReset} {
			require.NoError(t, codes.Create(ctx, newCode(email, "CNT000", typ, now.Add(time.Minute))))
		}

		resets, err := codes.CountTypeSince(ctx, email, domain.CodePasswordReset, now.Add(-time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, resets)

		twoFactor, err := codes.CountTypeSince(ctx, email, domain.CodeTwoFactor, now.Add(-time.Minute))
		require.NoError(t, err)
		require.Equal(t, 1, twoFactor)

		// The window boundary excludes older rows.
		none, err := codes.CountTypeSince(ctx, email, domain.CodeTwoFactor, now.Add(time.Minute))
		require.NoError(t, err)
		require.Zero(t, none)
	})

	t.Run("delete expired", func(t *testing.T) {
		n, err := codes.DeleteExpired(ctx, now)
		require.NoError(t, err)
		require.Positive(t, n)
	})
}

func TestProductsAndAssignments(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	account := newTestAccount("assign@example.com")
	require.NoError(t, s.Accounts().Create(ctx, account))

	product := domain.Product{
		ID:          idx.New(),
		Name:        "Dark Web Monitoring",
		Description: "Continuous exposure scanning",
		Features:    []string{"alerts", "reports"},
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.Products().Create(ctx, product))

	t.Run("features round trip", func(t *testing.T) {
		got, err := s.Products().GetByID(ctx, product.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"alerts", "reports"}, got.Features)
	})

	t.Run("assign is idempotent", func(t *testing.T) {
		require.NoError(t, s.Products().Assign(ctx, account.ID, product.ID))
		require.NoError(t, s.Products().Assign(ctx, account.ID, product.ID))

		assigned, err := s.Products().ListByAccount(ctx, account.ID)
		require.NoError(t, err)
		require.Len(t, assigned, 1)

		users, err := s.Products().ListAccounts(ctx, product.ID)
		require.NoError(t, err)
		require.Len(t, users, 1)
		require.Equal(t, account.ID, users[0].ID)
	})

	t.Run("deleting the account cascades the assignment", func(t *testing.T) {
		require.NoError(t, s.Accounts().Delete(ctx, account.ID))

		users, err := s.Products().ListAccounts(ctx, product.ID)
		require.NoError(t, err)
		require.Empty(t, users)
	})

	t.Run("unassign missing link is not found", func(t *testing.T) {
		err := s.Products().Unassign(ctx, idx.New(), product.ID)
		require.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestWithTxRollsBackOnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a := newTestAccount("rollback@example.com")

	err := s.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Accounts().Create(ctx, a); err != nil {
			return err
		}
		return context.Canceled // force rollback
	})
	require.Error(t, err)

	_, err = s.Accounts().GetByID(ctx, a.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
}
