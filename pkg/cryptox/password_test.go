package cryptox

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func setupPepper(t *testing.T) {
	t.Helper()
	SetPepperPath(filepath.Join(t.TempDir(), "pepper"))
	t.Cleanup(func() { SetPepperPath("") })
}

func TestHashAndVerifyPassword(t *testing.T) {
	setupPepper(t)

	hash, err := HashPassword("Correct-Horse-Battery-1")
	require.NoError(t, err)
	require.Contains(t, hash, "$argon2id$v=19$")

	t.Run("matching password verifies", func(t *testing.T) {
		require.NoError(t, VerifyPassword("Correct-Horse-Battery-1", hash))
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		err := VerifyPassword("wrong-password", hash)
		require.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("hashes are salted", func(t *testing.T) {
		other, err := HashPassword("Correct-Horse-Battery-1")
		require.NoError(t, err)
		require.NotEqual(t, hash, other)
	})
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	setupPepper(t)

	for name, encoded := range map[string]string{
		"empty":         "",
		"missing parts": "$argon2id$v=19$m=19456,t=2,p=1",
		"wrong algo":    "$bcrypt$v=19$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"wrong version": "$argon2id$v=18$m=19456,t=2,p=1$c2FsdA$aGFzaA",
		"bad salt":      "$argon2id$v=19$m=19456,t=2,p=1$!!!$aGFzaA",
	} {
		t.Run(name, func(t *testing.T) {
			require.Error(t, VerifyPassword("whatever", encoded))
		})
	}
}

func TestGenerateCode(t *testing.T) {
	seen := make(map[string]struct{})

	for range 50 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, CodeLength)
		for _, c := range code {
			require.Contains(t, codeAlphabet, string(c))
		}
		seen[code] = struct{}{}
	}

	// 50 draws from a 36^6 space should never all collide.
	require.Greater(t, len(seen), 1)
}
