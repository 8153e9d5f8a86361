package tokenx

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/perseusdefend/perseus/pkg/idx"
)

func testIdentity() Identity {
	return Identity{
		ID:    idx.New(),
		Email: "user@example.com",
		Name:  "Test User",
		Role:  RoleUser,
	}
}

func TestCodecIssueVerify(t *testing.T) {
	codec := &Codec{Secret: []byte("test-secret"), Issuer: "perseus"}

	t.Run("round trip", func(t *testing.T) {
		id := testIdentity()

		token, err := codec.Issue(id, time.Minute)
		require.NoError(t, err)

		res, err := codec.Verify(token)
		require.NoError(t, err)
		require.False(t, res.Expired)
		require.Equal(t, &id, res.Identity)
	})

	t.Run("expired token keeps identity", func(t *testing.T) {
		id := testIdentity()

		token, err := codec.Issue(id, -time.Minute)
		require.NoError(t, err)

		res, err := codec.Verify(token)
		require.NoError(t, err)
		require.True(t, res.Expired)
		require.Equal(t, id.ID, res.Identity.ID)
		require.Equal(t, id.Email, res.Identity.Email)
	})

	t.Run("wrong secret is invalid, not expired", func(t *testing.T) {
		forger := &Codec{Secret: []byte("other-secret"), Issuer: "perseus"}

		token, err := forger.Issue(testIdentity(), -time.Minute)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("wrong issuer rejected", func(t *testing.T) {
		other := &Codec{Secret: []byte("test-secret"), Issuer: "someone-else"}

		token, err := other.Issue(testIdentity(), time.Minute)
		require.NoError(t, err)

		_, err = codec.Verify(token)
		require.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage rejected", func(t *testing.T) {
		for _, token := range []string{"", "garbage", "a.b.c"} {
			_, err := codec.Verify(token)
			require.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
		}
	})

	t.Run("waitingFor2FA survives the round trip", func(t *testing.T) {
		id := testIdentity()
		id.WaitingFor2FA = true

		token, err := codec.Issue(id, time.Minute)
		require.NoError(t, err)

		res, err := codec.Verify(token)
		require.NoError(t, err)
		require.True(t, res.Identity.WaitingFor2FA)
	})
}

func TestDecodeUnsafe(t *testing.T) {
	codec := &Codec{Secret: []byte("test-secret"), Issuer: "perseus"}

	t.Run("reads identity without verification", func(t *testing.T) {
		id := testIdentity()

		// Signed by a different secret entirely.
		forger := &Codec{Secret: []byte("who-knows"), Issuer: "perseus"}
		token, err := forger.Issue(id, time.Minute)
		require.NoError(t, err)

		got := codec.DecodeUnsafe(token)
		require.NotNil(t, got)
		require.Equal(t, id.ID, got.ID)
	})

	t.Run("nil for unparseable input", func(t *testing.T) {
		require.Nil(t, codec.DecodeUnsafe("not-a-token"))
	})
}

func TestSessionFactory(t *testing.T) {
	codec := &Codec{Secret: []byte("test-secret"), Issuer: "perseus"}
	factory := NewSessionFactory(codec)

	t.Run("pair shares the identity", func(t *testing.T) {
		id := testIdentity()

		sess, err := factory.Create(id, false)
		require.NoError(t, err)

		access, err := codec.Verify(sess.AccessToken)
		require.NoError(t, err)
		refresh, err := codec.Verify(sess.RefreshToken)
		require.NoError(t, err)

		require.Equal(t, access.Identity.ID, refresh.Identity.ID)
		require.Equal(t, id.Role, access.Identity.Role)
	})

	t.Run("remember-me stretches only the refresh token", func(t *testing.T) {
		id := testIdentity()

		short, err := factory.Create(id, false)
		require.NoError(t, err)
		long, err := factory.Create(id, true)
		require.NoError(t, err)

		require.WithinDuration(t,
			expiryOf(t, codec, short.AccessToken),
			expiryOf(t, codec, long.AccessToken),
			2*time.Second)

		require.Greater(t,
			expiryOf(t, codec, long.RefreshToken).Sub(expiryOf(t, codec, short.RefreshToken)),
			24*time.Hour)
	})
}

func expiryOf(t *testing.T, codec *Codec, token string) time.Time {
	t.Helper()

	claims := &Claims{}
	_, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return codec.Secret, nil
	})
	require.NoError(t, err)
	return claims.ExpiresAt.Time
}
