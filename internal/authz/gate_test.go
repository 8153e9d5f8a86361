package authz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

func newGateTestSetup(t *testing.T) (*Gate, *tokenx.Codec, http.Handler) {
	t.Helper()

	codec := &tokenx.Codec{Secret: []byte("gate-test"), Issuer: "perseus-test"}

	table := NewTable().
		Public(http.MethodPost, "/api/auth/login").
		Role("/api/products", map[string]RoleList{
			http.MethodGet: {tokenx.RoleAdmin, tokenx.RoleUser, tokenx.RoleDemoUser},
			MethodAny:      {tokenx.RoleAdmin},
		}).
		Custom("/api/users/[id]", map[string]Predicate{
			MethodAny: func(_ context.Context, id *tokenx.Identity, params map[string]string, _ *http.Request) (bool, error) {
				return id.Role == tokenx.RoleAdmin || id.ID.String() == params["id"], nil
			},
		})

	gate := &Gate{Table: table, Codec: codec, AccessTTL: time.Minute}

	handler := gate.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	return gate, codec, handler
}

func identityFor(role tokenx.Role) tokenx.Identity {
	return tokenx.Identity{ID: idx.New(), Email: "gate@example.com", Role: role}
}

// pairHeaders mints a live access/refresh pair for the identity.
func pairHeaders(t *testing.T, codec *tokenx.Codec, id tokenx.Identity) map[string]string {
	t.Helper()

	access, err := codec.Issue(id, time.Minute)
	require.NoError(t, err)
	refresh, err := codec.Issue(id, time.Hour)
	require.NoError(t, err)

	return map[string]string{HeaderAuthToken: access, HeaderRefreshToken: refresh}
}

func TestGatePublicRoutes(t *testing.T) {
	_, _, handler := newGateTestSetup(t)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGateAuthentication(t *testing.T) {
	_, codec, handler := newGateTestSetup(t)

	do := func(headers map[string]string, method, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, nil)
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("missing tokens", func(t *testing.T) {
		rec := do(nil, http.MethodGet, "/api/products")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("access token without a refresh token", func(t *testing.T) {
		token, err := codec.Issue(identityFor(tokenx.RoleUser), time.Minute)
		require.NoError(t, err)

		rec := do(map[string]string{HeaderAuthToken: token}, http.MethodGet, "/api/products")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("forged pair", func(t *testing.T) {
		forger := &tokenx.Codec{Secret: []byte("evil"), Issuer: "perseus-test"}

		rec := do(pairHeaders(t, forger, identityFor(tokenx.RoleAdmin)), http.MethodGet, "/api/products")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("valid pair passes the role tier", func(t *testing.T) {
		rec := do(pairHeaders(t, codec, identityFor(tokenx.RoleUser)), http.MethodGet, "/api/products")
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("live access with someone else's refresh", func(t *testing.T) {
		headers := pairHeaders(t, codec, identityFor(tokenx.RoleUser))

		otherRefresh, err := codec.Issue(identityFor(tokenx.RoleUser), time.Hour)
		require.NoError(t, err)
		headers[HeaderRefreshToken] = otherRefresh

		rec := do(headers, http.MethodGet, "/api/products")
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("insufficient role yields method-specific wording", func(t *testing.T) {
		rec := do(pairHeaders(t, codec, identityFor(tokenx.RoleUser)), http.MethodPost, "/api/products")
		require.Equal(t, http.StatusForbidden, rec.Code)

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, false, body["success"])
		require.Contains(t, body["error"], "create")
	})

	t.Run("waitingFor2FA is refused everywhere", func(t *testing.T) {
		id := identityFor(tokenx.RoleAdmin)
		id.WaitingFor2FA = true

		rec := do(pairHeaders(t, codec, id), http.MethodGet, "/api/products")
		require.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestGateSilentRefresh(t *testing.T) {
	_, codec, handler := newGateTestSetup(t)

	id := identityFor(tokenx.RoleUser)

	expiredAccess, err := codec.Issue(id, -time.Minute)
	require.NoError(t, err)
	liveRefresh, err := codec.Issue(id, time.Hour)
	require.NoError(t, err)

	t.Run("expired access plus live refresh issues a new token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set(HeaderAuthToken, expiredAccess)
		req.Header.Set(HeaderRefreshToken, liveRefresh)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		fresh := rec.Header().Get(HeaderNewAccess)
		require.NotEmpty(t, fresh)

		verified, err := codec.Verify(fresh)
		require.NoError(t, err)
		require.False(t, verified.Expired)
		require.Equal(t, id.ID, verified.Identity.ID)
	})

	t.Run("expired access without refresh token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set(HeaderAuthToken, expiredAccess)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("mismatched pair is rejected", func(t *testing.T) {
		otherRefresh, err := codec.Issue(identityFor(tokenx.RoleUser), time.Hour)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set(HeaderAuthToken, expiredAccess)
		req.Header.Set(HeaderRefreshToken, otherRefresh)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, rec.Header().Get(HeaderNewAccess))
	})

	t.Run("expired refresh is rejected", func(t *testing.T) {
		expiredRefresh, err := codec.Issue(id, -time.Second)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/api/products", nil)
		req.Header.Set(HeaderAuthToken, expiredAccess)
		req.Header.Set(HeaderRefreshToken, expiredRefresh)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestGateCustomPredicate(t *testing.T) {
	_, codec, handler := newGateTestSetup(t)

	self := identityFor(tokenx.RoleUser)

	do := func(id tokenx.Identity, path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		for k, v := range pairHeaders(t, codec, id) {
			req.Header.Set(k, v)
		}
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	t.Run("user reaches their own record", func(t *testing.T) {
		rec := do(self, "/api/users/"+self.ID.String())
		require.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("user cannot reach someone else", func(t *testing.T) {
		rec := do(self, "/api/users/"+idx.New().String())
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reaches anyone", func(t *testing.T) {
		rec := do(identityFor(tokenx.RoleAdmin), "/api/users/"+idx.New().String())
		require.Equal(t, http.StatusOK, rec.Code)
	})
}
