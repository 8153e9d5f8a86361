package authz

import (
	"net/http"
	"time"

	"github.com/perseusdefend/perseus/pkg/httpx"
	"github.com/perseusdefend/perseus/pkg/slogx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// Token transport headers. Tokens travel in custom headers rather than
// cookies; a refreshed access token is handed back in the response for
// the client to adopt.
const (
	HeaderAuthToken    = "x-auth-token"
	HeaderRefreshToken = "x-refresh-token"
	HeaderNewAccess    = "x-new-access-token"
)

// Gate authenticates and authorizes every request against the policy
// table before it reaches a handler.
type Gate struct {
	Table *Table
	Codec *tokenx.Codec

	// AccessTTL is the lifetime of silently refreshed access tokens.
	AccessTTL time.Duration
}

// Middleware runs the gate protocol: resolve the policy, authenticate
// (with a silent refresh when the access token just expired), then
// enforce the matched rule. Anything unexpected fails closed as 401.
func (g *Gate) Middleware() httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			res := g.Table.Resolve(r.Method, r.URL.Path)
			if res.Public {
				next.ServeHTTP(w, r)
				return
			}

			id, ok := g.authenticate(w, r)
			if !ok {
				unauthorized(w)
				return
			}

			// A half-open login pair proves only the password stage.
			if id.WaitingFor2FA {
				deny(w, r.Method)
				return
			}

			switch {
			case res.Predicate != nil:
				allowed, err := res.Predicate(r.Context(), id, res.Params, r)
				if err != nil {
					slogx.FromContext(r.Context()).Error("authorization predicate failed", "err", err)
					unauthorized(w)
					return
				}
				if !allowed {
					deny(w, r.Method)
					return
				}
			default:
				if !res.Roles.Contains(id.Role) {
					deny(w, r.Method)
					return
				}
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// authenticate demands a coherent token pair: both headers present,
// both authentic and live, both for the same account. An expired
// access token falls back to a silent refresh off the refresh token.
func (g *Gate) authenticate(w http.ResponseWriter, r *http.Request) (*tokenx.Identity, bool) {
	access := r.Header.Get(HeaderAuthToken)
	refresh := r.Header.Get(HeaderRefreshToken)
	if access == "" || refresh == "" {
		return nil, false
	}

	verified, err := g.Codec.Verify(access)
	if err != nil {
		return nil, false
	}

	refreshed, err := g.Codec.Verify(refresh)
	if err != nil || refreshed.Expired {
		return nil, false
	}

	if !verified.Expired {
		// No refresh needed, but a mixed pair is still rejected.
		if verified.Identity.ID != refreshed.Identity.ID {
			return nil, false
		}
		return verified.Identity, true
	}

	// The expired access token can't be trusted for authorization but
	// its subject is still readable.
	stale := g.Codec.DecodeUnsafe(access)
	if stale == nil || stale.ID != refreshed.Identity.ID {
		return nil, false
	}

	fresh, err := g.Codec.Issue(*refreshed.Identity, g.AccessTTL)
	if err != nil {
		slogx.FromContext(r.Context()).Error("silent refresh failed", "err", err)
		return nil, false
	}

	w.Header().Set(HeaderNewAccess, fresh)
	return refreshed.Identity, true
}

// methodAction picks the wording for a 403 by request method.
func methodAction(method string) string {
	switch method {
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "access"
	}
}

func deny(w http.ResponseWriter, method string) {
	httpx.WriteJSON(w, http.StatusForbidden, map[string]any{
		"success": false,
		"error":   "You do not have permission to " + methodAction(method) + " this resource",
	})
}

func unauthorized(w http.ResponseWriter) {
	httpx.WriteJSON(w, http.StatusUnauthorized, map[string]any{
		"success": false,
		"error":   "Authentication required",
	})
}
