package httpapi

import (
	"context"
	"errors"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/perseusdefend/perseus/internal/authz"
	"github.com/perseusdefend/perseus/internal/service"
	"github.com/perseusdefend/perseus/internal/store"
	"github.com/perseusdefend/perseus/pkg/httpx"
	"github.com/perseusdefend/perseus/pkg/idx"
	"github.com/perseusdefend/perseus/pkg/tokenx"
)

// Services bundles everything the HTTP surface depends on.
type Services struct {
	Auth         *service.AuthService
	Accounts     *service.AccountService
	Verification *service.VerificationService
	TwoFactor    *service.TwoFactorService
	Products     *service.ProductService
	Contacts     *service.ContactService
	WatchedInfo  *service.WatchedInfoService
	DemoRequests *service.DemoRequestService

	Store store.Store
}

// Router owns the mux, the global middleware chain and the policy
// gate. Handlers register against Go 1.22 method patterns; the gate
// authorizes every request up front from its own route table, so a
// handler never re-checks roles.
type Router struct {
	Mux *http.ServeMux

	middlewares []httpx.Middleware
	svc         Services
}

func NewRouter(svc Services, sessions *tokenx.SessionFactory) *Router {
	gate := &authz.Gate{
		Table:     buildPolicy(svc.Store),
		Codec:     sessions.Codec,
		AccessTTL: sessions.AccessTTL,
	}

	return &Router{
		Mux: http.NewServeMux(),
		middlewares: []httpx.Middleware{
			httpx.Recover(),
			gate.Middleware(),
		},
		svc: svc,
	}
}

// ApplyRoutes registers every endpoint. Call once before serving.
func (r *Router) ApplyRoutes() *Router {
	r.registerAuthRoutes()
	r.registerUserRoutes()
	r.registerProductRoutes()
	r.registerContactRoutes()
	r.registerWatchedInfoRoutes()
	r.registerDemoRequestRoutes()
	r.registerSystemRoutes()
	return r
}

func (r *Router) registerAuthRoutes() {
	h := &AuthHandler{
		Auth:         r.svc.Auth,
		Accounts:     r.svc.Accounts,
		Verification: r.svc.Verification,
	}

	strict := httpx.RateLimitByIP(httpx.StrictLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)

	r.Mux.Handle("POST /api/auth/login", httpx.Chain(http.HandlerFunc(h.HandleLogin), strict))
	r.Mux.Handle("POST /api/auth/refresh", httpx.Chain(http.HandlerFunc(h.HandleRefresh), moderate))
	r.Mux.Handle("POST /api/auth/register", httpx.Chain(http.HandlerFunc(h.HandleRegister), moderate))
	r.Mux.Handle("POST /api/auth/reset-password/request", httpx.Chain(http.HandlerFunc(h.HandleResetRequest), strict))
	r.Mux.Handle("POST /api/auth/reset-password/reset", httpx.Chain(http.HandlerFunc(h.HandleResetPassword), strict))
	r.Mux.Handle("POST /api/auth/verification/send", httpx.Chain(http.HandlerFunc(h.HandleVerificationSend), strict))
	r.Mux.Handle("POST /api/auth/verification/verify", httpx.Chain(http.HandlerFunc(h.HandleVerificationVerify), moderate))

	tf := &TwoFactorHandler{TwoFactor: r.svc.TwoFactor}
	r.Mux.Handle("POST /api/auth/2fa/totp/enroll", httpx.Chain(http.HandlerFunc(tf.HandleEnrollTOTP), moderate))
	r.Mux.Handle("POST /api/auth/2fa/totp/confirm", httpx.Chain(http.HandlerFunc(tf.HandleConfirmTOTP), moderate))
	r.Mux.Handle("POST /api/auth/2fa/email", httpx.Chain(http.HandlerFunc(tf.HandleEmailFactor), moderate))
	r.Mux.Handle("DELETE /api/auth/2fa", httpx.Chain(http.HandlerFunc(tf.HandleDisable), moderate))
}

func (r *Router) registerUserRoutes() {
	h := &UserHandler{Accounts: r.svc.Accounts}

	lenient := httpx.RateLimitByIP(httpx.LenientLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)

	r.Mux.Handle("GET /api/users", httpx.Chain(http.HandlerFunc(h.HandleList), lenient))
	r.Mux.Handle("GET /api/users/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), lenient))
	r.Mux.Handle("PUT /api/users/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), moderate))
	r.Mux.Handle("DELETE /api/users/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), moderate))
	r.Mux.Handle("GET /api/users/{id}/products", httpx.Chain(http.HandlerFunc(h.HandleProducts), lenient))
	r.Mux.Handle("POST /api/users/{id}/assign-product", httpx.Chain(http.HandlerFunc(h.HandleAssignProduct), moderate))
	r.Mux.Handle("DELETE /api/users/{id}/assign-product", httpx.Chain(http.HandlerFunc(h.HandleUnassignProduct), moderate))
}

func (r *Router) registerProductRoutes() {
	h := &ProductHandler{Products: r.svc.Products}

	lenient := httpx.RateLimitByIP(httpx.LenientLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)

	r.Mux.Handle("GET /api/products", httpx.Chain(http.HandlerFunc(h.HandleList), lenient))
	r.Mux.Handle("POST /api/products", httpx.Chain(http.HandlerFunc(h.HandleCreate), moderate))
	r.Mux.Handle("GET /api/products/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), lenient))
	r.Mux.Handle("PUT /api/products/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), moderate))
	r.Mux.Handle("DELETE /api/products/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), moderate))
	r.Mux.Handle("GET /api/products/{id}/users", httpx.Chain(http.HandlerFunc(h.HandleUsers), lenient))
}

func (r *Router) registerContactRoutes() {
	h := &ContactHandler{Contacts: r.svc.Contacts}

	strict := httpx.RateLimitByIP(httpx.StrictLimit)
	lenient := httpx.RateLimitByIP(httpx.LenientLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)

	r.Mux.Handle("POST /api/contact", httpx.Chain(http.HandlerFunc(h.HandleSubmit), strict))
	r.Mux.Handle("GET /api/contacts", httpx.Chain(http.HandlerFunc(h.HandleList), lenient))
	r.Mux.Handle("GET /api/contacts/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), lenient))
	r.Mux.Handle("PUT /api/contacts/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdateStatus), moderate))
	r.Mux.Handle("DELETE /api/contacts/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), moderate))
}

func (r *Router) registerWatchedInfoRoutes() {
	h := &WatchedInfoHandler{WatchedInfo: r.svc.WatchedInfo}

	lenient := httpx.RateLimitByIP(httpx.LenientLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)

	r.Mux.Handle("GET /api/watched-info", httpx.Chain(http.HandlerFunc(h.HandleList), lenient))
	r.Mux.Handle("POST /api/watched-info", httpx.Chain(http.HandlerFunc(h.HandleCreate), moderate))
	r.Mux.Handle("GET /api/watched-info/{id}", httpx.Chain(http.HandlerFunc(h.HandleGet), lenient))
	r.Mux.Handle("PUT /api/watched-info/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdate), moderate))
	r.Mux.Handle("DELETE /api/watched-info/{id}", httpx.Chain(http.HandlerFunc(h.HandleDelete), moderate))
}

func (r *Router) registerDemoRequestRoutes() {
	h := &DemoRequestHandler{DemoRequests: r.svc.DemoRequests}

	lenient := httpx.RateLimitByIP(httpx.LenientLimit)
	moderate := httpx.RateLimitByIP(httpx.ModerateLimit)

	r.Mux.Handle("GET /api/demo-requests", httpx.Chain(http.HandlerFunc(h.HandleList), lenient))
	r.Mux.Handle("PUT /api/demo-requests/{id}", httpx.Chain(http.HandlerFunc(h.HandleUpdateStatus), moderate))
}

func (r *Router) registerSystemRoutes() {
	r.Mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, req *http.Request) {
		if err := r.svc.Store.Ping(req.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
		respondData(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP applies the global chain around the mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

// Use prepends middleware to the global chain, keeping the gate
// innermost so added middleware sees unauthenticated requests too.
func (r *Router) Use(mw ...httpx.Middleware) *Router {
	r.middlewares = append(mw, r.middlewares...)
	return r
}

// buildPolicy is the route authorization table, resolved by the gate
// before dispatch. Unlisted routes fall closed to admin-only.
func buildPolicy(st store.Store) *authz.Table {
	anyRole := authz.RoleList{tokenx.RoleAdmin, tokenx.RoleUser, tokenx.RoleDemoUser}
	admin := authz.RoleList{tokenx.RoleAdmin}
	member := authz.RoleList{tokenx.RoleAdmin, tokenx.RoleUser}

	adminOrSelf := func(_ context.Context, id *tokenx.Identity, params map[string]string, _ *http.Request) (bool, error) {
		return id.Role == tokenx.RoleAdmin || id.ID.String() == params["id"], nil
	}

	// Admins operate on any account; members only on themselves. A
	// userId query parameter naming someone else is refused before the
	// handler runs. The create body carries the same field, which the
	// handler checks since the body is not readable here.
	watchedScope := func(_ context.Context, id *tokenx.Identity, _ map[string]string, r *http.Request) (bool, error) {
		if id.Role == tokenx.RoleAdmin {
			return true, nil
		}
		if id.Role != tokenx.RoleUser {
			return false, nil
		}
		if target := r.URL.Query().Get("userId"); target != "" && target != id.ID.String() {
			return false, nil
		}
		return true, nil
	}

	// Row-level check: non-admins only reach watched info they own. A
	// missing row passes through so the handler can 404.
	ownsWatchedInfo := func(ctx context.Context, id *tokenx.Identity, params map[string]string, _ *http.Request) (bool, error) {
		if id.Role == tokenx.RoleAdmin {
			return true, nil
		}
		if id.Role == tokenx.RoleDemoUser {
			return false, nil
		}

		rowID, err := idx.Parse(params["id"])
		if err != nil {
			return false, nil
		}

		row, err := st.WatchedInfo().GetByID(ctx, rowID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return true, nil
			}
			return false, err
		}
		return row.AccountID == id.ID, nil
	}

	return authz.NewTable().
		Public(http.MethodPost, "/api/auth/login").
		Public(http.MethodPost, "/api/auth/refresh").
		Public(http.MethodPost, "/api/auth/reset-password/request").
		Public(http.MethodPost, "/api/auth/reset-password/reset").
		Public(http.MethodPost, "/api/auth/verification/send").
		Public(http.MethodPost, "/api/auth/verification/verify").
		Public(http.MethodPost, "/api/contact").
		Public(http.MethodGet, "/api/health").
		PublicPrefix("/swagger").
		Role("/api/auth/register", map[string]authz.RoleList{
			http.MethodPost: admin,
		}).
		Role("/api/auth/2fa", map[string]authz.RoleList{authz.MethodAny: member}).
		Role("/api/auth/2fa/totp/enroll", map[string]authz.RoleList{authz.MethodAny: member}).
		Role("/api/auth/2fa/totp/confirm", map[string]authz.RoleList{authz.MethodAny: member}).
		Role("/api/auth/2fa/email", map[string]authz.RoleList{authz.MethodAny: member}).
		Role("/api/users", map[string]authz.RoleList{authz.MethodAny: admin}).
		Role("/api/users/[id]/assign-product", map[string]authz.RoleList{authz.MethodAny: admin}).
		Role("/api/products", map[string]authz.RoleList{
			http.MethodGet:  anyRole,
			authz.MethodAny: admin,
		}).
		Role("/api/products/[id]", map[string]authz.RoleList{
			http.MethodGet:  anyRole,
			authz.MethodAny: admin,
		}).
		Role("/api/products/[id]/users", map[string]authz.RoleList{authz.MethodAny: admin}).
		Role("/api/contacts", map[string]authz.RoleList{authz.MethodAny: admin}).
		Role("/api/contacts/[id]", map[string]authz.RoleList{authz.MethodAny: admin}).
		Role("/api/demo-requests", map[string]authz.RoleList{authz.MethodAny: admin}).
		Role("/api/demo-requests/[id]", map[string]authz.RoleList{authz.MethodAny: admin}).
		Custom("/api/users/[id]", map[string]authz.Predicate{
			http.MethodGet: adminOrSelf,
			http.MethodPut: adminOrSelf,
		}).
		Custom("/api/users/[id]/products", map[string]authz.Predicate{
			authz.MethodAny: adminOrSelf,
		}).
		Custom("/api/watched-info", map[string]authz.Predicate{
			authz.MethodAny: watchedScope,
		}).
		Custom("/api/watched-info/[id]", map[string]authz.Predicate{
			authz.MethodAny: ownsWatchedInfo,
		})
}
