package httpx

import (
	"net/http"
	"runtime/debug"

	"github.com/getsentry/sentry-go"

	"github.com/perseusdefend/perseus/pkg/slogx"
)

// Recover converts handler panics into 500 responses. Panics are
// reported to Sentry when it has been initialised.
func Recover() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}

				sentry.WithScope(func(scope *sentry.Scope) {
					scope.SetExtra("panic", rec)
					scope.SetExtra("stack", string(debug.Stack()))
					sentry.CaptureMessage("panic in request")
				})

				slogx.FromContext(r.Context()).Error("panic_recovered",
					"panic", rec,
					"stack", string(debug.Stack()),
				)

				WriteJSON(w, http.StatusInternalServerError, map[string]any{
					"success": false,
					"error":   "internal server error",
				})
			}()

			next.ServeHTTP(w, r)
		})
	}
}
