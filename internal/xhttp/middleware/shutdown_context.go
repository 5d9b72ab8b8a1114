package middleware

import (
	"net/http"

	"github.com/garrettladley/bellhop/internal/xcontext"
)

// ShutdownContext lets long-lived handlers tell a server shutdown apart from
// the client going away: once shutdown is closed, xcontext.IsShutdownInProgress
// reports true for every request context, including ones already running.
func ShutdownContext(shutdown <-chan struct{}) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := xcontext.WithShutdownSignal(r.Context(), shutdown)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
