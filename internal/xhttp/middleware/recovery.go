package middleware

import (
	"net/http"

	"github.com/garrettladley/bellhop/internal/xerrors"
	"github.com/garrettladley/bellhop/internal/xslog"
)

// Recovery turns a handler panic into a 500 JSON error. A panic after a
// websocket upgrade is only logged, since the connection no longer speaks
// HTTP.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			err := recover()
			if err == nil {
				return
			}
			if err == http.ErrAbortHandler {
				panic(err)
			}

			xslog.FromContext(r.Context()).ErrorContext(
				r.Context(),
				"panic recovered",
				xslog.RequestGroup(r),
				xslog.ErrorGroupWithStack(err),
			)
			if isUpgrade(r) {
				return
			}
			xerrors.WriteError(r.Context(), w, xerrors.Internal())
		}()
		next.ServeHTTP(w, r)
	})
}
