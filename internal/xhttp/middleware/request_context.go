package middleware

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/garrettladley/bellhop/internal/xcontext"
	"github.com/garrettladley/bellhop/internal/xhttp"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const maxRequestIDLen = 64

// RequestContext tags each request with a request id (the caller's
// X-Request-ID when present, otherwise a fresh uuid) and the client's
// X-Client-Session-ID, echoes the request id back, and stores a logger
// carrying both in the request context.
func RequestContext(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := xhttp.GetRequestHeaderRequestID(r)
			if requestID == "" || len(requestID) > maxRequestIDLen {
				requestID = uuid.New().String()
			}
			xhttp.SetHeaderRequestID(w, requestID)

			ctx := xslog.WithLogger(r.Context(), base)
			ctx = xcontext.SetRequestID(ctx, requestID)
			ctx = xslog.With(ctx, xslog.RequestID(requestID))

			if sessionID := xhttp.GetRequestHeaderSessionID(r); sessionID != "" {
				ctx = xcontext.SetSessionID(ctx, sessionID)
				ctx = xslog.With(ctx, xslog.SessionID(sessionID))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
