package middleware

import (
	"net/http"

	"github.com/garrettladley/bellhop/internal/xhttp"
)

// SecurityHeaders marks every response as uncacheable: clients re-fetch the
// full list on each push and must never see a stale copy.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set(xhttp.XContentTypeOpts, "nosniff")
		h.Set(xhttp.XFrameOpts, "DENY")
		h.Set(xhttp.ReferrerPolicy, "no-referrer")
		h.Set(xhttp.CacheControl, "no-store")
		next.ServeHTTP(w, r)
	})
}
