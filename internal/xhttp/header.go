package xhttp

import (
	"net/http"
)

const (
	XForwardedFor    = "X-Forwarded-For"
	XContentTypeOpts = "X-Content-Type-Options"
	XFrameOpts       = "X-Frame-Options"
	XXSSProtection   = "X-Xss-Protection"
	ReferrerPolicy   = "Referrer-Policy"
	XClientSessionID = "X-Client-Session-ID"
	XRequestID       = "X-Request-ID"
	Authorization    = "Authorization"
	CacheControl     = "Cache-Control"
)

const ContentType = "Content-Type"

func SetHeaderRequestID(w http.ResponseWriter, requestID string) {
	w.Header().Set(XRequestID, requestID)
}

func GetRequestHeaderRequestID(r *http.Request) string {
	return r.Header.Get(XRequestID)
}

func SetHeaderContentTypeApplicationJSON(w http.ResponseWriter) {
	const applicationJSON = "application/json"
	w.Header().Set(ContentType, applicationJSON)
}

func SetRequestHeaderSessionID(r *http.Request, sessionID string) {
	r.Header.Set(XClientSessionID, sessionID)
}

func GetRequestHeaderSessionID(r *http.Request) string {
	return r.Header.Get(XClientSessionID)
}

func SetRequestHeaderBearer(h http.Header, token string) {
	h.Set(Authorization, "Bearer "+token)
}

const (
	ContentEncoding = "Content-Encoding"
	ContentLength   = "Content-Length"
	AcceptEncoding  = "Accept-Encoding"
	Vary            = "Vary"
	Upgrade         = "Upgrade"
)
