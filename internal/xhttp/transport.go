package xhttp

import (
	"fmt"
	"net/http"

	"github.com/garrettladley/bellhop/internal/version"
)

type bellhopTransport struct {
	base      http.RoundTripper
	sessionID string
}

var _ http.RoundTripper = (*bellhopTransport)(nil)

func (t *bellhopTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	SetUserAgent(req.Header)
	if t.sessionID != "" {
		SetRequestHeaderSessionID(req, t.sessionID)
	}
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform round trip: %w", err)
	}
	return resp, nil
}

// SetUserAgent sets the standard bellhop identification headers. Used
// directly for websocket handshakes, which do not go through NewTransport.
func SetUserAgent(h http.Header) {
	h.Set("User-Agent", "bellhop/"+version.Get())
	h.Set(version.Header, version.Get())
}

type TransportOption func(*bellhopTransport)

func WithSessionID(sessionID string) TransportOption {
	return func(t *bellhopTransport) { t.sessionID = sessionID }
}

func WithBase(base http.RoundTripper) TransportOption {
	return func(t *bellhopTransport) { t.base = base }
}

// NewTransport returns an http.RoundTripper with standard bellhop headers.
func NewTransport(opts ...TransportOption) http.RoundTripper {
	t := &bellhopTransport{base: http.DefaultTransport}
	for _, opt := range opts {
		opt(t)
	}
	return t
}
