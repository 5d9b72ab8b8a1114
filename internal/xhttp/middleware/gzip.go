package middleware

import (
	"bytes"
	"compress/gzip"
	"net/http"
	"strings"
	"sync"

	"github.com/garrettladley/bellhop/internal/xhttp"
)

const (
	gzipMinSize  = 1024
	gzipEncoding = "gzip"
	pushPrefix   = "/ws"
)

var gzipWriterPool = sync.Pool{
	New: func() any {
		return gzip.NewWriter(nil)
	},
}

// bufferedResponse holds the whole body until the handler returns. Every
// endpoint behind Gzip answers with one bounded JSON document, so buffering
// costs nothing and the compress decision can see the final size.
type bufferedResponse struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func (b *bufferedResponse) WriteHeader(code int) {
	if b.status == 0 {
		b.status = code
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) Unwrap() http.ResponseWriter {
	return b.ResponseWriter
}

// Gzip compresses responses of at least gzipMinSize bytes for clients that
// accept gzip. Push endpoints and upgrade requests bypass it untouched.
func Gzip(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !clientAcceptsGzip(r) || strings.HasPrefix(r.URL.Path, pushPrefix) || isUpgrade(r) {
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set(xhttp.Vary, xhttp.AcceptEncoding)

		buf := &bufferedResponse{ResponseWriter: w}
		next.ServeHTTP(buf, r)

		status := buf.status
		if status == 0 {
			status = http.StatusOK
		}

		if buf.body.Len() < gzipMinSize || w.Header().Get(xhttp.ContentEncoding) != "" {
			w.WriteHeader(status)
			_, _ = w.Write(buf.body.Bytes())
			return
		}

		w.Header().Set(xhttp.ContentEncoding, gzipEncoding)
		w.Header().Del(xhttp.ContentLength)
		w.WriteHeader(status)

		gz := gzipWriterPool.Get().(*gzip.Writer)
		defer gzipWriterPool.Put(gz)
		gz.Reset(w)
		_, _ = gz.Write(buf.body.Bytes())
		_ = gz.Close()
	})
}

func clientAcceptsGzip(r *http.Request) bool {
	return strings.Contains(r.Header.Get(xhttp.AcceptEncoding), gzipEncoding)
}

func isUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get(xhttp.Upgrade), "websocket")
}
