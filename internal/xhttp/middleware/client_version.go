package middleware

import (
	"fmt"
	"net/http"

	"github.com/garrettladley/bellhop/internal/version"
	"github.com/garrettladley/bellhop/internal/xerrors"
)

// ClientVersion rejects clients whose X-Client-Version has a different major
// version than the server. Requests without the header pass.
func ClientVersion(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		client := r.Header.Get(version.Header)
		server := version.Get()
		if !version.Compatible(client, server) {
			xerrors.WriteError(r.Context(), w, xerrors.UpgradeRequired(
				xerrors.WithMessage(fmt.Sprintf("client version %s is incompatible with server version %s", client, server)),
			))
			return
		}
		next.ServeHTTP(w, r)
	})
}
