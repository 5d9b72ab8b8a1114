package xcontext

import "context"

type idKey uint8

const (
	requestIDKey idKey = iota
	sessionIDKey
)

// SetRequestID stores the id the server assigned (or accepted) for this
// request.
func SetRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) (string, bool) {
	return getID(ctx, requestIDKey)
}

// SetSessionID stores the client session id sent with the request, so every
// log line of one bellhop process can be correlated on the server.
func SetSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func GetSessionID(ctx context.Context) (string, bool) {
	return getID(ctx, sessionIDKey)
}

func getID(ctx context.Context, key idKey) (string, bool) {
	id, ok := ctx.Value(key).(string)
	return id, ok && id != ""
}
