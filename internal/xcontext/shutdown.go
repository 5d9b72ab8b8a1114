package xcontext

import "context"

type shutdownKey struct{}

// WithShutdownSignal attaches a channel that is closed when the server
// begins shutting down.
func WithShutdownSignal(ctx context.Context, shutdown <-chan struct{}) context.Context {
	return context.WithValue(ctx, shutdownKey{}, shutdown)
}

// IsShutdownInProgress reports whether the attached shutdown channel has been
// closed. It is false when no channel is attached.
func IsShutdownInProgress(ctx context.Context) bool {
	shutdown, ok := ctx.Value(shutdownKey{}).(<-chan struct{})
	if !ok {
		return false
	}
	select {
	case <-shutdown:
		return true
	default:
		return false
	}
}
