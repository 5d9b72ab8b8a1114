package server

import (
	"context"
	"net"
	"time"
)

// ShutdownCoordinator owns the context shared by the broker, the hub and
// every request. Draining cancels it before the HTTP server stops, so push
// connections get a grace period to close with "going away".
type ShutdownCoordinator struct {
	ctx    context.Context
	cancel context.CancelFunc
	grace  time.Duration
}

// NewShutdownCoordinator derives the shared context from parent's values
// only: cancelling parent does not drain the server.
func NewShutdownCoordinator(parent context.Context, grace time.Duration) *ShutdownCoordinator {
	ctx, cancel := context.WithCancel(context.WithoutCancel(parent))
	return &ShutdownCoordinator{
		ctx:    ctx,
		cancel: cancel,
		grace:  grace,
	}
}

func (sc *ShutdownCoordinator) Context() context.Context {
	return sc.ctx
}

// BaseContext plugs the shared context into http.Server.BaseContext.
func (sc *ShutdownCoordinator) BaseContext(net.Listener) context.Context {
	return sc.ctx
}

// Drain cancels the shared context and waits out the grace period, or less
// if ctx ends first.
func (sc *ShutdownCoordinator) Drain(ctx context.Context) {
	sc.cancel()

	timer := time.NewTimer(sc.grace)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
