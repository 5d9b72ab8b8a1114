package transport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/garrettladley/bellhop/internal/listener"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xslog"
)

// Session is one established connection. Done is closed when the connection
// ends for any reason; Err then reports why. Close must be safe to call
// after the session has already ended.
type Session interface {
	Done() <-chan struct{}
	Err() error
	Close() error
}

// OpenFunc establishes a session that passes every decoded push to deliver.
type OpenFunc func(ctx context.Context, deliver func(storage.Notification)) (Session, error)

// Supervisor implements Client on top of an OpenFunc. After the first
// successful Connect it keeps the connection alive, waiting a fixed delay
// between reconnect attempts, until Disconnect.
type Supervisor struct {
	kind           Kind
	open           OpenFunc
	reconnectDelay time.Duration
	logger         *slog.Logger
	listeners      *listener.Registry[storage.Notification]

	connectMu sync.Mutex

	mu        sync.Mutex
	connected bool
	cancel    context.CancelFunc
	done      chan struct{}
}

var _ Client = (*Supervisor)(nil)

func NewSupervisor(kind Kind, open OpenFunc, reconnectDelay time.Duration, logger *slog.Logger) *Supervisor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Supervisor{
		kind:           kind,
		open:           open,
		reconnectDelay: reconnectDelay,
		logger:         logger.With(xslog.Transport(kind.String())),
		listeners:      listener.NewRegistry[storage.Notification](logger),
	}
}

func (s *Supervisor) Kind() Kind { return s.kind }

func (s *Supervisor) AddListener(fn func(storage.Notification)) func() {
	return s.listeners.Add(fn)
}

// Connected reports whether a session is currently established. It is false
// while a reconnect is pending.
func (s *Supervisor) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}

func (s *Supervisor) Connect(ctx context.Context) error {
	s.connectMu.Lock()
	defer s.connectMu.Unlock()

	s.mu.Lock()
	running := s.cancel != nil
	s.mu.Unlock()
	if running {
		return nil
	}

	sess, err := s.open(ctx, s.listeners.Notify)
	if err != nil {
		return fmt.Errorf("connecting %s transport: %w", s.kind, err)
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})

	s.mu.Lock()
	s.connected = true
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "transport connected")

	go s.supervise(runCtx, sess, done)
	return nil
}

// Disconnect must not be called from a listener callback: it waits for the
// reader that is running the callback to exit.
func (s *Supervisor) Disconnect() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel = nil
	s.done = nil
	s.connected = false
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done

	s.logger.Info("transport disconnected")
	return nil
}

func (s *Supervisor) supervise(ctx context.Context, sess Session, done chan struct{}) {
	defer close(done)

	for {
		select {
		case <-sess.Done():
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			if err := sess.Close(); err != nil {
				s.logger.DebugContext(ctx, "failed to close session", xslog.Error(err))
			}
			return
		}

		s.setConnected(false)
		s.logger.WarnContext(ctx, "transport connection lost, reconnecting",
			xslog.Error(sess.Err()),
			xslog.Delay(s.reconnectDelay),
		)
		_ = sess.Close()

		sess = s.reconnect(ctx)
		if sess == nil {
			return
		}
		s.setConnected(true)
	}
}

// reconnect retries at a fixed delay until a session opens or ctx ends, in
// which case it returns nil.
func (s *Supervisor) reconnect(ctx context.Context) Session {
	for {
		timer := time.NewTimer(s.reconnectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}

		sess, err := s.open(ctx, s.listeners.Notify)
		if err == nil {
			s.logger.InfoContext(ctx, "transport reconnected")
			return sess
		}
		if ctx.Err() != nil {
			return nil
		}

		s.logger.WarnContext(ctx, "transport reconnect failed",
			xslog.Error(err),
			xslog.Delay(s.reconnectDelay),
		)
	}
}

func (s *Supervisor) setConnected(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.connected = v
	}
}
