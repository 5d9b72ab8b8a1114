// Package ws implements the fallback push transport: a raw websocket on
// which every text frame is one JSON notification.
package ws

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	go_json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
	"github.com/garrettladley/bellhop/internal/xhttp"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const (
	DefaultPingInterval   = 4 * time.Second
	DefaultReconnectDelay = 5 * time.Second

	readLimit = 1 << 20
)

type Fallback struct {
	*transport.Supervisor

	url          string
	pingInterval time.Duration
	tokenSource  oauth2.TokenSource
	logger       *slog.Logger
}

var _ transport.Client = (*Fallback)(nil)

type Option func(*Fallback)

func WithPingInterval(d time.Duration) Option {
	return func(f *Fallback) { f.pingInterval = d }
}

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(f *Fallback) { f.tokenSource = ts }
}

func WithLogger(logger *slog.Logger) Option {
	return func(f *Fallback) { f.logger = logger }
}

func New(rawURL string, reconnectDelay time.Duration, opts ...Option) *Fallback {
	f := &Fallback{
		url:          rawURL,
		pingInterval: DefaultPingInterval,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}

	f.Supervisor = transport.NewSupervisor(transport.KindFallback, f.open, reconnectDelay, f.logger)
	return f
}

func (f *Fallback) open(ctx context.Context, deliver func(storage.Notification)) (transport.Session, error) {
	header := http.Header{}
	xhttp.SetUserAgent(header)
	if f.tokenSource != nil {
		token, err := f.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("getting token: %w", err)
		}
		xhttp.SetRequestHeaderBearer(header, token.AccessToken)
	}

	conn, _, err := websocket.Dial(ctx, f.url, &websocket.DialOptions{ //nolint:bodyclose // websocket.Dial closes the response body
		HTTPHeader: header,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing websocket: %w", err)
	}
	conn.SetReadLimit(readLimit)

	f.logger.DebugContext(ctx, "websocket session established", xslog.URL(f.url))

	connCtx, cancel := context.WithCancel(context.Background())
	s := &session{
		conn:   conn,
		cancel: cancel,
		logger: f.logger,
		done:   make(chan struct{}),
	}
	go s.read(connCtx, deliver)
	go s.heartbeat(connCtx, f.pingInterval)
	return s, nil
}

type session struct {
	conn   *websocket.Conn
	cancel context.CancelFunc
	logger *slog.Logger

	done      chan struct{}
	err       error
	closeOnce sync.Once
}

func (s *session) Done() <-chan struct{} { return s.done }

func (s *session) Err() error {
	select {
	case <-s.done:
		return s.err
	default:
		return nil
	}
}

func (s *session) read(ctx context.Context, deliver func(storage.Notification)) {
	defer close(s.done)
	defer s.cancel()

	for {
		typ, data, err := s.conn.Read(ctx)
		if err != nil {
			s.err = err
			return
		}
		if typ != websocket.MessageText {
			s.logger.Debug("ignoring binary frame", slog.Int("bytes", len(data)))
			continue
		}

		var n storage.Notification
		if err := go_json.Unmarshal(data, &n); err != nil {
			s.logger.Warn("failed to decode pushed notification",
				xslog.Error(err),
				xslog.Data(string(data)),
			)
			continue
		}
		deliver(n)
	}
}

// heartbeat pings at a fixed interval. A missed pong closes the connection,
// which ends read and hands control back to the reconnect loop.
func (s *session) heartbeat(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, interval)
			err := s.conn.Ping(pingCtx)
			cancel()
			if err != nil && ctx.Err() == nil {
				s.logger.Warn("heartbeat failed", xslog.Error(err))
				_ = s.conn.Close(websocket.StatusGoingAway, "heartbeat timeout")
				return
			}
		}
	}
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		_ = s.conn.Close(websocket.StatusNormalClosure, "bye")
		s.cancel()
		<-s.done
	})
	return nil
}
