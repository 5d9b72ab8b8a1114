// Package stomp implements the primary push transport: a STOMP 1.2 client
// running over a websocket, subscribed to one broadcast destination.
package stomp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/go-stomp/stomp/v3"
	go_json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
	"github.com/garrettladley/bellhop/internal/xhttp"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const (
	DefaultDestination    = "/topic/notifications"
	DefaultHeartBeat      = 4 * time.Second
	DefaultReconnectDelay = 5 * time.Second

	readLimit         = 1 << 20
	disconnectTimeout = 2 * time.Second
)

// Subprotocols are the STOMP versions offered during the websocket upgrade.
var Subprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

var errSubscriptionClosed = errors.New("subscription closed")

// DialFunc opens the byte stream the STOMP session runs over.
type DialFunc func(ctx context.Context) (io.ReadWriteCloser, error)

// Primary is the STOMP transport. The embedded Supervisor provides the
// transport.Client methods and the fixed-delay reconnect loop.
type Primary struct {
	*transport.Supervisor

	url         string
	destination string
	heartBeat   time.Duration
	tokenSource oauth2.TokenSource
	dial        DialFunc
	logger      *slog.Logger
}

var _ transport.Client = (*Primary)(nil)

type Option func(*Primary)

func WithDestination(dest string) Option {
	return func(p *Primary) { p.destination = dest }
}

func WithHeartBeat(d time.Duration) Option {
	return func(p *Primary) { p.heartBeat = d }
}

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(p *Primary) { p.tokenSource = ts }
}

func WithLogger(logger *slog.Logger) Option {
	return func(p *Primary) { p.logger = logger }
}

// WithDialer replaces the websocket dial, e.g. with an in-memory pipe.
func WithDialer(dial DialFunc) Option {
	return func(p *Primary) { p.dial = dial }
}

// New returns a disconnected Primary for the websocket endpoint at rawURL.
func New(rawURL string, reconnectDelay time.Duration, opts ...Option) *Primary {
	p := &Primary{
		url:         rawURL,
		destination: DefaultDestination,
		heartBeat:   DefaultHeartBeat,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dial == nil {
		p.dial = p.dialWebsocket
	}
	if reconnectDelay <= 0 {
		reconnectDelay = DefaultReconnectDelay
	}

	p.Supervisor = transport.NewSupervisor(transport.KindPrimary, p.open, reconnectDelay, p.logger)
	return p
}

func (p *Primary) dialWebsocket(ctx context.Context) (io.ReadWriteCloser, error) {
	header := http.Header{}
	xhttp.SetUserAgent(header)
	if p.tokenSource != nil {
		token, err := p.tokenSource.Token()
		if err != nil {
			return nil, fmt.Errorf("getting token: %w", err)
		}
		xhttp.SetRequestHeaderBearer(header, token.AccessToken)
	}

	conn, _, err := websocket.Dial(ctx, p.url, &websocket.DialOptions{ //nolint:bodyclose // websocket.Dial closes the response body
		HTTPHeader:   header,
		Subprotocols: Subprotocols,
	})
	if err != nil {
		return nil, fmt.Errorf("dialing websocket: %w", err)
	}
	conn.SetReadLimit(readLimit)

	return websocket.NetConn(context.Background(), conn, websocket.MessageText), nil
}

func (p *Primary) open(ctx context.Context, deliver func(storage.Notification)) (transport.Session, error) {
	rwc, err := p.dial(ctx)
	if err != nil {
		return nil, err
	}

	// stomp.Connect has no context; closing the stream unblocks it.
	stop := context.AfterFunc(ctx, func() { _ = rwc.Close() })
	conn, err := stomp.Connect(rwc,
		stomp.ConnOpt.Host(p.host()),
		stomp.ConnOpt.HeartBeat(p.heartBeat, p.heartBeat),
		stomp.ConnOpt.DisconnectReceiptTimeout(disconnectTimeout),
	)
	if !stop() {
		if err == nil {
			_ = conn.MustDisconnect()
		}
		return nil, fmt.Errorf("stomp handshake: %w", ctx.Err())
	}
	if err != nil {
		_ = rwc.Close()
		return nil, fmt.Errorf("stomp handshake: %w", err)
	}

	sub, err := conn.Subscribe(p.destination, stomp.AckAuto)
	if err != nil {
		_ = conn.MustDisconnect()
		return nil, fmt.Errorf("subscribing to %s: %w", p.destination, err)
	}

	p.logger.DebugContext(ctx, "stomp session established",
		xslog.URL(p.url),
		xslog.Destination(p.destination),
		slog.String("version", string(conn.Version())),
	)

	s := &session{
		conn:    conn,
		sub:     sub,
		logger:  p.logger,
		closing: make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.read(deliver)
	return s, nil
}

func (p *Primary) host() string {
	u, err := url.Parse(p.url)
	if err != nil || u.Hostname() == "" {
		return "/"
	}
	return u.Hostname()
}

type session struct {
	conn   *stomp.Conn
	sub    *stomp.Subscription
	logger *slog.Logger

	closing   chan struct{}
	done      chan struct{}
	err       error
	closeOnce sync.Once
	closeErr  error
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

func (s *session) read(deliver func(storage.Notification)) {
	defer close(s.done)

	for {
		select {
		case <-s.closing:
			return
		case msg, ok := <-s.sub.C:
			if !ok {
				s.err = errSubscriptionClosed
				return
			}
			if msg.Err != nil {
				s.err = msg.Err
				return
			}

			var n storage.Notification
			if err := go_json.Unmarshal(msg.Body, &n); err != nil {
				s.logger.Warn("failed to decode pushed notification",
					xslog.Error(err),
					xslog.Data(string(msg.Body)),
				)
				continue
			}
			deliver(n)
		}
	}
}

func (s *session) Close() error {
	s.closeOnce.Do(func() {
		select {
		case <-s.done:
			s.closeErr = s.conn.MustDisconnect()
			return
		default:
		}
		close(s.closing)
		<-s.done
		s.closeErr = s.disconnect()
	})
	return s.closeErr
}

// disconnect waits up to disconnectTimeout for the broker's DISCONNECT
// receipt. go-stomp closes the stream itself when the receipt times out; any
// other failure drops the connection here.
func (s *session) disconnect() error {
	err := s.conn.Disconnect()
	if err == nil || errors.Is(err, stomp.ErrDisconnectReceiptTimeout) {
		return nil
	}
	return s.conn.MustDisconnect()
}
