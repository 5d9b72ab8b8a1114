package server

import (
	"log/slog"
	"net"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	"github.com/garrettladley/bellhop/internal/xcontext"
	"github.com/garrettladley/bellhop/internal/xslog"
)

// stompSubprotocols are accepted during the websocket upgrade on the broker
// endpoint.
var stompSubprotocols = []string{"v12.stomp", "v11.stomp", "v10.stomp"}

// Listener adapts websocket upgrades into a net.Listener so that a
// stream-oriented server (the STOMP broker) can accept them. In-process
// clients connect through Pipe without going through HTTP.
type Listener struct {
	conns     chan net.Conn
	closed    chan struct{}
	closeOnce sync.Once
}

var _ net.Listener = (*Listener)(nil)

func NewListener() *Listener {
	return &Listener{
		conns:  make(chan net.Conn),
		closed: make(chan struct{}),
	}
}

func (l *Listener) Accept() (net.Conn, error) {
	select {
	case c := <-l.conns:
		return c, nil
	case <-l.closed:
		return nil, net.ErrClosed
	}
}

func (l *Listener) Close() error {
	l.closeOnce.Do(func() { close(l.closed) })
	return nil
}

func (l *Listener) Addr() net.Addr { return listenerAddr{} }

// Pipe hands one end of an in-memory connection to Accept and returns the
// other.
func (l *Listener) Pipe() (net.Conn, error) {
	server, client := net.Pipe()
	if err := l.offer(server); err != nil {
		_ = server.Close()
		_ = client.Close()
		return nil, err
	}
	return client, nil
}

// ServeHTTP upgrades the request and blocks until the accepted connection is
// closed by the broker or the request context ends.
func (l *Listener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols: stompSubprotocols,
	})
	if err != nil {
		logger.WarnContext(ctx, "websocket upgrade failed", xslog.Error(err))
		return
	}

	conn := &notifyConn{
		Conn:   websocket.NetConn(ctx, c, websocket.MessageText),
		closed: make(chan struct{}),
	}
	if err := l.offer(conn); err != nil {
		_ = c.Close(websocket.StatusGoingAway, "broker closed")
		return
	}

	logger.DebugContext(ctx, "stomp client attached", slog.String("subprotocol", c.Subprotocol()))

	select {
	case <-conn.closed:
	case <-ctx.Done():
		if xcontext.IsShutdownInProgress(ctx) {
			_ = c.Close(websocket.StatusGoingAway, "server shutting down")
		}
	}
}

func (l *Listener) offer(c net.Conn) error {
	select {
	case l.conns <- c:
		return nil
	case <-l.closed:
		return net.ErrClosed
	}
}

type notifyConn struct {
	net.Conn
	once   sync.Once
	closed chan struct{}
}

func (c *notifyConn) Close() error {
	err := c.Conn.Close()
	c.once.Do(func() { close(c.closed) })
	return err
}

type listenerAddr struct{}

func (listenerAddr) Network() string { return "websocket" }
func (listenerAddr) String() string  { return "websocket" }
