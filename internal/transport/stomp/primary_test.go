package stomp

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"net"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"

	"github.com/garrettladley/bellhop/internal/server"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startBackend(t *testing.T) (*httptest.Server, storage.NotificationStore) {
	t.Helper()

	store := storage.NewMemoryNotificationStore()
	srv := server.New(server.Config{
		Topic:      DefaultDestination,
		HeartBeat:  time.Second,
		DemoUserID: "1",
	}, store, testLogger())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})
	return ts, store
}

func wsURL(ts *httptest.Server) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func TestPrimaryReceivesPush(t *testing.T) {
	t.Parallel()

	ts, store := startBackend(t)
	p := New(wsURL(ts), time.Second, WithLogger(testLogger()), WithHeartBeat(time.Second))
	t.Cleanup(func() { _ = p.Disconnect() })

	got := make(chan storage.Notification, 8)
	p.AddListener(func(n storage.Notification) { got <- n })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if p.Kind() != transport.KindPrimary {
		t.Errorf("Kind() = %v, want primary", p.Kind())
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := store.Add(ctx, storage.Notification{UserID: "42", Title: "over stomp"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		select {
		case n := <-got:
			if n.Title != "over stomp" || n.UserID != "42" {
				t.Errorf("delivered = %+v", n)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("timed out waiting for push")
		}
	}
}

func TestPrimaryConnectFails(t *testing.T) {
	t.Parallel()

	ts, _ := startBackend(t)

	tests := []struct {
		name string
		url  string
	}{
		{name: "not a websocket endpoint", url: "ws" + strings.TrimPrefix(ts.URL, "http") + "/health"},
		{name: "unreachable", url: "ws://127.0.0.1:1/ws"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			p := New(tt.url, time.Second, WithLogger(testLogger()))
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := p.Connect(ctx); err == nil {
				_ = p.Disconnect()
				t.Fatal("Connect() error = nil, want error")
			}
			if err := p.Disconnect(); err != nil {
				t.Errorf("Disconnect() error = %v", err)
			}
		})
	}
}

// rejectingBroker answers the first frame it reads with an ERROR frame.
func rejectingBroker(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	if _, err := r.ReadString(0); err != nil {
		return
	}
	_, _ = conn.Write([]byte("ERROR\nmessage:access denied\n\n\x00"))
}

func TestPrimaryHandshakeRejected(t *testing.T) {
	t.Parallel()

	p := New("ws://unused/ws", time.Second,
		WithLogger(testLogger()),
		WithDialer(func(context.Context) (io.ReadWriteCloser, error) {
			client, broker := net.Pipe()
			go rejectingBroker(broker)
			return client, nil
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Connect(ctx); err == nil {
		_ = p.Disconnect()
		t.Fatal("Connect() error = nil, want handshake error")
	}
}

// mutedBroker accepts CONNECT but never sends a RECEIPT, so DISCONNECT
// goes unanswered.
func mutedBroker(conn net.Conn) {
	r := bufio.NewReader(conn)
	for {
		f, err := r.ReadString(0)
		if err != nil {
			return
		}
		f = strings.TrimLeft(f, "\r\n")
		if strings.HasPrefix(f, "CONNECT") || strings.HasPrefix(f, "STOMP") {
			_, _ = conn.Write([]byte("CONNECTED\nversion:1.2\nheart-beat:0,0\n\n\x00"))
		}
	}
}

func TestPrimaryDisconnectBoundedWithoutReceipt(t *testing.T) {
	t.Parallel()

	p := New("ws://unused/ws", time.Second,
		WithLogger(testLogger()),
		WithHeartBeat(0),
		WithDialer(func(context.Context) (io.ReadWriteCloser, error) {
			client, broker := net.Pipe()
			go mutedBroker(broker)
			return client, nil
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	start := time.Now()
	if err := p.Disconnect(); err != nil {
		t.Errorf("Disconnect() error = %v", err)
	}
	if elapsed := time.Since(start); elapsed > disconnectTimeout+time.Second {
		t.Errorf("Disconnect() took %v, want about %v", elapsed, disconnectTimeout)
	}
}

func TestPrimaryHandshakeHonorsContext(t *testing.T) {
	t.Parallel()

	p := New("ws://unused/ws", time.Second,
		WithLogger(testLogger()),
		WithDialer(func(context.Context) (io.ReadWriteCloser, error) {
			client, broker := net.Pipe()
			// a broker that never answers CONNECT
			go func() { _, _ = io.Copy(io.Discard, broker) }()
			return client, nil
		}),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := p.Connect(ctx); err == nil {
		_ = p.Disconnect()
		t.Fatal("Connect() error = nil, want context error")
	}
}

func TestPrimaryConnectIdempotentAndDisconnectTwice(t *testing.T) {
	t.Parallel()

	ts, _ := startBackend(t)
	p := New(wsURL(ts), time.Second, WithLogger(testLogger()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for range 2 {
		if err := p.Connect(ctx); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
	}
	if !p.Connected() {
		t.Error("Connected() = false")
	}

	for range 2 {
		if err := p.Disconnect(); err != nil {
			t.Fatalf("Disconnect() error = %v", err)
		}
	}
	if p.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
}

func TestPrimaryReconnectsAfterDrop(t *testing.T) {
	t.Parallel()

	ts, store := startBackend(t)

	streams := make(chan io.ReadWriteCloser, 8)
	p := New(wsURL(ts), 20*time.Millisecond,
		WithLogger(testLogger()),
		WithHeartBeat(time.Second),
		WithDialer(func(ctx context.Context) (io.ReadWriteCloser, error) {
			c, _, err := websocket.Dial(ctx, wsURL(ts), &websocket.DialOptions{ //nolint:bodyclose // websocket.Dial closes the response body
				Subprotocols: Subprotocols,
			})
			if err != nil {
				return nil, err
			}
			rwc := websocket.NetConn(context.Background(), c, websocket.MessageText)
			streams <- rwc
			return rwc, nil
		}),
	)
	t.Cleanup(func() { _ = p.Disconnect() })

	got := make(chan storage.Notification, 64)
	p.AddListener(func(n storage.Notification) { got <- n })

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := p.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	// drop the first socket out from under the session
	first := <-streams
	_ = first.Close()

	select {
	case <-streams:
	case <-ctx.Done():
		t.Fatal("timed out waiting for a second dial")
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := store.Add(ctx, storage.Notification{UserID: "42", Title: "after drop"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		select {
		case n := <-got:
			if n.Title != "after drop" {
				t.Errorf("delivered = %+v", n)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("timed out waiting for a push after reconnect")
		}
	}
}
