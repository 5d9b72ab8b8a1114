package ws

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/bellhop/internal/server"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func waitFor(t *testing.T, ch <-chan storage.Notification) storage.Notification {
	t.Helper()
	select {
	case n := <-ch:
		return n
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for notification")
		return storage.Notification{}
	}
}

func TestFallbackReceivesPush(t *testing.T) {
	t.Parallel()

	store := storage.NewMemoryNotificationStore()
	srv := server.New(server.Config{Topic: "/topic/notifications", HeartBeat: time.Second, DemoUserID: "1"}, store, testLogger())
	if err := srv.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Close()
	})

	f := New(wsURL(ts, "/ws/native"), time.Second, WithLogger(testLogger()))
	t.Cleanup(func() { _ = f.Disconnect() })

	got := make(chan storage.Notification, 8)
	f.AddListener(func(n storage.Notification) { got <- n })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := f.Connect(ctx); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if f.Kind() != transport.KindFallback {
		t.Errorf("Kind() = %v, want fallback", f.Kind())
	}

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if _, err := store.Add(ctx, storage.Notification{UserID: "42", Title: "raw"}); err != nil {
			t.Fatalf("Add() error = %v", err)
		}
		select {
		case n := <-got:
			if n.Title != "raw" {
				t.Errorf("delivered = %+v", n)
			}
			return
		case <-ticker.C:
		case <-ctx.Done():
			t.Fatal("timed out waiting for push")
		}
	}
}

// dropServer sends one notification per connection, numbered by connection,
// then drops the connection.
func dropServer(t *testing.T) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var conns atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		n := conns.Add(1)

		data, _ := go_json.Marshal(storage.Notification{ID: storage.ID(string(rune('0' + n))), Title: "frame"})
		_ = c.Write(r.Context(), websocket.MessageText, data)
		_ = c.Write(r.Context(), websocket.MessageText, []byte("not json"))
		_ = c.Close(websocket.StatusGoingAway, "restart")
	}))
	t.Cleanup(ts.Close)
	return ts, &conns
}

func TestFallbackReconnectsAfterDrop(t *testing.T) {
	t.Parallel()

	ts, conns := dropServer(t)
	f := New(wsURL(ts, "/"), 20*time.Millisecond, WithLogger(testLogger()), WithPingInterval(0))
	t.Cleanup(func() { _ = f.Disconnect() })

	got := make(chan storage.Notification, 8)
	f.AddListener(func(n storage.Notification) { got <- n })

	if err := f.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	first := waitFor(t, got)
	second := waitFor(t, got)
	if first.ID != "1" || second.ID != "2" {
		t.Errorf("delivered ids = %q, %q; want 1, 2", first.ID, second.ID)
	}
	if conns.Load() < 2 {
		t.Errorf("connections = %d, want at least 2", conns.Load())
	}
}

func TestFallbackConnectFails(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(ts.Close)

	f := New(wsURL(ts, "/ws/native"), time.Second, WithLogger(testLogger()))

	if err := f.Connect(context.Background()); err == nil {
		_ = f.Disconnect()
		t.Fatal("Connect() error = nil, want error")
	}
	for range 2 {
		if err := f.Disconnect(); err != nil {
			t.Errorf("Disconnect() error = %v", err)
		}
	}
}

func TestFallbackHeartbeat(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		ctx := c.CloseRead(r.Context())
		<-ctx.Done()
	}))
	t.Cleanup(ts.Close)

	f := New(wsURL(ts, "/"), time.Second, WithLogger(testLogger()), WithPingInterval(20*time.Millisecond))
	t.Cleanup(func() { _ = f.Disconnect() })

	if err := f.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	time.Sleep(150 * time.Millisecond)
	if !f.Connected() {
		t.Error("Connected() = false while pongs are answered")
	}
}
