package notify_test

import (
	"context"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/garrettladley/bellhop/internal/client/notifications"
	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/server"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
	"github.com/garrettladley/bellhop/internal/transport/stomp"
	"github.com/garrettladley/bellhop/internal/transport/ws"
)

const e2eUser storage.ID = "42"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startBackend(t *testing.T) (*httptest.Server, storage.NotificationStore) {
	t.Helper()

	store := storage.NewMemoryNotificationStore()
	srv := server.New(server.Config{
		Topic:      stomp.DefaultDestination,
		HeartBeat:  time.Second,
		DemoUserID: "1",
	}, store, discardLogger())
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

func wsURL(ts *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(ts.URL, "http") + path
}

func TestEndToEnd(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		primaryURL    func(ts *httptest.Server) string
		wantTransport transport.Kind
	}{
		{
			name:          "primary",
			primaryURL:    func(ts *httptest.Server) string { return wsURL(ts, "/ws") },
			wantTransport: transport.KindPrimary,
		},
		{
			name:          "fallback when primary is unreachable",
			primaryURL:    func(*httptest.Server) string { return "ws://127.0.0.1:1/ws" },
			wantTransport: transport.KindFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ts, store := startBackend(t)
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if _, err := store.Add(ctx, storage.Notification{UserID: e2eUser, Title: "already there"}); err != nil {
				t.Fatalf("Add() error = %v", err)
			}

			logger := discardLogger()
			c := notify.New(notify.Config{
				UserID:         e2eUser,
				Store:          notifications.New(ts.URL, notifications.WithLogger(logger)),
				Primary:        stomp.New(tt.primaryURL(ts), time.Second, stomp.WithLogger(logger), stomp.WithHeartBeat(time.Second)),
				Fallback:       ws.New(wsURL(ts, "/ws/native"), time.Second, ws.WithLogger(logger), ws.WithPingInterval(time.Second)),
				ConnectTimeout: 2 * time.Second,
				Logger:         logger,
			})
			t.Cleanup(func() { _ = c.Close() })

			states := make(chan notify.State, 64)
			c.Subscribe(func(s notify.State) {
				select {
				case states <- s:
				default:
				}
			})

			if err := c.Activate(ctx); err != nil {
				t.Fatalf("Activate() error = %v", err)
			}

			got := c.State()
			if got.Status != notify.StatusConnected || got.Transport != tt.wantTransport {
				t.Fatalf("after Activate: status = %v, transport = %v; want connected over %v",
					got.Status, got.Transport, tt.wantTransport)
			}
			if len(got.Notifications) != 1 || got.UnreadCount != 1 {
				t.Fatalf("snapshot = %+v, want the stored notification", got.Notifications)
			}

			// the server registers a push subscription after the handshake
			// completes, so keep adding until a refetch picks one up.
			ticker := time.NewTicker(100 * time.Millisecond)
			defer ticker.Stop()
		wait:
			for {
				if _, err := store.Add(ctx, storage.Notification{UserID: e2eUser, Title: "pushed"}); err != nil {
					t.Fatalf("Add() error = %v", err)
				}
				select {
				case s := <-states:
					if len(s.Notifications) > 1 {
						break wait
					}
				case <-ticker.C:
				case <-ctx.Done():
					t.Fatal("timed out waiting for a pushed refetch")
				}
			}

			if err := c.MarkAllAsRead(ctx); err != nil {
				t.Fatalf("MarkAllAsRead() error = %v", err)
			}
			if unread := c.State().UnreadCount; unread != 0 {
				t.Errorf("UnreadCount after MarkAllAsRead = %d, want 0", unread)
			}

			if err := c.Close(); err != nil {
				t.Fatalf("Close() error = %v", err)
			}
			if s := c.State().Status; s != notify.StatusDisconnected {
				t.Errorf("Status after Close = %v, want disconnected", s)
			}
		})
	}
}
