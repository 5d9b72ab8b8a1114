package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xcontext"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const (
	nativeClientBuffer = 16
	nativeWriteTimeout = 10 * time.Second
)

// Publisher receives every notification the store broadcasts.
type Publisher interface {
	Publish(n storage.Notification) error
}

// Hub fans notifications from the store out to the STOMP broker and to raw
// websocket clients.
type Hub struct {
	store  storage.NotificationStore
	broker Publisher
	logger *slog.Logger

	mu      sync.Mutex
	clients map[uint64]chan storage.Notification
	nextID  uint64
}

func NewHub(store storage.NotificationStore, broker Publisher, logger *slog.Logger) *Hub {
	return &Hub{
		store:   store,
		broker:  broker,
		logger:  logger,
		clients: make(map[uint64]chan storage.Notification),
	}
}

// Start subscribes to the store before returning, then forwards broadcasts
// until ctx is cancelled.
func (h *Hub) Start(ctx context.Context) error {
	ch, unsubscribe, err := h.store.Subscribe(ctx)
	if err != nil {
		return fmt.Errorf("subscribing to store: %w", err)
	}

	go func() {
		defer unsubscribe()
		for {
			select {
			case <-ctx.Done():
				return
			case n, ok := <-ch:
				if !ok {
					return
				}
				h.broadcast(ctx, n)
			}
		}
	}()
	return nil
}

func (h *Hub) broadcast(ctx context.Context, n storage.Notification) {
	if err := h.broker.Publish(n); err != nil {
		h.logger.ErrorContext(ctx, "failed to publish to broker",
			xslog.Error(err),
			xslog.NotificationGroup(n),
		)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, client := range h.clients {
		select {
		case client <- n:
		default:
			h.logger.WarnContext(ctx, "dropping notification for slow websocket client",
				xslog.NotificationGroup(n),
			)
		}
	}
}

func (h *Hub) subscribe() (<-chan storage.Notification, func()) {
	ch := make(chan storage.Notification, nativeClientBuffer)

	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.clients[id] = ch
	h.mu.Unlock()

	return ch, func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
	}
}

// HandleNative serves GET /ws/native: one JSON text frame per notification.
func (h *Hub) HandleNative(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	c, err := websocket.Accept(w, r, nil)
	if err != nil {
		logger.WarnContext(ctx, "websocket upgrade failed", xslog.Error(err))
		return
	}
	defer func() { _ = c.CloseNow() }()

	ch, unsubscribe := h.subscribe()
	defer unsubscribe()

	// CloseRead answers pings and reports the peer closing.
	ctx = c.CloseRead(ctx)

	logger.InfoContext(ctx, "websocket client connected")

	for {
		select {
		case <-ctx.Done():
			if xcontext.IsShutdownInProgress(ctx) {
				logger.InfoContext(ctx, "closing websocket client for shutdown")
				_ = c.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			logger.InfoContext(ctx, "websocket client disconnected")
			return
		case n := <-ch:
			if err := writeNotification(ctx, c, n); err != nil {
				logger.WarnContext(ctx, "failed to write notification", xslog.Error(err))
				return
			}
		}
	}
}

func writeNotification(ctx context.Context, c *websocket.Conn, n storage.Notification) error {
	data, err := go_json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, nativeWriteTimeout)
	defer cancel()
	return c.Write(ctx, websocket.MessageText, data)
}
