package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	stompserver "github.com/go-stomp/stomp/v3/server"
	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const contentTypeJSON = "application/json"

// Broker is an in-process STOMP broker reachable over websocket. Pushes are
// published through an internal client connected over an in-memory pipe, so
// remote subscribers see ordinary MESSAGE frames on the topic.
type Broker struct {
	topic    string
	listener *Listener
	server   *stompserver.Server
	logger   *slog.Logger

	mu        sync.Mutex
	publisher *stomp.Conn
}

var _ http.Handler = (*Broker)(nil)

func NewBroker(topic string, heartBeat time.Duration, logger *slog.Logger) *Broker {
	return &Broker{
		topic:    topic,
		listener: NewListener(),
		server:   &stompserver.Server{HeartBeat: heartBeat},
		logger:   logger,
	}
}

// Start runs the broker and connects the internal publisher.
func (b *Broker) Start(ctx context.Context) error {
	go func() {
		if err := b.server.Serve(b.listener); err != nil && !errors.Is(err, net.ErrClosed) {
			b.logger.ErrorContext(ctx, "stomp broker stopped", xslog.Error(err))
		}
	}()

	pipe, err := b.listener.Pipe()
	if err != nil {
		return fmt.Errorf("connecting publisher: %w", err)
	}

	conn, err := stomp.Connect(pipe, stomp.ConnOpt.HeartBeat(0, 0))
	if err != nil {
		_ = pipe.Close()
		return fmt.Errorf("publisher handshake: %w", err)
	}

	b.mu.Lock()
	b.publisher = conn
	b.mu.Unlock()

	b.logger.InfoContext(ctx, "stomp broker started", xslog.Destination(b.topic))
	return nil
}

func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.listener.ServeHTTP(w, r)
}

// Publish sends n to every subscriber of the broker topic.
func (b *Broker) Publish(n storage.Notification) error {
	b.mu.Lock()
	conn := b.publisher
	b.mu.Unlock()
	if conn == nil {
		return errors.New("broker not started")
	}

	body, err := go_json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}
	if err := conn.Send(b.topic, contentTypeJSON, body); err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	return nil
}

func (b *Broker) Close() error {
	b.mu.Lock()
	conn := b.publisher
	b.publisher = nil
	b.mu.Unlock()

	if conn != nil {
		_ = conn.MustDisconnect()
	}
	return b.listener.Close()
}
