package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/garrettladley/bellhop/internal/server/handler"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xhttp/middleware"
)

// Server is the development backend: the notification REST API, a STOMP
// broker on /ws and a raw websocket push endpoint on /ws/native.
type Server struct {
	store   storage.NotificationStore
	broker  *Broker
	hub     *Hub
	handler http.Handler
	cancel  context.CancelFunc

	shutdown     chan struct{}
	shutdownOnce sync.Once
}

func New(cfg Config, store storage.NotificationStore, logger *slog.Logger) *Server {
	broker := NewBroker(cfg.Topic, cfg.HeartBeat, logger)
	hub := NewHub(store, broker, logger)

	notifications := handler.NewNotifications(store)
	tests := handler.NewTestNotifications(store, storage.ID(cfg.DemoUserID))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", handler.HandleHealth)

	mux.HandleFunc("GET /notifications/user/{userId}", notifications.HandleList)
	mux.HandleFunc("POST /notifications/user/{userId}/readAll", notifications.HandleMarkAllRead)
	mux.HandleFunc("DELETE /notifications/user/{userId}", notifications.HandleClear)
	mux.HandleFunc("POST /notifications/{notificationId}/read", notifications.HandleMarkRead)
	mux.HandleFunc("POST /notifications", notifications.HandleCreate)

	if !cfg.Env.IsProduction() {
		mux.HandleFunc("POST /test-notifications/send-test", tests.HandleSendTest)
		mux.HandleFunc("POST /test-notifications/send-event-deleted", tests.HandleSendEventDeleted)
	}

	mux.Handle("GET /ws", broker)
	mux.HandleFunc("GET /ws/native", hub.HandleNative)

	shutdown := make(chan struct{})
	wrapped := middleware.Chain(mux,
		middleware.RequestContext(logger),
		middleware.Recovery,
		middleware.Logging,
		middleware.ClientVersion,
		middleware.ShutdownContext(shutdown),
		middleware.SecurityHeaders,
		middleware.Gzip,
	)

	return &Server{
		store:    store,
		broker:   broker,
		hub:      hub,
		handler:  wrapped,
		shutdown: shutdown,
	}
}

// Start brings up the broker and begins forwarding store broadcasts. It must
// be called before the handler receives push subscribers.
func (s *Server) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	context.AfterFunc(ctx, s.signalShutdown)

	if err := s.broker.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to start broker: %w", err)
	}
	if err := s.hub.Start(ctx); err != nil {
		cancel()
		return fmt.Errorf("failed to start hub: %w", err)
	}
	return nil
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) signalShutdown() {
	s.shutdownOnce.Do(func() { close(s.shutdown) })
}

func (s *Server) Close() error {
	s.signalShutdown()
	if s.cancel != nil {
		s.cancel()
	}
	return errors.Join(s.broker.Close(), s.store.Close())
}
