package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/huh"
	"golang.org/x/oauth2"

	"github.com/garrettladley/bellhop/internal/alert"
	"github.com/garrettladley/bellhop/internal/client/notifications"
	"github.com/garrettladley/bellhop/internal/config"
	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/paths"
	"github.com/garrettladley/bellhop/internal/session"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport/stomp"
	"github.com/garrettladley/bellhop/internal/transport/ws"
	"github.com/garrettladley/bellhop/internal/xslog"
)

var errNoUser = errors.New("no user signed in: set BELLHOP_USER_ID or sign in to create a session file")

// app holds what every command shares: config, the resolved user and the
// REST client.
type app struct {
	cfg         config.Config
	logger      *slog.Logger
	userID      storage.ID
	sessionID   string
	tokenSource oauth2.TokenSource
	client      *notifications.Client
}

func newApp(logger *slog.Logger) (*app, error) {
	cfg, err := config.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	userID, err := session.Resolve(cfg.UserID, cfg.SessionFile)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve user: %w", err)
	}

	var ts oauth2.TokenSource
	if cfg.Token != "" {
		ts = oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.Token})
	}

	sessionID := session.NewID()
	logger = logger.With(xslog.SessionID(sessionID))

	opts := []notifications.Option{
		notifications.WithSessionID(sessionID),
		notifications.WithLogger(logger),
	}
	if ts != nil {
		opts = append(opts, notifications.WithTokenSource(ts))
	}

	return &app{
		cfg:         cfg,
		logger:      logger,
		userID:      userID,
		sessionID:   sessionID,
		tokenSource: ts,
		client:      notifications.New(cfg.APIURL, opts...),
	}, nil
}

// requireUser is for one-shot commands, where a silent no-op would look like
// success.
func (a *app) requireUser() error {
	if a.userID == "" {
		return errNoUser
	}
	return nil
}

func (a *app) controller(alerter alert.Alerter) *notify.Controller {
	primary := stomp.New(a.cfg.WSURL, a.cfg.ReconnectDelay,
		stomp.WithDestination(a.cfg.Topic),
		stomp.WithHeartBeat(a.cfg.HeartBeat),
		stomp.WithTokenSource(a.tokenSource),
		stomp.WithLogger(a.logger),
	)
	fallback := ws.New(a.cfg.NativeWSURL, a.cfg.ReconnectDelay,
		ws.WithPingInterval(a.cfg.HeartBeat),
		ws.WithTokenSource(a.tokenSource),
		ws.WithLogger(a.logger),
	)

	return notify.New(notify.Config{
		UserID:         a.userID,
		Store:          a.client,
		Primary:        primary,
		Fallback:       fallback,
		Alerter:        alerter,
		ConnectTimeout: a.cfg.ConnectTimeout,
		Logger:         a.logger,
	})
}

func (a *app) alerter() (alert.Alerter, error) {
	if !a.cfg.Alerts {
		return alert.Nop{}, nil
	}
	path, err := paths.Alerts()
	if err != nil {
		return nil, err
	}
	return alert.NewDesktop(path, confirmAlerts), nil
}

func confirmAlerts(ctx context.Context) (bool, error) {
	var allow bool
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Show desktop alerts for new notifications?").
				Description("You can change this later by deleting the alerts file in the bellhop config directory.").
				Affirmative("Allow").
				Negative("Don't allow").
				Value(&allow),
		),
	).RunWithContext(ctx)
	if err != nil {
		return false, fmt.Errorf("alert permission prompt: %w", err)
	}
	return allow, nil
}
