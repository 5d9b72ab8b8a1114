package tui

import (
	"context"
	"log/slog"

	"github.com/garrettladley/bellhop/internal/notify"
	"github.com/garrettladley/bellhop/internal/storage"
)

// Controller is the subset of *notify.Controller the UI drives.
type Controller interface {
	State() notify.State
	Activate(ctx context.Context) error
	Refresh(ctx context.Context) error
	MarkAsRead(ctx context.Context, id storage.ID) error
	MarkAllAsRead(ctx context.Context) error
	ClearNotifications(ctx context.Context) error
}

var _ Controller = (*notify.Controller)(nil)

type Deps struct {
	Ctx        context.Context
	Logger     *slog.Logger
	Controller Controller
	States     *Bridge
}
