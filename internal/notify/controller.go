// Package notify keeps a user's notification state in sync with the durable
// store, refreshing it whenever a push arrives over the active transport.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/garrettladley/bellhop/internal/alert"
	"github.com/garrettladley/bellhop/internal/client/notifications"
	"github.com/garrettladley/bellhop/internal/listener"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const defaultAlertTitle = "New notification"

var (
	ErrAlreadyActive = errors.New("controller already activated")
	ErrClosed        = errors.New("controller closed")
)

type Config struct {
	// UserID scopes every store operation. Empty means no user is signed in
	// and every operation is a no-op.
	UserID storage.ID

	Store notifications.Store

	// Primary is tried first; Fallback only after Primary fails to connect.
	// Either may be nil.
	Primary  transport.Client
	Fallback transport.Client

	// Alerter defaults to alert.Nop.
	Alerter alert.Alerter

	// ConnectTimeout bounds each transport's Connect. Zero means no bound.
	ConnectTimeout time.Duration

	Logger *slog.Logger
}

type phase uint8

const (
	phaseIdle phase = iota
	phaseActive
	phaseClosed
)

// Controller owns the notification State. It is safe for concurrent use.
type Controller struct {
	userID         storage.ID
	store          notifications.Store
	primary        transport.Client
	fallback       transport.Client
	alerter        alert.Alerter
	connectTimeout time.Duration
	logger         *slog.Logger

	observers *listener.Registry[State]
	publishMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.Mutex
	phase       phase
	state       State
	issued      uint64
	applied     uint64
	active      transport.Client
	unsubscribe func()
	asked       bool
}

func New(cfg Config) *Controller {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	alerter := cfg.Alerter
	if alerter == nil {
		alerter = alert.Nop{}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Controller{
		userID:         cfg.UserID,
		store:          cfg.Store,
		primary:        cfg.Primary,
		fallback:       cfg.Fallback,
		alerter:        alerter,
		connectTimeout: cfg.ConnectTimeout,
		logger:         logger.With(xslog.UserID(cfg.UserID.String())),
		observers:      listener.NewRegistry[State](logger),
		ctx:            ctx,
		cancel:         cancel,
		state: State{
			Notifications: []storage.Notification{},
			Status:        StatusDisconnected,
			Transport:     transport.KindNone,
		},
	}
}

// State returns a copy of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Subscribe registers fn to receive every new state. fn runs on the
// goroutine that produced the change and must not call back into the
// controller's write actions.
func (c *Controller) Subscribe(fn func(State)) func() {
	return c.observers.Add(fn)
}

// Activate asks for alert permission unless RequestAlertPermission already
// ran, then loads the snapshot and negotiates a transport concurrently. It
// returns once both have settled. Transport and fetch failures leave the controller
// disconnected or empty; they are logged, never returned.
func (c *Controller) Activate(ctx context.Context) error {
	c.mu.Lock()
	switch c.phase {
	case phaseClosed:
		c.mu.Unlock()
		return ErrClosed
	case phaseActive:
		c.mu.Unlock()
		return ErrAlreadyActive
	}
	c.phase = phaseActive
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	c.RequestAlertPermission(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		_ = c.reconcile(gctx)
		return nil
	})
	g.Go(func() error {
		c.connect(gctx)
		return nil
	})
	_ = g.Wait()

	state := c.State()
	c.logger.InfoContext(ctx, "notifications activated",
		xslog.Status(state.Status.String()),
		xslog.Transport(state.Transport.String()),
		xslog.Unread(state.UnreadCount),
	)
	return nil
}

// RequestAlertPermission prompts for alert permission if it is still
// undetermined. It asks at most once per controller, so a caller that needs the
// prompt on a plain terminal can run it before Activate.
func (c *Controller) RequestAlertPermission(ctx context.Context) {
	c.mu.Lock()
	asked := c.asked
	c.asked = true
	c.mu.Unlock()
	if asked || c.alerter.Permission() != alert.Undetermined {
		return
	}

	perm, err := c.alerter.RequestPermission(ctx)
	if err != nil {
		c.logger.WarnContext(ctx, "alert permission request failed", xslog.Error(err))
		return
	}
	c.logger.InfoContext(ctx, "alert permission decided", xslog.Permission(perm.String()))
}

// connect tries Primary then Fallback, strictly in that order.
func (c *Controller) connect(ctx context.Context) {
	for _, t := range []transport.Client{c.primary, c.fallback} {
		if t == nil {
			continue
		}
		if !c.live(ctx) {
			return
		}

		if err := c.connectOne(ctx, t); err != nil {
			c.logger.WarnContext(ctx, "transport connect failed",
				xslog.Transport(t.Kind().String()),
				xslog.Error(err),
			)
			continue
		}

		if !c.attach(t) {
			_ = t.Disconnect()
		}
		return
	}

	if !c.live(ctx) {
		return
	}
	c.logger.WarnContext(ctx, "no transport available, live updates disabled")
	c.mu.Lock()
	c.state.Status = StatusDisconnected
	c.state.Transport = transport.KindNone
	c.mu.Unlock()
	c.publish()
}

// live reports whether work started under ctx may still act: ctx is not done
// and the controller has not been closed.
func (c *Controller) live(ctx context.Context) bool {
	if ctx.Err() != nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase == phaseActive
}

func (c *Controller) connectOne(ctx context.Context, t transport.Client) error {
	if c.connectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.connectTimeout)
		defer cancel()
	}
	return t.Connect(ctx)
}

// attach makes t the active transport. It reports false if the controller
// was closed while t was connecting.
func (c *Controller) attach(t transport.Client) bool {
	c.mu.Lock()
	if c.phase != phaseActive {
		c.mu.Unlock()
		return false
	}
	c.active = t
	c.unsubscribe = t.AddListener(c.onPush)
	c.state.Status = StatusConnected
	c.state.Transport = t.Kind()
	c.mu.Unlock()

	c.publish()
	return true
}

// onPush runs on the transport's reader goroutine and must not block.
func (c *Controller) onPush(n storage.Notification) {
	if c.userID == "" {
		return
	}
	if n.UserID != "" && n.UserID != c.userID {
		c.logger.Debug("discarding push for another user", xslog.NotificationGroup(n))
		return
	}

	c.mu.Lock()
	if c.phase != phaseActive {
		c.mu.Unlock()
		return
	}
	c.wg.Add(1)
	c.mu.Unlock()

	go func() {
		defer c.wg.Done()
		c.showAlert(n)
		_ = c.reconcile(c.ctx)
	}()
}

func (c *Controller) showAlert(n storage.Notification) {
	if c.alerter.Permission() != alert.Granted {
		return
	}

	title := n.Title
	if title == "" {
		title = defaultAlertTitle
	}
	if err := c.alerter.Show(title, n.Message); err != nil {
		c.logger.Warn("failed to show alert", xslog.Error(err))
	}
}

// Refresh reloads the snapshot. On failure the state is reset to empty and
// the fetch error is returned.
func (c *Controller) Refresh(ctx context.Context) error {
	return c.reconcile(ctx)
}

func (c *Controller) MarkAsRead(ctx context.Context, id storage.ID) error {
	return c.write(ctx, func(ctx context.Context) error {
		if err := c.store.MarkRead(ctx, c.userID, id); err != nil {
			return fmt.Errorf("marking notification %s read: %w", id, err)
		}
		return nil
	})
}

func (c *Controller) MarkAllAsRead(ctx context.Context) error {
	return c.write(ctx, func(ctx context.Context) error {
		if err := c.store.MarkAllRead(ctx, c.userID); err != nil {
			return fmt.Errorf("marking all notifications read: %w", err)
		}
		return nil
	})
}

func (c *Controller) ClearNotifications(ctx context.Context) error {
	return c.write(ctx, func(ctx context.Context) error {
		if err := c.store.Clear(ctx, c.userID); err != nil {
			return fmt.Errorf("clearing notifications: %w", err)
		}
		return nil
	})
}

// write runs fn and then reconciles whether or not fn succeeded. The write
// error is returned; the refetch outcome is reflected only in the state.
func (c *Controller) write(ctx context.Context, fn func(context.Context) error) error {
	c.mu.Lock()
	closed := c.phase == phaseClosed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}

	err := fn(ctx)
	_ = c.reconcile(ctx)
	return err
}

// reconcile replaces the notification list with a fresh snapshot. A failed
// fetch resets the list to empty. Results are applied in issue order: a
// snapshot requested before the last applied one is dropped, as is any
// result arriving after Close.
func (c *Controller) reconcile(ctx context.Context) error {
	c.mu.Lock()
	if c.phase == phaseClosed {
		c.mu.Unlock()
		return ErrClosed
	}
	c.issued++
	seq := c.issued
	c.mu.Unlock()

	list, err := c.store.FetchAll(ctx, c.userID)
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to fetch notifications, clearing state", xslog.Error(err))
		list = []storage.Notification{}
	}
	if list == nil {
		list = []storage.Notification{}
	}

	c.mu.Lock()
	if c.phase == phaseClosed || seq < c.applied {
		c.mu.Unlock()
		return err
	}
	c.applied = seq
	c.state.Notifications = list
	c.state.UnreadCount = storage.CountUnread(list)
	c.mu.Unlock()

	c.publish()
	return err
}

// publish delivers the latest state to observers. Deliveries are serialized
// so observers never see an older state after a newer one.
func (c *Controller) publish() {
	c.publishMu.Lock()
	defer c.publishMu.Unlock()

	c.mu.Lock()
	if c.phase == phaseClosed {
		c.mu.Unlock()
		return
	}
	state := c.state.clone()
	c.mu.Unlock()

	c.observers.Notify(state)
}

// Close stops the controller: in-flight work is cancelled and its results
// discarded, the transport listener is removed and the active transport is
// disconnected. Close returns after a concurrent Activate has settled. No
// observer is called after Close returns, so Close must not be called from
// inside an observer. Close is idempotent.
func (c *Controller) Close() error {
	c.mu.Lock()
	if c.phase == phaseClosed {
		c.mu.Unlock()
		return nil
	}
	c.phase = phaseClosed
	active, unsubscribe := c.active, c.unsubscribe
	c.active, c.unsubscribe = nil, nil
	c.state.Status = StatusDisconnected
	c.state.Transport = transport.KindNone
	c.mu.Unlock()

	c.cancel()

	// wait out a delivery already past the phase check
	c.publishMu.Lock()
	c.publishMu.Unlock() //nolint:staticcheck // empty critical section is a barrier

	if unsubscribe != nil {
		unsubscribe()
	}

	var err error
	if active != nil {
		if derr := active.Disconnect(); derr != nil {
			err = fmt.Errorf("disconnecting %s transport: %w", active.Kind(), derr)
		}
	}

	c.wg.Wait()
	c.logger.Info("notifications closed")
	return err
}
