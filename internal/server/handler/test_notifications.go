package handler

import (
	"net/http"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xerrors"
	"github.com/garrettladley/bellhop/internal/xhttp"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const queryUserID = "userId"

// TestNotifications triggers pushes for manual end-to-end checks.
type TestNotifications struct {
	store         storage.NotificationStore
	defaultUserID storage.ID
}

func NewTestNotifications(store storage.NotificationStore, defaultUserID storage.ID) *TestNotifications {
	return &TestNotifications{store: store, defaultUserID: defaultUserID}
}

// HandleSendTest handles POST /test-notifications/send-test.
func (h *TestNotifications) HandleSendTest(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, storage.Notification{
		Title:   "Test notification",
		Message: "This is a test notification from the server.",
		Type:    storage.TypeTest,
	})
}

// HandleSendEventDeleted handles POST /test-notifications/send-event-deleted.
func (h *TestNotifications) HandleSendEventDeleted(w http.ResponseWriter, r *http.Request) {
	h.send(w, r, storage.Notification{
		Title:   "Event cancelled",
		Message: "An event you have tickets for was deleted by its organizer.",
		Type:    storage.TypeEventDeleted,
	})
}

func (h *TestNotifications) send(w http.ResponseWriter, r *http.Request, n storage.Notification) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	n.UserID = h.defaultUserID
	if userID := r.URL.Query().Get(queryUserID); userID != "" {
		n.UserID = storage.ID(userID)
	}

	n, err := h.store.Add(ctx, n)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to send test notification"),
			xerrors.WithCause(err),
		))
		return
	}

	logger.InfoContext(ctx, "sent test notification",
		xslog.NotificationGroup(n),
	)

	xhttp.WriteText(w, http.StatusOK, "test notification sent: "+n.ID.String())
}
