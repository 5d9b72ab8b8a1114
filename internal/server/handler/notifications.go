package handler

import (
	"errors"
	"net/http"
	"strings"

	go_json "github.com/goccy/go-json"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/validator"
	"github.com/garrettladley/bellhop/internal/xerrors"
	"github.com/garrettladley/bellhop/internal/xhttp"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const (
	pathUserID         = "userId"
	pathNotificationID = "notificationId"

	maxTitleLength   = 200
	maxMessageLength = 2000
)

type Notifications struct {
	store storage.NotificationStore
}

func NewNotifications(store storage.NotificationStore) *Notifications {
	return &Notifications{store: store}
}

// HandleList handles GET /notifications/user/{userId}.
func (h *Notifications) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)
	userID := storage.ID(r.PathValue(pathUserID))

	notifications, err := h.store.List(ctx, userID)
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to list notifications"),
			xerrors.WithCause(err),
		))
		return
	}

	logger.DebugContext(ctx, "listed notifications",
		xslog.UserID(userID.String()),
		xslog.Count(len(notifications)),
		xslog.Unread(storage.CountUnread(notifications)),
	)

	xhttp.WriteOK(w, notifications)
}

// HandleMarkRead handles POST /notifications/{notificationId}/read.
func (h *Notifications) HandleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := storage.ID(r.PathValue(pathNotificationID))

	if err := h.store.MarkRead(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			xerrors.WriteError(ctx, w, xerrors.NotFound(xerrors.WithMessage("notification not found")))
			return
		}
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to mark notification read"),
			xerrors.WithCause(err),
		))
		return
	}

	xhttp.WriteNoContent(w)
}

// HandleMarkAllRead handles POST /notifications/user/{userId}/readAll.
func (h *Notifications) HandleMarkAllRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := storage.ID(r.PathValue(pathUserID))

	if err := h.store.MarkAllRead(ctx, userID); err != nil {
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to mark notifications read"),
			xerrors.WithCause(err),
		))
		return
	}

	xhttp.WriteNoContent(w)
}

// HandleClear handles DELETE /notifications/user/{userId}.
func (h *Notifications) HandleClear(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := storage.ID(r.PathValue(pathUserID))

	if err := h.store.Clear(ctx, userID); err != nil {
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to clear notifications"),
			xerrors.WithCause(err),
		))
		return
	}

	xhttp.WriteNoContent(w)
}

type createRequest struct {
	UserID  storage.ID   `json:"userId"`
	Title   string       `json:"title"`
	Message string       `json:"message"`
	Type    storage.Type `json:"type"`
}

var _ validator.Validator = (*createRequest)(nil)

func (r *createRequest) Validate(f validator.Fields) {
	f.Required("userId", r.UserID.String())
	f.Required("title", r.Title)
	f.MaxRunes("title", strings.TrimSpace(r.Title), maxTitleLength)
	f.MaxRunes("message", r.Message, maxMessageLength)
}

// HandleCreate handles POST /notifications. The stored notification is
// broadcast to every push subscriber.
func (h *Notifications) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := xslog.FromContext(ctx)

	var req createRequest
	if err := go_json.NewDecoder(r.Body).Decode(&req); err != nil {
		xerrors.WriteError(ctx, w, xerrors.BadRequest(xerrors.WithMessage("invalid JSON body")))
		return
	}
	if verr := validator.Validate(&req); verr != nil {
		xerrors.WriteError(ctx, w, verr)
		return
	}

	n, err := h.store.Add(ctx, storage.Notification{
		UserID:  req.UserID,
		Title:   strings.TrimSpace(req.Title),
		Message: req.Message,
		Type:    req.Type,
	})
	if err != nil {
		xerrors.WriteError(ctx, w, xerrors.Internal(
			xerrors.WithMessage("failed to create notification"),
			xerrors.WithCause(err),
		))
		return
	}

	logger.InfoContext(ctx, "created notification",
		xslog.NotificationGroup(n),
	)

	xhttp.WriteJSON(w, http.StatusCreated, n)
}
