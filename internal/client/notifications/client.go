package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	go_json "github.com/goccy/go-json"
	"golang.org/x/oauth2"

	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/xhttp"
	"github.com/garrettladley/bellhop/internal/xslog"
)

const defaultTimeout = 30 * time.Second

// Store is the read/write surface of the durable notification store as seen
// by the client. Every operation is scoped to a user id; an empty id makes
// the operation a no-op.
type Store interface {
	FetchAll(ctx context.Context, userID storage.ID) ([]storage.Notification, error)
	MarkRead(ctx context.Context, userID storage.ID, notificationID storage.ID) error
	MarkAllRead(ctx context.Context, userID storage.ID) error
	Clear(ctx context.Context, userID storage.ID) error
}

var _ Store = (*Client)(nil)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

type clientConfig struct {
	tokenSource oauth2.TokenSource
	sessionID   string
	logger      *slog.Logger
	timeout     time.Duration
	base        http.RoundTripper
}

type Option func(*clientConfig)

func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(cfg *clientConfig) { cfg.tokenSource = ts }
}

func WithSessionID(sessionID string) Option {
	return func(cfg *clientConfig) { cfg.sessionID = sessionID }
}

func WithLogger(logger *slog.Logger) Option {
	return func(cfg *clientConfig) { cfg.logger = logger }
}

func WithTimeout(d time.Duration) Option {
	return func(cfg *clientConfig) { cfg.timeout = d }
}

func WithRoundTripper(rt http.RoundTripper) Option {
	return func(cfg *clientConfig) { cfg.base = rt }
}

func New(baseURL string, opts ...Option) *Client {
	cfg := &clientConfig{
		logger:  slog.Default(),
		timeout: defaultTimeout,
		base:    http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	var rt http.RoundTripper = xhttp.NewTransport(
		xhttp.WithBase(cfg.base),
		xhttp.WithSessionID(cfg.sessionID),
	)
	if cfg.tokenSource != nil {
		rt = &oauth2.Transport{Source: cfg.tokenSource, Base: rt}
	}

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: xhttp.NewHTTPClient(
			xhttp.WithRoundTripper(rt),
			xhttp.WithTimeout(cfg.timeout),
		),
		logger: cfg.logger,
	}
}

// FetchAll returns the user's notifications in server order. A 401 is
// treated as "no notifications". On any other failure the result is an empty,
// non-nil slice together with the error.
func (c *Client) FetchAll(ctx context.Context, userID storage.ID) ([]storage.Notification, error) {
	if userID == "" {
		return []storage.Notification{}, nil
	}

	path := "/notifications/user/" + url.PathEscape(string(userID))

	var notifications []storage.Notification
	err := c.do(ctx, http.MethodGet, path, &notifications)
	if apiErr := AsAPIError(err); apiErr != nil && apiErr.StatusCode == http.StatusUnauthorized {
		c.logger.DebugContext(ctx, "notifications fetch unauthorized", xslog.UserID(string(userID)))
		return []storage.Notification{}, nil
	}
	if err != nil {
		c.logger.ErrorContext(ctx, "failed to fetch notifications",
			xslog.Error(err),
			xslog.UserID(string(userID)),
		)
		return []storage.Notification{}, err
	}

	if notifications == nil {
		notifications = []storage.Notification{}
	}
	return notifications, nil
}

func (c *Client) MarkRead(ctx context.Context, userID storage.ID, notificationID storage.ID) error {
	if userID == "" {
		return nil
	}

	path := "/notifications/" + url.PathEscape(string(notificationID)) + "/read"
	if err := c.do(ctx, http.MethodPost, path, nil); err != nil {
		c.logger.ErrorContext(ctx, "failed to mark notification read",
			xslog.Error(err),
			xslog.NotificationID(string(notificationID)),
		)
		return err
	}
	return nil
}

func (c *Client) MarkAllRead(ctx context.Context, userID storage.ID) error {
	if userID == "" {
		return nil
	}

	path := "/notifications/user/" + url.PathEscape(string(userID)) + "/readAll"
	if err := c.do(ctx, http.MethodPost, path, nil); err != nil {
		c.logger.ErrorContext(ctx, "failed to mark all notifications read",
			xslog.Error(err),
			xslog.UserID(string(userID)),
		)
		return err
	}
	return nil
}

func (c *Client) Clear(ctx context.Context, userID storage.ID) error {
	if userID == "" {
		return nil
	}

	path := "/notifications/user/" + url.PathEscape(string(userID))
	if err := c.do(ctx, http.MethodDelete, path, nil); err != nil {
		c.logger.ErrorContext(ctx, "failed to clear notifications",
			xslog.Error(err),
			xslog.UserID(string(userID)),
		)
		return err
	}
	return nil
}

type TestKind string

const (
	TestGeneral      TestKind = "send-test"
	TestEventDeleted TestKind = "send-event-deleted"
)

// SendTest asks the backend to broadcast a test notification and returns the
// backend's plain-text reply.
func (c *Client) SendTest(ctx context.Context, kind TestKind) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/test-notifications/"+string(kind), nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !xhttp.IsSuccess(resp.StatusCode) {
		return "", parseAPIError(resp)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	return string(body), nil
}

func (c *Client) do(ctx context.Context, method string, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if !xhttp.IsSuccess(resp.StatusCode) {
		return parseAPIError(resp)
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := go_json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
