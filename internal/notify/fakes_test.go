package notify

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/garrettladley/bellhop/internal/alert"
	"github.com/garrettladley/bellhop/internal/listener"
	"github.com/garrettladley/bellhop/internal/storage"
	"github.com/garrettladley/bellhop/internal/transport"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recorder captures the order of transport calls across fakes.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) record(call string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

type fakeTransport struct {
	kind       transport.Kind
	connectErr error
	gate       chan struct{}
	rec        *recorder
	listeners  *listener.Registry[storage.Notification]

	mu          sync.Mutex
	connects    int
	disconnects int
}

var _ transport.Client = (*fakeTransport)(nil)

func newFakeTransport(kind transport.Kind, connectErr error, rec *recorder) *fakeTransport {
	return &fakeTransport{
		kind:       kind,
		connectErr: connectErr,
		rec:        rec,
		listeners:  listener.NewRegistry[storage.Notification](testLogger()),
	}
}

func (f *fakeTransport) Connect(ctx context.Context) error {
	f.rec.record(f.kind.String() + ".connect")
	f.mu.Lock()
	f.connects++
	f.mu.Unlock()

	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.connectErr
}

func (f *fakeTransport) AddListener(fn func(storage.Notification)) func() {
	return f.listeners.Add(fn)
}

func (f *fakeTransport) Disconnect() error {
	f.rec.record(f.kind.String() + ".disconnect")
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	return nil
}

func (f *fakeTransport) Kind() transport.Kind { return f.kind }

func (f *fakeTransport) push(n storage.Notification) { f.listeners.Notify(n) }

func (f *fakeTransport) counts() (connects int, disconnects int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connects, f.disconnects
}

type fakeStore struct {
	mu       sync.Mutex
	byUser   map[storage.ID][]storage.Notification
	fetchErr error
	writeErr error
	fetches  int

	// fetchFn overrides FetchAll when set; call is 1-based.
	fetchFn func(ctx context.Context, call int) ([]storage.Notification, error)
}

func newFakeStore(userID storage.ID, notifications ...storage.Notification) *fakeStore {
	return &fakeStore{
		byUser: map[storage.ID][]storage.Notification{userID: notifications},
	}
}

func (s *fakeStore) set(userID storage.ID, notifications ...storage.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byUser[userID] = notifications
}

func (s *fakeStore) setFetchErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchErr = err
}

func (s *fakeStore) fetchCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches
}

func (s *fakeStore) FetchAll(ctx context.Context, userID storage.ID) ([]storage.Notification, error) {
	s.mu.Lock()
	s.fetches++
	call, fn := s.fetches, s.fetchFn
	if fn == nil {
		defer s.mu.Unlock()
		if s.fetchErr != nil {
			return []storage.Notification{}, s.fetchErr
		}
		return append([]storage.Notification{}, s.byUser[userID]...), nil
	}
	s.mu.Unlock()
	return fn(ctx, call)
}

func (s *fakeStore) MarkRead(_ context.Context, userID storage.ID, id storage.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	list := s.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
		}
	}
	return nil
}

func (s *fakeStore) MarkAllRead(_ context.Context, userID storage.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	list := s.byUser[userID]
	for i := range list {
		list[i].Read = true
	}
	return nil
}

func (s *fakeStore) Clear(_ context.Context, userID storage.ID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	delete(s.byUser, userID)
	return nil
}

type fakeAlerter struct {
	mu       sync.Mutex
	perm     alert.Permission
	answer   alert.Permission
	requests int
	shown    []string
}

var _ alert.Alerter = (*fakeAlerter)(nil)

func (a *fakeAlerter) Permission() alert.Permission {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.perm
}

func (a *fakeAlerter) RequestPermission(context.Context) (alert.Permission, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.requests++
	if a.perm == alert.Undetermined {
		a.perm = a.answer
	}
	return a.perm, nil
}

func (a *fakeAlerter) Show(title string, body string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.shown = append(a.shown, title+": "+body)
	return nil
}

func (a *fakeAlerter) snapshot() (requests int, shown []string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.requests, append([]string(nil), a.shown...)
}

// waitState blocks until the controller publishes a state satisfying ok.
func waitState(t *testing.T, c *Controller, ok func(State) bool) State {
	t.Helper()

	states := make(chan State, 64)
	unsubscribe := c.Subscribe(func(s State) {
		select {
		case states <- s:
		default:
		}
	})
	defer unsubscribe()

	if s := c.State(); ok(s) {
		return s
	}

	timeout := time.After(5 * time.Second)
	for {
		select {
		case s := <-states:
			if ok(s) {
				return s
			}
		case <-timeout:
			t.Fatalf("timed out waiting for state; last = %+v", c.State())
			return State{}
		}
	}
}

func checkInvariant(t *testing.T, s State) {
	t.Helper()
	if got := storage.CountUnread(s.Notifications); s.UnreadCount != got {
		t.Errorf("UnreadCount = %d, but %d notifications are unread", s.UnreadCount, got)
	}
}
