package transport

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/garrettladley/bellhop/internal/storage"
)

type fakeSession struct {
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
}

func newFakeSession() *fakeSession {
	return &fakeSession{done: make(chan struct{})}
}

func (f *fakeSession) Done() <-chan struct{} { return f.done }
func (f *fakeSession) Err() error           { return io.EOF }

func (f *fakeSession) Close() error {
	f.closed.Store(true)
	f.end()
	return nil
}

// end simulates the remote side dropping the connection.
func (f *fakeSession) end() {
	f.closeOnce.Do(func() { close(f.done) })
}

type fakeOpener struct {
	mu       sync.Mutex
	sessions []*fakeSession
	deliver  func(storage.Notification)
	fail     error
	opened   chan *fakeSession
}

func newFakeOpener() *fakeOpener {
	return &fakeOpener{opened: make(chan *fakeSession, 8)}
}

func (o *fakeOpener) open(_ context.Context, deliver func(storage.Notification)) (Session, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fail != nil {
		return nil, o.fail
	}
	s := newFakeSession()
	o.sessions = append(o.sessions, s)
	o.deliver = deliver
	o.opened <- s
	return s, nil
}

func (o *fakeOpener) count() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sessions)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitOpened(t *testing.T, o *fakeOpener) *fakeSession {
	t.Helper()
	select {
	case s := <-o.opened:
		return s
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for session")
		return nil
	}
}

func TestSupervisorConnectIdempotent(t *testing.T) {
	t.Parallel()

	o := newFakeOpener()
	s := NewSupervisor(KindPrimary, o.open, time.Hour, testLogger())
	t.Cleanup(func() { _ = s.Disconnect() })

	for range 3 {
		if err := s.Connect(t.Context()); err != nil {
			t.Fatalf("Connect() error = %v", err)
		}
	}

	if got := o.count(); got != 1 {
		t.Errorf("sessions opened = %d, want 1", got)
	}
	if !s.Connected() {
		t.Error("Connected() = false after Connect")
	}
}

func TestSupervisorConnectError(t *testing.T) {
	t.Parallel()

	o := newFakeOpener()
	o.fail = errors.New("handshake rejected")
	s := NewSupervisor(KindFallback, o.open, time.Millisecond, testLogger())

	err := s.Connect(t.Context())
	if !errors.Is(err, o.fail) {
		t.Fatalf("Connect() error = %v, want wrapping %v", err, o.fail)
	}
	if s.Connected() {
		t.Error("Connected() = true after failed Connect")
	}
	if err := s.Disconnect(); err != nil {
		t.Errorf("Disconnect() after failed Connect error = %v", err)
	}
}

func TestSupervisorDisconnectTwice(t *testing.T) {
	t.Parallel()

	o := newFakeOpener()
	s := NewSupervisor(KindPrimary, o.open, time.Hour, testLogger())

	if err := s.Connect(t.Context()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	sess := waitOpened(t, o)

	for range 2 {
		if err := s.Disconnect(); err != nil {
			t.Fatalf("Disconnect() error = %v", err)
		}
	}

	if !sess.closed.Load() {
		t.Error("session not closed by Disconnect")
	}
	if s.Connected() {
		t.Error("Connected() = true after Disconnect")
	}
}

func TestSupervisorReconnects(t *testing.T) {
	t.Parallel()

	o := newFakeOpener()
	s := NewSupervisor(KindPrimary, o.open, 10*time.Millisecond, testLogger())
	t.Cleanup(func() { _ = s.Disconnect() })

	var mu sync.Mutex
	var got []storage.ID
	s.AddListener(func(n storage.Notification) {
		mu.Lock()
		got = append(got, n.ID)
		mu.Unlock()
	})

	if err := s.Connect(t.Context()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	first := waitOpened(t, o)
	first.end()

	waitOpened(t, o)

	o.mu.Lock()
	deliver := o.deliver
	o.mu.Unlock()
	deliver(storage.Notification{ID: "after-reconnect"})

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]storage.ID{"after-reconnect"}, got); diff != "" {
		t.Errorf("delivered mismatch (-want +got):\n%s", diff)
	}
}

func TestSupervisorNoReconnectAfterDisconnect(t *testing.T) {
	t.Parallel()

	o := newFakeOpener()
	s := NewSupervisor(KindPrimary, o.open, 5*time.Millisecond, testLogger())

	if err := s.Connect(t.Context()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	waitOpened(t, o)

	if err := s.Disconnect(); err != nil {
		t.Fatalf("Disconnect() error = %v", err)
	}

	time.Sleep(50 * time.Millisecond)
	if got := o.count(); got != 1 {
		t.Errorf("sessions opened = %d, want 1", got)
	}
}
