package storage

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

const subscriberBuffer = 64

var _ NotificationStore = (*MemoryNotificationStore)(nil)

type MemoryNotificationStore struct {
	mu     sync.RWMutex
	byUser map[ID][]Notification
	owner  map[ID]ID

	subsMu  sync.Mutex
	subs    map[uint64]chan Notification
	nextSub uint64

	now func() time.Time
}

func NewMemoryNotificationStore() *MemoryNotificationStore {
	return &MemoryNotificationStore{
		byUser: make(map[ID][]Notification),
		owner:  make(map[ID]ID),
		subs:   make(map[uint64]chan Notification),
		now:    time.Now,
	}
}

func (m *MemoryNotificationStore) List(_ context.Context, userID ID) ([]Notification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notifications := make([]Notification, len(m.byUser[userID]))
	copy(notifications, m.byUser[userID])
	return notifications, nil
}

func (m *MemoryNotificationStore) Add(_ context.Context, n Notification) (Notification, error) {
	if n.ID == "" {
		n.ID = ID(uuid.New().String())
	}
	if n.Timestamp == "" {
		n.Timestamp = NewTimestamp(m.now())
	}
	if n.Type == "" {
		n.Type = TypeGeneral
	}

	m.mu.Lock()
	list := append(m.byUser[n.UserID], n)
	sortByTimestamp(list)
	m.byUser[n.UserID] = list
	m.owner[n.ID] = n.UserID
	m.mu.Unlock()

	m.broadcast(n)
	return n, nil
}

func (m *MemoryNotificationStore) MarkRead(_ context.Context, id ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	userID, ok := m.owner[id]
	if !ok {
		return ErrNotFound
	}

	list := m.byUser[userID]
	for i := range list {
		if list[i].ID == id {
			list[i].Read = true
			return nil
		}
	}
	return ErrNotFound
}

func (m *MemoryNotificationStore) MarkAllRead(_ context.Context, userID ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.byUser[userID]
	for i := range list {
		list[i].Read = true
	}
	return nil
}

func (m *MemoryNotificationStore) Clear(_ context.Context, userID ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range m.byUser[userID] {
		delete(m.owner, n.ID)
	}
	delete(m.byUser, userID)
	return nil
}

func (m *MemoryNotificationStore) Subscribe(ctx context.Context) (<-chan Notification, func(), error) {
	ch := make(chan Notification, subscriberBuffer)

	m.subsMu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = ch
	m.subsMu.Unlock()

	unsubscribe := func() {
		m.subsMu.Lock()
		defer m.subsMu.Unlock()
		if _, ok := m.subs[id]; ok {
			delete(m.subs, id)
			close(ch)
		}
	}

	go func() {
		<-ctx.Done()
		unsubscribe()
	}()

	return ch, unsubscribe, nil
}

// broadcast drops the notification for subscribers whose buffer is full
// rather than blocking the writer.
func (m *MemoryNotificationStore) broadcast(n Notification) {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for _, ch := range m.subs {
		select {
		case ch <- n:
		default:
		}
	}
}

func (m *MemoryNotificationStore) Close() error {
	m.subsMu.Lock()
	defer m.subsMu.Unlock()

	for id, ch := range m.subs {
		delete(m.subs, id)
		close(ch)
	}
	return nil
}
