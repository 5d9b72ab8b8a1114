package storage

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

var ErrNotFound = errors.New("notification not found")

type RedisConfig struct {
	Client *redis.Client
}

// NotificationStore is the durable side of the notification system: the
// backend persists notifications per user and broadcasts new ones to every
// connected push subscriber.
type NotificationStore interface {
	// List returns a user's notifications ordered by timestamp, oldest first.
	List(ctx context.Context, userID ID) ([]Notification, error)

	// Add persists n, assigning an id and timestamp when missing, and
	// broadcasts it to subscribers.
	Add(ctx context.Context, n Notification) (Notification, error)

	// MarkRead returns ErrNotFound if no notification has the given id.
	MarkRead(ctx context.Context, id ID) error

	MarkAllRead(ctx context.Context, userID ID) error

	Clear(ctx context.Context, userID ID) error

	// Subscribe returns a channel receiving every broadcast notification,
	// regardless of owner. The returned function unsubscribes.
	Subscribe(ctx context.Context) (<-chan Notification, func(), error)

	Close() error
}
