package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	go_json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	notificationsKeyPrefix      = "notifications:"
	notificationsOrderKeyPrefix = "notifications:order:"
	notificationsOwnerKey       = "notifications:owner"
	notificationsLiveChannel    = "notifications:live"
)

var _ NotificationStore = (*RedisNotificationStore)(nil)

type RedisNotificationStore struct {
	client *redis.Client
}

func NewRedisNotificationStore(cfg RedisConfig) *RedisNotificationStore {
	return &RedisNotificationStore{
		client: cfg.Client,
	}
}

func (s *RedisNotificationStore) notificationsKey(userID ID) string {
	return notificationsKeyPrefix + string(userID)
}

func (s *RedisNotificationStore) orderKey(userID ID) string {
	return notificationsOrderKeyPrefix + string(userID)
}

func (s *RedisNotificationStore) List(ctx context.Context, userID ID) ([]Notification, error) {
	ids, err := s.client.ZRange(ctx, s.orderKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list notification ids: %w", err)
	}
	if len(ids) == 0 {
		return []Notification{}, nil
	}

	values, err := s.client.HMGet(ctx, s.notificationsKey(userID), ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}

	notifications := make([]Notification, 0, len(values))
	for _, v := range values {
		data, ok := v.(string)
		if !ok {
			continue
		}
		var n Notification
		if err := go_json.Unmarshal([]byte(data), &n); err != nil {
			continue
		}
		notifications = append(notifications, n)
	}

	return notifications, nil
}

func (s *RedisNotificationStore) Add(ctx context.Context, n Notification) (Notification, error) {
	now := time.Now()
	if n.ID == "" {
		n.ID = ID(uuid.New().String())
	}
	if n.Timestamp == "" {
		n.Timestamp = NewTimestamp(now)
	}
	if n.Type == "" {
		n.Type = TypeGeneral
	}

	data, err := go_json.Marshal(n)
	if err != nil {
		return Notification{}, fmt.Errorf("failed to marshal notification: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, s.notificationsKey(n.UserID), string(n.ID), string(data))
		pipe.ZAdd(ctx, s.orderKey(n.UserID), redis.Z{
			Score:  float64(now.UnixMilli()),
			Member: string(n.ID),
		})
		pipe.HSet(ctx, notificationsOwnerKey, string(n.ID), string(n.UserID))
		return nil
	})
	if err != nil {
		return Notification{}, fmt.Errorf("failed to add notification: %w", err)
	}

	if err := s.client.Publish(ctx, notificationsLiveChannel, string(data)).Err(); err != nil {
		return Notification{}, fmt.Errorf("failed to publish notification: %w", err)
	}

	return n, nil
}

func (s *RedisNotificationStore) MarkRead(ctx context.Context, id ID) error {
	userID, err := s.client.HGet(ctx, notificationsOwnerKey, string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to resolve notification owner: %w", err)
	}

	key := s.notificationsKey(ID(userID))
	data, err := s.client.HGet(ctx, key, string(id)).Result()
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get notification: %w", err)
	}

	var n Notification
	if err := go_json.Unmarshal([]byte(data), &n); err != nil {
		return fmt.Errorf("failed to unmarshal notification: %w", err)
	}
	n.Read = true

	updated, err := go_json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	if err := s.client.HSet(ctx, key, string(id), string(updated)).Err(); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

func (s *RedisNotificationStore) MarkAllRead(ctx context.Context, userID ID) error {
	key := s.notificationsKey(userID)
	all, err := s.client.HGetAll(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to get notifications: %w", err)
	}
	if len(all) == 0 {
		return nil
	}

	values := make([]any, 0, len(all)*2)
	for id, data := range all {
		var n Notification
		if err := go_json.Unmarshal([]byte(data), &n); err != nil {
			continue
		}
		n.Read = true
		updated, err := go_json.Marshal(n)
		if err != nil {
			return fmt.Errorf("failed to marshal notification: %w", err)
		}
		values = append(values, id, string(updated))
	}

	if err := s.client.HSet(ctx, key, values...).Err(); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

func (s *RedisNotificationStore) Clear(ctx context.Context, userID ID) error {
	key := s.notificationsKey(userID)
	ids, err := s.client.HKeys(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("failed to list notification ids: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(ids) > 0 {
			pipe.HDel(ctx, notificationsOwnerKey, ids...)
		}
		pipe.Del(ctx, key, s.orderKey(userID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear notifications: %w", err)
	}
	return nil
}

func (s *RedisNotificationStore) Subscribe(ctx context.Context) (<-chan Notification, func(), error) {
	pubsub := s.client.Subscribe(ctx, notificationsLiveChannel)

	_, err := pubsub.Receive(ctx)
	if err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe: %w", err)
	}

	notifCh := make(chan Notification)

	go func() {
		defer close(notifCh)
		ch := pubsub.Channel()

		for msg := range ch {
			var n Notification
			if err := go_json.Unmarshal([]byte(msg.Payload), &n); err != nil {
				continue
			}

			select {
			case notifCh <- n:
			case <-ctx.Done():
				return
			}
		}
	}()

	unsubscribe := func() {
		_ = pubsub.Close()
	}

	return notifCh, unsubscribe, nil
}

func (s *RedisNotificationStore) Close() error {
	return s.client.Close()
}
