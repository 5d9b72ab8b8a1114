package listener

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/garrettladley/bellhop/internal/xslog"
)

// Registry holds callbacks keyed by an opaque handle. Registering the same
// function twice yields two independent entries; each is removed only by its
// own unsubscribe func.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[uint64]func(T)
	nextID  uint64
	logger  *slog.Logger
}

func NewRegistry[T any](logger *slog.Logger) *Registry[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry[T]{
		entries: make(map[uint64]func(T)),
		logger:  logger,
	}
}

// Add registers fn and returns a func that removes it. Calling the returned
// func more than once has no further effect; once it returns, fn is not
// invoked by any subsequent Notify.
func (r *Registry[T]) Add(fn func(T)) func() {
	r.mu.Lock()
	id := r.nextID
	r.nextID++
	r.entries[id] = fn
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		delete(r.entries, id)
		r.mu.Unlock()
	}
}

func (r *Registry[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Notify calls every registered callback in registration order. A panicking
// callback is logged and does not prevent delivery to the rest.
func (r *Registry[T]) Notify(v T) {
	for _, id := range r.ids() {
		r.mu.RLock()
		fn, ok := r.entries[id]
		r.mu.RUnlock()
		if !ok {
			continue
		}
		r.call(fn, v)
	}
}

func (r *Registry[T]) ids() []uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]uint64, 0, len(r.entries))
	for id := range r.entries {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (r *Registry[T]) call(fn func(T), v T) {
	defer func() {
		if err := recover(); err != nil {
			r.logger.ErrorContext(context.Background(), "listener panicked",
				xslog.ErrorGroupWithStack(err),
			)
		}
	}()
	fn(v)
}
