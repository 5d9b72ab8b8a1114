package server

import (
	"context"
	"testing"
	"time"
)

func TestShutdownCoordinatorDrain(t *testing.T) {
	t.Parallel()

	parent, cancelParent := context.WithCancel(context.Background())
	sc := NewShutdownCoordinator(parent, time.Hour)

	cancelParent()
	if err := sc.Context().Err(); err != nil {
		t.Fatalf("shared context ended with its parent: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	sc.Drain(ctx)

	if sc.BaseContext(nil).Err() == nil {
		t.Error("shared context still live after Drain")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Drain ignored its context: took %v", elapsed)
	}
}
