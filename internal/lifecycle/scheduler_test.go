package lifecycle

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestTrigger_RunsOnceAndSkipsIfAlreadyRunning(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	s := NewScheduler(func(ctx context.Context) error {
		atomic.AddInt32(&calls, 1)
		<-release
		return nil
	})

	done := make(chan bool, 1)
	go func() { done <- s.Trigger(context.Background()) }()

	// Give the first trigger time to set running=true before the second.
	time.Sleep(20 * time.Millisecond)
	if ok := s.Trigger(context.Background()); ok {
		t.Errorf("expected second concurrent trigger to be skipped")
	}

	close(release)
	if !<-done {
		t.Errorf("expected first trigger to succeed")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected exactly 1 call, got %d", calls)
	}
}

func TestTrigger_ReturnsFalseOnError(t *testing.T) {
	s := NewScheduler(func(ctx context.Context) error { return context.DeadlineExceeded })
	if s.Trigger(context.Background()) {
		t.Errorf("expected Trigger to return false on cycle error")
	}
}
