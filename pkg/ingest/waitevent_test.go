package ingest

import (
	"context"
	"testing"
	"time"
)

func TestWaitForImmediate(t *testing.T) {
	got, err := WaitFor(context.Background(), 3, time.Millisecond, func(context.Context) (string, bool) {
		return "hit", true
	})
	if err != nil || got != "hit" {
		t.Fatalf("WaitFor = %q, %v", got, err)
	}
}

func TestWaitForEventuallySucceeds(t *testing.T) {
	n := 0
	got, err := WaitFor(context.Background(), 5, time.Millisecond, func(context.Context) (int, bool) {
		n++
		return n, n == 3
	})
	if err != nil || got != 3 {
		t.Fatalf("WaitFor = %d, %v", got, err)
	}
}

func TestWaitForExhaustsAttempts(t *testing.T) {
	calls := 0
	_, err := WaitFor(context.Background(), 4, time.Millisecond, func(context.Context) (int, bool) {
		calls++
		return 0, false
	})
	if err == nil {
		t.Fatalf("expected exhaustion error")
	}
	if calls != 4 {
		t.Fatalf("fetch called %d times, want 4", calls)
	}
}

func TestWaitForContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := WaitFor(ctx, 10, 50*time.Millisecond, func(context.Context) (int, bool) {
		return 0, false
	})
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
