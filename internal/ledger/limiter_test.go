package ledger

import (
	"context"
	"testing"
	"time"
)

func TestLimiter_SpacesCalls(t *testing.T) {
	clock := time.Unix(1000, 0)
	var slept []time.Duration
	l := NewLimiter(time.Second)
	l.now = func() time.Time { return clock }
	l.sleep = func(_ context.Context, d time.Duration) error {
		slept = append(slept, d)
		clock = clock.Add(d)
		return nil
	}

	ctx := context.Background()
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	if len(slept) != 0 {
		t.Fatalf("first wait must not sleep, slept %v", slept)
	}

	// Immediate second call sleeps the full interval.
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("second wait: %v", err)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected one full-interval sleep, got %v", slept)
	}

	// A call after a partial gap sleeps the remainder.
	clock = clock.Add(400 * time.Millisecond)
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("third wait: %v", err)
	}
	if len(slept) != 2 || slept[1] != 600*time.Millisecond {
		t.Fatalf("expected 600ms remainder sleep, got %v", slept)
	}
}

func TestLimiter_CancelledContext(t *testing.T) {
	l := NewLimiter(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	if err := l.Wait(ctx); err != nil {
		t.Fatalf("first wait: %v", err)
	}
	cancel()
	if err := l.Wait(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}
