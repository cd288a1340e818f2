package utils

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterPacing(t *testing.T) {
	// 600 req/min = 100ms interval.
	rl := NewRateLimiter(600, 0, 1)

	const n = 4
	start := time.Now()
	for i := 0; i < n; i++ {
		if err := rl.WaitForSlot(context.Background()); err != nil {
			t.Fatalf("WaitForSlot: %v", err)
		}
		rl.Release()
	}
	elapsed := time.Since(start)

	min := time.Duration(n-1) * 100 * time.Millisecond
	if elapsed < min {
		t.Errorf("%d slots issued in %v; want >= %v", n, elapsed, min)
	}
}

func TestRateLimiterDelayFloor(t *testing.T) {
	// Generous rpm but a 150ms delay floor: the floor wins.
	rl := NewRateLimiter(6000, 150*time.Millisecond, 1)

	start := time.Now()
	for i := 0; i < 3; i++ {
		if err := rl.WaitForSlot(context.Background()); err != nil {
			t.Fatalf("WaitForSlot: %v", err)
		}
		rl.Release()
	}
	if elapsed := time.Since(start); elapsed < 300*time.Millisecond {
		t.Errorf("3 slots in %v; want >= 300ms", elapsed)
	}
}

func TestRateLimiterConcurrencyCeiling(t *testing.T) {
	rl := NewRateLimiter(60000, 0, 1)

	if err := rl.WaitForSlot(context.Background()); err != nil {
		t.Fatalf("WaitForSlot: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := rl.WaitForSlot(ctx); err == nil {
		t.Error("second WaitForSlot should block until Release and fail on ctx timeout")
	}

	rl.Release()
	if err := rl.WaitForSlot(context.Background()); err != nil {
		t.Errorf("WaitForSlot after Release: %v", err)
	}
	rl.Release()
}

func TestRateLimiterCancelledContext(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute, 1)

	if err := rl.WaitForSlot(context.Background()); err != nil {
		t.Fatalf("first WaitForSlot: %v", err)
	}
	rl.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rl.WaitForSlot(ctx); err == nil {
		t.Error("WaitForSlot with cancelled context should fail")
	}
}
