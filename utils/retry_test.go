package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestRetrierSucceedsAfterTransientFailure(t *testing.T) {
	r := &Retrier{MaxAttempts: 3, BaseDelay: time.Millisecond, Logger: NewLogger(false)}

	calls := 0
	err := r.Do(context.Background(), "flaky", func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d; want 3", calls)
	}
}

func TestRetrierExhaustsAttempts(t *testing.T) {
	r := &Retrier{MaxAttempts: 2, BaseDelay: time.Millisecond, Logger: NewLogger(false)}

	sentinel := errors.New("permanent")
	err := r.Do(context.Background(), "doomed", func() error { return sentinel })
	if !errors.Is(err, sentinel) {
		t.Errorf("err = %v; want wrapped %v", err, sentinel)
	}
}

func TestRetrierHonorsContext(t *testing.T) {
	r := &Retrier{MaxAttempts: 5, BaseDelay: time.Minute, Logger: NewLogger(false)}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	err := r.Do(ctx, "slow", func() error {
		calls++
		return errors.New("fail")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v; want context.Canceled", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d; want 1 (cancelled during back-off)", calls)
	}
}
