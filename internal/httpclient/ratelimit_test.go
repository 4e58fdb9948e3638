package httpclient

import (
	"context"
	"testing"
	"time"
)

func TestRateLimiterWaitRespectsContext(t *testing.T) {
	rl := NewRateLimiter(1, 0, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := rl.Wait(ctx); err == nil {
		t.Fatal("expected cancelled context to return an error")
	}
}

func TestRateLimiterJitterStaysInRange(t *testing.T) {
	rl := NewRateLimiter(1000, 10*time.Millisecond, 20*time.Millisecond)

	start := time.Now()
	if err := rl.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	elapsed := time.Since(start)
	if elapsed < 10*time.Millisecond {
		t.Errorf("expected at least 10ms delay, got %v", elapsed)
	}
}
