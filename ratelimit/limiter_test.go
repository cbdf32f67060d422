package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestAllow_Unlimited(t *testing.T) {
	l := New()
	for i := 0; i < 100; i++ {
		if !l.Allow("brand-1", 0) {
			t.Fatal("Allow(0) should always return true")
		}
	}
}

func TestAllow_RateLimited(t *testing.T) {
	l := New()

	// Bucket starts full with one second of tokens.
	if !l.Allow("brand-limited", 2) || !l.Allow("brand-limited", 2) {
		t.Fatal("first two calls should be allowed")
	}
	if l.Allow("brand-limited", 2) {
		t.Fatal("third call should be denied")
	}
}

func TestAllow_Refills(t *testing.T) {
	l := New()
	for i := 0; i < 10; i++ {
		l.Allow("brand-refill", 10)
	}
	if l.Allow("brand-refill", 10) {
		t.Fatal("should be denied after exhausting bucket")
	}

	time.Sleep(150 * time.Millisecond)

	if !l.Allow("brand-refill", 10) {
		t.Fatal("should be allowed after refill")
	}
}

func TestAllow_PerBrand(t *testing.T) {
	l := New()
	l.Allow("brand-a", 1)
	if l.Allow("brand-a", 1) {
		t.Fatal("brand-a should be exhausted")
	}
	if !l.Allow("brand-b", 1) {
		t.Fatal("brand-b has its own bucket")
	}
}

func TestAllow_RateChange(t *testing.T) {
	l := New()
	l.Allow("brand-a", 1)
	if l.Allow("brand-a", 1) {
		t.Fatal("should be exhausted at 1/s")
	}

	time.Sleep(50 * time.Millisecond)
	l.Allow("brand-a", 100)
	time.Sleep(50 * time.Millisecond)
	if !l.Allow("brand-a", 100) {
		t.Fatal("raised rate should refill faster")
	}
}

func TestWait_Unlimited(t *testing.T) {
	l := New()
	if err := l.Wait(context.Background(), "brand-1", 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWait_Blocks(t *testing.T) {
	l := New()
	l.Allow("brand-wait", 10)
	for i := 0; i < 9; i++ {
		l.Allow("brand-wait", 10)
	}

	start := time.Now()
	if err := l.Wait(context.Background(), "brand-wait", 10); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Wait should have blocked for roughly one token interval")
	}
}

func TestWait_ContextCancelled(t *testing.T) {
	l := New()
	l.Allow("brand-cancel", 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := l.Wait(ctx, "brand-cancel", 1); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestReset(t *testing.T) {
	l := New()
	l.Allow("brand-reset", 1)
	if l.Allow("brand-reset", 1) {
		t.Fatal("should be exhausted")
	}

	l.Reset("brand-reset")

	if !l.Allow("brand-reset", 1) {
		t.Fatal("reset should restore a full bucket")
	}
}

func TestConcurrentAccess(t *testing.T) {
	l := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.Allow("brand-concurrent", 100)
		}()
	}
	wg.Wait()
}
