package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestAllowConsumesTokens(t *testing.T) {
	l := New()

	for i := 0; i < 3; i++ {
		if !l.Allow("yahoo", 3, 0) {
			t.Fatalf("call %d should be allowed", i)
		}
	}
	if l.Allow("yahoo", 3, 0) {
		t.Fatal("bucket should be empty")
	}
}

func TestAllowIsPerKey(t *testing.T) {
	l := New()

	if !l.Allow("yahoo", 1, 0) {
		t.Fatal("yahoo should be allowed")
	}
	if !l.Allow("finnhub", 1, 0) {
		t.Fatal("finnhub has its own bucket")
	}
	if l.Allow("yahoo", 1, 0) {
		t.Fatal("yahoo bucket should be empty")
	}
}

func TestAllowRefills(t *testing.T) {
	l := New()

	if !l.Allow("k", 1, 100) {
		t.Fatal("first call should be allowed")
	}
	if l.Allow("k", 1, 100) {
		t.Fatal("bucket should be empty immediately after")
	}

	time.Sleep(30 * time.Millisecond)
	if !l.Allow("k", 1, 100) {
		t.Fatal("bucket should have refilled")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New()
	l.Allow("k", 1, 0)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := l.Wait(ctx, "k", 1, 0); err == nil {
		t.Fatal("Wait should fail when no refill and ctx expires")
	}
}
