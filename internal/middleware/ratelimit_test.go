package middleware

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToMax(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    5,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})

	for i := 0; i < 5; i++ {
		if !rl.Allow("test-ip") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
}

func TestRateLimiter_BlocksAfterMax(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    3,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})

	for i := 0; i < 3; i++ {
		rl.Allow("test-ip")
	}

	if rl.Allow("test-ip") {
		t.Fatal("4th request should be blocked")
	}
}

func TestRateLimiter_DifferentKeysIndependent(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    2,
		Window: time.Minute,
		KeyFn:  KeyByIP,
	})

	rl.Allow("ip-a")
	rl.Allow("ip-a")

	// ip-a is exhausted
	if rl.Allow("ip-a") {
		t.Fatal("ip-a should be blocked")
	}

	// ip-b should still be allowed
	if !rl.Allow("ip-b") {
		t.Fatal("ip-b should be allowed (independent key)")
	}
}

func TestRateLimiter_WindowResets(t *testing.T) {
	rl := NewRateLimiter(RateLimitConfig{
		Max:    2,
		Window: 50 * time.Millisecond,
		KeyFn:  KeyByIP,
	})

	rl.Allow("test")
	rl.Allow("test")

	if rl.Allow("test") {
		t.Fatal("should be blocked within window")
	}

	// Wait for window to expire
	time.Sleep(60 * time.Millisecond)

	if !rl.Allow("test") {
		t.Fatal("should be allowed after window reset")
	}
}

func TestRateLimiter_RefreshConfig(t *testing.T) {
	rl := NewRefreshRateLimiter()
	for i := 0; i < 2; i++ {
		if !rl.Allow("user:alice@example.com") {
			t.Fatalf("refresh request %d should be allowed (max 2)", i+1)
		}
	}
	if rl.Allow("user:alice@example.com") {
		t.Fatal("3rd forced refresh should be blocked")
	}
}

func TestRateLimiter_SubscriptionsConfig(t *testing.T) {
	rl := NewSubscriptionsRateLimiter()
	for i := 0; i < 30; i++ {
		if !rl.Allow("user:alice@example.com") {
			t.Fatalf("subscriptions request %d should be allowed (max 30)", i+1)
		}
	}
	if rl.Allow("user:alice@example.com") {
		t.Fatal("31st subscriptions request should be blocked")
	}
}

func TestRateLimiter_ExportConfig(t *testing.T) {
	rl := NewExportRateLimiter()
	for i := 0; i < 5; i++ {
		if !rl.Allow("user:alice@example.com") {
			t.Fatalf("export request %d should be allowed (max 5)", i+1)
		}
	}
	if rl.Allow("user:alice@example.com") {
		t.Fatal("6th export should be blocked (max 5/hour)")
	}
}
