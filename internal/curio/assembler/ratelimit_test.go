package assembler

import (
	"testing"
	"time"
)

func TestRateLimiter_AllowsUpToLimit(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !rl.Allow("!room:alice") {
			t.Fatalf("Allow returned false on call %d/3", i+1)
		}
	}
	if rl.Allow("!room:alice") {
		t.Error("Allow returned true after the limit was exhausted")
	}
	if !rl.Allow("!room:bob") {
		t.Error("keys must be independent")
	}
}

func TestRateLimiter_WindowExpiry(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(1, time.Minute)
	rl.now = func() time.Time { return now }

	if !rl.Allow("k") {
		t.Fatal("first call should be allowed")
	}
	if rl.Remaining("k") != 0 {
		t.Errorf("Remaining: got %d, want 0", rl.Remaining("k"))
	}
	now = now.Add(61 * time.Second)
	if rl.Remaining("k") != 1 {
		t.Errorf("Remaining after window: got %d, want 1", rl.Remaining("k"))
	}
	if !rl.Allow("k") {
		t.Error("call after window expiry should be allowed")
	}
}

func TestRateLimiter_Defaults(t *testing.T) {
	rl := NewRateLimiter(0, 0)
	if rl.limit != DefaultRateLimit || rl.window != defaultRateLimitWindow {
		t.Errorf("defaults not applied: limit=%d window=%v", rl.limit, rl.window)
	}
}
