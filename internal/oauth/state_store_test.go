package oauth

import (
	"sync"
	"testing"
	"time"

	testingclock "k8s.io/utils/clock/testing"
)

func newFakeStateStore(t *testing.T) (*StateStore, *testingclock.FakeClock) {
	t.Helper()
	fakeClock := testingclock.NewFakeClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	ss := NewStateStoreWithClock(fakeClock, DefaultStateExpiry)
	t.Cleanup(ss.Stop)
	return ss, fakeClock
}

func TestStateStore_GenerateAndValidate(t *testing.T) {
	ss, _ := newFakeStateStore(t)

	nonce, err := ss.GenerateState("/auth", "test-code-verifier-abc123")
	if err != nil {
		t.Fatalf("Failed to generate state: %v", err)
	}
	if nonce == "" {
		t.Fatal("Expected non-empty nonce")
	}

	state := ss.ValidateState(nonce)
	if state == nil {
		t.Fatal("Expected valid state, got nil")
	}
	if state.EntryPath != "/auth" {
		t.Errorf("Expected entry path %q, got %q", "/auth", state.EntryPath)
	}
	if state.CodeVerifier != "test-code-verifier-abc123" {
		t.Errorf("Expected code verifier to be preserved, got %q", state.CodeVerifier)
	}
}

func TestStateStore_SingleUse(t *testing.T) {
	ss, _ := newFakeStateStore(t)

	nonce, err := ss.GenerateState("/auth", "")
	if err != nil {
		t.Fatalf("Failed to generate state: %v", err)
	}

	if ss.ValidateState(nonce) == nil {
		t.Fatal("Expected first validation to succeed")
	}
	if ss.ValidateState(nonce) != nil {
		t.Error("Expected second validation of the same state to fail")
	}
	if ss.Count() != 0 {
		t.Errorf("Expected empty store, got %d states", ss.Count())
	}
}

func TestStateStore_UnknownState(t *testing.T) {
	ss, _ := newFakeStateStore(t)

	if ss.ValidateState("not-a-known-state") != nil {
		t.Error("Expected nil for unknown state")
	}
	if ss.ValidateState("") != nil {
		t.Error("Expected nil for empty state")
	}
}

func TestStateStore_Expiry(t *testing.T) {
	ss, fakeClock := newFakeStateStore(t)

	nonce, err := ss.GenerateState("/github-redirect", "")
	if err != nil {
		t.Fatalf("Failed to generate state: %v", err)
	}

	fakeClock.Step(DefaultStateExpiry + time.Second)

	if ss.ValidateState(nonce) != nil {
		t.Error("Expected expired state to be rejected")
	}
	if ss.Count() != 0 {
		t.Error("Expected expired state to be removed on validation")
	}
}

func TestStateStore_Cleanup(t *testing.T) {
	ss, fakeClock := newFakeStateStore(t)

	old, _ := ss.GenerateState("/auth", "")
	fakeClock.SetTime(fakeClock.Now().Add(DefaultStateExpiry + time.Second))
	fresh, _ := ss.GenerateState("/auth", "")

	ss.cleanup()

	if ss.Count() != 1 {
		t.Fatalf("Expected 1 state after cleanup, got %d", ss.Count())
	}
	if ss.ValidateState(old) != nil {
		t.Error("Expected old state to be cleaned up")
	}
	if ss.ValidateState(fresh) == nil {
		t.Error("Expected fresh state to survive cleanup")
	}
}

func TestStateStore_UniqueNonces(t *testing.T) {
	ss, _ := newFakeStateStore(t)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		nonce, err := ss.GenerateState("/auth", "")
		if err != nil {
			t.Fatalf("Failed to generate state: %v", err)
		}
		if seen[nonce] {
			t.Fatalf("Duplicate nonce generated: %s", nonce)
		}
		seen[nonce] = true
	}
}

func TestStateStore_Concurrent(t *testing.T) {
	ss, _ := newFakeStateStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			nonce, err := ss.GenerateState("/auth", "v")
			if err != nil {
				t.Errorf("Failed to generate state: %v", err)
				return
			}
			if ss.ValidateState(nonce) == nil {
				t.Errorf("Expected state %s to validate", nonce)
			}
		}()
	}
	wg.Wait()

	if ss.Count() != 0 {
		t.Errorf("Expected all states consumed, got %d", ss.Count())
	}
}

func TestStateStore_StopIsIdempotent(t *testing.T) {
	ss := NewStateStore()
	ss.Stop()
	ss.Stop()
}
