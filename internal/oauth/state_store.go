package oauth

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"entrabridge/pkg/logging"
)

const (
	// DefaultStateExpiry is how long a user has to finish signing in.
	DefaultStateExpiry = 10 * time.Minute

	stateCleanupInterval = time.Minute
	stateNonceBytes      = 32
)

// StateStore provides thread-safe storage for OAuth state parameters.
// State parameters link Entra callbacks to the authorization request that
// started them and provide CSRF protection. Each state can be used once.
type StateStore struct {
	mu     sync.Mutex
	states map[string]*AuthState

	clock       clock.WithTicker
	stateExpiry time.Duration

	stopOnce    sync.Once
	stopCleanup chan struct{}
}

// NewStateStore creates a state store with the default expiry on the real clock.
func NewStateStore() *StateStore {
	return NewStateStoreWithClock(clock.RealClock{}, DefaultStateExpiry)
}

// NewStateStoreWithClock creates a state store on the given clock.
func NewStateStoreWithClock(clk clock.WithTicker, expiry time.Duration) *StateStore {
	if expiry <= 0 {
		expiry = DefaultStateExpiry
	}
	ss := &StateStore{
		states:      make(map[string]*AuthState),
		clock:       clk,
		stateExpiry: expiry,
		stopCleanup: make(chan struct{}),
	}

	ticker := clk.NewTicker(stateCleanupInterval)
	go ss.cleanupLoop(ticker)

	return ss
}

// GenerateState creates and remembers a new state for a flow started at
// entryPath with the given PKCE verifier. It returns the state parameter.
func (ss *StateStore) GenerateState(entryPath, codeVerifier string) (string, error) {
	nonce := make([]byte, stateNonceBytes)
	if _, err := rand.Read(nonce); err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	state := &AuthState{
		Nonce:        base64.RawURLEncoding.EncodeToString(nonce),
		CreatedAt:    ss.clock.Now(),
		EntryPath:    entryPath,
		CodeVerifier: codeVerifier,
	}

	ss.mu.Lock()
	ss.states[state.Nonce] = state
	ss.mu.Unlock()

	logging.Debug("OAuth", "Generated state for flow started at %s", entryPath)
	return state.Nonce, nil
}

// ValidateState consumes the state parameter from a callback.
// Returns the stored state if it is known and not expired, nil otherwise.
// A state is removed on first use, valid or not.
func (ss *StateStore) ValidateState(nonce string) *AuthState {
	ss.mu.Lock()
	state, exists := ss.states[nonce]
	delete(ss.states, nonce)
	ss.mu.Unlock()

	if !exists {
		logging.Warn("OAuth", "State not found in store")
		return nil
	}

	if age := ss.clock.Since(state.CreatedAt); age > ss.stateExpiry {
		logging.Warn("OAuth", "State expired: age=%v", age)
		return nil
	}

	return state
}

// Count returns the number of pending states.
func (ss *StateStore) Count() int {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return len(ss.states)
}

// Stop stops the background cleanup goroutine. It is safe to call more than once.
func (ss *StateStore) Stop() {
	ss.stopOnce.Do(func() {
		close(ss.stopCleanup)
	})
}

// cleanupLoop periodically removes expired states from the store.
func (ss *StateStore) cleanupLoop(ticker clock.Ticker) {
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			ss.cleanup()
		case <-ss.stopCleanup:
			return
		}
	}
}

// cleanup removes all expired states from the store.
func (ss *StateStore) cleanup() {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	count := 0
	for nonce, state := range ss.states {
		if ss.clock.Since(state.CreatedAt) > ss.stateExpiry {
			delete(ss.states, nonce)
			count++
		}
	}

	if count > 0 {
		logging.Debug("OAuth", "Cleaned up %d expired states", count)
	}
}
