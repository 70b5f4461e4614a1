package credcache

import (
	"sort"
	"sync"
	"time"

	"k8s.io/utils/clock"

	"entrabridge/internal/metrics"
	"entrabridge/pkg/logging"
	pkgstrings "entrabridge/pkg/strings"
)

const (
	// DefaultTTL is how long a stored credential stays valid.
	DefaultTTL = time.Hour

	// DefaultSweepInterval is how often expired credentials are removed in the background.
	DefaultSweepInterval = 5 * time.Minute
)

// Decoder derives the owner identity from a secondary token.
// identity.ClaimsDecoder is the production implementation.
type Decoder interface {
	Decode(token string) (string, error)
}

// DecoderFunc adapts a plain function to the Decoder interface.
type DecoderFunc func(token string) (string, error)

// Decode calls f(token).
func (f DecoderFunc) Decode(token string) (string, error) {
	return f(token)
}

// Options configures a Cache. Zero values select the defaults.
type Options struct {
	TTL           time.Duration
	SweepInterval time.Duration

	// Clock is the time source. Tests pass a fake clock to control both
	// expiry and the sweep ticker.
	Clock clock.WithTicker

	// Verbose enables debug logging of which identities hold a credential.
	// Token values are never logged.
	Verbose bool

	Metrics *metrics.Cache
}

// entry is immutable once stored.
type entry struct {
	token     string
	expiresAt time.Time
	identity  string
}

// Cache holds one short-lived secondary credential per user identity.
//
// Expired entries are never returned: Get and Has remove an entry as soon as
// they observe it expired, and a background sweep removes expired entries
// nobody asks for again. The sweep only bounds memory; correctness does not
// depend on it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry

	decoder       Decoder
	ttl           time.Duration
	sweepInterval time.Duration
	clock         clock.WithTicker
	verbose       bool
	metrics       *metrics.Cache

	stopOnce    sync.Once
	stopCleanup chan struct{}
	done        chan struct{}
}

// New creates a cache and starts its background sweep.
// Call Stop to release the sweep goroutine.
func New(decoder Decoder, opts Options) *Cache {
	c := &Cache{
		entries:       make(map[string]*entry),
		decoder:       decoder,
		ttl:           opts.TTL,
		sweepInterval: opts.SweepInterval,
		clock:         opts.Clock,
		verbose:       opts.Verbose,
		metrics:       opts.Metrics,
		stopCleanup:   make(chan struct{}),
		done:          make(chan struct{}),
	}
	if c.ttl <= 0 {
		c.ttl = DefaultTTL
	}
	if c.sweepInterval <= 0 {
		c.sweepInterval = DefaultSweepInterval
	}
	if c.clock == nil {
		c.clock = clock.RealClock{}
	}

	// Created here rather than in the goroutine so a fake clock has a waiter
	// registered by the time New returns.
	ticker := c.clock.NewTicker(c.sweepInterval)
	go c.sweepLoop(ticker)

	return c
}

// TTL returns the lifetime given to every stored credential.
func (c *Cache) TTL() time.Duration {
	return c.ttl
}

// Store derives the owner identity from rawToken and stores the token under it,
// replacing any earlier credential for the same identity. It returns the identity.
//
// If no identity can be derived an *IdentityResolutionError is returned and the
// cache is left unchanged.
func (c *Cache) Store(rawToken string) (string, error) {
	identity, err := c.decoder.Decode(rawToken)
	if err == nil && identity == "" {
		err = &IdentityResolutionError{}
	}
	if err != nil {
		c.metrics.ObserveStore(metrics.StoreIdentityError)
		c.debugf("Failed to store credential: %v", err)
		if IsIdentityResolutionError(err) {
			return "", err
		}
		return "", &IdentityResolutionError{Err: err}
	}

	c.mu.Lock()
	c.entries[identity] = &entry{
		token:     rawToken,
		expiresAt: c.clock.Now().Add(c.ttl),
		identity:  identity,
	}
	n := len(c.entries)
	c.mu.Unlock()

	c.metrics.ObserveStore(metrics.StoreOK)
	c.metrics.SetEntries(n)
	c.debugf("Stored credential for %s (entries=%d)", pkgstrings.MaskIdentity(identity), n)
	if c.verbose {
		ids := c.Identities()
		for i, id := range ids {
			ids[i] = pkgstrings.MaskIdentity(id)
		}
		c.debugf("Current identities: %v", ids)
	}

	return identity, nil
}

// Get returns the credential stored for identity. It returns false when no
// credential exists or the stored one has expired; an expired credential is
// removed as a side effect. Reading never extends the TTL.
func (c *Cache) Get(identity string) (string, bool) {
	e, ok := c.lookup(identity)
	if !ok {
		return "", false
	}
	return e.token, true
}

// Has reports whether a valid credential exists for identity without returning it.
// It applies the same policy as Get, including eviction of an expired entry.
func (c *Cache) Has(identity string) bool {
	_, ok := c.lookup(identity)
	return ok
}

func (c *Cache) lookup(identity string) (*entry, bool) {
	c.mu.Lock()
	e, exists := c.entries[identity]
	if !exists {
		c.mu.Unlock()
		c.metrics.ObserveLookup(metrics.LookupMiss)
		c.debugf("No credential for %s", pkgstrings.MaskIdentity(identity))
		return nil, false
	}

	if !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, identity)
		n := len(c.entries)
		c.mu.Unlock()
		c.metrics.ObserveLookup(metrics.LookupExpired)
		c.metrics.SetEntries(n)
		c.debugf("Credential expired for %s", pkgstrings.MaskIdentity(identity))
		return nil, false
	}
	c.mu.Unlock()

	c.metrics.ObserveLookup(metrics.LookupHit)
	return e, true
}

// Sweep removes every expired credential and returns how many were removed.
// The lock is held for the whole pass, so a credential stored concurrently is
// either seen with its fresh expiry or inserted after the pass; it is never
// removed by this sweep.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	now := c.clock.Now()
	removed := 0
	for identity, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, identity)
			removed++
		}
	}
	n := len(c.entries)
	c.mu.Unlock()

	if removed > 0 {
		c.metrics.ObserveSwept(removed)
		c.metrics.SetEntries(n)
		c.debugf("Cleaned up %d expired credentials", removed)
	}
	return removed
}

// Len returns the number of entries currently held, including expired ones
// that have not been removed yet.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Identities returns the sorted identities currently held.
func (c *Cache) Identities() []string {
	c.mu.Lock()
	ids := make([]string, 0, len(c.entries))
	for identity := range c.entries {
		ids = append(ids, identity)
	}
	c.mu.Unlock()

	sort.Strings(ids)
	return ids
}

// Stop stops the background sweep and waits for it to exit.
// It is safe to call more than once.
func (c *Cache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
	<-c.done
}

func (c *Cache) sweepLoop(ticker clock.Ticker) {
	defer close(c.done)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C():
			c.Sweep()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *Cache) debugf(format string, args ...interface{}) {
	if !c.verbose {
		return
	}
	logging.Debug("CredentialCache", format, args...)
}
