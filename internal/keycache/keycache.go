// Package keycache holds unwrapped data keys in memory for a bounded time so
// repeated decryption under the same wrapped key avoids a KMS round trip.
//
// The cache is advisory, never authoritative: losing an entry only costs the
// caller another key-service decrypt. Entries expire by wall clock and are
// never served past their deadline, regardless of sweep timing.
package keycache

import (
	"sync"
	"time"
)

type entry struct {
	key       []byte
	expiresAt time.Time
}

// Cache is a concurrency-safe fingerprint -> plaintext-key map with per-entry
// expiry. The cache exclusively owns the key bytes it stores; Get hands out
// copies and eviction zeroes the originals.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	ttl     time.Duration
	now     func() time.Time

	sweepOnce sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// New returns a cache whose entries live for ttl. The now function supplies
// the clock; pass time.Now outside of tests.
func New(ttl time.Duration, now func() time.Time) *Cache {
	if now == nil {
		now = time.Now
	}
	return &Cache{
		entries: make(map[string]entry),
		ttl:     ttl,
		now:     now,
	}
}

// Get returns a copy of the cached key for fingerprint, or false if the entry
// is absent or already expired. Expired entries are treated as misses even
// when still physically present.
func (c *Cache) Get(fingerprint string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[fingerprint]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	key := make([]byte, len(e.key))
	copy(key, e.key)
	return key, true
}

// Put inserts or overwrites the entry for fingerprint with a fresh deadline.
// A racing Put from a concurrent decrypt of the same wrapped key is an
// idempotent overwrite.
func (c *Cache) Put(fingerprint string, key []byte) {
	stored := make([]byte, len(key))
	copy(stored, key)
	c.mu.Lock()
	defer c.mu.Unlock()
	if old, ok := c.entries[fingerprint]; ok {
		zero(old.key)
	}
	c.entries[fingerprint] = entry{key: stored, expiresAt: c.now().Add(c.ttl)}
}

// Sweep removes every expired entry and returns how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for fp, e := range c.entries {
		if !now.Before(e.expiresAt) {
			zero(e.key)
			delete(c.entries, fp)
			removed++
		}
	}
	return removed
}

// Clear drops all entries immediately. Used for key rotation and test
// teardown.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for fp, e := range c.entries {
		zero(e.key)
		delete(c.entries, fp)
	}
}

// Len returns the number of entries currently held, expired or not.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeping launches a background goroutine that calls Sweep every
// interval until Stop is called. Subsequent calls are no-ops.
func (c *Cache) StartSweeping(interval time.Duration) {
	if interval <= 0 {
		return
	}
	c.sweepOnce.Do(func() {
		c.stop = make(chan struct{})
		c.done = make(chan struct{})
		go func() {
			defer close(c.done)
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c.Sweep()
				case <-c.stop:
					return
				}
			}
		}()
	})
}

// Stop terminates the background sweeper, if one was started, and waits for
// it to exit.
func (c *Cache) Stop() {
	if c.stop == nil {
		return
	}
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	<-c.done
}

// zero overwrites key material before an entry is dropped. Best effort: the
// runtime may have made copies the cache cannot reach.
func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
