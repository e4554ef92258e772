package phicrypt

import (
	"log/slog"
	"time"
)

const (
	// DefaultCacheTTL bounds how long an unwrapped data key stays usable in
	// the in-memory cache.
	DefaultCacheTTL = time.Hour

	// DefaultSweepInterval is how often expired cache entries are removed.
	// Sweeping is memory hygiene only; Get re-checks expiry on every lookup.
	DefaultSweepInterval = 10 * time.Minute
)

type cipherSettings struct {
	cacheTTL      time.Duration
	sweepInterval time.Duration
	now           func() time.Time
	logger        *slog.Logger
	metrics       MetricsCollector
	pepper        []byte
	argon2Params  *Argon2Params
}

// Option configures a Cipher.
type Option func(*cipherSettings)

// WithCacheTTL overrides the data-key cache TTL.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *cipherSettings) { s.cacheTTL = ttl }
}

// WithSweepInterval overrides the background sweep interval. A zero or
// negative interval disables the background sweeper entirely.
func WithSweepInterval(interval time.Duration) Option {
	return func(s *cipherSettings) { s.sweepInterval = interval }
}

// WithNow injects the clock used for cache expiry. Intended for tests.
func WithNow(now func() time.Time) Option {
	return func(s *cipherSettings) { s.now = now }
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *cipherSettings) { s.logger = logger }
}

// WithMetrics sets the metrics collector. Defaults to NoOpMetricsCollector.
func WithMetrics(m MetricsCollector) Option {
	return func(s *cipherSettings) { s.metrics = m }
}

// WithPepper supplies the secret pepper mixed into BasicHash and SecureHash.
// Without a pepper the hash helpers return ErrInvalidConfiguration.
func WithPepper(pepper []byte) Option {
	return func(s *cipherSettings) { s.pepper = pepper }
}

// WithArgon2Params overrides the argon2id parameters used by SecureHash.
func WithArgon2Params(p *Argon2Params) Option {
	return func(s *cipherSettings) { s.argon2Params = p }
}
