package phicrypt

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/carebridge/phicrypt/internal/keycache"
)

// Cipher encrypts and decrypts individual field values using envelope
// encryption: every Encrypt call obtains a fresh data key from the
// KeyProvider, seals the plaintext with AES-256-GCM, and embeds the wrapped
// key in the returned envelope.
//
// Reusing one data key across fields would save KMS calls but widen the blast
// radius of a leaked key to every field sealed under it; the fresh-key-per-
// encrypt contract is deliberate and must be preserved.
//
// A Cipher is safe for concurrent use. The only shared mutable state is the
// data-key cache, which is internally synchronized.
type Cipher struct {
	provider KeyProvider
	cache    *keycache.Cache
	logger   *slog.Logger
	metrics  MetricsCollector
	now      func() time.Time

	pepper       []byte
	argon2Params *Argon2Params
}

// New constructs a Cipher around the given KeyProvider. Unless disabled via
// WithSweepInterval(0), a background sweeper trims expired cache entries;
// call Close when the Cipher is no longer needed.
func New(provider KeyProvider, opts ...Option) (*Cipher, error) {
	if provider == nil {
		return nil, fmt.Errorf("%w: key provider is required", ErrInvalidConfiguration)
	}
	settings := cipherSettings{
		cacheTTL:      DefaultCacheTTL,
		sweepInterval: DefaultSweepInterval,
		now:           time.Now,
		logger:        slog.Default(),
		metrics:       NoOpMetricsCollector{},
		argon2Params:  DefaultArgon2Params(),
	}
	for _, opt := range opts {
		opt(&settings)
	}
	c := &Cipher{
		provider:     provider,
		cache:        keycache.New(settings.cacheTTL, settings.now),
		logger:       settings.logger,
		metrics:      settings.metrics,
		now:          settings.now,
		pepper:       settings.pepper,
		argon2Params: settings.argon2Params,
	}
	c.cache.StartSweeping(settings.sweepInterval)
	return c, nil
}

// Close stops the background cache sweeper and drops all cached key material.
func (c *Cipher) Close() {
	c.cache.Stop()
	c.cache.Clear()
}

// Encrypt seals a plaintext string into a self-contained envelope. Empty
// plaintext is rejected with ErrInvalidInput: a null PHI field should be
// skipped upstream, not encrypted.
func (c *Cipher) Encrypt(ctx context.Context, plaintext string) ([]byte, error) {
	return c.EncryptBytes(ctx, []byte(plaintext))
}

// EncryptBytes is Encrypt for callers that already hold raw bytes.
func (c *Cipher) EncryptBytes(ctx context.Context, plaintext []byte) ([]byte, error) {
	start := c.now()
	blob, err := c.encrypt(ctx, plaintext)
	c.observe("encrypt", start, err)
	return blob, err
}

func (c *Cipher) encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	if len(plaintext) == 0 {
		return nil, fmt.Errorf("%w: plaintext is empty", ErrInvalidInput)
	}

	dataKey, encryptedKey, err := c.provider.GenerateDataKey(ctx)
	c.metrics.IncrementCounter(MetricKMSCalls, map[string]string{"op": "generate"})
	if err != nil {
		return nil, fmt.Errorf("%w: generate data key: %w", ErrEncryptionFailed, err)
	}
	defer zeroBytes(dataKey)

	aead, err := newAEAD(dataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncryptionFailed, err)
	}

	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, fmt.Errorf("%w: generate IV: %w", ErrEncryptionFailed, err)
	}

	// Seal appends the 16-byte tag to the ciphertext; the envelope stores
	// them as separate fields.
	sealed := aead.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - TagSize
	e := envelope{
		encryptedKey: encryptedKey,
		iv:           iv,
		tag:          sealed[split:],
		ciphertext:   sealed[:split],
	}
	return e.marshal(), nil
}

// Decrypt parses an envelope, resolves its data key (from cache or the key
// service), and returns the authenticated plaintext as a string.
func (c *Cipher) Decrypt(ctx context.Context, envelopeBytes []byte) (string, error) {
	plaintext, err := c.DecryptBytes(ctx, envelopeBytes)
	return string(plaintext), err
}

// DecryptBytes is Decrypt without the string conversion.
func (c *Cipher) DecryptBytes(ctx context.Context, envelopeBytes []byte) ([]byte, error) {
	start := c.now()
	plaintext, err := c.decrypt(ctx, envelopeBytes)
	c.observe("decrypt", start, err)
	return plaintext, err
}

func (c *Cipher) decrypt(ctx context.Context, envelopeBytes []byte) ([]byte, error) {
	if len(envelopeBytes) == 0 {
		return nil, fmt.Errorf("%w: envelope is empty", ErrInvalidInput)
	}
	e, err := parseEnvelope(envelopeBytes)
	if err != nil {
		return nil, err
	}

	dataKey, err := c.resolveDataKey(ctx, e.encryptedKey)
	if err != nil {
		return nil, err
	}
	defer zeroBytes(dataKey)

	aead, err := newAEAD(dataKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecryptionFailed, err)
	}

	sealed := make([]byte, 0, len(e.ciphertext)+TagSize)
	sealed = append(sealed, e.ciphertext...)
	sealed = append(sealed, e.tag...)
	plaintext, err := aead.Open(nil, e.iv, sealed, nil)
	if err != nil {
		// GCM does not distinguish tag mismatch from other open failures;
		// treat them all as tampering.
		c.logger.Warn("envelope authentication failed",
			slog.Int("envelope_size", len(envelopeBytes)))
		return nil, fmt.Errorf("%w: %w", ErrAuthenticationFailed, err)
	}
	return plaintext, nil
}

// resolveDataKey returns the plaintext data key for a wrapped key, consulting
// the cache first and populating it after a successful KMS unwrap.
func (c *Cipher) resolveDataKey(ctx context.Context, encryptedKey []byte) ([]byte, error) {
	fp := fingerprint(encryptedKey)
	if key, ok := c.cache.Get(fp); ok {
		c.metrics.IncrementCounter(MetricCacheHits, nil)
		return key, nil
	}
	c.metrics.IncrementCounter(MetricCacheMiss, nil)

	key, err := c.provider.DecryptDataKey(ctx, encryptedKey)
	c.metrics.IncrementCounter(MetricKMSCalls, map[string]string{"op": "decrypt"})
	if err != nil {
		return nil, fmt.Errorf("%w: unwrap data key: %w", ErrDecryptionFailed, err)
	}
	if len(key) != DataKeySize {
		return nil, fmt.Errorf("%w: key service returned %d-byte data key, want %d", ErrDecryptionFailed, len(key), DataKeySize)
	}
	c.cache.Put(fp, key)
	c.logger.Debug("data key unwrapped and cached",
		slog.String("fingerprint", fp[:12]),
		slog.Int("cache_size", c.cache.Len()))
	return key, nil
}

// CacheSize returns the number of data keys currently cached. Operational and
// test hook.
func (c *Cipher) CacheSize() int {
	return c.cache.Len()
}

// ClearCache drops all cached data keys, forcing the next decrypt of every
// wrapped key through the key service. Used after key rotation.
func (c *Cipher) ClearCache() {
	c.cache.Clear()
}

func (c *Cipher) observe(op string, start time.Time, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	tags := map[string]string{"op": op, "result": result}
	c.metrics.IncrementCounter(MetricOperations, tags)
	c.metrics.RecordTiming(MetricDuration, c.now().Sub(start), tags)
}

// newAEAD builds an AES-256-GCM cipher with the envelope's 16-byte IV size.
func newAEAD(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create AES cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, IVSize)
	if err != nil {
		return nil, fmt.Errorf("create GCM: %w", err)
	}
	return aead, nil
}

// fingerprint derives the cache key for a wrapped data key.
func fingerprint(encryptedKey []byte) string {
	sum := sha256.Sum256(encryptedKey)
	return hex.EncodeToString(sum[:])
}

func zeroBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
