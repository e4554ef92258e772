package phicrypt

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params configures SecureHash. The defaults follow the argon2id
// recommendations for interactive use.
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// DefaultArgon2Params returns the parameters used when none are configured.
func DefaultArgon2Params() *Argon2Params {
	return &Argon2Params{
		Memory:      64 * 1024,
		Iterations:  3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// BasicHash returns a deterministic hex digest of the value, mixed with the
// configured pepper, for exact-match lookup columns stored next to encrypted
// fields (e.g. finding a patient by phone number without decrypting every
// row). The value is lowercased and trimmed first so lookups are
// case-insensitive.
//
// Deterministic hashes leak equality between rows; only use this for fields
// where that is acceptable.
func (c *Cipher) BasicHash(value string) (string, error) {
	if len(c.pepper) == 0 {
		return "", fmt.Errorf("%w: pepper is required for hashing", ErrInvalidConfiguration)
	}
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidInput)
	}
	h := sha256.New()
	h.Write([]byte(normalized))
	h.Write(c.pepper)
	return hex.EncodeToString(h.Sum(nil)), nil
}

// SecureHash returns a salted argon2id hash of the value in PHC string
// format. Unlike BasicHash it is not deterministic and cannot be used for
// lookups; it suits verification of high-value identifiers.
func (c *Cipher) SecureHash(value string) (string, error) {
	if len(c.pepper) == 0 {
		return "", fmt.Errorf("%w: pepper is required for hashing", ErrInvalidConfiguration)
	}
	if value == "" {
		return "", fmt.Errorf("%w: value is empty", ErrInvalidInput)
	}
	p := c.argon2Params

	salt := make([]byte, p.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", fmt.Errorf("generate salt: %w", err)
	}

	peppered := append([]byte(value), c.pepper...)
	hash := argon2.IDKey(peppered, salt, p.Iterations, p.Memory, p.Parallelism, p.KeyLength)

	return fmt.Sprintf(
		"$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version,
		p.Memory,
		p.Iterations,
		p.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}
