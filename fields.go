package phicrypt

import (
	"context"

	"github.com/hengadev/errsx"
)

// EncryptFields encrypts every non-empty value in fields and returns the
// resulting envelopes keyed by field name. Empty values stand in for absent
// PHI and are skipped, not encrypted.
//
// The batch does not fail fast: each field is attempted, successful results
// are returned, and individual failures are aggregated into the returned
// error keyed by field name. A nil error means every attempted field
// succeeded.
func (c *Cipher) EncryptFields(ctx context.Context, fields map[string]string) (map[string][]byte, error) {
	errs := make(errsx.Map)
	out := make(map[string][]byte, len(fields))
	for name, value := range fields {
		if value == "" {
			continue
		}
		blob, err := c.Encrypt(ctx, value)
		if err != nil {
			errs.Set(name, err)
			continue
		}
		out[name] = blob
	}
	if !errs.IsEmpty() {
		return out, errs.AsError()
	}
	return out, nil
}

// DecryptFields decrypts every non-empty envelope in fields. Nil or empty
// envelopes are skipped. Failure handling mirrors EncryptFields: partial
// results plus a per-field aggregate error.
func (c *Cipher) DecryptFields(ctx context.Context, fields map[string][]byte) (map[string]string, error) {
	errs := make(errsx.Map)
	out := make(map[string]string, len(fields))
	for name, blob := range fields {
		if len(blob) == 0 {
			continue
		}
		plaintext, err := c.Decrypt(ctx, blob)
		if err != nil {
			errs.Set(name, err)
			continue
		}
		out[name] = plaintext
	}
	if !errs.IsEmpty() {
		return out, errs.AsError()
	}
	return out, nil
}
