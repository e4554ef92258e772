package phicrypt

import (
	"errors"
)

var (
	// ErrInvalidConfiguration indicates a startup-time configuration problem,
	// such as a missing master key identifier. The process should not start.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrKeyService indicates a transient key-management service failure
	// (unreachable service, timeout, incomplete response). Callers decide
	// whether to retry.
	ErrKeyService = errors.New("key service unavailable")

	// ErrInvalidInput indicates a caller bug, e.g. encrypting an empty value
	// or decrypting an empty envelope. Not retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrMalformedEnvelope indicates a structurally invalid envelope (wrong
	// lengths, truncation). Points at data corruption or a format mismatch.
	ErrMalformedEnvelope = errors.New("malformed envelope")

	// ErrAuthenticationFailed indicates a GCM tag mismatch during decryption:
	// the envelope was tampered with or corrupted. No plaintext, even partial,
	// is ever returned alongside this error. Callers should treat it as a
	// security event.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrEncryptionFailed wraps any failure during an encrypt operation.
	ErrEncryptionFailed = errors.New("encryption failed")

	// ErrDecryptionFailed wraps non-authentication failures during decryption.
	ErrDecryptionFailed = errors.New("decryption failed")
)

// IsRetryableError reports whether the error represents a transient failure
// that might succeed on retry.
func IsRetryableError(err error) bool {
	return errors.Is(err, ErrKeyService)
}

// IsConfigurationError reports whether the error represents a configuration
// problem that must be fixed before the process can run.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration)
}

// IsInputError reports whether the error was caused by invalid caller input
// rather than by the cipher or the key service.
func IsInputError(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, ErrMalformedEnvelope)
}

// IsSecurityEvent reports whether the error indicates possible tampering and
// should be alerted on rather than silently retried.
func IsSecurityEvent(err error) bool {
	return errors.Is(err, ErrAuthenticationFailed)
}
