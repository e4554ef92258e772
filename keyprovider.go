package phicrypt

import "context"

// DataKeySize is the byte length of plaintext data keys (AES-256).
const DataKeySize = 32

// KeyProvider is the sole point of contact with an external key-management
// service. Implementations wrap one network round trip per call and perform
// no retries; retry policy belongs to the caller or the transport.
//
// Implementations:
//   - AWS KMS: github.com/carebridge/phicrypt/providers/awskms
//   - Vault Transit: github.com/carebridge/phicrypt/providers/vaulttransit
//   - In-memory (tests): phicrypt.TestKeyProvider
type KeyProvider interface {
	// GenerateDataKey requests a fresh AES-256 data key from the service and
	// returns both the plaintext key (exactly DataKeySize bytes) and the
	// wrapped form, encrypted under the configured master key. Fails with an
	// ErrKeyService-wrapped error if the service is unreachable or the
	// response is missing either half.
	GenerateDataKey(ctx context.Context) (plaintext, encrypted []byte, err error)

	// DecryptDataKey asks the service to unwrap a key previously produced by
	// GenerateDataKey. Fails with an ErrKeyService-wrapped error on service
	// failure or when no plaintext comes back.
	DecryptDataKey(ctx context.Context, encrypted []byte) ([]byte, error)
}
