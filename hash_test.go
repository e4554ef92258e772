package phicrypt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBasicHash(t *testing.T) {
	pepper := []byte("0123456789abcdef0123456789abcdef")
	cipher, _ := newTestCipher(t, WithPepper(pepper))

	first, err := cipher.BasicHash("+41 22 555 01 23")
	require.NoError(t, err)
	second, err := cipher.BasicHash("+41 22 555 01 23")
	require.NoError(t, err)
	assert.Equal(t, first, second, "lookup hashes must be deterministic")
	assert.Len(t, first, 64)

	// Normalization: case and surrounding whitespace do not change the hash.
	normalized, err := cipher.BasicHash("  +41 22 555 01 23 ")
	require.NoError(t, err)
	assert.Equal(t, first, normalized)

	other, err := cipher.BasicHash("+41 22 555 01 24")
	require.NoError(t, err)
	assert.NotEqual(t, first, other)
}

func TestBasicHashPepperSensitivity(t *testing.T) {
	a, _ := newTestCipher(t, WithPepper([]byte("pepper-a-pepper-a-pepper-a-pepp!")))
	b, _ := newTestCipher(t, WithPepper([]byte("pepper-b-pepper-b-pepper-b-pepp!")))

	hashA, err := a.BasicHash("lena@example.org")
	require.NoError(t, err)
	hashB, err := b.BasicHash("lena@example.org")
	require.NoError(t, err)
	assert.NotEqual(t, hashA, hashB)
}

func TestHashRequiresPepper(t *testing.T) {
	cipher, _ := newTestCipher(t)

	_, err := cipher.BasicHash("value")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	_, err = cipher.SecureHash("value")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}

func TestHashRejectsEmptyValue(t *testing.T) {
	cipher, _ := newTestCipher(t, WithPepper([]byte("0123456789abcdef0123456789abcdef")))

	_, err := cipher.BasicHash("   ")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = cipher.SecureHash("")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSecureHashFormat(t *testing.T) {
	cipher, _ := newTestCipher(t, WithPepper([]byte("0123456789abcdef0123456789abcdef")))

	hash, err := cipher.SecureHash("756.1234.5678.97") // AHV-style identifier
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$"), "PHC string format")
	assert.Len(t, strings.Split(hash, "$"), 6)

	// Salted: two hashes of the same value differ.
	again, err := cipher.SecureHash("756.1234.5678.97")
	require.NoError(t, err)
	assert.NotEqual(t, hash, again)
}
