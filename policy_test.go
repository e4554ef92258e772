package phicrypt

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadPolicy(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "phi_policy.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
resources:
  patient: [phone, address]
  order: [shipping_address]
`), 0o600))

	p, err := LoadPolicy(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"phone", "address"}, p.ProtectedFields("patient"))
	assert.True(t, p.IsProtected("order", "shipping_address"))
	assert.False(t, p.IsProtected("order", "status"))
	assert.Nil(t, p.ProtectedFields("payment"))
}

func TestLoadPolicyErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPolicy(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
	})

	t.Run("empty policy", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("resources: {}\n"), 0o600))
		_, err := LoadPolicy(path)
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidConfiguration)
	})
}

func TestEncryptRecordHonorsPolicy(t *testing.T) {
	cipher, _ := newTestCipher(t)
	ctx := context.Background()
	policy := DefaultPolicy()

	record := map[string]string{
		"first_name": "Lena",
		"phone":      "+41 22 555 01 23",
		"status":     "active", // not PHI, must not be touched
		"email":      "",       // protected but empty, skipped
	}
	envelopes, err := cipher.EncryptRecord(ctx, policy, "patient", record)
	require.NoError(t, err)

	assert.Contains(t, envelopes, "first_name")
	assert.Contains(t, envelopes, "phone")
	assert.NotContains(t, envelopes, "status")
	assert.NotContains(t, envelopes, "email")

	plain, err := cipher.DecryptRecord(ctx, policy, "patient", envelopes)
	require.NoError(t, err)
	assert.Equal(t, "Lena", plain["first_name"])
	assert.Equal(t, "+41 22 555 01 23", plain["phone"])
}

func TestEncryptRecordUnknownResource(t *testing.T) {
	cipher, provider := newTestCipher(t)

	envelopes, err := cipher.EncryptRecord(context.Background(), DefaultPolicy(), "invoice", map[string]string{
		"total": "42.00",
	})
	require.NoError(t, err)
	assert.Empty(t, envelopes)
	assert.Equal(t, 0, provider.GenerateCall)
}
