package vaulttransit

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"testing"

	"github.com/hashicorp/vault/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carebridge/phicrypt"
)

// mockLogical implements logical for tests.
type mockLogical struct {
	secret *api.Secret
	err    error

	lastPath string
	lastData map[string]interface{}
}

func (m *mockLogical) WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*api.Secret, error) {
	m.lastPath = path
	m.lastData = data
	return m.secret, m.err
}

func TestNewRequiresKeyName(t *testing.T) {
	_, err := New(Config{})
	require.Error(t, err)
	assert.ErrorIs(t, err, phicrypt.ErrInvalidConfiguration)
}

func TestGenerateDataKey(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x11}, 32)
	mock := &mockLogical{
		secret: &api.Secret{Data: map[string]interface{}{
			"plaintext":  base64.StdEncoding.EncodeToString(plaintext),
			"ciphertext": "vault:v1:abcdef",
		}},
	}
	p := &Provider{logical: mock, keyName: "phi-master", mount: "transit"}

	gotPlain, gotWrapped, err := p.GenerateDataKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, plaintext, gotPlain)
	assert.Equal(t, []byte("vault:v1:abcdef"), gotWrapped)
	assert.Equal(t, "transit/datakey/plaintext/phi-master", mock.lastPath)
	assert.Equal(t, 256, mock.lastData["bits"])
}

func TestGenerateDataKeyFailures(t *testing.T) {
	tests := []struct {
		name string
		mock *mockLogical
	}{
		{
			name: "transport error",
			mock: &mockLogical{err: errors.New("connection refused")},
		},
		{
			name: "nil secret",
			mock: &mockLogical{},
		},
		{
			name: "missing plaintext",
			mock: &mockLogical{secret: &api.Secret{Data: map[string]interface{}{
				"ciphertext": "vault:v1:abcdef",
			}}},
		},
		{
			name: "missing ciphertext",
			mock: &mockLogical{secret: &api.Secret{Data: map[string]interface{}{
				"plaintext": base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, 32)),
			}}},
		},
		{
			name: "plaintext is not base64",
			mock: &mockLogical{secret: &api.Secret{Data: map[string]interface{}{
				"plaintext":  "not base64 !!!",
				"ciphertext": "vault:v1:abcdef",
			}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Provider{logical: tt.mock, keyName: "phi-master", mount: "transit"}
			_, _, err := p.GenerateDataKey(context.Background())
			require.Error(t, err)
			assert.ErrorIs(t, err, phicrypt.ErrKeyService)
			assert.True(t, phicrypt.IsRetryableError(err))
		})
	}
}

func TestDecryptDataKey(t *testing.T) {
	plaintext := bytes.Repeat([]byte{0x11}, 32)
	mock := &mockLogical{
		secret: &api.Secret{Data: map[string]interface{}{
			"plaintext": base64.StdEncoding.EncodeToString(plaintext),
		}},
	}
	p := &Provider{logical: mock, keyName: "phi-master", mount: "transit"}

	got, err := p.DecryptDataKey(context.Background(), []byte("vault:v1:abcdef"))
	require.NoError(t, err)
	assert.Equal(t, plaintext, got)
	assert.Equal(t, "transit/decrypt/phi-master", mock.lastPath)
	assert.Equal(t, "vault:v1:abcdef", mock.lastData["ciphertext"])
}

func TestDecryptDataKeyFailures(t *testing.T) {
	t.Run("empty wrapped key", func(t *testing.T) {
		p := &Provider{logical: &mockLogical{}, keyName: "phi-master", mount: "transit"}
		_, err := p.DecryptDataKey(context.Background(), nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, phicrypt.ErrInvalidInput)
	})

	t.Run("no plaintext returned", func(t *testing.T) {
		mock := &mockLogical{secret: &api.Secret{Data: map[string]interface{}{}}}
		p := &Provider{logical: mock, keyName: "phi-master", mount: "transit"}
		_, err := p.DecryptDataKey(context.Background(), []byte("vault:v1:abcdef"))
		require.Error(t, err)
		assert.ErrorIs(t, err, phicrypt.ErrKeyService)
	})
}

func TestCustomMount(t *testing.T) {
	mock := &mockLogical{
		secret: &api.Secret{Data: map[string]interface{}{
			"plaintext":  base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{0x11}, 32)),
			"ciphertext": "vault:v1:abcdef",
		}},
	}
	p := &Provider{logical: mock, keyName: "phi-master", mount: "phi-transit"}

	_, _, err := p.GenerateDataKey(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "phi-transit/datakey/plaintext/phi-master", mock.lastPath)
}
