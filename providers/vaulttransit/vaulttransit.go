// Package vaulttransit implements phicrypt.KeyProvider using the HashiCorp
// Vault Transit secrets engine: data keys come from datakey/plaintext and are
// unwrapped by the decrypt endpoint.
//
// The Transit engine must be enabled and hold the configured key:
//
//	vault secrets enable transit
//	vault write -f transit/keys/phi-master
package vaulttransit

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/carebridge/phicrypt"
)

const defaultTimeout = 10 * time.Second

// logical covers the Vault API surface this provider uses (allows mocking).
type logical interface {
	WriteWithContext(ctx context.Context, path string, data map[string]interface{}) (*api.Secret, error)
}

// Provider implements phicrypt.KeyProvider backed by Vault Transit.
type Provider struct {
	logical logical
	keyName string
	mount   string
}

// Config holds configuration for the Vault Transit provider.
type Config struct {
	// KeyName is the Transit key that wraps data keys. Required.
	KeyName string

	// Mount is the Transit engine mount path. Default: "transit".
	Mount string

	// Address overrides VAULT_ADDR. Authentication follows the standard
	// Vault environment (VAULT_TOKEN, VAULT_NAMESPACE, ...).
	Address string
}

// New validates cfg and builds a Vault client from the environment.
func New(cfg Config) (*Provider, error) {
	if cfg.KeyName == "" {
		return nil, fmt.Errorf("%w: transit key name is required", phicrypt.ErrInvalidConfiguration)
	}
	if cfg.Mount == "" {
		cfg.Mount = "transit"
	}

	apiConfig := api.DefaultConfig()
	if cfg.Address != "" {
		apiConfig.Address = cfg.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, fmt.Errorf("%w: create vault client: %w", phicrypt.ErrKeyService, err)
	}
	if namespace := os.Getenv("VAULT_NAMESPACE"); namespace != "" {
		client.SetNamespace(namespace)
	}

	return &Provider{
		logical: client.Logical(),
		keyName: cfg.KeyName,
		mount:   cfg.Mount,
	}, nil
}

// GenerateDataKey asks Transit for a fresh 256-bit data key. Vault returns
// both halves: the plaintext (base64) and the wrapped ciphertext in Vault's
// "vault:v1:..." format, which is stored as-is in envelopes.
func (p *Provider) GenerateDataKey(ctx context.Context) ([]byte, []byte, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	secret, err := p.logical.WriteWithContext(ctx,
		fmt.Sprintf("%s/datakey/plaintext/%s", p.mount, p.keyName),
		map[string]interface{}{"bits": 256},
	)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: generate data key with %s: %w", phicrypt.ErrKeyService, p.keyName, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil, fmt.Errorf("%w: empty response from transit datakey", phicrypt.ErrKeyService)
	}

	plaintextB64, ok := secret.Data["plaintext"].(string)
	if !ok || plaintextB64 == "" {
		return nil, nil, fmt.Errorf("%w: no plaintext in transit datakey response", phicrypt.ErrKeyService)
	}
	ciphertext, ok := secret.Data["ciphertext"].(string)
	if !ok || ciphertext == "" {
		return nil, nil, fmt.Errorf("%w: no ciphertext in transit datakey response", phicrypt.ErrKeyService)
	}

	plaintext, err := base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: decode transit plaintext: %w", phicrypt.ErrKeyService, err)
	}
	return plaintext, []byte(ciphertext), nil
}

// DecryptDataKey unwraps a Transit-wrapped data key.
func (p *Provider) DecryptDataKey(ctx context.Context, encrypted []byte) ([]byte, error) {
	if len(encrypted) == 0 {
		return nil, fmt.Errorf("%w: wrapped key is empty", phicrypt.ErrInvalidInput)
	}
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	secret, err := p.logical.WriteWithContext(ctx,
		fmt.Sprintf("%s/decrypt/%s", p.mount, p.keyName),
		map[string]interface{}{"ciphertext": string(encrypted)},
	)
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt data key with %s: %w", phicrypt.ErrKeyService, p.keyName, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%w: empty response from transit decrypt", phicrypt.ErrKeyService)
	}

	plaintextB64, ok := secret.Data["plaintext"].(string)
	if !ok || plaintextB64 == "" {
		return nil, fmt.Errorf("%w: no plaintext in transit decrypt response", phicrypt.ErrKeyService)
	}
	plaintext, err := base64.StdEncoding.DecodeString(plaintextB64)
	if err != nil {
		return nil, fmt.Errorf("%w: decode transit plaintext: %w", phicrypt.ErrKeyService, err)
	}
	return plaintext, nil
}

func ensureDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}
