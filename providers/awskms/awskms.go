// Package awskms implements phicrypt.KeyProvider using AWS Key Management
// Service: data keys are generated by GenerateDataKey with KeySpec AES_256
// and unwrapped by Decrypt.
package awskms

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/kms"
	"github.com/aws/aws-sdk-go-v2/service/kms/types"

	"github.com/carebridge/phicrypt"
)

// defaultTimeout bounds a single KMS round trip when the caller's context
// carries no deadline.
const defaultTimeout = 10 * time.Second

// kmsClient covers the KMS operations this provider uses (allows mocking).
type kmsClient interface {
	GenerateDataKey(ctx context.Context, params *kms.GenerateDataKeyInput, optFns ...func(*kms.Options)) (*kms.GenerateDataKeyOutput, error)
	Decrypt(ctx context.Context, params *kms.DecryptInput, optFns ...func(*kms.Options)) (*kms.DecryptOutput, error)
}

// Provider implements phicrypt.KeyProvider backed by AWS KMS.
type Provider struct {
	client kmsClient
	keyID  string
}

// Config holds configuration for the AWS KMS provider.
type Config struct {
	// KeyID identifies the master key that wraps data keys: a key ID, key
	// ARN, alias name ("alias/phi-master") or alias ARN. Required.
	KeyID string

	// Region is the AWS region. If empty, the ambient AWS configuration
	// (environment, shared config file, instance metadata) decides.
	Region string

	// AWSConfig optionally supplies a pre-built AWS config; Region is
	// ignored when set.
	AWSConfig *aws.Config
}

// New validates cfg and builds the provider. Credential resolution follows
// the standard AWS chain.
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.KeyID == "" {
		return nil, fmt.Errorf("%w: KMS master key id is required", phicrypt.ErrInvalidConfiguration)
	}

	var awsConfig aws.Config
	if cfg.AWSConfig != nil {
		awsConfig = *cfg.AWSConfig
	} else {
		opts := []func(*config.LoadOptions) error{}
		if cfg.Region != "" {
			opts = append(opts, config.WithRegion(cfg.Region))
		}
		var err error
		awsConfig, err = config.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("%w: load AWS config: %w", phicrypt.ErrKeyService, err)
		}
	}

	return &Provider{
		client: kms.NewFromConfig(awsConfig),
		keyID:  cfg.KeyID,
	}, nil
}

// GenerateDataKey requests a fresh AES-256 data key wrapped under the
// configured master key.
func (p *Provider) GenerateDataKey(ctx context.Context) ([]byte, []byte, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	out, err := p.client.GenerateDataKey(ctx, &kms.GenerateDataKeyInput{
		KeyId:   aws.String(p.keyID),
		KeySpec: types.DataKeySpecAes256,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("%w: generate data key with %s: %w", phicrypt.ErrKeyService, p.keyID, err)
	}
	if len(out.Plaintext) == 0 || len(out.CiphertextBlob) == 0 {
		return nil, nil, fmt.Errorf("%w: incomplete GenerateDataKey response", phicrypt.ErrKeyService)
	}
	return out.Plaintext, out.CiphertextBlob, nil
}

// DecryptDataKey unwraps a data key previously returned by GenerateDataKey.
// KMS derives the master key from the ciphertext metadata; the configured
// KeyID is passed along so cross-key ciphertexts are rejected.
func (p *Provider) DecryptDataKey(ctx context.Context, encrypted []byte) ([]byte, error) {
	if len(encrypted) == 0 {
		return nil, fmt.Errorf("%w: wrapped key is empty", phicrypt.ErrInvalidInput)
	}
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	out, err := p.client.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: encrypted,
		KeyId:          aws.String(p.keyID),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: decrypt data key: %w", phicrypt.ErrKeyService, err)
	}
	if len(out.Plaintext) == 0 {
		return nil, fmt.Errorf("%w: no plaintext returned from KMS", phicrypt.ErrKeyService)
	}
	return out.Plaintext, nil
}

func ensureDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, defaultTimeout)
}
