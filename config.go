package phicrypt

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Environment variable names read by LoadConfigFromEnvironment.
const (
	EnvProvider      = "PHICRYPT_PROVIDER"
	EnvKeyID         = "PHICRYPT_KEY_ID"
	EnvRegion        = "PHICRYPT_REGION"
	EnvCacheTTL      = "PHICRYPT_CACHE_TTL"
	EnvSweepInterval = "PHICRYPT_SWEEP_INTERVAL"
	EnvPolicyPath    = "PHICRYPT_POLICY_FILE"
)

// Supported key provider names.
const (
	ProviderAWSKMS       = "awskms"
	ProviderVaultTransit = "vaulttransit"
)

// Config carries startup configuration for the encryption core. It contains
// only data; construct providers and the Cipher from it explicitly.
type Config struct {
	// Provider selects the key-management backend: ProviderAWSKMS or
	// ProviderVaultTransit. Default: awskms.
	Provider string

	// KeyID identifies the master key used to wrap data keys. For AWS KMS an
	// alias, key ID or ARN; for Vault Transit the key name. Required.
	KeyID string

	// Region is the AWS region for the awskms provider. Optional; falls back
	// to the ambient AWS configuration. Ignored by vaulttransit, which reads
	// VAULT_ADDR and friends from the environment.
	Region string

	// CacheTTL bounds the data-key cache. Default: DefaultCacheTTL.
	CacheTTL time.Duration

	// SweepInterval controls background cache sweeping. Default:
	// DefaultSweepInterval.
	SweepInterval time.Duration

	// PolicyPath optionally points at a YAML PHI field policy. Empty means
	// DefaultPolicy.
	PolicyPath string
}

// Validate checks required fields and applies defaults. A missing KeyID is
// fatal: the process must not start without a master key identifier.
func (c *Config) Validate() error {
	if c.KeyID == "" {
		return fmt.Errorf("%w: master key identifier (KeyID) is required", ErrInvalidConfiguration)
	}
	if c.Provider == "" {
		c.Provider = ProviderAWSKMS
	}
	if c.Provider != ProviderAWSKMS && c.Provider != ProviderVaultTransit {
		return fmt.Errorf("%w: unknown provider %q", ErrInvalidConfiguration, c.Provider)
	}
	if c.CacheTTL == 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = DefaultSweepInterval
	}
	return nil
}

// LoadConfigFromEnvironment builds a validated Config from PHICRYPT_*
// environment variables.
func LoadConfigFromEnvironment() (Config, error) {
	cfg := Config{
		Provider:   os.Getenv(EnvProvider),
		KeyID:      os.Getenv(EnvKeyID),
		Region:     os.Getenv(EnvRegion),
		PolicyPath: os.Getenv(EnvPolicyPath),
	}
	var err error
	if cfg.CacheTTL, err = durationFromEnv(EnvCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.SweepInterval, err = durationFromEnv(EnvSweepInterval); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadEnvFile loads a dotenv file into the process environment before
// LoadConfigFromEnvironment is called. Missing files are not an error so the
// same code path works in development (with a .env) and in production
// (without one).
func LoadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func durationFromEnv(key string) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q is not a duration: %w", ErrInvalidConfiguration, key, raw, err)
	}
	return d, nil
}
