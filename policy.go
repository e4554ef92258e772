package phicrypt

import (
	"context"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Policy maps a resource type (e.g. "patient", "prescription") to the field
// names that hold PHI and must be encrypted at rest. Display fields covered
// by access control are intentionally absent to avoid decryption overhead on
// high-read paths.
type Policy struct {
	Resources map[string][]string `yaml:"resources"`
}

// DefaultPolicy covers the platform's core pharmacy resources.
func DefaultPolicy() *Policy {
	return &Policy{
		Resources: map[string][]string{
			"patient":      {"first_name", "last_name", "address", "phone", "email", "date_of_birth"},
			"order":        {"shipping_address", "shipping_phone", "delivery_notes"},
			"prescription": {"medication_notes", "prescriber_name", "prescriber_phone"},
		},
	}
}

// LoadPolicy reads a YAML policy file:
//
//	resources:
//	  patient: [first_name, last_name, phone]
//	  order: [shipping_address]
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse policy file %s: %w", path, err)
	}
	if len(p.Resources) == 0 {
		return nil, fmt.Errorf("%w: policy file %s defines no resources", ErrInvalidConfiguration, path)
	}
	return &p, nil
}

// ProtectedFields returns the protected field names for a resource type, or
// nil when the resource is not governed by the policy.
func (p *Policy) ProtectedFields(resourceType string) []string {
	return p.Resources[resourceType]
}

// IsProtected reports whether a specific field of a resource holds PHI.
func (p *Policy) IsProtected(resourceType, field string) bool {
	return slices.Contains(p.Resources[resourceType], field)
}

// EncryptRecord encrypts exactly the fields the policy marks as protected for
// resourceType, leaving everything else untouched. Protected fields absent
// from record, or present but empty, are skipped. Failure semantics follow
// EncryptFields.
func (c *Cipher) EncryptRecord(ctx context.Context, policy *Policy, resourceType string, record map[string]string) (map[string][]byte, error) {
	protected := make(map[string]string)
	for _, field := range policy.ProtectedFields(resourceType) {
		if value, ok := record[field]; ok {
			protected[field] = value
		}
	}
	return c.EncryptFields(ctx, protected)
}

// DecryptRecord is the inverse of EncryptRecord: it decrypts the policy's
// protected fields out of a map of stored envelopes.
func (c *Cipher) DecryptRecord(ctx context.Context, policy *Policy, resourceType string, record map[string][]byte) (map[string]string, error) {
	protected := make(map[string][]byte)
	for _, field := range policy.ProtectedFields(resourceType) {
		if blob, ok := record[field]; ok {
			protected[field] = blob
		}
	}
	return c.DecryptFields(ctx, protected)
}
