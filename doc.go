// Package phicrypt provides field-level envelope encryption and access
// auditing for protected health information (PHI).
//
// Each encrypted value is sealed with a fresh AES-256 data key, and the data
// key itself is wrapped by an external key-management service (AWS KMS or
// HashiCorp Vault Transit). The wrapped key travels inside the envelope, so an
// envelope is self-contained: any process holding KMS access can decrypt it
// without shared state.
//
// The package exposes three surfaces:
//
//   - Cipher: Encrypt/Decrypt single values, EncryptFields/DecryptFields for
//     maps of fields, and policy-driven EncryptRecord/DecryptRecord.
//   - KeyProvider implementations under providers/ for AWS KMS and Vault
//     Transit, plus TestKeyProvider for tests.
//   - The audit subpackage, which records immutable audit-trail entries for
//     every access to regulated data.
//
// Unwrapped data keys are cached in memory with a bounded TTL so that
// decrypting many values sealed under the same key costs a single KMS round
// trip. The cache is advisory: losing an entry only costs another KMS call.
package phicrypt
