package phicrypt

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"sync"
)

// TestKeyProvider is an in-memory KeyProvider for tests. It wraps data keys
// with AES-256-GCM under a process-local KEK, so envelopes produced with it
// round-trip without any external service.
//
// It also counts calls and supports failure injection, which makes it usable
// as a stand-in mock for cache and error-path tests.
type TestKeyProvider struct {
	mu           sync.Mutex
	kek          []byte
	generateErr  error
	decryptErr   error
	GenerateCall int
	DecryptCall  int
}

// NewTestKeyProvider returns a provider with a random KEK.
func NewTestKeyProvider() *TestKeyProvider {
	kek := make([]byte, DataKeySize)
	if _, err := io.ReadFull(rand.Reader, kek); err != nil {
		panic(fmt.Sprintf("phicrypt: generate test KEK: %v", err))
	}
	return &TestKeyProvider{kek: kek}
}

// FailGenerate makes subsequent GenerateDataKey calls return err. Pass nil to
// restore normal behavior.
func (p *TestKeyProvider) FailGenerate(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.generateErr = err
}

// FailDecrypt makes subsequent DecryptDataKey calls return err.
func (p *TestKeyProvider) FailDecrypt(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.decryptErr = err
}

// GenerateDataKey implements KeyProvider.
func (p *TestKeyProvider) GenerateDataKey(ctx context.Context) ([]byte, []byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.GenerateCall++
	if p.generateErr != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyService, p.generateErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyService, err)
	}

	plaintext := make([]byte, DataKeySize)
	if _, err := io.ReadFull(rand.Reader, plaintext); err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyService, err)
	}
	encrypted, err := p.wrap(plaintext)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrKeyService, err)
	}
	return plaintext, encrypted, nil
}

// DecryptDataKey implements KeyProvider.
func (p *TestKeyProvider) DecryptDataKey(ctx context.Context, encrypted []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.DecryptCall++
	if p.decryptErr != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyService, p.decryptErr)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyService, err)
	}
	plaintext, err := p.unwrap(encrypted)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrKeyService, err)
	}
	return plaintext, nil
}

func (p *TestKeyProvider) wrap(plaintext []byte) ([]byte, error) {
	aead, err := newAEAD(p.kek)
	if err != nil {
		return nil, err
	}
	iv := make([]byte, IVSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, err
	}
	return aead.Seal(iv, iv, plaintext, nil), nil
}

func (p *TestKeyProvider) unwrap(encrypted []byte) ([]byte, error) {
	aead, err := newAEAD(p.kek)
	if err != nil {
		return nil, err
	}
	if len(encrypted) < IVSize {
		return nil, fmt.Errorf("wrapped key too short")
	}
	return aead.Open(nil, encrypted[:IVSize], encrypted[IVSize:], nil)
}
