package phicrypt

import (
	"encoding/binary"
	"fmt"
)

// Envelope binary layout, in order:
//
//	[0:4]   big-endian uint32 length of the wrapped data key
//	[4:4+n] wrapped data key
//	        16-byte IV
//	        16-byte GCM authentication tag
//	        ciphertext (same length as the plaintext)
//
// The order is fixed; reordering breaks interoperability with every other
// consumer of stored envelopes.
const (
	// IVSize is the initialization vector length in bytes.
	IVSize = 16

	// TagSize is the GCM authentication tag length in bytes.
	TagSize = 16

	keyLenPrefixSize = 4

	// envelopeOverhead is the minimum envelope size beyond the wrapped key
	// and ciphertext.
	envelopeOverhead = keyLenPrefixSize + IVSize + TagSize
)

// envelope is the parsed form of one encrypted field value. The slices alias
// the buffer passed to parseEnvelope.
type envelope struct {
	encryptedKey []byte
	iv           []byte
	tag          []byte
	ciphertext   []byte
}

// marshal assembles the wire form. The total length is
// 4 + len(encryptedKey) + 16 + 16 + len(ciphertext).
func (e *envelope) marshal() []byte {
	out := make([]byte, 0, envelopeOverhead+len(e.encryptedKey)+len(e.ciphertext))
	var prefix [keyLenPrefixSize]byte
	binary.BigEndian.PutUint32(prefix[:], uint32(len(e.encryptedKey)))
	out = append(out, prefix[:]...)
	out = append(out, e.encryptedKey...)
	out = append(out, e.iv...)
	out = append(out, e.tag...)
	out = append(out, e.ciphertext...)
	return out
}

// parseEnvelope splits an envelope strictly in the fixed field order. Any
// truncation or length mismatch fails with ErrMalformedEnvelope.
func parseEnvelope(data []byte) (*envelope, error) {
	if len(data) < envelopeOverhead {
		return nil, fmt.Errorf("%w: %d bytes, need at least %d", ErrMalformedEnvelope, len(data), envelopeOverhead)
	}
	keyLen := binary.BigEndian.Uint32(data[:keyLenPrefixSize])
	if keyLen == 0 {
		return nil, fmt.Errorf("%w: zero-length wrapped key", ErrMalformedEnvelope)
	}
	rest := data[keyLenPrefixSize:]
	if uint64(keyLen)+IVSize+TagSize > uint64(len(rest)) {
		return nil, fmt.Errorf("%w: wrapped key length %d exceeds envelope size", ErrMalformedEnvelope, keyLen)
	}
	e := &envelope{}
	e.encryptedKey, rest = rest[:keyLen], rest[keyLen:]
	e.iv, rest = rest[:IVSize], rest[IVSize:]
	e.tag, e.ciphertext = rest[:TagSize], rest[TagSize:]
	return e, nil
}
