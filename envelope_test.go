package phicrypt

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelopeMarshalParse(t *testing.T) {
	e := envelope{
		encryptedKey: bytes.Repeat([]byte{0xAA}, 48),
		iv:           bytes.Repeat([]byte{0x01}, IVSize),
		tag:          bytes.Repeat([]byte{0x02}, TagSize),
		ciphertext:   []byte("not really ciphertext"),
	}

	data := e.marshal()
	require.Len(t, data, 4+48+IVSize+TagSize+len(e.ciphertext))
	assert.Equal(t, uint32(48), binary.BigEndian.Uint32(data[:4]))

	parsed, err := parseEnvelope(data)
	require.NoError(t, err)
	assert.Equal(t, e.encryptedKey, parsed.encryptedKey)
	assert.Equal(t, e.iv, parsed.iv)
	assert.Equal(t, e.tag, parsed.tag)
	assert.Equal(t, e.ciphertext, parsed.ciphertext)
}

func TestParseEnvelopeMalformed(t *testing.T) {
	valid := envelope{
		encryptedKey: bytes.Repeat([]byte{0xAA}, 16),
		iv:           make([]byte, IVSize),
		tag:          make([]byte, TagSize),
		ciphertext:   []byte("x"),
	}.marshalHelper()

	tests := []struct {
		name string
		data []byte
	}{
		{"too short for header", make([]byte, envelopeOverhead-1)},
		{"zero key length", append(make([]byte, 4), make([]byte, IVSize+TagSize)...)},
		{"truncated after key length", valid[:len(valid)-2-len("x")-TagSize]},
		{"key length exceeds envelope", corruptKeyLen(valid)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseEnvelope(tt.data)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedEnvelope)
		})
	}
}

// marshalHelper lets the malformed-envelope table build from a value.
func (e envelope) marshalHelper() []byte { return e.marshal() }

func corruptKeyLen(data []byte) []byte {
	out := make([]byte, len(data))
	copy(out, data)
	binary.BigEndian.PutUint32(out[:4], uint32(len(data)))
	return out
}
