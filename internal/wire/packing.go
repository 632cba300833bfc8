// packing.go - Byte/field packing utilities for the log wire format.
//
// Two encodings live here: the tight 31-bytes-per-field packing used to carry
// opaque ciphertext bytes inside field-sized words (31 bytes always fit below
// the field modulus), and the canonical 32-byte serialization of field
// sequences used for the encrypted plaintext region.

package wire

import (
	"errors"
	"fmt"

	"notescan/internal/protocol"
)

// ErrMalformedLog is the structural-decode failure of the error taxonomy.
// Processing of the offending log aborts; the batch continues.
var ErrMalformedLog = errors.New("malformed log")

const bytesPerField = 31

// PackBytesIntoFields packs raw bytes into field elements, 31 bytes per field,
// big-endian, zero-padding the final chunk. Every resulting word is a valid
// canonical field element regardless of input.
func PackBytesIntoFields(data []byte) []protocol.Field {
	n := (len(data) + bytesPerField - 1) / bytesPerField
	out := make([]protocol.Field, n)
	for i := 0; i < n; i++ {
		chunk := data[i*bytesPerField:]
		if len(chunk) > bytesPerField {
			chunk = chunk[:bytesPerField]
		}
		out[i].SetBytes(chunk)
	}
	return out
}

// UnpackBytesFromFields is the inverse of PackBytesIntoFields, recovering
// byteLen bytes from the packed fields.
func UnpackBytesFromFields(fields []protocol.Field, byteLen int) ([]byte, error) {
	need := (byteLen + bytesPerField - 1) / bytesPerField
	if len(fields) < need {
		return nil, fmt.Errorf("%w: %d fields cannot hold %d bytes", ErrMalformedLog, len(fields), byteLen)
	}
	out := make([]byte, 0, byteLen)
	for i := 0; i < need; i++ {
		b := fields[i].Bytes()
		// SetBytes left-aligned the 31-byte chunk into the low bytes.
		out = append(out, b[32-bytesPerField:]...)
	}
	return out[:byteLen], nil
}

// SerializeFields encodes a field sequence as canonical 32-byte big-endian words.
func SerializeFields(fields []protocol.Field) []byte {
	out := make([]byte, 0, len(fields)*32)
	for i := range fields {
		b := fields[i].Bytes()
		out = append(out, b[:]...)
	}
	return out
}

// DeserializeFields decodes canonical 32-byte words back into fields. A chunk
// at or above the field modulus fails the decode; this is the structural check
// that rejects garbage produced by decrypting a log with the wrong key.
func DeserializeFields(data []byte) ([]protocol.Field, error) {
	if len(data)%32 != 0 {
		return nil, fmt.Errorf("%w: field serialization length %d not a multiple of 32", ErrMalformedLog, len(data))
	}
	out := make([]protocol.Field, len(data)/32)
	for i := range out {
		if err := out[i].SetBytesCanonical(data[i*32 : (i+1)*32]); err != nil {
			return nil, fmt.Errorf("%w: word %d is not a canonical field element", ErrMalformedLog, i)
		}
	}
	return out, nil
}
