// codec.go - Log plaintext codec.
//
// A decrypted log plaintext is an ordered sequence of fields laid out as
// [expanded_metadata, ...content]. The expanded-metadata word packs the 64-bit
// log type id (high) and the 64-bit log metadata (low) into one 128-bit-capacity
// word. Content layout depends on the log type:
//
//	private note:  content = [storage_slot, ...packed_note]
//	partial note:  content = [completion_tag, storage_slot, ...private_fields]
//	event:         content = serialized event payload
//
// Unknown log type ids are not a decode failure; the caller skips them.

package wire

import (
	"fmt"
	"math/big"

	"notescan/internal/protocol"
)

// EncodeLogPlaintext packs (logTypeID, logMetadata) into the expanded-metadata
// word and prepends it to content. Padding to the fixed log width happens at
// the byte layer, after serialization.
func EncodeLogPlaintext(logTypeID, logMetadata uint64, content []protocol.Field) []protocol.Field {
	meta := new(big.Int).SetUint64(logTypeID)
	meta.Lsh(meta, 64)
	meta.Or(meta, new(big.Int).SetUint64(logMetadata))

	out := make([]protocol.Field, 0, protocol.ReservedHeaderLen+len(content))
	var head protocol.Field
	head.SetBigInt(meta)
	out = append(out, head)
	out = append(out, content...)
	return out
}

// DecodeLogPlaintext splits a log plaintext into its type id, metadata and
// content. Fails with ErrMalformedLog when the header is missing or the
// metadata word exceeds its 128-bit capacity.
func DecodeLogPlaintext(plaintext []protocol.Field) (logTypeID, logMetadata uint64, content []protocol.Field, err error) {
	if len(plaintext) < protocol.ReservedHeaderLen {
		return 0, 0, nil, fmt.Errorf("%w: plaintext shorter than reserved header", ErrMalformedLog)
	}
	meta := new(big.Int)
	plaintext[0].BigInt(meta)
	if meta.BitLen() > 128 {
		return 0, 0, nil, fmt.Errorf("%w: expanded metadata word exceeds 128 bits", ErrMalformedLog)
	}
	logMetadata = new(big.Int).And(meta, maskLow64).Uint64()
	logTypeID = new(big.Int).Rsh(meta, 64).Uint64()
	return logTypeID, logMetadata, plaintext[protocol.ReservedHeaderLen:], nil
}

var maskLow64 = new(big.Int).SetUint64(^uint64(0))
