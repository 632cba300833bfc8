// workitem.go - Field-array encoding of pending tagged logs.
//
// The external capsule store only holds field arrays, so everything queued for
// a discovery pass is flattened here. The first word of a capsule entry is the
// work kind (protocol.WorkKindTaggedLog / protocol.WorkKindPendingPartial);
// this file encodes the tagged-log body that follows a WorkKindTaggedLog word.

package wire

import (
	"fmt"

	"notescan/internal/protocol"
)

// EncodeTaggedLog flattens a tagged log (envelope, tx effect and ciphertext)
// into a field array:
//
//	[tag, pk0, pk1, tx_hash, first_nullifier, n_hashes, ...hashes, n_cipher, ...cipher]
//
// The ephemeral public key travels as its 32-byte compressed encoding packed
// into two fields.
func EncodeTaggedLog(log *protocol.TaggedLog) []protocol.Field {
	pkBytes := log.EphemeralPk.Bytes()
	pk := PackBytesIntoFields(pkBytes[:])

	out := make([]protocol.Field, 0, 7+len(log.TxEffect.UniqueNoteHashes)+len(log.Ciphertext))
	out = append(out, log.Tag)
	out = append(out, pk...)
	out = append(out, log.TxEffect.TxHash, log.TxEffect.FirstNullifier)
	out = append(out, protocol.FieldFromUint64(uint64(len(log.TxEffect.UniqueNoteHashes))))
	out = append(out, log.TxEffect.UniqueNoteHashes...)
	out = append(out, protocol.FieldFromUint64(uint64(len(log.Ciphertext))))
	out = append(out, log.Ciphertext...)
	return out
}

// DecodeTaggedLog is the inverse of EncodeTaggedLog.
func DecodeTaggedLog(entry []protocol.Field) (*protocol.TaggedLog, error) {
	// tag + 2 pk words + tx hash + first nullifier + two length words
	if len(entry) < 7 {
		return nil, fmt.Errorf("%w: tagged-log entry has %d words", ErrMalformedLog, len(entry))
	}
	var log protocol.TaggedLog
	log.Tag = entry[0]

	pkBytes, err := UnpackBytesFromFields(entry[1:3], 32)
	if err != nil {
		return nil, err
	}
	if _, err := log.EphemeralPk.SetBytes(pkBytes); err != nil {
		return nil, fmt.Errorf("%w: invalid ephemeral public key: %v", ErrMalformedLog, err)
	}

	log.TxEffect.TxHash = entry[3]
	log.TxEffect.FirstNullifier = entry[4]

	nHashes, err := fieldToLen(entry[5], protocol.MaxNoteHashesPerTx)
	if err != nil {
		return nil, err
	}
	rest := entry[6:]
	if len(rest) < nHashes+1 {
		return nil, fmt.Errorf("%w: truncated note-hash set", ErrMalformedLog)
	}
	log.TxEffect.UniqueNoteHashes = append([]protocol.Field(nil), rest[:nHashes]...)
	rest = rest[nHashes:]

	nCipher, err := fieldToLen(rest[0], maxCiphertextFields)
	if err != nil {
		return nil, err
	}
	if len(rest) != nCipher+1 {
		return nil, fmt.Errorf("%w: ciphertext length %d does not match entry", ErrMalformedLog, nCipher)
	}
	log.Ciphertext = append([]protocol.Field(nil), rest[1:]...)
	return &log, nil
}

// maxCiphertextFields bounds the packed ciphertext of one log.
const maxCiphertextFields = (protocol.LogCiphertextByteLen + bytesPerField - 1) / bytesPerField

// fieldToLen interprets a field as a small length, rejecting out-of-range values.
func fieldToLen(f protocol.Field, max int) (int, error) {
	if !f.IsUint64() || f.Uint64() > uint64(max) {
		return 0, fmt.Errorf("%w: length word out of range", ErrMalformedLog)
	}
	return int(f.Uint64()), nil
}
