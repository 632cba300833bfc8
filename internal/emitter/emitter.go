// emitter.go - Sender side of the log pipeline.
//
// Builds the encrypted tagged logs a contract emits at note-emission time:
// private-note logs, partial-note announcement logs with their public
// completion logs, and event logs. The demo scenario and the end-to-end tests
// drive the scanner with logs built here.

package emitter

import (
	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"

	"notescan/internal/logcipher"
	"notescan/internal/protocol"
	"notescan/internal/wire"
)

// BuildPrivateNoteLog encrypts a full private note for a recipient.
func BuildPrivateNoteLog(recipientPk *bn254.G1Affine, tag protocol.Field, noteTypeID uint64, storageSlot protocol.Field, packedNote []protocol.Field, txe protocol.TxEffect) (*protocol.TaggedLog, error) {
	content := append([]protocol.Field{storageSlot}, packedNote...)
	return BuildRawLog(recipientPk, tag, protocol.LogTypePrivateNote, noteTypeID, content, txe)
}

// BuildPartialNoteLog encrypts the private half of a partial note. The
// completion tag names the public log that will later supply the remaining
// fields.
func BuildPartialNoteLog(recipientPk *bn254.G1Affine, tag protocol.Field, noteTypeID uint64, storageSlot, completionTag protocol.Field, privateFields []protocol.Field, txe protocol.TxEffect) (*protocol.TaggedLog, error) {
	content := append([]protocol.Field{completionTag, storageSlot}, privateFields...)
	return BuildRawLog(recipientPk, tag, protocol.LogTypePartialNote, noteTypeID, content, txe)
}

// BuildEventLog encrypts a serialized event payload.
func BuildEventLog(recipientPk *bn254.G1Affine, tag protocol.Field, eventTypeID uint64, payload []protocol.Field, txe protocol.TxEffect) (*protocol.TaggedLog, error) {
	return BuildRawLog(recipientPk, tag, protocol.LogTypeEvent, eventTypeID, payload, txe)
}

// BuildCompletionLog lays out the public log that completes a partial note:
// the contract-address siloing prefix followed by the public fields.
func BuildCompletionLog(contractAddress protocol.Field, publicFields []protocol.Field, txe protocol.TxEffect) *protocol.PublicLog {
	return &protocol.PublicLog{
		Content:  append([]protocol.Field{contractAddress}, publicFields...),
		TxEffect: txe,
	}
}

// BuildRawLog encrypts a log with an arbitrary log type id. The typed builders
// above cover the wired-up log kinds; this exists for emitting log types a
// given scanner does not know yet.
func BuildRawLog(recipientPk *bn254.G1Affine, tag protocol.Field, logTypeID, logMetadata uint64, content []protocol.Field, txe protocol.TxEffect) (*protocol.TaggedLog, error) {
	plaintext := wire.EncodeLogPlaintext(logTypeID, logMetadata, content)
	eph, ciphertext, err := logcipher.Encrypt(plaintext, recipientPk)
	if err != nil {
		return nil, err
	}
	return &protocol.TaggedLog{
		Tag:         tag,
		EphemeralPk: eph,
		Ciphertext:  ciphertext,
		TxEffect:    txe,
	}, nil
}
