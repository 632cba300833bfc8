// protocol.go - Core types and constants for the private-note discovery protocol.
//
// Defines the field type, log layout constants, generator indexes for domain-separated
// hashing, and the transport-level envelope types shared by the whole pipeline.

package protocol

import (
	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Field is the protocol's native field element (BN254 scalar field).
// Every value that crosses the log wire format is a Field.
type Field = fr.Element

// Protocol constants. These mirror fixed protocol parameters and must not be
// changed without breaking compatibility with previously emitted logs.
const (
	// MaxNoteHashesPerTx bounds the note-hash set of a single transaction.
	// Nonce discovery is a linear scan capped by this constant.
	MaxNoteHashesPerTx = 64

	// ReservedHeaderLen is the number of leading plaintext words reserved for
	// log metadata (currently just the expanded-metadata word).
	ReservedHeaderLen = 1

	// LogPlaintextLen is the fixed width, in fields, of an encrypted log
	// plaintext (header + content + random filler). Fixing the width hides the
	// true content length of a log.
	LogPlaintextLen = 18

	// LogCiphertextByteLen is the byte length of the encrypted region of a log:
	// a 2-byte length prefix followed by up to LogPlaintextLen serialized fields.
	LogCiphertextByteLen = 2 + LogPlaintextLen*32
)

// Log type identifiers carried in the high 64 bits of the expanded-metadata word.
const (
	LogTypePrivateNote uint64 = 0
	LogTypePartialNote uint64 = 1
	LogTypeEvent       uint64 = 2
)

// Pending-work kinds stored as the first word of a capsule work item.
const (
	WorkKindTaggedLog      uint64 = 0
	WorkKindPendingPartial uint64 = 1
)

// Generator indexes domain-separate the hash uses of the protocol. Each hash
// invocation prepends its index so that, e.g., a nonce can never collide with
// a note hash over the same inputs.
const (
	GeneratorIndexNoteContent uint64 = iota + 1
	GeneratorIndexInnerNoteHash
	GeneratorIndexSiloedNoteHash
	GeneratorIndexUniqueNoteHash
	GeneratorIndexNoteNonce
	GeneratorIndexNullifier
	GeneratorIndexTag
	GeneratorIndexSymmetricKey
	GeneratorIndexSymmetricNonce
)

// TxEffect is the public side effect of one transaction, as far as note
// discovery is concerned: the set of unique note hashes it inserted and its
// first nullifier (the seed for nonce derivation).
type TxEffect struct {
	TxHash           Field
	UniqueNoteHashes []Field
	FirstNullifier   Field
}

// TaggedLog is the transport envelope of an encrypted log. The tag and the
// ephemeral public key ride outside the encrypted region so that a scanner can
// group logs by tag and run ECDH without decrypting. The TxEffect of the
// transaction that emitted the log travels with it; the external client knows
// which transaction carried each log it hands out.
type TaggedLog struct {
	Tag         Field
	EphemeralPk bn254.G1Affine
	Ciphertext  []Field
	TxEffect    TxEffect
}

// PublicLog is an unencrypted log emitted during public execution, retrievable
// by tag. Used to complete partial notes. Content is laid out as
// [siloing_prefix, ...public_fields].
type PublicLog struct {
	Content  []Field
	TxEffect TxEffect
}

// FieldFromUint64 lifts a small integer into the field.
func FieldFromUint64(v uint64) Field {
	var f Field
	f.SetUint64(v)
	return f
}
