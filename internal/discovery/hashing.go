// hashing.go - The note hashing chain.
//
// A note commitment goes through four stages before it lands in a transaction's
// note-hash set: content hash, inner hash (scoped to a storage slot), siloed
// hash (scoped to a contract) and unique hash (scoped to a nonce). Discovery
// re-derives the chain from candidate inputs and matches the result against
// the on-chain set.

package discovery

import (
	"notescan/internal/protocol"
)

// NoteContentHash hashes the packed note fields.
func NoteContentHash(packedNote []protocol.Field) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexNoteContent, packedNote...)
}

// InnerNoteHash scopes a content hash to its storage slot.
func InnerNoteHash(storageSlot, contentHash protocol.Field) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexInnerNoteHash, storageSlot, contentHash)
}

// SiloedNoteHash scopes an inner note hash to the emitting contract.
func SiloedNoteHash(contractAddress, innerNoteHash protocol.Field) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexSiloedNoteHash, contractAddress, innerNoteHash)
}

// UniqueNoteHash scopes a siloed note hash to its in-transaction nonce.
func UniqueNoteHash(nonce, siloedNoteHash protocol.Field) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexUniqueNoteHash, nonce, siloedNoteHash)
}

// NoteNonce derives the nonce of the note at the given position of a
// transaction from the transaction's first nullifier.
func NoteNonce(firstNullifier protocol.Field, index uint64) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexNoteNonce, firstNullifier, protocol.FieldFromUint64(index))
}

// InnerNullifier derives the nullifier preimage handed to the external client
// along with a discovered note.
func InnerNullifier(noteHash protocol.Field) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexNullifier, noteHash)
}
