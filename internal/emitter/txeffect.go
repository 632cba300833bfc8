// txeffect.go - Building the public side effect of a note-emitting transaction.

package emitter

import (
	"notescan/internal/discovery"
	"notescan/internal/protocol"
)

// CommittedNote is one note a transaction commits on-chain.
type CommittedNote struct {
	StorageSlot protocol.Field
	PackedNote  []protocol.Field
	// PublicOnly notes are inserted under their siloed hash with a zero nonce,
	// the form taken by notes completed entirely in public execution.
	PublicOnly bool
}

// BuildTxEffect derives the unique-note-hash set a transaction publishes for
// the given notes, positioned in order.
func BuildTxEffect(contractAddress, txHash, firstNullifier protocol.Field, notes []CommittedNote) protocol.TxEffect {
	txe := protocol.TxEffect{
		TxHash:         txHash,
		FirstNullifier: firstNullifier,
	}
	for i, n := range notes {
		inner := discovery.InnerNoteHash(n.StorageSlot, discovery.NoteContentHash(n.PackedNote))
		siloed := discovery.SiloedNoteHash(contractAddress, inner)
		if n.PublicOnly {
			txe.UniqueNoteHashes = append(txe.UniqueNoteHashes, siloed)
			continue
		}
		nonce := discovery.NoteNonce(firstNullifier, uint64(i))
		txe.UniqueNoteHashes = append(txe.UniqueNoteHashes, discovery.UniqueNoteHash(nonce, siloed))
	}
	return txe
}
