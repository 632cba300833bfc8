// discovery.go - Note nonce discovery.
//
// Given a candidate packed note and the note-hash set of a transaction,
// discovery recovers the nonce(s) under which the note's commitment appears in
// the set. This runs off-proof: its output is untrusted bookkeeping that a
// separate constrained code path re-derives and checks before acting on it.

package discovery

import (
	"notescan/internal/protocol"
)

// DiscoveredNoteInfo is one successful discovery: the nonce that makes the
// note's unique hash match an on-chain hash, the matched hash, and the
// nullifier preimage to register with the external client.
type DiscoveredNoteInfo struct {
	Nonce          protocol.Field
	NoteHash       protocol.Field
	InnerNullifier protocol.Field
}

// AttemptNoteNonceDiscovery scans a transaction's unique-note-hash set for the
// candidate note. Two kinds of candidate are tried:
//
//   - the zero-nonce case: the siloed hash itself is looked up directly, used
//     by notes completed entirely in public execution;
//   - one nonce per set position, derived from the transaction's first
//     nullifier, each checked by membership of the resulting unique hash.
//
// Every match yields one entry; no match yields an empty result, which is the
// normal outcome when the note does not belong to this transaction, not an
// error. The scan is bounded by protocol.MaxNoteHashesPerTx.
func AttemptNoteNonceDiscovery(
	uniqueNoteHashes []protocol.Field,
	firstNullifier protocol.Field,
	contractAddress protocol.Field,
	storageSlot protocol.Field,
	noteTypeID uint64,
	packedNote []protocol.Field,
) []DiscoveredNoteInfo {
	_ = noteTypeID // not part of the hashing chain; carried through delivery

	inner := InnerNoteHash(storageSlot, NoteContentHash(packedNote))
	siloed := SiloedNoteHash(contractAddress, inner)

	hashes := uniqueNoteHashes
	if len(hashes) > protocol.MaxNoteHashesPerTx {
		hashes = hashes[:protocol.MaxNoteHashesPerTx]
	}

	var found []DiscoveredNoteInfo
	var zero protocol.Field
	for i := range hashes {
		if hashes[i].Equal(&siloed) {
			found = append(found, DiscoveredNoteInfo{
				Nonce:          zero,
				NoteHash:       siloed,
				InnerNullifier: InnerNullifier(siloed),
			})
		}
	}
	for i := range hashes {
		nonce := NoteNonce(firstNullifier, uint64(i))
		unique := UniqueNoteHash(nonce, siloed)
		for j := range hashes {
			if hashes[j].Equal(&unique) {
				found = append(found, DiscoveredNoteInfo{
					Nonce:          nonce,
					NoteHash:       unique,
					InnerNullifier: InnerNullifier(unique),
				})
			}
		}
	}
	return found
}
