package discovery

import (
	"testing"

	"github.com/stretchr/testify/require"

	"notescan/internal/protocol"
)

func f(v uint64) protocol.Field { return protocol.FieldFromUint64(v) }

func TestDiscoverySoundness(t *testing.T) {
	contract, slot := f(0xc0ffee), f(42)
	firstNullifier := f(0xae1)
	packed := []protocol.Field{f(100), f(200)}

	// Commit the note at position 2 of a 4-note transaction.
	siloed := SiloedNoteHash(contract, InnerNoteHash(slot, NoteContentHash(packed)))
	nonce := NoteNonce(firstNullifier, 2)
	unique := UniqueNoteHash(nonce, siloed)
	hashes := []protocol.Field{f(1111), f(2222), unique, f(3333)}

	infos := AttemptNoteNonceDiscovery(hashes, firstNullifier, contract, slot, 7, packed)
	require.Len(t, infos, 1)
	require.True(t, infos[0].Nonce.Equal(&nonce))
	require.True(t, infos[0].NoteHash.Equal(&unique))
	wantNullifier := InnerNullifier(unique)
	require.True(t, infos[0].InnerNullifier.Equal(&wantNullifier))
}

func TestDiscoveryIgnoresNoise(t *testing.T) {
	contract, slot := f(0xc0ffee), f(42)
	packed := []protocol.Field{f(100), f(200)}

	// A set of unrelated hashes must produce no matches.
	hashes := make([]protocol.Field, 0, 16)
	for i := uint64(0); i < 16; i++ {
		hashes = append(hashes, protocol.Hash(protocol.GeneratorIndexNoteContent, f(9000+i)))
	}
	infos := AttemptNoteNonceDiscovery(hashes, f(0xae1), contract, slot, 7, packed)
	require.Empty(t, infos)
}

func TestDiscoveryZeroNonce(t *testing.T) {
	contract, slot := f(0xc0ffee), f(43)
	packed := []protocol.Field{f(100), f(200)}

	// Public-complete notes are inserted under their siloed hash directly.
	siloed := SiloedNoteHash(contract, InnerNoteHash(slot, NoteContentHash(packed)))
	hashes := []protocol.Field{f(1111), siloed}

	infos := AttemptNoteNonceDiscovery(hashes, f(0xae2), contract, slot, 8, packed)
	require.Len(t, infos, 1)
	require.True(t, infos[0].Nonce.IsZero())
	require.True(t, infos[0].NoteHash.Equal(&siloed))
}

func TestDiscoveryEmptySet(t *testing.T) {
	infos := AttemptNoteNonceDiscovery(nil, f(1), f(2), f(3), 7, []protocol.Field{f(4)})
	require.Empty(t, infos)
}

func TestDiscoveryCapsAtMaxNoteHashes(t *testing.T) {
	contract, slot := f(0xc0ffee), f(42)
	firstNullifier := f(0xae1)
	packed := []protocol.Field{f(100)}

	siloed := SiloedNoteHash(contract, InnerNoteHash(slot, NoteContentHash(packed)))
	unique := UniqueNoteHash(NoteNonce(firstNullifier, 0), siloed)

	// The match sits beyond the protocol bound and must not be found.
	hashes := make([]protocol.Field, protocol.MaxNoteHashesPerTx+1)
	for i := range hashes {
		hashes[i] = f(uint64(5000 + i))
	}
	hashes[protocol.MaxNoteHashesPerTx] = unique

	infos := AttemptNoteNonceDiscovery(hashes, firstNullifier, contract, slot, 7, packed)
	require.Empty(t, infos)
}
