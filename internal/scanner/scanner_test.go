package scanner

import (
	"testing"

	"github.com/stretchr/testify/require"

	"notescan/internal/emitter"
	"notescan/internal/logcipher"
	"notescan/internal/protocol"
	"notescan/internal/pxe"
)

func f(v uint64) protocol.Field { return protocol.FieldFromUint64(v) }

type fixture struct {
	client    *pxe.Memory
	scanner   *Scanner
	keys      *logcipher.KeyPair
	contract  protocol.Field
	recipient protocol.Field
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keys, err := logcipher.GenerateKeyPair()
	require.NoError(t, err)
	fx := &fixture{
		client:    pxe.NewMemory(),
		keys:      keys,
		contract:  f(0xc0ffee),
		recipient: f(0xb0b),
	}
	fx.scanner = New(fx.client, fx.contract, keys, fx.recipient, nil)
	return fx
}

// noteTx commits one private note and returns its tx effect.
func (fx *fixture) noteTx(txHash, firstNullifier uint64, slot protocol.Field, packed []protocol.Field) protocol.TxEffect {
	return emitter.BuildTxEffect(fx.contract, f(txHash), f(firstNullifier),
		[]emitter.CommittedNote{{StorageSlot: slot, PackedNote: packed}})
}

func (fx *fixture) enqueuePrivateNote(t *testing.T, tag uint64, noteTypeID uint64, slot protocol.Field, packed []protocol.Field, txe protocol.TxEffect) {
	t.Helper()
	log, err := emitter.BuildPrivateNoteLog(&fx.keys.Pk, f(tag), noteTypeID, slot, packed, txe)
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(log)
}

func (fx *fixture) pendingCount(t *testing.T) int {
	t.Helper()
	n, err := fx.client.CapsuleCount(fx.contract, f(pxe.PendingWorkSlot))
	require.NoError(t, err)
	return n
}

func TestPassDeliversPrivateNote(t *testing.T) {
	fx := newFixture(t)
	slot, packed := f(42), []protocol.Field{f(100), f(200)}
	fx.enqueuePrivateNote(t, 1, 7, slot, packed, fx.noteTx(0x71, 0xae1, slot, packed))

	stats, err := fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Processed)
	require.Equal(t, 1, stats.NotesDelivered)
	require.Len(t, fx.client.Delivered, 1)

	note := fx.client.Delivered[0]
	require.Equal(t, uint64(7), note.NoteTypeID)
	require.True(t, note.StorageSlot.Equal(&slot))
	require.Equal(t, packed, note.PackedNote)
	require.True(t, note.Recipient.Equal(&fx.recipient))
	require.Equal(t, 0, fx.pendingCount(t))
}

// Three pending logs where the middle one is a partial note whose completion
// log does not exist yet: one pass removes exactly the two fully-processed
// entries and keeps the partial note pending.
func TestPassKeepsUncompletedPartialPending(t *testing.T) {
	fx := newFixture(t)
	slot, packed := f(42), []protocol.Field{f(100), f(200)}
	txe := fx.noteTx(0x71, 0xae1, slot, packed)

	fx.enqueuePrivateNote(t, 1, 7, slot, packed, txe)
	partialLog, err := emitter.BuildPartialNoteLog(&fx.keys.Pk, f(2), 8, f(43), f(777),
		[]protocol.Field{f(100)}, txe)
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(partialLog)
	eventLog, err := emitter.BuildEventLog(&fx.keys.Pk, f(3), 5, []protocol.Field{f(9)}, txe)
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(eventLog)

	stats, err := fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 3, stats.Processed)
	require.Equal(t, 1, stats.NotesDelivered)
	require.Equal(t, 1, stats.EventsStored)
	require.Equal(t, 1, stats.PartialsPending)

	// the partial note remains, stored as a decoded pending entry
	require.Equal(t, 1, fx.pendingCount(t))
	entry, err := fx.client.CapsuleAt(fx.contract, f(pxe.PendingWorkSlot), 0)
	require.NoError(t, err)
	require.Equal(t, protocol.WorkKindPendingPartial, entry[0].Uint64())

	require.Len(t, fx.client.Events, 1)
	require.Equal(t, uint64(5), fx.client.Events[0].EventTypeID)
	require.Equal(t, []protocol.Field{f(9)}, fx.client.Events[0].Payload)
}

func TestPartialCompletesOnLaterPass(t *testing.T) {
	fx := newFixture(t)
	completionTag := f(777)
	privateFields := []protocol.Field{f(100)}
	publicFields := []protocol.Field{f(200)}
	merged := []protocol.Field{f(100), f(200)}

	partialLog, err := emitter.BuildPartialNoteLog(&fx.keys.Pk, f(2), 8, f(43), completionTag,
		privateFields, fx.noteTx(0x71, 0xae1, f(42), []protocol.Field{f(1)}))
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(partialLog)

	stats, err := fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PartialsPending)
	require.Equal(t, 1, fx.pendingCount(t))

	// second pass without the completion log: still pending
	stats, err = fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PartialsPending)
	require.Equal(t, 1, fx.pendingCount(t))

	// publish the completion log: merged note committed with a zero nonce
	completionTxe := emitter.BuildTxEffect(fx.contract, f(0x72), f(0xae2),
		[]emitter.CommittedNote{{StorageSlot: f(43), PackedNote: merged, PublicOnly: true}})
	fx.client.PublishPublicLog(completionTag, emitter.BuildCompletionLog(fx.contract, publicFields, completionTxe))

	stats, err = fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 1, stats.PartialsCompleted)
	require.Equal(t, 1, stats.NotesDelivered)
	require.Equal(t, 0, fx.pendingCount(t))

	require.Len(t, fx.client.Delivered, 1)
	note := fx.client.Delivered[0]
	require.Equal(t, merged, note.PackedNote)
	require.True(t, note.Nonce.IsZero())
	require.Equal(t, uint64(8), note.NoteTypeID)
}

// A completion log whose siloing prefix names another contract consumes the
// pending entry without delivering anything.
func TestPartialCompletionWithForeignPrefixDropsEntry(t *testing.T) {
	fx := newFixture(t)
	completionTag := f(777)
	partialLog, err := emitter.BuildPartialNoteLog(&fx.keys.Pk, f(2), 8, f(43), completionTag,
		[]protocol.Field{f(100)}, fx.noteTx(0x71, 0xae1, f(42), []protocol.Field{f(1)}))
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(partialLog)
	_, err = fx.scanner.Sync()
	require.NoError(t, err)

	foreignTxe := emitter.BuildTxEffect(f(0xdead), f(0x72), f(0xae2), nil)
	fx.client.PublishPublicLog(completionTag, emitter.BuildCompletionLog(f(0xdead), []protocol.Field{f(200)}, foreignTxe))

	_, err = fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 0, fx.pendingCount(t))
	require.Empty(t, fx.client.Delivered)
}

func TestUnknownLogTypeIsSkippedWithoutAborting(t *testing.T) {
	fx := newFixture(t)
	slot, packed := f(42), []protocol.Field{f(100), f(200)}
	txe := fx.noteTx(0x71, 0xae1, slot, packed)

	unknown, err := emitter.BuildRawLog(&fx.keys.Pk, f(9), 99, 0, []protocol.Field{f(5)}, txe)
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(unknown)
	fx.enqueuePrivateNote(t, 2, 7, slot, packed, txe)

	stats, err := fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 2, stats.Processed)
	require.Equal(t, 1, stats.Skipped)
	require.Equal(t, 1, stats.NotesDelivered)
	require.Equal(t, 0, fx.pendingCount(t))
}

func TestLogForSomeoneElseIsDiscarded(t *testing.T) {
	fx := newFixture(t)
	other, err := logcipher.GenerateKeyPair()
	require.NoError(t, err)

	slot, packed := f(42), []protocol.Field{f(100), f(200)}
	txe := fx.noteTx(0x71, 0xae1, slot, packed)
	log, err := emitter.BuildPrivateNoteLog(&other.Pk, f(1), 7, slot, packed, txe)
	require.NoError(t, err)
	fx.client.EnqueueTaggedLog(log)

	stats, err := fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 1, stats.Skipped)
	require.Empty(t, fx.client.Delivered)
	require.Equal(t, 0, fx.pendingCount(t))
}

// A note that discovery cannot match to its transaction is discarded silently.
func TestNoteWithNoMatchingHashIsDiscarded(t *testing.T) {
	fx := newFixture(t)
	slot, packed := f(42), []protocol.Field{f(100), f(200)}
	// tx effect committing a different note
	txe := fx.noteTx(0x71, 0xae1, slot, []protocol.Field{f(999)})
	fx.enqueuePrivateNote(t, 1, 7, slot, packed, txe)

	stats, err := fx.scanner.Sync()
	require.NoError(t, err)
	require.Equal(t, 0, stats.NotesDelivered)
	require.Empty(t, fx.client.Delivered)
	require.Equal(t, 0, fx.pendingCount(t))
}

func TestDeliveryRejectionAbortsPass(t *testing.T) {
	fx := newFixture(t)
	fx.client.FailDelivery = true
	slot, packed := f(42), []protocol.Field{f(100), f(200)}
	fx.enqueuePrivateNote(t, 1, 7, slot, packed, fx.noteTx(0x71, 0xae1, slot, packed))

	_, err := fx.scanner.Sync()
	require.ErrorIs(t, err, ErrDeliveryFailed)
}
