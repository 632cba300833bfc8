// main.go - End-to-end note discovery scenario.
//
// Demonstrates the complete discovery pipeline against the in-memory external
// client:
//   - a sender emits a private note, an event and a partial note to Bob
//   - Bob's scanner runs one pass: the note and the event are processed, the
//     partial note stays pending because its completion log has not appeared
//   - the completion log is published and a second pass completes the partial
//     note
//
// Usage:
//   go run main.go

package main

import (
	"os"

	"github.com/rs/zerolog"

	"notescan/internal/emitter"
	"notescan/internal/layout"
	"notescan/internal/logcipher"
	"notescan/internal/logger"
	"notescan/internal/protocol"
	"notescan/internal/pxe"
	"notescan/internal/scanner"
)

func main() {
	logger.Set(zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}).
		With().Timestamp().Logger())
	log := logger.Logger().With().Str("component", "demo").Logger()

	table, err := layout.NewTable(
		layout.StateVariable{Name: "balances", BaseSlot: 42, Size: 1, NoteTypeID: 7},
		layout.StateVariable{Name: "escrow", BaseSlot: 43, Size: 1, NoteTypeID: 8},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("building layout table")
	}

	bob, err := logcipher.GenerateKeyPair()
	if err != nil {
		log.Fatal().Err(err).Msg("generating recipient keypair")
	}

	contract := protocol.FieldFromUint64(0xc0ffee)
	recipient := protocol.FieldFromUint64(0xb0b)
	taggingSecret := protocol.FieldFromUint64(0x5ec4e7)

	completionTag := logcipher.DeriveTag(taggingSecret, 1000)

	client := pxe.NewMemory()
	if err := emitScenario(client, table, bob, contract, taggingSecret, completionTag); err != nil {
		log.Fatal().Err(err).Msg("emitting scenario logs")
	}

	// First pass: the private note and the event complete; the partial note
	// stays pending because its completion log has not been published yet.
	scan := scanner.New(client, contract, bob, recipient, table)
	stats, err := scan.Sync()
	if err != nil {
		log.Fatal().Err(err).Msg("first discovery pass failed")
	}
	log.Info().
		Int("delivered", stats.NotesDelivered).
		Int("events", stats.EventsStored).
		Int("pending_partials", stats.PartialsPending).
		Msg("first pass done")

	publishCompletion(client, table, contract, completionTag)

	// Second pass: the completion log is found, the partial note is merged and
	// delivered.
	stats, err = scan.Sync()
	if err != nil {
		log.Fatal().Err(err).Msg("second discovery pass failed")
	}
	log.Info().
		Int("delivered", stats.NotesDelivered).
		Int("completed_partials", stats.PartialsCompleted).
		Msg("second pass done")

	for i := range client.Delivered {
		n := &client.Delivered[i]
		log.Info().
			Str("slot", n.StorageSlot.String()).
			Uint64("note_type", n.NoteTypeID).
			Str("note_hash", n.NoteHash.String()).
			Str("nonce", n.Nonce.String()).
			Msg("delivered note")
	}
}

// emitScenario enqueues one private note, one event and one partial-note
// announcement for the recipient.
func emitScenario(client *pxe.Memory, table *layout.Table, bob *logcipher.KeyPair, contract, taggingSecret, completionTag protocol.Field) error {
	balancesSlot, _ := table.SlotOf("balances")
	escrowSlot, _ := table.SlotOf("escrow")

	// A transaction committing one full private note at the balances slot.
	packed := []protocol.Field{protocol.FieldFromUint64(100), protocol.FieldFromUint64(200)}
	txe := emitter.BuildTxEffect(contract,
		protocol.FieldFromUint64(0x71),
		protocol.FieldFromUint64(0xae1),
		[]emitter.CommittedNote{{StorageSlot: balancesSlot, PackedNote: packed}})

	noteLog, err := emitter.BuildPrivateNoteLog(&bob.Pk, logcipher.DeriveTag(taggingSecret, 0), 7, balancesSlot, packed, txe)
	if err != nil {
		return err
	}
	client.EnqueueTaggedLog(noteLog)

	eventLog, err := emitter.BuildEventLog(&bob.Pk, logcipher.DeriveTag(taggingSecret, 1), 3,
		[]protocol.Field{protocol.FieldFromUint64(1), protocol.FieldFromUint64(2)}, txe)
	if err != nil {
		return err
	}
	client.EnqueueTaggedLog(eventLog)

	// The partial note announces its private fields now; its public fields
	// arrive later in the completion transaction.
	partialLog, err := emitter.BuildPartialNoteLog(&bob.Pk, logcipher.DeriveTag(taggingSecret, 2), 8,
		escrowSlot, completionTag, []protocol.Field{protocol.FieldFromUint64(100)}, txe)
	if err != nil {
		return err
	}
	client.EnqueueTaggedLog(partialLog)
	return nil
}

// publishCompletion publishes the public log that completes the partial note.
// The completed note is committed with a zero nonce under its siloed hash.
func publishCompletion(client *pxe.Memory, table *layout.Table, contract, completionTag protocol.Field) {
	escrowSlot, _ := table.SlotOf("escrow")
	merged := []protocol.Field{protocol.FieldFromUint64(100), protocol.FieldFromUint64(200)}
	completionTxe := emitter.BuildTxEffect(contract,
		protocol.FieldFromUint64(0x72),
		protocol.FieldFromUint64(0xae2),
		[]emitter.CommittedNote{{StorageSlot: escrowSlot, PackedNote: merged, PublicOnly: true}})

	pub := emitter.BuildCompletionLog(contract, []protocol.Field{protocol.FieldFromUint64(200)}, completionTxe)
	client.PublishPublicLog(completionTag, pub)
}
