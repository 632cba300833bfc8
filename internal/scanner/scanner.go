// scanner.go - The discovery orchestrator.
//
// One pass pulls all pending tagged logs from the external store, processes
// each exactly once and removes it. The pending-work capsule array compacts by
// shifting on removal, so the pass iterates in reverse index order: removing
// entry i never moves a not-yet-visited index below i.
//
// The whole pass runs off-proof. Discovery output is untrusted bookkeeping
// that a separate constrained code path re-derives and checks before acting,
// which is why heuristic handling of garbage input (skip, don't abort) is safe
// here.

package scanner

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"notescan/internal/discovery"
	"notescan/internal/layout"
	"notescan/internal/logcipher"
	"notescan/internal/logger"
	"notescan/internal/partial"
	"notescan/internal/protocol"
	"notescan/internal/pxe"
	"notescan/internal/wire"
)

// ErrDeliveryFailed means a note passed discovery but the external client
// rejected it. The pass aborts.
//
// TODO: make rejected deliveries retriable instead of aborting the whole pass.
var ErrDeliveryFailed = errors.New("note delivery rejected by external client")

// Scanner drives note discovery for one (contract, recipient) pair.
type Scanner struct {
	client    pxe.Client
	contract  protocol.Field
	keys      *logcipher.KeyPair
	recipient protocol.Field
	table     *layout.Table
	log       zerolog.Logger
}

// New creates a scanner. The layout table may be nil when slot attribution is
// not wanted.
func New(client pxe.Client, contractAddress protocol.Field, keys *logcipher.KeyPair, recipient protocol.Field, table *layout.Table) *Scanner {
	return &Scanner{
		client:    client,
		contract:  contractAddress,
		keys:      keys,
		recipient: recipient,
		table:     table,
		log:       logger.Logger().With().Str("component", "scanner").Logger(),
	}
}

// PassStats summarizes one discovery pass.
type PassStats struct {
	Processed         int // work items examined
	NotesDelivered    int
	EventsStored      int
	Skipped           int // undecryptable, malformed or unknown-type entries
	PartialsPending   int // partial notes still awaiting completion
	PartialsCompleted int
}

// Sync runs one discovery pass: refresh the pending-work array, then process
// and remove each entry. Partial notes whose completion log has not appeared
// yet stay in the array as pending entries.
func (s *Scanner) Sync() (PassStats, error) {
	var stats PassStats
	if err := s.client.SyncTaggedLogs(s.contract); err != nil {
		return stats, fmt.Errorf("syncing tagged logs: %w", err)
	}
	baseSlot := protocol.FieldFromUint64(pxe.PendingWorkSlot)
	n, err := s.client.CapsuleCount(s.contract, baseSlot)
	if err != nil {
		return stats, err
	}
	s.log.Debug().Int("pending", n).Msg("starting discovery pass")

	for i := n - 1; i >= 0; i-- {
		entry, err := s.client.CapsuleAt(s.contract, baseSlot, i)
		if err != nil {
			return stats, err
		}
		stats.Processed++
		remove, err := s.processEntry(entry, i, &stats)
		if err != nil {
			return stats, err
		}
		if remove {
			if err := s.client.CapsuleRemove(s.contract, baseSlot, i); err != nil {
				return stats, err
			}
		}
	}
	return stats, nil
}

// processEntry dispatches one work item by kind. The returned bool says
// whether the entry should be removed from the array.
func (s *Scanner) processEntry(entry []protocol.Field, index int, stats *PassStats) (bool, error) {
	if len(entry) == 0 || !entry[0].IsUint64() {
		s.log.Warn().Int("index", index).Msg("dropping work item without a kind word")
		stats.Skipped++
		return true, nil
	}
	switch entry[0].Uint64() {
	case protocol.WorkKindTaggedLog:
		log, err := wire.DecodeTaggedLog(entry[1:])
		if errors.Is(err, wire.ErrMalformedLog) {
			s.log.Warn().Int("index", index).Err(err).Msg("dropping malformed tagged log")
			stats.Skipped++
			return true, nil
		}
		if err != nil {
			return false, err
		}
		return s.processTaggedLog(log, index, stats)
	case protocol.WorkKindPendingPartial:
		pending, err := partial.FromFields(entry[1:])
		if errors.Is(err, wire.ErrMalformedLog) {
			s.log.Warn().Int("index", index).Err(err).Msg("dropping malformed pending partial-note entry")
			stats.Skipped++
			return true, nil
		}
		if err != nil {
			return false, err
		}
		completed, err := s.checkPendingPartial(pending, stats)
		if err != nil {
			return false, err
		}
		if !completed {
			stats.PartialsPending++
		}
		return completed, nil
	default:
		s.log.Warn().Int("index", index).Uint64("kind", entry[0].Uint64()).Msg("dropping work item of unknown kind")
		stats.Skipped++
		return true, nil
	}
}

// processTaggedLog decrypts and decodes a fresh tagged log and dispatches on
// its log type.
func (s *Scanner) processTaggedLog(log *protocol.TaggedLog, index int, stats *PassStats) (bool, error) {
	plaintext, err := logcipher.Decrypt(&log.EphemeralPk, log.Ciphertext, s.keys)
	if err != nil {
		// Expected for logs addressed to someone else: garbage plaintext fails
		// the structural checks. Consumed and discarded, never an abort.
		s.log.Debug().Int("index", index).Msg("log not decryptable with our keys; discarding")
		stats.Skipped++
		return true, nil
	}
	logTypeID, logMetadata, content, err := wire.DecodeLogPlaintext(plaintext)
	if err != nil {
		s.log.Warn().Int("index", index).Err(err).Msg("dropping structurally invalid log plaintext")
		stats.Skipped++
		return true, nil
	}

	switch logTypeID {
	case protocol.LogTypePrivateNote:
		if len(content) < 2 {
			s.log.Warn().Int("index", index).Msg("private-note log content too short")
			stats.Skipped++
			return true, nil
		}
		return true, s.handlePrivateNote(content[0], logMetadata, content[1:], &log.TxEffect, stats)

	case protocol.LogTypePartialNote:
		if len(content) < 2 {
			s.log.Warn().Int("index", index).Msg("partial-note log content too short")
			stats.Skipped++
			return true, nil
		}
		pending := &partial.PendingPartialNote{
			CompletionTag: content[0],
			StorageSlot:   content[1],
			NoteTypeID:    logMetadata,
			PrivateFields: content[2:],
			Recipient:     s.recipient,
		}
		completed, err := s.checkPendingPartial(pending, stats)
		if err != nil {
			return false, err
		}
		if !completed {
			// Keep the decoded entry in place of the raw log so later passes
			// can retry the completion lookup without re-decrypting.
			baseSlot := protocol.FieldFromUint64(pxe.PendingWorkSlot)
			item := append(
				[]protocol.Field{protocol.FieldFromUint64(protocol.WorkKindPendingPartial)},
				pending.ToFields()...,
			)
			if err := s.client.CapsuleSet(s.contract, baseSlot, index, item); err != nil {
				return false, err
			}
			stats.PartialsPending++
		}
		return completed, nil

	case protocol.LogTypeEvent:
		event := &pxe.EventLog{
			ContractAddress: s.contract,
			EventTypeID:     logMetadata,
			Payload:         content,
			TxHash:          log.TxEffect.TxHash,
		}
		if err := s.client.StoreEventLog(event); err != nil {
			return false, err
		}
		stats.EventsStored++
		return true, nil

	default:
		// Unknown log types are skipped, not errors: future log kinds must not
		// break old scanners.
		s.log.Info().Uint64("log_type", logTypeID).Msg("skipping log of unknown type")
		stats.Skipped++
		return true, nil
	}
}

// handlePrivateNote runs nonce discovery on a decoded private note and
// delivers every match.
func (s *Scanner) handlePrivateNote(storageSlot protocol.Field, noteTypeID uint64, packedNote []protocol.Field, txe *protocol.TxEffect, stats *PassStats) error {
	infos := discovery.AttemptNoteNonceDiscovery(
		txe.UniqueNoteHashes, txe.FirstNullifier, s.contract, storageSlot, noteTypeID, packedNote)
	if len(infos) == 0 {
		// Not this transaction's note. Normal, not an error.
		s.log.Debug().Str("tx", txe.TxHash.String()).Msg("no nonce found for note; discarding")
		return nil
	}
	for i := range infos {
		if err := s.deliver(storageSlot, noteTypeID, packedNote, &infos[i], txe.TxHash, stats); err != nil {
			return err
		}
	}
	return nil
}

// checkPendingPartial looks up the completion log for a pending partial note.
// Returns false when the log has not appeared yet (the entry stays pending).
// Any other outcome consumes the entry, even when discovery on the merged note
// fails; such a failure is not retried.
func (s *Scanner) checkPendingPartial(pending *partial.PendingPartialNote, stats *PassStats) (bool, error) {
	pub, found, err := s.client.GetLogByTag(pending.CompletionTag)
	if err != nil {
		return false, fmt.Errorf("looking up completion log: %w", err)
	}
	if !found {
		return false, nil
	}
	publicFields, err := partial.SplitCompletionContent(pub.Content, s.contract)
	if err != nil {
		s.log.Warn().Err(err).Msg("completion log unusable; dropping pending partial note")
		stats.Skipped++
		return true, nil
	}
	merged := partial.MergeFields(pending.PrivateFields, publicFields)
	infos := discovery.AttemptNoteNonceDiscovery(
		pub.TxEffect.UniqueNoteHashes, pub.TxEffect.FirstNullifier,
		s.contract, pending.StorageSlot, pending.NoteTypeID, merged)
	if len(infos) == 0 {
		s.log.Warn().Str("tag", pending.CompletionTag.String()).
			Msg("completion log found but nonce discovery failed; dropping entry")
		return true, nil
	}
	for i := range infos {
		if err := s.deliver(pending.StorageSlot, pending.NoteTypeID, merged, &infos[i], pub.TxEffect.TxHash, stats); err != nil {
			return false, err
		}
	}
	stats.PartialsCompleted++
	return true, nil
}

// deliver registers one discovered note with the external client. Rejection is
// fatal to the pass (see ErrDeliveryFailed).
func (s *Scanner) deliver(storageSlot protocol.Field, noteTypeID uint64, packedNote []protocol.Field, info *discovery.DiscoveredNoteInfo, txHash protocol.Field, stats *PassStats) error {
	ok, err := s.client.DeliverNote(&pxe.DeliveredNote{
		ContractAddress: s.contract,
		StorageSlot:     storageSlot,
		Nonce:           info.Nonce,
		NoteTypeID:      noteTypeID,
		PackedNote:      packedNote,
		NoteHash:        info.NoteHash,
		InnerNullifier:  info.InnerNullifier,
		TxHash:          txHash,
		Recipient:       s.recipient,
	})
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: note hash %s", ErrDeliveryFailed, info.NoteHash.String())
	}
	stats.NotesDelivered++
	if s.table != nil {
		if v, known := s.table.VariableAt(storageSlot); known {
			s.log.Info().Str("variable", v.Name).Str("note_hash", info.NoteHash.String()).Msg("note delivered")
			return nil
		}
	}
	s.log.Info().Str("slot", storageSlot.String()).Str("note_hash", info.NoteHash.String()).Msg("note delivered")
	return nil
}
