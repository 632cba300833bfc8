// partial.go - Partial-note pending entries and reconciliation.
//
// A partial note is announced by a private log carrying only its private
// fields and the tag of the public log that will eventually complete it. Until
// that completion log appears, the entry stays pending in the external store,
// keyed by its position in the pending-work array.

package partial

import (
	"fmt"

	"notescan/internal/protocol"
	"notescan/internal/wire"
)

// PendingPartialNote is a partial note waiting for its completion log.
type PendingPartialNote struct {
	CompletionTag protocol.Field
	StorageSlot   protocol.Field
	NoteTypeID    uint64
	PrivateFields []protocol.Field
	Recipient     protocol.Field
}

// ToFields flattens a pending entry for capsule storage:
//
//	[completion_tag, storage_slot, note_type_id, recipient, n_private, ...private_fields]
func (p *PendingPartialNote) ToFields() []protocol.Field {
	out := make([]protocol.Field, 0, 5+len(p.PrivateFields))
	out = append(out, p.CompletionTag, p.StorageSlot)
	out = append(out, protocol.FieldFromUint64(p.NoteTypeID))
	out = append(out, p.Recipient)
	out = append(out, protocol.FieldFromUint64(uint64(len(p.PrivateFields))))
	out = append(out, p.PrivateFields...)
	return out
}

// FromFields is the inverse of ToFields.
func FromFields(entry []protocol.Field) (*PendingPartialNote, error) {
	if len(entry) < 5 {
		return nil, fmt.Errorf("%w: pending partial-note entry has %d words", wire.ErrMalformedLog, len(entry))
	}
	var p PendingPartialNote
	p.CompletionTag = entry[0]
	p.StorageSlot = entry[1]
	if !entry[2].IsUint64() {
		return nil, fmt.Errorf("%w: note type id out of range", wire.ErrMalformedLog)
	}
	p.NoteTypeID = entry[2].Uint64()
	p.Recipient = entry[3]
	if !entry[4].IsUint64() || int(entry[4].Uint64()) != len(entry)-5 {
		return nil, fmt.Errorf("%w: private-field count does not match entry", wire.ErrMalformedLog)
	}
	p.PrivateFields = append([]protocol.Field(nil), entry[5:]...)
	return &p, nil
}

// MergeFields reconstructs the complete packed note from a pending entry and
// the public fields of its completion log. Private fields come first.
func MergeFields(privateFields, publicFields []protocol.Field) []protocol.Field {
	out := make([]protocol.Field, 0, len(privateFields)+len(publicFields))
	out = append(out, privateFields...)
	out = append(out, publicFields...)
	return out
}

// SplitCompletionContent splits a completion log's content into its siloing
// prefix and public fields, checking the prefix against the expected contract.
// A mismatched prefix means the log completes some other contract's note.
func SplitCompletionContent(content []protocol.Field, contractAddress protocol.Field) ([]protocol.Field, error) {
	if len(content) < 1 {
		return nil, fmt.Errorf("%w: empty completion log", wire.ErrMalformedLog)
	}
	if !content[0].Equal(&contractAddress) {
		return nil, fmt.Errorf("completion log siloing prefix %s does not match contract %s",
			content[0].String(), contractAddress.String())
	}
	return content[1:], nil
}
