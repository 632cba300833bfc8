// client.go - The oracle surface of the external client.
//
// The discovery pipeline cannot exist standalone: tagged-log retrieval, note
// delivery, event storage and capsule scratch storage all live in an external
// client process. Client models that surface as an injected interface with one
// method per oracle, so the pipeline can be driven by an in-memory double in
// tests and by a real transport in production.

package pxe

import (
	"notescan/internal/protocol"
)

// DeliveredNote is a note that passed discovery, registered with the external
// client so its preimage is available to later constrained executions.
type DeliveredNote struct {
	ContractAddress protocol.Field
	StorageSlot     protocol.Field
	Nonce           protocol.Field
	NoteTypeID      uint64
	PackedNote      []protocol.Field
	NoteHash        protocol.Field
	InnerNullifier  protocol.Field
	TxHash          protocol.Field
	Recipient       protocol.Field
}

// EventLog is a decoded private event forwarded opaquely to the client's event
// store.
type EventLog struct {
	ContractAddress protocol.Field
	EventTypeID     uint64
	Payload         []protocol.Field
	TxHash          protocol.Field
}

// Client is the set of oracle calls the pipeline makes into the external
// client. All calls are synchronous round-trips; none are reentrant.
type Client interface {
	// SyncTaggedLogs asks the client to refresh the pending-work capsule array
	// for a contract with any newly received tagged logs.
	SyncTaggedLogs(contractAddress protocol.Field) error

	// GetLogByTag looks up the public log carrying the given tag. The second
	// return is false when no such log exists yet, which is a normal outcome.
	GetLogByTag(tag protocol.Field) (*protocol.PublicLog, bool, error)

	// DeliverNote registers a discovered note. A false return means the client
	// rejected the note.
	DeliverNote(note *DeliveredNote) (bool, error)

	// StoreEventLog forwards a decoded event payload.
	StoreEventLog(event *EventLog) error

	// Capsule-array operations over the client's scratch storage. Arrays are
	// ordered and compact on removal by shifting later entries down, so a
	// caller iterating while removing must do so in reverse index order.
	CapsuleAppend(contractAddress, baseSlot protocol.Field, entry []protocol.Field) error
	CapsuleAt(contractAddress, baseSlot protocol.Field, index int) ([]protocol.Field, error)
	CapsuleSet(contractAddress, baseSlot protocol.Field, index int, entry []protocol.Field) error
	CapsuleRemove(contractAddress, baseSlot protocol.Field, index int) error
	CapsuleCount(contractAddress, baseSlot protocol.Field) (int, error)
}

// PendingWorkSlot is the capsule base slot of the pending-work array the
// scanner drains each pass.
const PendingWorkSlot uint64 = 1
