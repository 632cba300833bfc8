// memory.go - In-memory external client.
//
// Backs the oracle interface with plain slices and maps: an inbox of tagged
// logs not yet synced, capsule arrays keyed by (contract, base slot), a
// tag-indexed public-log store, and append-only registries of delivered notes
// and events. State can be persisted to a JSON file between passes.
//
// NOTE: Memory is not thread-safe by itself; the pipeline is single-threaded
// per pass by design.

package pxe

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"notescan/internal/protocol"
	"notescan/internal/wire"
)

// Memory is an in-memory Client implementation.
type Memory struct {
	inbox      []protocol.TaggedLog
	capsules   map[string][][]protocol.Field
	publicLogs map[string]*protocol.PublicLog

	Delivered []DeliveredNote
	Events    []EventLog

	// FailDelivery makes DeliverNote report rejection, for exercising the
	// delivery-failure path.
	FailDelivery bool
}

// NewMemory creates an empty in-memory client.
func NewMemory() *Memory {
	return &Memory{
		capsules:   make(map[string][][]protocol.Field),
		publicLogs: make(map[string]*protocol.PublicLog),
	}
}

// EnqueueTaggedLog places a tagged log in the inbox, as the transport would.
// It becomes visible to the scanner after the next SyncTaggedLogs.
func (m *Memory) EnqueueTaggedLog(log *protocol.TaggedLog) {
	m.inbox = append(m.inbox, *log)
}

// PublishPublicLog makes a public log retrievable by its tag.
func (m *Memory) PublishPublicLog(tag protocol.Field, log *protocol.PublicLog) {
	m.publicLogs[tag.String()] = log
}

// SyncTaggedLogs drains the inbox into the pending-work capsule array.
func (m *Memory) SyncTaggedLogs(contractAddress protocol.Field) error {
	baseSlot := protocol.FieldFromUint64(PendingWorkSlot)
	for i := range m.inbox {
		entry := append(
			[]protocol.Field{protocol.FieldFromUint64(protocol.WorkKindTaggedLog)},
			wire.EncodeTaggedLog(&m.inbox[i])...,
		)
		if err := m.CapsuleAppend(contractAddress, baseSlot, entry); err != nil {
			return err
		}
	}
	m.inbox = nil
	return nil
}

// GetLogByTag returns the public log carrying the tag, if any.
func (m *Memory) GetLogByTag(tag protocol.Field) (*protocol.PublicLog, bool, error) {
	log, ok := m.publicLogs[tag.String()]
	return log, ok, nil
}

// DeliverNote records a discovered note.
func (m *Memory) DeliverNote(note *DeliveredNote) (bool, error) {
	if m.FailDelivery {
		return false, nil
	}
	m.Delivered = append(m.Delivered, *note)
	return true, nil
}

// StoreEventLog records a decoded event.
func (m *Memory) StoreEventLog(event *EventLog) error {
	m.Events = append(m.Events, *event)
	return nil
}

// CapsuleAppend appends an entry to a capsule array.
func (m *Memory) CapsuleAppend(contractAddress, baseSlot protocol.Field, entry []protocol.Field) error {
	key := capsuleKey(contractAddress, baseSlot)
	m.capsules[key] = append(m.capsules[key], append([]protocol.Field(nil), entry...))
	return nil
}

// CapsuleAt returns a copy of the entry at index.
func (m *Memory) CapsuleAt(contractAddress, baseSlot protocol.Field, index int) ([]protocol.Field, error) {
	arr := m.capsules[capsuleKey(contractAddress, baseSlot)]
	if index < 0 || index >= len(arr) {
		return nil, fmt.Errorf("capsule index %d out of range (array has %d entries)", index, len(arr))
	}
	return append([]protocol.Field(nil), arr[index]...), nil
}

// CapsuleSet overwrites the entry at index in place.
func (m *Memory) CapsuleSet(contractAddress, baseSlot protocol.Field, index int, entry []protocol.Field) error {
	key := capsuleKey(contractAddress, baseSlot)
	arr := m.capsules[key]
	if index < 0 || index >= len(arr) {
		return fmt.Errorf("capsule index %d out of range (array has %d entries)", index, len(arr))
	}
	arr[index] = append([]protocol.Field(nil), entry...)
	return nil
}

// CapsuleRemove deletes the entry at index, shifting later entries down.
func (m *Memory) CapsuleRemove(contractAddress, baseSlot protocol.Field, index int) error {
	key := capsuleKey(contractAddress, baseSlot)
	arr := m.capsules[key]
	if index < 0 || index >= len(arr) {
		return fmt.Errorf("capsule index %d out of range (array has %d entries)", index, len(arr))
	}
	m.capsules[key] = append(arr[:index], arr[index+1:]...)
	return nil
}

// CapsuleCount returns the number of entries in a capsule array.
func (m *Memory) CapsuleCount(contractAddress, baseSlot protocol.Field) (int, error) {
	return len(m.capsules[capsuleKey(contractAddress, baseSlot)]), nil
}

func capsuleKey(contractAddress, baseSlot protocol.Field) string {
	return contractAddress.String() + "/" + baseSlot.String()
}

// snapshot is the JSON persistence format. Field elements are stored as
// decimal strings.
type snapshot struct {
	Capsules  map[string][][]string `json:"capsules"`
	Delivered []deliveredSnapshot   `json:"delivered"`
}

type deliveredSnapshot struct {
	ContractAddress string   `json:"contract_address"`
	StorageSlot     string   `json:"storage_slot"`
	Nonce           string   `json:"nonce"`
	NoteTypeID      uint64   `json:"note_type_id"`
	PackedNote      []string `json:"packed_note"`
	NoteHash        string   `json:"note_hash"`
	InnerNullifier  string   `json:"inner_nullifier"`
	TxHash          string   `json:"tx_hash"`
	Recipient       string   `json:"recipient"`
}

// SaveToFile persists capsule arrays and delivered notes to a JSON file.
// The inbox and public-log store are transport state and are not persisted.
func (m *Memory) SaveToFile(path string) error {
	snap := snapshot{Capsules: make(map[string][][]string)}
	for key, arr := range m.capsules {
		entries := make([][]string, len(arr))
		for i, entry := range arr {
			entries[i] = fieldsToStrings(entry)
		}
		snap.Capsules[key] = entries
	}
	for i := range m.Delivered {
		d := &m.Delivered[i]
		snap.Delivered = append(snap.Delivered, deliveredSnapshot{
			ContractAddress: d.ContractAddress.String(),
			StorageSlot:     d.StorageSlot.String(),
			Nonce:           d.Nonce.String(),
			NoteTypeID:      d.NoteTypeID,
			PackedNote:      fieldsToStrings(d.PackedNote),
			NoteHash:        d.NoteHash.String(),
			InnerNullifier:  d.InnerNullifier.String(),
			TxHash:          d.TxHash.String(),
			Recipient:       d.Recipient.String(),
		})
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(&snap)
}

// LoadFromFile restores a Memory persisted by SaveToFile.
func LoadFromFile(path string) (*Memory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var snap snapshot
	if err := json.NewDecoder(f).Decode(&snap); err != nil {
		return nil, err
	}
	m := NewMemory()
	for key, entries := range snap.Capsules {
		arr := make([][]protocol.Field, len(entries))
		for i, entry := range entries {
			if arr[i], err = stringsToFields(entry); err != nil {
				return nil, err
			}
		}
		m.capsules[key] = arr
	}
	for _, d := range snap.Delivered {
		note := DeliveredNote{NoteTypeID: d.NoteTypeID}
		for _, fld := range []struct {
			dst *protocol.Field
			src string
		}{
			{&note.ContractAddress, d.ContractAddress},
			{&note.StorageSlot, d.StorageSlot},
			{&note.Nonce, d.Nonce},
			{&note.NoteHash, d.NoteHash},
			{&note.InnerNullifier, d.InnerNullifier},
			{&note.TxHash, d.TxHash},
			{&note.Recipient, d.Recipient},
		} {
			if _, err := fld.dst.SetString(fld.src); err != nil {
				return nil, fmt.Errorf("invalid field element %q in store file: %w", fld.src, err)
			}
		}
		if note.PackedNote, err = stringsToFields(d.PackedNote); err != nil {
			return nil, err
		}
		m.Delivered = append(m.Delivered, note)
	}
	return m, nil
}

func fieldsToStrings(fields []protocol.Field) []string {
	out := make([]string, len(fields))
	for i := range fields {
		out[i] = fields[i].String()
	}
	return out
}

func stringsToFields(strs []string) ([]protocol.Field, error) {
	out := make([]protocol.Field, len(strs))
	for i, s := range strs {
		if _, err := out[i].SetString(s); err != nil {
			return nil, errors.New("invalid field element " + s + " in store file")
		}
	}
	return out, nil
}
