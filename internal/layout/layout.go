// layout.go - Static storage-slot layout table.
//
// Contract state variables map to storage slots through an explicit table
// built once at startup (name, base slot, size in fields, note type). The
// scanner uses it to attribute discovered notes to state variables; the sender
// uses it to pick slots when emitting.

package layout

import (
	"fmt"

	"notescan/internal/protocol"
)

// StateVariable is one entry of the layout table.
type StateVariable struct {
	Name       string
	BaseSlot   uint64
	Size       int // number of consecutive slots
	NoteTypeID uint64
}

// Table maps state-variable names to slots and back.
type Table struct {
	vars   []StateVariable
	byName map[string]int
}

// NewTable validates and indexes a set of state variables. Names must be
// unique and slot ranges must not overlap.
func NewTable(vars ...StateVariable) (*Table, error) {
	t := &Table{
		vars:   append([]StateVariable(nil), vars...),
		byName: make(map[string]int, len(vars)),
	}
	for i, v := range t.vars {
		if v.Name == "" {
			return nil, fmt.Errorf("state variable at slot %d has no name", v.BaseSlot)
		}
		if v.Size < 1 {
			return nil, fmt.Errorf("state variable %q has size %d", v.Name, v.Size)
		}
		if _, dup := t.byName[v.Name]; dup {
			return nil, fmt.Errorf("duplicate state variable %q", v.Name)
		}
		t.byName[v.Name] = i
		for _, w := range t.vars[:i] {
			if v.BaseSlot < w.BaseSlot+uint64(w.Size) && w.BaseSlot < v.BaseSlot+uint64(v.Size) {
				return nil, fmt.Errorf("state variables %q and %q overlap", w.Name, v.Name)
			}
		}
	}
	return t, nil
}

// SlotOf returns the base slot of a state variable as a field element.
func (t *Table) SlotOf(name string) (protocol.Field, bool) {
	i, ok := t.byName[name]
	if !ok {
		return protocol.Field{}, false
	}
	return protocol.FieldFromUint64(t.vars[i].BaseSlot), true
}

// VariableAt returns the state variable owning a storage slot, if any.
func (t *Table) VariableAt(slot protocol.Field) (*StateVariable, bool) {
	if !slot.IsUint64() {
		return nil, false
	}
	s := slot.Uint64()
	for i := range t.vars {
		v := &t.vars[i]
		if s >= v.BaseSlot && s < v.BaseSlot+uint64(v.Size) {
			return v, true
		}
	}
	return nil, false
}
