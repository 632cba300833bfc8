package layout

import (
	"testing"

	"github.com/stretchr/testify/require"

	"notescan/internal/protocol"
)

func TestTableLookups(t *testing.T) {
	table, err := NewTable(
		StateVariable{Name: "balances", BaseSlot: 1, Size: 1, NoteTypeID: 7},
		StateVariable{Name: "orders", BaseSlot: 2, Size: 3, NoteTypeID: 8},
	)
	require.NoError(t, err)

	slot, ok := table.SlotOf("orders")
	require.True(t, ok)
	require.Equal(t, protocol.FieldFromUint64(2), slot)
	_, ok = table.SlotOf("missing")
	require.False(t, ok)

	v, ok := table.VariableAt(protocol.FieldFromUint64(4))
	require.True(t, ok)
	require.Equal(t, "orders", v.Name)
	_, ok = table.VariableAt(protocol.FieldFromUint64(5))
	require.False(t, ok)
}

func TestTableRejectsOverlap(t *testing.T) {
	_, err := NewTable(
		StateVariable{Name: "a", BaseSlot: 1, Size: 2},
		StateVariable{Name: "b", BaseSlot: 2, Size: 1},
	)
	require.Error(t, err)
}

func TestTableRejectsDuplicateName(t *testing.T) {
	_, err := NewTable(
		StateVariable{Name: "a", BaseSlot: 1, Size: 1},
		StateVariable{Name: "a", BaseSlot: 5, Size: 1},
	)
	require.Error(t, err)
}

func TestTableRejectsBadSize(t *testing.T) {
	_, err := NewTable(StateVariable{Name: "a", BaseSlot: 1, Size: 0})
	require.Error(t, err)
}
