package partial

import (
	"testing"

	"github.com/stretchr/testify/require"

	"notescan/internal/protocol"
	"notescan/internal/wire"
)

func f(v uint64) protocol.Field { return protocol.FieldFromUint64(v) }

func TestMergeFieldsOrder(t *testing.T) {
	// private fields first, then public fields
	merged := MergeFields([]protocol.Field{f(1), f(2)}, []protocol.Field{f(3), f(4)})
	require.Equal(t, []protocol.Field{f(1), f(2), f(3), f(4)}, merged)
}

func TestPendingEntryRoundTrip(t *testing.T) {
	p := &PendingPartialNote{
		CompletionTag: f(77),
		StorageSlot:   f(43),
		NoteTypeID:    8,
		PrivateFields: []protocol.Field{f(100), f(200)},
		Recipient:     f(0xb0b),
	}
	got, err := FromFields(p.ToFields())
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestFromFieldsRejectsTruncatedEntry(t *testing.T) {
	p := &PendingPartialNote{CompletionTag: f(1), PrivateFields: []protocol.Field{f(2)}}
	entry := p.ToFields()

	_, err := FromFields(entry[:3])
	require.ErrorIs(t, err, wire.ErrMalformedLog)

	_, err = FromFields(entry[:len(entry)-1])
	require.ErrorIs(t, err, wire.ErrMalformedLog)
}

func TestSplitCompletionContent(t *testing.T) {
	contract := f(0xc0ffee)
	content := []protocol.Field{contract, f(10), f(20)}

	publicFields, err := SplitCompletionContent(content, contract)
	require.NoError(t, err)
	require.Equal(t, []protocol.Field{f(10), f(20)}, publicFields)

	_, err = SplitCompletionContent(content, f(0xdead))
	require.Error(t, err)

	_, err = SplitCompletionContent(nil, contract)
	require.ErrorIs(t, err, wire.ErrMalformedLog)
}
