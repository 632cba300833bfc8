package wire

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"

	"notescan/internal/protocol"
)

func fieldsFromUint64(vs ...uint64) []protocol.Field {
	out := make([]protocol.Field, len(vs))
	for i, v := range vs {
		out[i] = protocol.FieldFromUint64(v)
	}
	return out
}

func TestDecodePrivateNoteLogPlaintext(t *testing.T) {
	// log type 0 (private note), note type id 7, slot 42, packed note [100, 200]
	plaintext := EncodeLogPlaintext(protocol.LogTypePrivateNote, 7, fieldsFromUint64(42, 100, 200))

	logTypeID, logMetadata, content, err := DecodeLogPlaintext(plaintext)
	require.NoError(t, err)
	require.Equal(t, protocol.LogTypePrivateNote, logTypeID)
	require.Equal(t, uint64(7), logMetadata)
	require.Equal(t, fieldsFromUint64(42, 100, 200), content)
}

func TestCodecRoundTrip(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("decode(encode(type, metadata, content)) is the identity", prop.ForAll(
		func(logTypeID, logMetadata uint64, raw []uint64) bool {
			content := fieldsFromUint64(raw...)
			gotType, gotMeta, gotContent, err := DecodeLogPlaintext(EncodeLogPlaintext(logTypeID, logMetadata, content))
			if err != nil {
				return false
			}
			if gotType != logTypeID || gotMeta != logMetadata || len(gotContent) != len(content) {
				return false
			}
			for i := range content {
				if !gotContent[i].Equal(&content[i]) {
					return false
				}
			}
			return true
		},
		gen.UInt64(),
		gen.UInt64(),
		gen.SliceOf(gen.UInt64()),
	))

	properties.TestingRun(t)
}

func TestDecodeEmptyPlaintextFails(t *testing.T) {
	_, _, _, err := DecodeLogPlaintext(nil)
	require.ErrorIs(t, err, ErrMalformedLog)
}

func TestDecodeOversizedMetadataFails(t *testing.T) {
	// any word with more than 128 bits set is not a valid metadata word
	var head protocol.Field
	head.SetString("340282366920938463463374607431768211456") // 2^128
	_, _, _, err := DecodeLogPlaintext([]protocol.Field{head})
	require.ErrorIs(t, err, ErrMalformedLog)
}
