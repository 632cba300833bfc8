// tag.go - Discovery tag derivation.

package logcipher

import (
	"notescan/internal/protocol"
)

// DeriveTag derives the discovery tag for the index-th log emitted under an
// app tagging secret shared between sender and recipient. Tags let a scanner
// retrieve and group its logs without decrypting anything.
func DeriveTag(appTaggingSecret protocol.Field, index uint64) protocol.Field {
	return protocol.Hash(protocol.GeneratorIndexTag, appTaggingSecret, protocol.FieldFromUint64(index))
}
