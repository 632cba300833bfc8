// hash.go - Domain-separated MiMC hashing over the protocol field.
//
// All protocol hashes (note commitments, siloing, nonces, tags, key derivation)
// go through Hash so that every input is a canonical field element and every
// use site is domain-separated by a generator index.

package protocol

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
)

// Hash computes MiMC(generatorIndex, elems...). Inputs are written as canonical
// 32-byte field encodings, so the underlying hasher never sees a non-canonical
// block.
func Hash(generatorIndex uint64, elems ...Field) Field {
	h := mimc.NewMiMC()
	g := FieldFromUint64(generatorIndex)
	gb := g.Bytes()
	h.Write(gb[:])
	for i := range elems {
		b := elems[i].Bytes()
		h.Write(b[:])
	}
	var out Field
	out.SetBytes(h.Sum(nil))
	return out
}
