// cipher.go - Symmetric log encryption.
//
// The encrypted region of a log is a ChaCha20 stream over the length-prefixed,
// filler-padded serialization of the plaintext fields. Key and stream nonce are
// derived from the DH shared point with domain-separated hashes.
//
// There is deliberately no authentication: decrypting a log that was not
// addressed to the caller yields garbage bytes that fail the structural checks
// of the codec (non-canonical field words, out-of-range length prefix). That
// failure is the normal "not for me" path of a scanner, not an integrity
// mechanism.

package logcipher

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"golang.org/x/crypto/chacha20"

	"notescan/internal/protocol"
	"notescan/internal/wire"
)

// Encrypt encrypts a log plaintext for a recipient public key. Returns the
// fresh ephemeral public key (needed by the recipient for DH) and the
// ciphertext packed into field-sized words.
func Encrypt(plaintext []protocol.Field, recipientPk *bn254.G1Affine) (eph bn254.G1Affine, ciphertext []protocol.Field, err error) {
	if len(plaintext) > protocol.LogPlaintextLen {
		return eph, nil, fmt.Errorf("log plaintext of %d fields exceeds the fixed width %d", len(plaintext), protocol.LogPlaintextLen)
	}
	kp, err := GenerateKeyPair()
	if err != nil {
		return eph, nil, err
	}
	shared := SharedSecret(&kp.Sk, recipientPk)

	buf := make([]byte, protocol.LogCiphertextByteLen)
	serialized := wire.SerializeFields(plaintext)
	binary.BigEndian.PutUint16(buf[:2], uint16(len(serialized)))
	copy(buf[2:], serialized)
	// Random filler hides the true content length.
	if _, err := rand.Read(buf[2+len(serialized):]); err != nil {
		return eph, nil, err
	}

	if err := applyStream(&shared, buf); err != nil {
		return eph, nil, err
	}
	return kp.Pk, wire.PackBytesIntoFields(buf), nil
}

// Decrypt reverses Encrypt given the recipient's private scalar and the log's
// ephemeral public key. A wrong key or corrupted ciphertext surfaces as
// wire.ErrMalformedLog from the structural checks, indistinguishable by design
// from a log addressed to someone else.
func Decrypt(eph *bn254.G1Affine, ciphertext []protocol.Field, kp *KeyPair) ([]protocol.Field, error) {
	buf, err := wire.UnpackBytesFromFields(ciphertext, protocol.LogCiphertextByteLen)
	if err != nil {
		return nil, err
	}
	shared := SharedSecret(&kp.Sk, eph)
	if err := applyStream(&shared, buf); err != nil {
		return nil, err
	}

	n := int(binary.BigEndian.Uint16(buf[:2]))
	if n == 0 || n > protocol.LogPlaintextLen*32 || n%32 != 0 {
		return nil, fmt.Errorf("%w: plaintext length prefix %d out of range", wire.ErrMalformedLog, n)
	}
	return wire.DeserializeFields(buf[2 : 2+n])
}

// applyStream XORs buf in place with the ChaCha20 keystream derived from the
// shared point. Encryption and decryption are the same operation.
func applyStream(shared *bn254.G1Affine, buf []byte) error {
	var x, y protocol.Field
	xb := shared.X.Bytes()
	yb := shared.Y.Bytes()
	// Coordinates live in the base field; reduce into the scalar field before hashing.
	x.SetBytes(xb[:])
	y.SetBytes(yb[:])

	key := protocol.Hash(protocol.GeneratorIndexSymmetricKey, x, y)
	nonceSeed := protocol.Hash(protocol.GeneratorIndexSymmetricNonce, x, y)
	keyBytes := key.Bytes()
	nonceBytes := nonceSeed.Bytes()

	c, err := chacha20.NewUnauthenticatedCipher(keyBytes[:], nonceBytes[:chacha20.NonceSize])
	if err != nil {
		return err
	}
	c.XORKeyStream(buf, buf)
	return nil
}
