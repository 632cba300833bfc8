// keys.go - BN254 keypairs and Diffie-Hellman shared secrets for log encryption.
//
// Every log is encrypted under a fresh ephemeral keypair; the recipient runs
// the same DH against the ephemeral public key carried in the log envelope.

package logcipher

import (
	"fmt"
	"math/big"

	bn254 "github.com/consensys/gnark-crypto/ecc/bn254"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// KeyPair is a BN254 G1 keypair for Diffie-Hellman key exchange.
type KeyPair struct {
	Sk fr.Element     // private scalar
	Pk bn254.G1Affine // public key (G1 point)
}

// GenerateKeyPair generates a random BN254 keypair.
func GenerateKeyPair() (*KeyPair, error) {
	var kp KeyPair
	if _, err := kp.Sk.SetRandom(); err != nil {
		return nil, err
	}
	g1Jac, _, _, _ := bn254.Generators()
	kp.Pk.FromJacobian(&g1Jac)
	kp.Pk.ScalarMultiplication(&kp.Pk, kp.Sk.BigInt(new(big.Int)))
	return &kp, nil
}

// KeyPairFromScalar rebuilds a keypair from the decimal encoding of its
// private scalar.
func KeyPairFromScalar(s string) (*KeyPair, error) {
	var kp KeyPair
	if _, err := kp.Sk.SetString(s); err != nil {
		return nil, fmt.Errorf("invalid private scalar: %w", err)
	}
	g1Jac, _, _, _ := bn254.Generators()
	kp.Pk.FromJacobian(&g1Jac)
	kp.Pk.ScalarMultiplication(&kp.Pk, kp.Sk.BigInt(new(big.Int)))
	return &kp, nil
}

// SharedSecret computes the DH shared point given our scalar and their public key.
func SharedSecret(sk *fr.Element, pk *bn254.G1Affine) bn254.G1Affine {
	var shared bn254.G1Affine
	shared.ScalarMultiplication(pk, sk.BigInt(new(big.Int)))
	return shared
}
