// Package elgamal implements the ElGamal primitives this module needs: key
// pairs, ciphertexts, re-encryption and the modular-exponentiation step of
// partial decryption. The core never encrypts on its own behalf (see
// SPEC_FULL.md §4.1) - only key generation, re-randomization and
// partial-decryption arithmetic are exposed.
package elgamal

import "go.dedis.ch/mixnet/group"

// KeyPair is a private scalar x together with its public image y = g^x.
type KeyPair struct {
	X group.ScalarElement
	Y group.GroupElement
}

// Ciphertext is an ordered pair (A, B) = (g^r, m*y^r).
type Ciphertext struct {
	A group.GroupElement
	B group.GroupElement
}

// GenerateKeyPair samples x uniformly from Z_q and computes y = g^x.
func GenerateKeyPair(cs *group.CryptoSettings) (KeyPair, error) {
	x, err := cs.RandomScalar()
	if err != nil {
		return KeyPair{}, err
	}
	y := cs.Exp(cs.Generator(), x)
	return KeyPair{X: x, Y: y}, nil
}

// ReEncrypt returns ReEnc(ct; s) = (ct.A * g^s, ct.B * y^s), a re-encryption
// of ct under public key y with fresh randomness s. The result decrypts to
// the same plaintext as ct.
func ReEncrypt(cs *group.CryptoSettings, y group.GroupElement, ct Ciphertext, s group.ScalarElement) Ciphertext {
	return Ciphertext{
		A: cs.Mul(ct.A, cs.Exp(cs.Generator(), s)),
		B: cs.Mul(ct.B, cs.Exp(y, s)),
	}
}

// PartialDecryptionFactor computes a^scalar for the a-component of a
// ciphertext, where scalar is either a trustee's raw share (threshold mode)
// or its inverse (non-threshold / symmetric mode). See keymaker.DecryptionMode.
func PartialDecryptionFactor(cs *group.CryptoSettings, ct Ciphertext, scalar group.ScalarElement) group.GroupElement {
	return cs.Exp(ct.A, scalar)
}
