// Package dto defines the stable wire DTOs of SPEC_FULL.md §3/§6 and their
// canonical string (de)serialization. These are the exact byte sequences
// that transcript.Transcript folds into every Fiat-Shamir challenge, so any
// divergence here between what is hashed and what is transported is a
// silent soundness failure - see SPEC_FULL.md §4.2.
package dto

import (
	"go.dedis.ch/mixnet/elgamal"
	"go.dedis.ch/mixnet/group"
	"golang.org/x/xerrors"
)

// SigmaProofDTO is the universal three-move sigma-protocol transcript.
// Field order is (commitment, challenge, response) and never changes.
type SigmaProofDTO struct {
	Commitment string `json:"commitment"`
	Challenge  string `json:"challenge"`
	Response   string `json:"response"`
}

// PermutationProofDTO is a SigmaProofDTO enriched with the two auxiliary
// sequences the Terelius-Wikstrom permutation-commitment proof needs.
type PermutationProofDTO struct {
	SigmaProofDTO
	BridgingCommitments []string `json:"bridgingCommitments"`
	EValues             []string `json:"eValues"`
}

// MixProofDTO is a SigmaProofDTO plus the re-encryption shuffle proof's
// per-index eValues.
type MixProofDTO struct {
	SigmaProofDTO
	EValues []string `json:"eValues"`
}

// ShuffleProofDTO bundles the two sub-proofs of the Terelius-Wikstrom
// shuffle together with the permutation commitment they are both tied to.
type ShuffleProofDTO struct {
	MixProof              MixProofDTO         `json:"mixProof"`
	PermutationProof      PermutationProofDTO `json:"permutationProof"`
	PermutationCommitment string              `json:"permutationCommitment"`
}

// ShuffleResultDTO is the output of the online shuffle phase: the shuffled
// ciphertext batch and the proof that it is a valid re-encryption shuffle
// of the input batch.
type ShuffleResultDTO struct {
	Proof       ShuffleProofDTO `json:"proof"`
	Ciphertexts []string        `json:"ciphertexts"`
}

// EncryptionKeyShareDTO is a KeyMaker's public key share together with the
// proof of knowledge of its private preimage.
type EncryptionKeyShareDTO struct {
	Proof     SigmaProofDTO `json:"proof"`
	PublicKey string        `json:"publicKey"`
}

// PartialDecryptionDTO is an ordered sequence of partially-decrypted group
// elements, one per input ciphertext, plus the proof that they were all
// produced with the same exponent used to produce the public key.
type PartialDecryptionDTO struct {
	Shares []string      `json:"shares"`
	Proof  SigmaProofDTO `json:"proof"`
}

// EncodeCiphertext renders an ElGamal ciphertext as the tuple "(a,b)".
func EncodeCiphertext(ct elgamal.Ciphertext) string {
	return group.EncodeTuple(ct.A.Encode(), ct.B.Encode())
}

// EncodeCiphertexts renders a batch of ciphertexts, preserving order.
func EncodeCiphertexts(batch []elgamal.Ciphertext) []string {
	out := make([]string, len(batch))
	for i, ct := range batch {
		out[i] = EncodeCiphertext(ct)
	}
	return out
}

// DecodeCiphertext parses the tuple encoding produced by EncodeCiphertext.
func DecodeCiphertext(s string) (elgamal.Ciphertext, error) {
	a, b, err := splitPairTuple(s)
	if err != nil {
		return elgamal.Ciphertext{}, xerrors.Errorf("decoding ciphertext %q: %w", s, err)
	}
	ea, err := group.DecodeElement(a)
	if err != nil {
		return elgamal.Ciphertext{}, xerrors.Errorf("decoding ciphertext %q: %w", s, err)
	}
	eb, err := group.DecodeElement(b)
	if err != nil {
		return elgamal.Ciphertext{}, xerrors.Errorf("decoding ciphertext %q: %w", s, err)
	}
	return elgamal.Ciphertext{A: ea, B: eb}, nil
}

// splitPairTuple splits a "(x,y)" tuple encoding into its two children at
// the first comma. It only parses ciphertext pairs of bare elements; the
// wider and nested tuples of the proof commitments and responses are parsed
// by package sigma's splitTuple.
func splitPairTuple(s string) (string, string, error) {
	if len(s) < 3 || s[0] != '(' || s[len(s)-1] != ')' {
		return "", "", xerrors.Errorf("not a tuple: %q", s)
	}
	inner := s[1 : len(s)-1]
	for i := 0; i < len(inner); i++ {
		if inner[i] == ',' {
			return inner[:i], inner[i+1:], nil
		}
	}
	return "", "", xerrors.Errorf("not a pair tuple: %q", s)
}

// EncodeElements renders an ordered sequence of group elements, preserving
// order - used for bridgingCommitments and partial-decryption shares.
func EncodeElements(es []group.GroupElement) []string {
	out := make([]string, len(es))
	for i, e := range es {
		out[i] = e.Encode()
	}
	return out
}

// EncodeScalars renders an ordered sequence of scalars, preserving order -
// used for the eValues sequences, which are scalar-valued in this
// construction (see sigma package).
func EncodeScalars(ss []group.ScalarElement) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = s.Encode()
	}
	return out
}

// DecodeScalars parses an ordered sequence of scalar encodings.
func DecodeScalars(ss []string) ([]group.ScalarElement, error) {
	out := make([]group.ScalarElement, len(ss))
	for i, s := range ss {
		v, err := group.DecodeScalar(s)
		if err != nil {
			return nil, xerrors.Errorf("decoding scalar at index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}

// DecodeElements parses an ordered sequence of group-element encodings.
func DecodeElements(ss []string) ([]group.GroupElement, error) {
	out := make([]group.GroupElement, len(ss))
	for i, s := range ss {
		v, err := group.DecodeElement(s)
		if err != nil {
			return nil, xerrors.Errorf("decoding element at index %d: %w", i, err)
		}
		out[i] = v
	}
	return out, nil
}
