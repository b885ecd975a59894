package sigma

import (
	"go.dedis.ch/mixnet/dto"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/mixerrors"
	"go.dedis.ch/mixnet/transcript"
	"golang.org/x/xerrors"
)

const equalityLabel = "sigma/equality-of-preimages"

// ProveEqualityVector proves that the same witness x is the preimage of y
// under g (y = g^x) and, simultaneously, the preimage of every ds[i] under
// bases[i] (ds[i] = bases[i]^x). This generalizes the teacher's
// ProveDlogEq/VerifyDlogEq from a single extra pair to a batch, which
// partial decryption needs to bind all n shares to one exponent in a single
// proof (SPEC_FULL.md §4.4).
//
// The n+1 individual commitments (one for g, one per base) are folded into
// a single canonical tuple string and carried in SigmaProofDTO.Commitment,
// since the DTO has room for exactly one commitment field; bases and ds
// must have equal, matching length.
func ProveEqualityVector(cs *group.CryptoSettings, proverId string, x group.ScalarElement, y group.GroupElement, bases, ds []group.GroupElement) (dto.SigmaProofDTO, error) {
	if len(bases) != len(ds) {
		return dto.SigmaProofDTO{}, xerrors.Errorf("ProveEqualityVector: %w: %d bases, %d outputs", mixerrors.ErrArityMismatch, len(bases), len(ds))
	}

	tr := transcript.New(equalityLabel)
	tr.AppendString("proverId", proverId)
	tr.AppendString("y", y.Encode())
	tr.AppendStrings("bases", dto.EncodeElements(bases))
	tr.AppendStrings("ds", dto.EncodeElements(ds))

	s, err := commitmentScalar(tr, cs, equalityLabel, x)
	if err != nil {
		return dto.SigmaProofDTO{}, xerrors.Errorf("ProveEqualityVector: %w: %v", mixerrors.ErrProofGenerationFailure, err)
	}

	t0 := cs.Exp(cs.Generator(), s)
	commitmentParts := make([]string, 0, len(bases)+1)
	commitmentParts = append(commitmentParts, t0.Encode())
	for _, base := range bases {
		ti := cs.Exp(base, s)
		commitmentParts = append(commitmentParts, ti.Encode())
	}
	commitment := group.EncodeTuple(commitmentParts...)
	tr.AppendString("commitment", commitment)

	c := tr.ChallengeScalar(cs, "challenge")
	z := cs.ScalarAdd(s, cs.ScalarMul(c, x))

	return dto.SigmaProofDTO{
		Commitment: commitment,
		Challenge:  c.Encode(),
		Response:   z.Encode(),
	}, nil
}

// VerifyEqualityVector checks a ProveEqualityVector transcript. See
// VerifyPreimage for why this verifier lives here despite spec.md scoping
// verifier-side recomputation out of the module's external contract.
func VerifyEqualityVector(cs *group.CryptoSettings, proverId string, y group.GroupElement, bases, ds []group.GroupElement, proof dto.SigmaProofDTO) (bool, error) {
	if len(bases) != len(ds) {
		return false, xerrors.Errorf("VerifyEqualityVector: %w: %d bases, %d outputs", mixerrors.ErrArityMismatch, len(bases), len(ds))
	}

	commitmentParts, err := splitTuple(proof.Commitment, len(bases)+1)
	if err != nil {
		return false, xerrors.Errorf("VerifyEqualityVector: %w: %v", mixerrors.ErrEncodingFailure, err)
	}
	t0, err := group.DecodeElement(commitmentParts[0])
	if err != nil {
		return false, xerrors.Errorf("VerifyEqualityVector: %w: %v", mixerrors.ErrEncodingFailure, err)
	}
	ts := make([]group.GroupElement, len(bases))
	for i := 1; i < len(commitmentParts); i++ {
		ts[i-1], err = group.DecodeElement(commitmentParts[i])
		if err != nil {
			return false, xerrors.Errorf("VerifyEqualityVector: %w: %v", mixerrors.ErrEncodingFailure, err)
		}
	}

	c, err := group.DecodeScalar(proof.Challenge)
	if err != nil {
		return false, xerrors.Errorf("VerifyEqualityVector: %w: %v", mixerrors.ErrEncodingFailure, err)
	}
	z, err := group.DecodeScalar(proof.Response)
	if err != nil {
		return false, xerrors.Errorf("VerifyEqualityVector: %w: %v", mixerrors.ErrEncodingFailure, err)
	}

	tr := transcript.New(equalityLabel)
	tr.AppendString("proverId", proverId)
	tr.AppendString("y", y.Encode())
	tr.AppendStrings("bases", dto.EncodeElements(bases))
	tr.AppendStrings("ds", dto.EncodeElements(ds))
	tr.AppendString("commitment", proof.Commitment)
	expectedC := tr.ChallengeScalar(cs, "challenge")
	if expectedC.Encode() != c.Encode() {
		return false, nil
	}

	if !cs.Equal(cs.Exp(cs.Generator(), z), cs.Mul(t0, cs.Exp(y, c))) {
		return false, nil
	}
	for i := range bases {
		lhs := cs.Exp(bases[i], z)
		rhs := cs.Mul(ts[i], cs.Exp(ds[i], c))
		if !cs.Equal(lhs, rhs) {
			return false, nil
		}
	}
	return true, nil
}

// splitTuple splits a "(x1,x2,...,xk)" tuple encoding into exactly k
// children, respecting parenthesis nesting so a child that is itself a
// tuple (as in the shuffle proof's nested per-chain commitments) is
// returned whole rather than split at its own internal commas. Unlike
// dto.splitPairTuple this handles an arbitrary, known arity, which the
// equality-of-preimages and chain proofs need since their width depends on
// the ciphertext batch size.
func splitTuple(s string, k int) ([]string, error) {
	if len(s) < 2 || s[0] != '(' || s[len(s)-1] != ')' {
		return nil, xerrors.Errorf("not a tuple: %q", s)
	}
	inner := s[1 : len(s)-1]
	parts := make([]string, 0, k)
	start := 0
	depth := 0
	for i := 0; i < len(inner); i++ {
		switch inner[i] {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, inner[start:i])
				start = i + 1
			}
		}
	}
	parts = append(parts, inner[start:])
	if len(parts) != k {
		return nil, xerrors.Errorf("tuple %q has %d parts, expected %d", s, len(parts), k)
	}
	return parts, nil
}
