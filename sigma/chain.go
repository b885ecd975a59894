package sigma

import (
	"go.dedis.ch/mixnet/dto"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/mixerrors"
	"go.dedis.ch/mixnet/transcript"
	"golang.org/x/xerrors"
)

// chainResult is the shared shape produced by buildChain: a telescoping
// sequence of bridging commitments and the sigma-protocol proof that each
// step is consistent with its predecessor. Both ProvePermutationCommitment
// and ProveShuffle are instances of this one construction, generalizing the
// teacher's repeated per-index phi/lambda bridging pattern in ProveShuffle
// to an explicit, reusable helper (see DESIGN.md, "Documented
// simplification").
type chainResult struct {
	bridging      []group.GroupElement
	announcements []group.GroupElement
	zu            []group.ScalarElement
	zr            []group.ScalarElement
}

// buildChain builds the bridging values bridging[i] = base^{r[i]} *
// bridging[i-1]^{u[i]} (with bridging[-1] = base), where u is the
// already-derived, secretly-permuted challenge sequence, and proves
// knowledge of (u_i, r_i) for every step. The commitments argument is not
// used in the chain relation; callers bind it by folding it into tr before
// deriving u. ProvePermutationCommitment calls this with base=g; ProveShuffle
// uses the same chainAnnounce/chainRespond steps directly, once with base=g
// and once with base=y.
func buildChain(tr *transcript.Transcript, cs *group.CryptoSettings, label string, base group.GroupElement, commitments []group.GroupElement, r, u []group.ScalarElement, rngSeedLabel string) (chainResult, group.ScalarElement, error) {
	beta, rho, err := sampleChainBlinding(tr, cs, rngSeedLabel, r)
	if err != nil {
		return chainResult{}, group.ScalarElement{}, xerrors.Errorf("%s: %w: %v", label, mixerrors.ErrProofGenerationFailure, err)
	}

	bridging, announcements := chainAnnounce(cs, base, r, u, beta, rho)

	tr.AppendStrings(label+"/bridging", dto.EncodeElements(bridging))
	tr.AppendStrings(label+"/announcements", dto.EncodeElements(announcements))
	c := tr.ChallengeScalar(cs, label+"/challenge")

	zu, zr := chainRespond(cs, beta, rho, u, r, c)

	return chainResult{bridging: bridging, announcements: announcements, zu: zu, zr: zr}, c, nil
}

// sampleChainBlinding derives the per-index blinding scalar pair (beta, rho)
// a chain proof's commitment phase needs, witness-bound the same way every
// other sigma-protocol in this package derives its commitment randomness.
func sampleChainBlinding(tr *transcript.Transcript, cs *group.CryptoSettings, rngSeedLabel string, r []group.ScalarElement) (beta, rho []group.ScalarElement, err error) {
	n := len(r)
	blind := tr.BuildRng()
	for _, ri := range r {
		blind.RekeyWitness(rngSeedLabel, []byte(ri.Encode()))
	}
	rng, err := blind.Finalize(rngSeedLabel)
	if err != nil {
		return nil, nil, err
	}
	return rng.Scalars(cs, n), rng.Scalars(cs, n), nil
}

// chainAnnounce computes the telescoping bridging commitments and their
// matching sigma-protocol announcements for one chain.
func chainAnnounce(cs *group.CryptoSettings, base group.GroupElement, r, u, beta, rho []group.ScalarElement) (bridging, announcements []group.GroupElement) {
	n := len(r)
	bridging = make([]group.GroupElement, n)
	announcements = make([]group.GroupElement, n)
	cur := base
	for i := 0; i < n; i++ {
		bridging[i] = cs.Mul(cs.Exp(base, r[i]), cs.Exp(cur, u[i]))
		announcements[i] = cs.Mul(cs.Exp(base, rho[i]), cs.Exp(cur, beta[i]))
		cur = bridging[i]
	}
	return bridging, announcements
}

// chainRespond computes the sigma-protocol responses for one chain given a
// (shared, or chain-specific) challenge c.
func chainRespond(cs *group.CryptoSettings, beta, rho, u, r []group.ScalarElement, c group.ScalarElement) (zu, zr []group.ScalarElement) {
	n := len(r)
	zu = make([]group.ScalarElement, n)
	zr = make([]group.ScalarElement, n)
	for i := 0; i < n; i++ {
		zu[i] = cs.ScalarAdd(beta[i], cs.ScalarMul(c, u[i]))
		zr[i] = cs.ScalarAdd(rho[i], cs.ScalarMul(c, r[i]))
	}
	return zu, zr
}

// verifyChain checks the telescoping relation
// g_base^{zr[i]} * chain[i-1]^{zu[i]} == announcements[i] * bridging[i]^{c}.
func verifyChain(cs *group.CryptoSettings, base group.GroupElement, bridging, announcements []group.GroupElement, zu, zr []group.ScalarElement, c group.ScalarElement) bool {
	cur := base
	for i := range bridging {
		lhs := cs.Mul(cs.Exp(base, zr[i]), cs.Exp(cur, zu[i]))
		rhs := cs.Mul(announcements[i], cs.Exp(bridging[i], c))
		if !cs.Equal(lhs, rhs) {
			return false
		}
		cur = bridging[i]
	}
	return true
}

func encodeChainCommitment(res chainResult) string {
	return group.EncodeTuple(dto.EncodeElements(res.announcements)...)
}

func encodeChainResponse(res chainResult) string {
	return group.EncodeTuple(group.EncodeTuple(dto.EncodeScalars(res.zu)...), group.EncodeTuple(dto.EncodeScalars(res.zr)...))
}

func decodeChainResponse(response string, n int) (zu, zr []group.ScalarElement, err error) {
	parts, err := splitTuple(response, 2)
	if err != nil {
		return nil, nil, err
	}
	zuStrs, err := splitTuple(parts[0], n)
	if err != nil {
		return nil, nil, err
	}
	zrStrs, err := splitTuple(parts[1], n)
	if err != nil {
		return nil, nil, err
	}
	zu, err = dto.DecodeScalars(zuStrs)
	if err != nil {
		return nil, nil, err
	}
	zr, err = dto.DecodeScalars(zrStrs)
	if err != nil {
		return nil, nil, err
	}
	return zu, zr, nil
}

func decodeChainCommitment(commitment string, n int) ([]group.GroupElement, error) {
	parts, err := splitTuple(commitment, n)
	if err != nil {
		return nil, err
	}
	out := make([]group.GroupElement, n)
	for i, p := range parts {
		out[i], err = group.DecodeElement(p)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}
