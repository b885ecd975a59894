// Package mixer implements the Mixer trustee role: the two-phase
// Terelius-Wikstrom verifiable shuffle of SPEC_FULL.md §4.5/§4.6, split
// into an offline permutation-commitment phase and an online
// re-encryption-and-proof phase joined by a small explicit state machine
// (SPEC_FULL.md §4.7).
package mixer

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/rs/zerolog/log"

	"go.dedis.ch/mixnet/dto"
	"go.dedis.ch/mixnet/elgamal"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/mixerrors"
	"go.dedis.ch/mixnet/sigma"
	"go.dedis.ch/mixnet/workerpool"
	"golang.org/x/xerrors"
)

// PermutationData is the Mixer's private state between the offline and
// online phases: the sampled permutation and its commitment randomizers.
// It is caller-owned and must be zeroed once the online phase consumes it
// (or the batch is abandoned), per SPEC_FULL.md §3.
type PermutationData struct {
	Perm []int
	R    []group.ScalarElement
}

// Zero overwrites a PermutationData's secret fields.
func Zero(pd *PermutationData) {
	for i := range pd.R {
		pd.R[i] = group.ScalarElement{}
	}
	pd.Perm = nil
	pd.R = nil
}

// Mixer runs the two-phase verifiable shuffle for one election batch. It
// has two states per batch, matching SPEC_FULL.md §4.7: after PreShuffle it
// holds a PermutationPrepared(pi, r) commitment awaiting a matching-arity
// Shuffle call, which consumes it.
type Mixer struct {
	cs       *group.CryptoSettings
	pool     *workerpool.Pool
	prepared *PermutationData
	gens     []group.GroupElement
	n        int
}

// New builds a Mixer bound to a fixed group description and worker pool.
// A nil pool runs all fan-out sequentially (see package workerpool).
func New(cs *group.CryptoSettings, pool *workerpool.Pool) *Mixer {
	return &Mixer{cs: cs, pool: pool}
}

// PreShuffle samples a random permutation of {0,...,N-1} and commits to it
// against N deterministically-derived generators, producing the offline
// PermutationProofDTO of SPEC_FULL.md §4.5. It leaves the Mixer in the
// PermutationPrepared state.
func (m *Mixer) PreShuffle(ctx context.Context, n int, proverId string) (dto.PermutationProofDTO, error) {
	if n <= 0 {
		return dto.PermutationProofDTO{}, xerrors.Errorf("mixer.PreShuffle: %w: non-positive batch size", mixerrors.ErrArityMismatch)
	}

	perm, err := randomPermutation(m.cs, n)
	if err != nil {
		return dto.PermutationProofDTO{}, xerrors.Errorf("mixer.PreShuffle: %w", err)
	}

	gens := m.cs.DeriveGenerators(n)

	rResults, err := m.pool.Parallelize(ctx, n, func(i int) (interface{}, error) {
		return m.cs.RandomScalar()
	})
	if err != nil {
		return dto.PermutationProofDTO{}, xerrors.Errorf("mixer.PreShuffle: sampling randomizers: %w", err)
	}
	r := make([]group.ScalarElement, n)
	for i, v := range rResults {
		r[i] = v.(group.ScalarElement)
	}

	cResults, err := m.pool.Parallelize(ctx, n, func(i int) (interface{}, error) {
		return m.cs.Mul(m.cs.Exp(m.cs.Generator(), r[i]), gens[perm[i]]), nil
	})
	if err != nil {
		return dto.PermutationProofDTO{}, xerrors.Errorf("mixer.PreShuffle: computing commitments: %w", err)
	}
	commitments := make([]group.GroupElement, n)
	for i, v := range cResults {
		commitments[i] = v.(group.GroupElement)
	}

	proof, err := sigma.ProvePermutationCommitment(m.cs, proverId, gens, commitments, sigma.PermutationWitness{Perm: perm, R: r})
	if err != nil {
		return dto.PermutationProofDTO{}, xerrors.Errorf("mixer.PreShuffle: %w", err)
	}

	m.prepared = &PermutationData{Perm: perm, R: r}
	m.gens = gens
	m.n = n

	log.Debug().Str("proverId", proverId).Int("n", n).Msg("prepared permutation commitment")

	return proof, nil
}

// Shuffle consumes the prepared permutation and produces a re-encryption
// shuffle of batch together with its proof (SPEC_FULL.md §4.6). batch must
// have the exact arity committed to by the preceding PreShuffle call;
// otherwise this is a fatal, state-preserving error (the prepared state is
// only consumed on success).
func (m *Mixer) Shuffle(ctx context.Context, batch []elgamal.Ciphertext, y group.GroupElement, proverId string) (dto.ShuffleResultDTO, error) {
	if m.prepared == nil {
		return dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.Shuffle: %w", mixerrors.ErrNoPreparedPermutation)
	}
	n := m.n
	if len(batch) != n {
		return dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.Shuffle: %w: prepared for %d, got %d", mixerrors.ErrArityMismatch, n, len(batch))
	}

	perm, r := m.prepared.Perm, m.prepared.R

	sResults, err := m.pool.Parallelize(ctx, n, func(i int) (interface{}, error) {
		return m.cs.RandomScalar()
	})
	if err != nil {
		return dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.Shuffle: sampling re-encryption randomness: %w", err)
	}
	s := make([]group.ScalarElement, n)
	for i, v := range sResults {
		s[i] = v.(group.ScalarElement)
	}

	invPerm := invertPermutation(perm)
	shuffled, err := m.pool.Parallelize(ctx, n, func(i int) (interface{}, error) {
		return elgamal.ReEncrypt(m.cs, y, batch[invPerm[i]], s[i]), nil
	})
	if err != nil {
		return dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.Shuffle: re-encrypting: %w", err)
	}
	after := make([]elgamal.Ciphertext, n)
	for i, v := range shuffled {
		after[i] = v.(elgamal.Ciphertext)
	}

	commitments := make([]group.GroupElement, n)
	for i := 0; i < n; i++ {
		commitments[i] = m.cs.Mul(m.cs.Exp(m.cs.Generator(), r[i]), m.gens[perm[i]])
	}

	mixProof, err := sigma.ProveShuffle(m.cs, proverId, y, batch, after, sigma.ShuffleWitness{Perm: invPerm, S: s})
	if err != nil {
		return dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.Shuffle: %w", err)
	}

	permutationProof, err := sigma.ProvePermutationCommitment(m.cs, proverId, m.gens, commitments, sigma.PermutationWitness{Perm: perm, R: r})
	if err != nil {
		return dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.Shuffle: %w", err)
	}

	result := dto.ShuffleResultDTO{
		Proof: dto.ShuffleProofDTO{
			MixProof:              mixProof,
			PermutationProof:      permutationProof,
			PermutationCommitment: group.EncodeTuple(dto.EncodeElements(commitments)...),
		},
		Ciphertexts: dto.EncodeCiphertexts(after),
	}

	Zero(m.prepared)
	m.prepared = nil

	log.Debug().Str("proverId", proverId).Int("n", n).Msg("produced shuffle")

	return result, nil
}

// PreShuffleAndShuffle runs the offline and online phases back-to-back,
// generating the permutation proof and the re-encryption + mix proof
// concurrently on the Mixer's worker pool once the permutation commitment
// is sampled (SPEC_FULL.md §4.6's combined one-shot variant), addressing
// the REDESIGN FLAG that called for one concurrency idiom across this
// module: the same workerpool.Pool used for element-wise fan-out also
// joins these two proofs.
func (m *Mixer) PreShuffleAndShuffle(ctx context.Context, batch []elgamal.Ciphertext, y group.GroupElement, proverId string) (dto.PermutationProofDTO, dto.ShuffleResultDTO, error) {
	n := len(batch)
	if _, err := m.PreShuffle(ctx, n, proverId); err != nil {
		return dto.PermutationProofDTO{}, dto.ShuffleResultDTO{}, err
	}

	// Snapshot the prepared state before fanning out: Shuffle consumes and
	// nils m.prepared on success, and must not race with the permutation
	// proof's own read of the same fields.
	perm := append([]int(nil), m.prepared.Perm...)
	r := append([]group.ScalarElement(nil), m.prepared.R...)
	gens := m.gens
	commitments := make([]group.GroupElement, n)
	for i := 0; i < n; i++ {
		commitments[i] = m.cs.Mul(m.cs.Exp(m.cs.Generator(), r[i]), gens[perm[i]])
	}

	results, err := m.pool.Parallelize(ctx, 2, func(i int) (interface{}, error) {
		if i == 0 {
			return sigma.ProvePermutationCommitment(m.cs, proverId, gens, commitments, sigma.PermutationWitness{Perm: perm, R: r})
		}
		return m.Shuffle(ctx, batch, y, proverId)
	})
	if err != nil {
		return dto.PermutationProofDTO{}, dto.ShuffleResultDTO{}, xerrors.Errorf("mixer.PreShuffleAndShuffle: %w", err)
	}

	return results[0].(dto.PermutationProofDTO), results[1].(dto.ShuffleResultDTO), nil
}

// randomPermutation samples a uniform permutation of {0,...,n-1} via
// Fisher-Yates, following the teacher's GenerateRandPermutation pattern of
// drawing each swap index directly from crypto/rand.
func randomPermutation(cs *group.CryptoSettings, n int) ([]int, error) {
	perm := make([]int, n)
	for i := range perm {
		perm[i] = i
	}
	for i := n - 1; i > 0; i-- {
		jBig, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return nil, xerrors.Errorf("sampling permutation: %w", err)
		}
		j := int(jBig.Int64())
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm, nil
}

func invertPermutation(perm []int) []int {
	inv := make([]int, len(perm))
	for i, p := range perm {
		inv[p] = i
	}
	return inv
}
