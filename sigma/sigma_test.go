package sigma_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/mixnet/elgamal"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/sigma"
)

func testSettings(t *testing.T) *group.CryptoSettings {
	p, _ := new(big.Int).SetString("2000000000000001683", 10)
	q, _ := new(big.Int).SetString("1000000000000000841", 10)
	cs, err := group.NewCryptoSettings(p, q, big.NewInt(4))
	require.NoError(t, err)
	return cs
}

func Test_ProvePreimage_VerifiesTrue(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y := cs.Exp(cs.Generator(), x)

	proof, err := sigma.ProvePreimage(cs, "prover-1", x, y)
	require.NoError(t, err)

	ok, err := sigma.VerifyPreimage(cs, "prover-1", y, proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_VerifyPreimage_RejectsWrongPublicValue(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y := cs.Exp(cs.Generator(), x)

	proof, err := sigma.ProvePreimage(cs, "prover-1", x, y)
	require.NoError(t, err)

	other, err := cs.RandomScalar()
	require.NoError(t, err)
	wrongY := cs.Exp(cs.Generator(), other)

	ok, err := sigma.VerifyPreimage(cs, "prover-1", wrongY, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_VerifyPreimage_RejectsWrongProverId(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y := cs.Exp(cs.Generator(), x)

	proof, err := sigma.ProvePreimage(cs, "prover-1", x, y)
	require.NoError(t, err)

	ok, err := sigma.VerifyPreimage(cs, "prover-2", y, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_ProveEqualityVector_VerifiesTrue(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y := cs.Exp(cs.Generator(), x)

	n := 4
	bases := make([]group.GroupElement, n)
	ds := make([]group.GroupElement, n)
	for i := 0; i < n; i++ {
		r, err := cs.RandomScalar()
		require.NoError(t, err)
		bases[i] = cs.Exp(cs.Generator(), r)
		ds[i] = cs.Exp(bases[i], x)
	}

	proof, err := sigma.ProveEqualityVector(cs, "prover-1", x, y, bases, ds)
	require.NoError(t, err)

	ok, err := sigma.VerifyEqualityVector(cs, "prover-1", y, bases, ds, proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_VerifyEqualityVector_RejectsMismatchedExponent(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y := cs.Exp(cs.Generator(), x)

	n := 3
	bases := make([]group.GroupElement, n)
	ds := make([]group.GroupElement, n)
	for i := 0; i < n; i++ {
		r, err := cs.RandomScalar()
		require.NoError(t, err)
		bases[i] = cs.Exp(cs.Generator(), r)
		ds[i] = cs.Exp(bases[i], x)
	}
	// Tamper with one share so it uses a different exponent.
	other, err := cs.RandomScalar()
	require.NoError(t, err)
	ds[1] = cs.Exp(bases[1], other)

	proof, err := sigma.ProveEqualityVector(cs, "prover-1", x, y, bases, ds)
	require.NoError(t, err)

	ok, err := sigma.VerifyEqualityVector(cs, "prover-1", y, bases, ds, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_ProveEqualityVector_RejectsArityMismatch(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y := cs.Exp(cs.Generator(), x)

	_, err = sigma.ProveEqualityVector(cs, "prover-1", x, y, []group.GroupElement{cs.Generator()}, nil)
	require.Error(t, err)
}

func Test_PermutationCommitment_VerifiesTrue(t *testing.T) {
	cs := testSettings(t)
	n := 5
	gens := cs.DeriveGenerators(n)
	perm := []int{2, 0, 4, 1, 3}
	r := make([]group.ScalarElement, n)
	commitments := make([]group.GroupElement, n)
	for i := 0; i < n; i++ {
		ri, err := cs.RandomScalar()
		require.NoError(t, err)
		r[i] = ri
		commitments[i] = cs.Mul(cs.Exp(cs.Generator(), ri), gens[perm[i]])
	}

	proof, err := sigma.ProvePermutationCommitment(cs, "mixer-1", gens, commitments, sigma.PermutationWitness{Perm: perm, R: r})
	require.NoError(t, err)

	ok, err := sigma.VerifyPermutationCommitment(cs, "mixer-1", gens, commitments, proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_VerifyPermutationCommitment_RejectsTamperedCommitment(t *testing.T) {
	cs := testSettings(t)
	n := 4
	gens := cs.DeriveGenerators(n)
	perm := []int{3, 1, 0, 2}
	r := make([]group.ScalarElement, n)
	commitments := make([]group.GroupElement, n)
	for i := 0; i < n; i++ {
		ri, err := cs.RandomScalar()
		require.NoError(t, err)
		r[i] = ri
		commitments[i] = cs.Mul(cs.Exp(cs.Generator(), ri), gens[perm[i]])
	}

	proof, err := sigma.ProvePermutationCommitment(cs, "mixer-1", gens, commitments, sigma.PermutationWitness{Perm: perm, R: r})
	require.NoError(t, err)

	commitments[0] = cs.Mul(commitments[0], cs.Generator())

	ok, err := sigma.VerifyPermutationCommitment(cs, "mixer-1", gens, commitments, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_Shuffle_VerifiesTrue(t *testing.T) {
	cs := testSettings(t)
	kp, err := elgamal.GenerateKeyPair(cs)
	require.NoError(t, err)

	n := 4
	before := make([]elgamal.Ciphertext, n)
	for i := 0; i < n; i++ {
		r, err := cs.RandomScalar()
		require.NoError(t, err)
		before[i] = elgamal.ReEncrypt(cs, kp.Y, elgamal.Ciphertext{A: cs.Identity(), B: cs.Identity()}, r)
	}

	perm := []int{1, 3, 0, 2}
	s := make([]group.ScalarElement, n)
	after := make([]elgamal.Ciphertext, n)
	for i := 0; i < n; i++ {
		si, err := cs.RandomScalar()
		require.NoError(t, err)
		s[i] = si
		after[i] = elgamal.ReEncrypt(cs, kp.Y, before[perm[i]], si)
	}

	proof, err := sigma.ProveShuffle(cs, "mixer-1", kp.Y, before, after, sigma.ShuffleWitness{Perm: perm, S: s})
	require.NoError(t, err)

	ok, err := sigma.VerifyShuffle(cs, "mixer-1", kp.Y, before, after, proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_VerifyShuffle_RejectsTamperedOutput(t *testing.T) {
	cs := testSettings(t)
	kp, err := elgamal.GenerateKeyPair(cs)
	require.NoError(t, err)

	n := 3
	before := make([]elgamal.Ciphertext, n)
	for i := 0; i < n; i++ {
		r, err := cs.RandomScalar()
		require.NoError(t, err)
		before[i] = elgamal.ReEncrypt(cs, kp.Y, elgamal.Ciphertext{A: cs.Identity(), B: cs.Identity()}, r)
	}

	perm := []int{2, 0, 1}
	s := make([]group.ScalarElement, n)
	after := make([]elgamal.Ciphertext, n)
	for i := 0; i < n; i++ {
		si, err := cs.RandomScalar()
		require.NoError(t, err)
		s[i] = si
		after[i] = elgamal.ReEncrypt(cs, kp.Y, before[perm[i]], si)
	}

	proof, err := sigma.ProveShuffle(cs, "mixer-1", kp.Y, before, after, sigma.ShuffleWitness{Perm: perm, S: s})
	require.NoError(t, err)

	after[0] = elgamal.ReEncrypt(cs, kp.Y, after[0], s[0])

	ok, err := sigma.VerifyShuffle(cs, "mixer-1", kp.Y, before, after, proof)
	require.NoError(t, err)
	require.False(t, ok)
}

func Test_ProveShuffle_RejectsArityMismatch(t *testing.T) {
	cs := testSettings(t)
	kp, err := elgamal.GenerateKeyPair(cs)
	require.NoError(t, err)

	before := []elgamal.Ciphertext{{A: cs.Identity(), B: cs.Identity()}}
	after := []elgamal.Ciphertext{}

	_, err = sigma.ProveShuffle(cs, "mixer-1", kp.Y, before, after, sigma.ShuffleWitness{Perm: []int{0}, S: []group.ScalarElement{}})
	require.Error(t, err)
}
