package keymaker_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/mixnet/elgamal"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/keymaker"
	"go.dedis.ch/mixnet/sigma"
)

func testSettings(t *testing.T) *group.CryptoSettings {
	p, _ := new(big.Int).SetString("2000000000000001683", 10)
	q, _ := new(big.Int).SetString("1000000000000000841", 10)
	cs, err := group.NewCryptoSettings(p, q, big.NewInt(4))
	require.NoError(t, err)
	return cs
}

func Test_CreateShare_ProducesVerifiableProof(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)

	x, shareDTO, err := km.CreateShare("trustee-1")
	require.NoError(t, err)

	y, err := group.DecodeElement(shareDTO.PublicKey)
	require.NoError(t, err)
	require.True(t, cs.Equal(y, cs.Exp(cs.Generator(), x)))

	ok, err := sigma.VerifyPreimage(cs, "trustee-1", y, shareDTO.Proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_PartialDecrypt_NonThreshold_ReconstructsPlaintext(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)

	x, shareDTO, err := km.CreateShare("trustee-1")
	require.NoError(t, err)
	y, err := group.DecodeElement(shareDTO.PublicKey)
	require.NoError(t, err)

	m, err := cs.RandomScalar()
	require.NoError(t, err)
	plaintext := cs.Exp(cs.Generator(), m)
	r, err := cs.RandomScalar()
	require.NoError(t, err)
	ct := elgamal.Ciphertext{A: cs.Exp(cs.Generator(), r), B: cs.Mul(plaintext, cs.Exp(y, r))}

	partial, err := km.PartialDecrypt([]elgamal.Ciphertext{ct}, x, "trustee-1", keymaker.ModeNonThreshold, nil)
	require.NoError(t, err)
	require.Len(t, partial.Shares, 1)

	d, err := group.DecodeElement(partial.Shares[0])
	require.NoError(t, err)
	recovered := cs.Mul(ct.B, cs.Invert(d))
	require.True(t, cs.Equal(recovered, plaintext))

	ok, err := sigma.VerifyEqualityVector(cs, "trustee-1", y, []group.GroupElement{d}, []group.GroupElement{ct.A}, partial.Proof)
	require.NoError(t, err)
	require.True(t, ok)
}

func Test_PartialDecrypt_RejectsEmptyBatch(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)
	x, _, err := km.CreateShare("trustee-1")
	require.NoError(t, err)

	_, err = km.PartialDecrypt(nil, x, "trustee-1", keymaker.ModeNonThreshold, nil)
	require.Error(t, err)
}

func Test_PartialDecrypt_RejectsDegenerateCiphertext(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)
	x, _, err := km.CreateShare("trustee-1")
	require.NoError(t, err)

	degenerate := elgamal.Ciphertext{A: cs.Identity(), B: cs.Identity()}
	_, err = km.PartialDecrypt([]elgamal.Ciphertext{degenerate}, x, "trustee-1", keymaker.ModeNonThreshold, nil)
	require.Error(t, err)
}

func Test_PartialDecrypt_NonThresholdRejectsVerificationKey(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)
	x, _, err := km.CreateShare("trustee-1")
	require.NoError(t, err)
	vk := cs.Generator()

	ct := elgamal.Ciphertext{A: cs.Generator(), B: cs.Generator()}
	_, err = km.PartialDecrypt([]elgamal.Ciphertext{ct}, x, "trustee-1", keymaker.ModeNonThreshold, &vk)
	require.Error(t, err)
}

func Test_PartialDecrypt_ThresholdRequiresVerificationKey(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)
	x, _, err := km.CreateShare("trustee-1")
	require.NoError(t, err)

	ct := elgamal.Ciphertext{A: cs.Generator(), B: cs.Generator()}
	_, err = km.PartialDecrypt([]elgamal.Ciphertext{ct}, x, "trustee-1", keymaker.ModeThreshold, nil)
	require.Error(t, err)
}

func Test_PartialDecrypt_Threshold_UsesRawExponent(t *testing.T) {
	cs := testSettings(t)
	km := keymaker.New(cs)
	x, _, err := km.CreateShare("trustee-1")
	require.NoError(t, err)

	vk := cs.Exp(cs.Generator(), x)
	ct := elgamal.Ciphertext{A: cs.Generator(), B: cs.Generator()}

	partial, err := km.PartialDecrypt([]elgamal.Ciphertext{ct}, x, "trustee-1", keymaker.ModeThreshold, &vk)
	require.NoError(t, err)

	d, err := group.DecodeElement(partial.Shares[0])
	require.NoError(t, err)
	require.True(t, cs.Equal(d, cs.Exp(ct.A, x)))
}

func Test_Zero_DoesNotPanic(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	require.NotPanics(t, func() { keymaker.Zero(&x) })
}
