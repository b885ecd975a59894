package group_test

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"go.dedis.ch/mixnet/group"
)

// testSettings returns a small, fast safe-prime group for unit tests.
// p = 2*q+1, both prime; g = 2^2 mod p generates the order-q subgroup.
func testSettings(t *testing.T) *group.CryptoSettings {
	p, ok := new(big.Int).SetString("2000000000000001683", 10)
	require.True(t, ok)
	q, ok := new(big.Int).SetString("1000000000000000841", 10)
	require.True(t, ok)
	cs, err := group.NewCryptoSettings(p, q, big.NewInt(4))
	require.NoError(t, err)
	return cs
}

func Test_NewCryptoSettings_RejectsIdentityGenerator(t *testing.T) {
	p, _ := new(big.Int).SetString("2000000000000001683", 10)
	q, _ := new(big.Int).SetString("1000000000000000841", 10)
	_, err := group.NewCryptoSettings(p, q, big.NewInt(1))
	require.Error(t, err)
}

func Test_NewCryptoSettings_RejectsWrongOrderGenerator(t *testing.T) {
	p, _ := new(big.Int).SetString("2000000000000001683", 10)
	q, _ := new(big.Int).SetString("1000000000000000841", 10)
	// p = 3 mod 8, so 2 is a quadratic non-residue: 2^q = p-1, not 1.
	_, err := group.NewCryptoSettings(p, q, big.NewInt(2))
	require.Error(t, err)
}

func Test_ExpAndMul_Consistent(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	y, err := cs.RandomScalar()
	require.NoError(t, err)

	lhs := cs.Exp(cs.Generator(), cs.ScalarAdd(x, y))
	rhs := cs.Mul(cs.Exp(cs.Generator(), x), cs.Exp(cs.Generator(), y))
	require.True(t, cs.Equal(lhs, rhs))
}

func Test_Invert_RoundTrips(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	a := cs.Exp(cs.Generator(), x)

	inv := cs.Invert(a)
	require.True(t, cs.Equal(cs.Mul(a, inv), cs.Identity()))
}

func Test_ScalarInvert_RoundTrips(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	for cs.ScalarIsZero(x) {
		x, err = cs.RandomScalar()
		require.NoError(t, err)
	}
	inv := cs.ScalarInvert(x)
	require.Equal(t, "1", cs.ScalarMul(x, inv).Encode())
}

func Test_EncodeDecodeElement_RoundTrips(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)
	a := cs.Exp(cs.Generator(), x)

	decoded, err := group.DecodeElement(a.Encode())
	require.NoError(t, err)
	require.True(t, cs.Equal(a, decoded))
}

func Test_EncodeDecodeScalar_RoundTrips(t *testing.T) {
	cs := testSettings(t)
	x, err := cs.RandomScalar()
	require.NoError(t, err)

	decoded, err := group.DecodeScalar(x.Encode())
	require.NoError(t, err)
	require.Equal(t, x.Encode(), decoded.Encode())
}

func Test_DecodeElement_RejectsGarbage(t *testing.T) {
	_, err := group.DecodeElement("not-a-number")
	require.Error(t, err)
}

func Test_EncodeTuple_ProducesParenthesizedCommaList(t *testing.T) {
	require.Equal(t, "(1,2,3)", group.EncodeTuple("1", "2", "3"))
	require.Equal(t, "()", group.EncodeTuple())
}

func Test_DeriveGenerators_DeterministicAndIndependent(t *testing.T) {
	cs := testSettings(t)
	a := cs.DeriveGenerators(4)
	b := cs.DeriveGenerators(4)
	for i := range a {
		require.True(t, cs.Equal(a[i], b[i]), "derivation must be deterministic")
		require.False(t, cs.IsIdentity(a[i]))
		for j := range a {
			if i != j {
				require.False(t, cs.Equal(a[i], a[j]), "generators must be pairwise distinct")
			}
		}
	}
}
