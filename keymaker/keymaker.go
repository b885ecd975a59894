// Package keymaker implements the KeyMaker trustee role: generating a
// verifiable ElGamal public-key share, and later producing a verifiable
// partial decryption of a ciphertext batch with that share's private
// exponent. KeyMaker is stateless per call - every operation takes its
// private material as an explicit argument and returns a fresh one, the way
// the teacher's peer/impl/decrypt_util.go computes a decryption share
// without any receiver-held secret state.
package keymaker

import (
	"github.com/rs/zerolog/log"

	"go.dedis.ch/mixnet/dto"
	"go.dedis.ch/mixnet/elgamal"
	"go.dedis.ch/mixnet/group"
	"go.dedis.ch/mixnet/mixerrors"
	"go.dedis.ch/mixnet/sigma"
	"golang.org/x/xerrors"
)

// DecryptionMode selects how PartialDecrypt interprets its exponent, per
// SPEC_FULL.md §4.4. The REDESIGN FLAG against an optional/nullable
// threshold parameter is addressed by making the mode an explicit,
// exhaustive enum instead of inferring behavior from whether vk is nil.
type DecryptionMode int

const (
	// ModeNonThreshold uses decryptionScalar = x^-1 and effective key g^x;
	// reconstruction multiplies partial decryptions directly.
	ModeNonThreshold DecryptionMode = iota
	// ModeThreshold uses decryptionScalar = x and effective key vk;
	// inversion is deferred to reconstruction.
	ModeThreshold
)

// KeyMaker is a stateless trustee that generates and uses one key share.
// It holds no secret state between calls - both entry points take and
// return their own private material explicitly.
type KeyMaker struct {
	cs *group.CryptoSettings
}

// New builds a KeyMaker bound to a fixed group description.
func New(cs *group.CryptoSettings) *KeyMaker {
	return &KeyMaker{cs: cs}
}

// CreateShare samples a fresh private exponent x, computes y = g^x, and
// proves knowledge of x via a Schnorr preimage proof (SPEC_FULL.md §4.3).
// The returned ScalarElement is the caller-owned private share; it must be
// zeroed by the caller once no longer needed.
func (k *KeyMaker) CreateShare(proverId string) (group.ScalarElement, dto.EncryptionKeyShareDTO, error) {
	kp, err := elgamal.GenerateKeyPair(k.cs)
	if err != nil {
		return group.ScalarElement{}, dto.EncryptionKeyShareDTO{}, xerrors.Errorf("keymaker.CreateShare: %w", err)
	}

	proof, err := sigma.ProvePreimage(k.cs, proverId, kp.X, kp.Y)
	if err != nil {
		return group.ScalarElement{}, dto.EncryptionKeyShareDTO{}, xerrors.Errorf("keymaker.CreateShare: %w", err)
	}

	log.Debug().Str("proverId", proverId).Str("publicKey", kp.Y.Encode()).Msg("generated key share")

	return kp.X, dto.EncryptionKeyShareDTO{Proof: proof, PublicKey: kp.Y.Encode()}, nil
}

// PartialDecrypt computes this trustee's partial decryption of every
// ciphertext in batch using private share x, and proves that every share
// was produced with the same exponent used to derive the public key
// (SPEC_FULL.md §4.4). vk is required in ModeThreshold and must be nil in
// ModeNonThreshold; a non-nil vk in ModeNonThreshold is rejected.
func (k *KeyMaker) PartialDecrypt(batch []elgamal.Ciphertext, x group.ScalarElement, proverId string, mode DecryptionMode, vk *group.GroupElement) (dto.PartialDecryptionDTO, error) {
	if len(batch) == 0 {
		return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: %w: empty batch", mixerrors.ErrArityMismatch)
	}

	as := make([]group.GroupElement, len(batch))
	for i, ct := range batch {
		if k.cs.IsIdentity(ct.A) {
			return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: index %d: %w", i, mixerrors.ErrDegenerateCiphertext)
		}
		as[i] = ct.A
	}

	var decryptionScalar group.ScalarElement
	var effectiveKey group.GroupElement
	switch mode {
	case ModeNonThreshold:
		if vk != nil {
			return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: %w: vk must be nil in non-threshold mode", mixerrors.ErrArityMismatch)
		}
		if k.cs.ScalarIsZero(x) {
			return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: %w: zero private share cannot be inverted", mixerrors.ErrProofGenerationFailure)
		}
		decryptionScalar = k.cs.ScalarInvert(x)
		effectiveKey = k.cs.Exp(k.cs.Generator(), x)
	case ModeThreshold:
		if vk == nil {
			return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: %w: vk is required in threshold mode", mixerrors.ErrArityMismatch)
		}
		decryptionScalar = x
		effectiveKey = *vk
	default:
		return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: unknown decryption mode %d", mode)
	}

	ds := make([]group.GroupElement, len(as))
	for i, a := range as {
		ds[i] = elgamal.PartialDecryptionFactor(k.cs, elgamal.Ciphertext{A: a}, decryptionScalar)
	}

	// ProveEqualityVector always proves knowledge of x against y = g^x: in
	// ModeThreshold decryptionScalar is x itself, so bases=as/outputs=ds
	// (d_i = a_i^x) carries it directly. In ModeNonThreshold decryptionScalar
	// is x^-1, so the same vector relation must be posed in its inverted
	// form, bases=ds/outputs=as (a_i = d_i^x), or the witness x would be
	// checked against the wrong side of the exponent.
	proofBases, proofOutputs := as, ds
	if mode == ModeNonThreshold {
		proofBases, proofOutputs = ds, as
	}
	proof, err := sigma.ProveEqualityVector(k.cs, proverId, x, effectiveKey, proofBases, proofOutputs)
	if err != nil {
		return dto.PartialDecryptionDTO{}, xerrors.Errorf("keymaker.PartialDecrypt: %w", err)
	}

	log.Debug().Str("proverId", proverId).Int("batchSize", len(batch)).Msg("produced partial decryption")

	return dto.PartialDecryptionDTO{Shares: dto.EncodeElements(ds), Proof: proof}, nil
}

// Zero overwrites a private share so it no longer holds secret material in
// memory. Callers must invoke this once a share is no longer needed,
// following the caller-owned zeroing obligation of SPEC_FULL.md §3's
// PermutationData lifecycle note, which applies equally to KeyMaker shares.
func Zero(x *group.ScalarElement) {
	*x = group.ScalarElement{}
}
