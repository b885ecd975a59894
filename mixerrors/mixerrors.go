// Package mixerrors defines the typed error kinds of SPEC_FULL.md §7. The
// core performs no retries: every error is fatal to the operation that
// raised it, and no partial DTO is ever emitted on an error path.
package mixerrors

import "golang.org/x/xerrors"

// Sentinel error kinds. Wrap with xerrors.Errorf("...: %w", Err...) to add
// context while keeping errors.Is/errors.As usable by callers.
var (
	// ErrInvalidGroupParameters signals g^q != 1, p not prime, or a nil
	// group component. Fatal at configuration time.
	ErrInvalidGroupParameters = xerrors.New("mixnet: invalid group parameters")

	// ErrArityMismatch signals the online shuffle's ciphertext count
	// differs from the offline N. Rejected before any randomness is
	// sampled.
	ErrArityMismatch = xerrors.New("mixnet: ciphertext batch arity does not match prepared permutation")

	// ErrDegenerateCiphertext signals a ciphertext whose a-component
	// encodes to the group identity. Elevated from the original source's
	// log-and-continue behavior to a hard failure (see SPEC_FULL.md §9).
	ErrDegenerateCiphertext = xerrors.New("mixnet: ciphertext a-component is the group identity")

	// ErrProofGenerationFailure signals that a sigma-protocol generator
	// detected an internal inconsistency (e.g. a witness outside its
	// expected domain).
	ErrProofGenerationFailure = xerrors.New("mixnet: proof generation failed")

	// ErrEncodingFailure signals that a produced element could not be
	// encoded, or did not decode back to the same value.
	ErrEncodingFailure = xerrors.New("mixnet: encoding round-trip failed")

	// ErrNoPreparedPermutation signals Shuffle was called without a
	// prepared permutation: no preceding PreShuffle, or one whose prepared
	// state an earlier Shuffle already consumed. An arity mismatch is
	// reported as ErrArityMismatch instead.
	ErrNoPreparedPermutation = xerrors.New("mixnet: no prepared permutation for this batch")
)
