package spake2plus

import (
	"github.com/backkem/spake2plus-go/internal/crypto"
	"github.com/backkem/spake2plus-go/internal/p256"
	"github.com/pkg/errors"
)

var (
	// ErrOutOfRange indicates an input of the wrong length, a scalar not
	// below the group order or a point that does not decode.
	ErrOutOfRange = errors.New("spake2plus: value out of range")

	// ErrCurveOperation indicates that a curve computation produced the
	// point at infinity.
	ErrCurveOperation = errors.New("spake2plus: curve operation failed")

	// ErrVerifierMismatch indicates that the peer's verifier did not match.
	// It carries no further detail.
	ErrVerifierMismatch = errors.New("spake2plus: verifier mismatch")

	// ErrResource indicates that the random source or another external
	// resource failed.
	ErrResource = errors.New("spake2plus: resource failure")

	// ErrInvalidState indicates an operation called out of order or on a
	// finished handshake.
	ErrInvalidState = errors.New("spake2plus: invalid state")

	// ErrInvalidRole indicates an unknown role.
	ErrInvalidRole = errors.New("spake2plus: invalid role")

	// ErrTranscriptFinalized indicates use of a transcript after Finalize.
	ErrTranscriptFinalized = errors.New("spake2plus: transcript already finalized")
)

// classify maps backend errors onto the package sentinels, keeping the
// backend message as context.
func classify(err error, op string) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, crypto.ErrEntropy):
		return errors.Wrapf(ErrResource, "%s: %v", op, err)
	case errors.Is(err, crypto.ErrIdentity):
		return errors.Wrapf(ErrCurveOperation, "%s: %v", op, err)
	case errors.Is(err, crypto.ErrInvalidPoint),
		errors.Is(err, crypto.ErrInvalidScalar),
		errors.Is(err, p256.ErrOutOfRange):
		return errors.Wrapf(ErrOutOfRange, "%s: %v", op, err)
	}
	return errors.WithMessage(err, op)
}
