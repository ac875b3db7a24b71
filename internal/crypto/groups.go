package crypto

import (
	"io"

	"github.com/pkg/errors"
)

const (
	// ScalarLen is the length of an encoded P-256 scalar.
	ScalarLen = 32

	// PointLen is the length of an uncompressed P-256 point.
	PointLen = 65
)

var (
	// ErrInvalidScalar indicates a scalar of the wrong length or out of range.
	ErrInvalidScalar = errors.New("crypto: invalid scalar")

	// ErrInvalidPoint indicates a malformed or off-curve point encoding.
	ErrInvalidPoint = errors.New("crypto: invalid point")

	// ErrIdentity indicates that an operation produced the point at infinity.
	ErrIdentity = errors.New("crypto: point at infinity")

	// ErrEntropy indicates that the random source failed.
	ErrEntropy = errors.New("crypto: random source failure")
)

// Group is the elliptic-curve backend used by the protocol engine. Points
// cross the interface in their 65-byte uncompressed encoding and scalars as
// 32 big-endian bytes, so backends are interchangeable.
//
// No method returns an encoding of the point at infinity; ErrIdentity is
// returned instead.
type Group interface {
	String() string

	// Generator returns the encoded base point.
	Generator() []byte

	// RandomScalar returns a uniformly random scalar in [1, n).
	RandomScalar(rand io.Reader) ([]byte, error)

	// ScalarMult returns k*P. k need not be reduced mod n.
	ScalarMult(k, p []byte) ([]byte, error)

	// ScalarBaseMult returns k*G.
	ScalarBaseMult(k []byte) ([]byte, error)

	// Add returns P + Q.
	Add(p, q []byte) ([]byte, error)

	// Neg returns -P.
	Neg(p []byte) ([]byte, error)

	// ValidatePoint checks that p encodes a finite point on the curve.
	ValidatePoint(p []byte) error
}

// Sub returns P - Q.
func Sub(g Group, p, q []byte) ([]byte, error) {
	negQ, err := g.Neg(q)
	if err != nil {
		return nil, err
	}
	defer Wipe(negQ)
	return g.Add(p, negQ)
}

// Wipe overwrites b with zeros.
func Wipe(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
