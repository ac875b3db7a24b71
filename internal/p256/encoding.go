package p256

import (
	"github.com/pkg/errors"
)

// PointSize is the length of an uncompressed point encoding.
const PointSize = 65

const uncompressedTag = 0x04

var (
	// ErrInfinity is returned when the point at infinity would have to be
	// encoded or is produced where a finite point is required.
	ErrInfinity = errors.New("p256: point at infinity")

	// ErrNotOnCurve is returned when decoded coordinates do not satisfy the
	// curve equation.
	ErrNotOnCurve = errors.New("p256: point not on curve")
)

// Encode returns the uncompressed encoding 0x04 || X || Y.
func (p *AffinePoint) Encode() ([PointSize]byte, error) {
	var out [PointSize]byte
	if p.Infinity {
		return out, ErrInfinity
	}
	out[0] = uncompressedTag
	x := P.ToBytes(&p.X)
	y := P.ToBytes(&p.Y)
	copy(out[1:33], x[:])
	copy(out[33:], y[:])
	return out, nil
}

// Decode parses an uncompressed point encoding and checks that it lies on
// the curve.
func Decode(b []byte) (AffinePoint, error) {
	var p AffinePoint
	if len(b) != PointSize {
		return p, errors.Wrapf(ErrOutOfRange, "point encoding is %d bytes, want %d", len(b), PointSize)
	}
	if b[0] != uncompressedTag {
		return p, errors.Wrapf(ErrOutOfRange, "unsupported point tag 0x%02x", b[0])
	}
	if err := P.FromBytes(&p.X, b[1:33]); err != nil {
		return p, errors.WithMessage(err, "x coordinate")
	}
	if err := P.FromBytes(&p.Y, b[33:]); err != nil {
		return p, errors.WithMessage(err, "y coordinate")
	}
	if !p.IsOnCurve() {
		return AffinePoint{}, ErrNotOnCurve
	}
	return p, nil
}
