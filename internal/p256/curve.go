package p256

import (
	"encoding/hex"
)

// Curve parameters, y^2 = x^3 - 3x + b over GF(p). Field constants are kept
// in the Montgomery domain.
var (
	curveB    Element
	generator AffinePoint
)

const (
	bHex  = "5ac635d8aa3a93e7b3ebbd55769886bc651d06b0cc53b0f63bce3c3e27d2604b"
	gxHex = "6b17d1f2e12c4247f8bce6e563a440f277037d812deb33a0f4a13945d898c296"
	gyHex = "4fe342e2fe1a7f9b8ee7eb4a7c0f9e162bce33576b315ececbb6406837bf51f5"
)

func init() {
	mustFieldElement(&curveB, bHex)
	mustFieldElement(&generator.X, gxHex)
	mustFieldElement(&generator.Y, gyHex)
}

func mustFieldElement(z *Element, s string) {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	if err := P.FromBytes(z, b); err != nil {
		panic(err)
	}
}

// Generator returns the P-256 base point.
func Generator() AffinePoint {
	return generator
}

// Order returns the group order n as a plain integer.
func Order() Element {
	return N.Value()
}

// IsOnCurve reports whether p satisfies the curve equation. The point at
// infinity is considered on the curve.
func (p *AffinePoint) IsOnCurve() bool {
	if p.Infinity {
		return true
	}
	var lhs, rhs, t Element

	P.Square(&lhs, &p.Y)

	// x^3 - 3x + b
	P.Square(&rhs, &p.X)
	P.Mul(&rhs, &rhs, &p.X)
	P.Add(&t, &p.X, &p.X)
	P.Add(&t, &t, &p.X)
	P.Sub(&rhs, &rhs, &t)
	P.Add(&rhs, &rhs, &curveB)

	return lhs.Equal(&rhs) == 1
}
