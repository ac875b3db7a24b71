package p256

// AffinePoint is a curve point (x, y) with coordinates in the Montgomery
// domain. Infinity marks the point at infinity; X and Y are zero then.
type AffinePoint struct {
	X, Y     Element
	Infinity bool
}

// JacobianPoint represents the affine point (X/Z^2, Y/Z^3). Z == 0 is the
// point at infinity.
type JacobianPoint struct {
	X, Y, Z Element
}

// Infinity returns the point at infinity.
func Infinity() AffinePoint {
	return AffinePoint{Infinity: true}
}

// SetInfinity sets p to the point at infinity.
func (p *JacobianPoint) SetInfinity() {
	p.X = P.one
	p.Y = P.one
	p.Z.Clear()
}

// SetAffine sets p to the Jacobian form of a.
func (p *JacobianPoint) SetAffine(a *AffinePoint) {
	var zero Element
	p.X = a.X
	p.Y = a.Y
	p.Z = P.one
	p.Z.CondMove(&zero, boolToFlag(a.Infinity))
}

// CondMove sets p = q if flag is 1 and leaves p unchanged if flag is 0.
func (p *JacobianPoint) CondMove(q *JacobianPoint, flag uint32) {
	p.X.CondMove(&q.X, flag)
	p.Y.CondMove(&q.Y, flag)
	p.Z.CondMove(&q.Z, flag)
}

// Clear overwrites all coordinates with zeros.
func (p *JacobianPoint) Clear() {
	p.X.Clear()
	p.Y.Clear()
	p.Z.Clear()
}

// Double sets r = 2*p.
//
// See https://www.hyperelliptic.org/EFD/g1p/auto-shortw-jacobian-3.html#doubling-dbl-2001-b
func (r *JacobianPoint) Double(p *JacobianPoint) {
	var delta, gamma, beta, alpha, t, t2 Element
	var x3, y3, z3 Element

	P.Square(&delta, &p.Z)
	P.Square(&gamma, &p.Y)
	P.Mul(&beta, &p.X, &gamma)

	// alpha = 3*(X-delta)*(X+delta)
	P.Sub(&t, &p.X, &delta)
	P.Add(&t2, &p.X, &delta)
	P.Mul(&alpha, &t, &t2)
	P.Add(&t, &alpha, &alpha)
	P.Add(&alpha, &t, &alpha)

	// X3 = alpha^2 - 8*beta
	P.Add(&beta, &beta, &beta)
	P.Add(&beta, &beta, &beta) // 4*beta
	P.Square(&x3, &alpha)
	P.Sub(&x3, &x3, &beta)
	P.Sub(&x3, &x3, &beta)

	// Z3 = (Y+Z)^2 - gamma - delta
	P.Add(&t, &p.Y, &p.Z)
	P.Square(&z3, &t)
	P.Sub(&z3, &z3, &gamma)
	P.Sub(&z3, &z3, &delta)

	// Y3 = alpha*(4*beta - X3) - 8*gamma^2
	P.Sub(&t, &beta, &x3)
	P.Mul(&y3, &alpha, &t)
	P.Square(&t2, &gamma)
	P.Add(&t2, &t2, &t2)
	P.Add(&t2, &t2, &t2)
	P.Add(&t2, &t2, &t2)
	P.Sub(&y3, &y3, &t2)

	r.X, r.Y, r.Z = x3, y3, z3
}

// Add sets r = p + q. Infinity inputs and p == q are handled by computing
// every candidate result and selecting with masks, so the instruction
// sequence does not depend on which case occurred.
//
// See https://www.hyperelliptic.org/EFD/g1p/auto-shortw-jacobian-3.html#addition-add-2007-bl
func (r *JacobianPoint) Add(p, q *JacobianPoint) {
	var z1z1, z2z2, u1, u2, s1, s2, h, i, j, rr, v, t Element
	var sum JacobianPoint

	P.Square(&z1z1, &p.Z)
	P.Square(&z2z2, &q.Z)
	P.Mul(&u1, &p.X, &z2z2)
	P.Mul(&u2, &q.X, &z1z1)

	P.Mul(&s1, &p.Y, &q.Z)
	P.Mul(&s1, &s1, &z2z2)
	P.Mul(&s2, &q.Y, &p.Z)
	P.Mul(&s2, &s2, &z1z1)

	P.Sub(&h, &u2, &u1)
	P.Add(&i, &h, &h)
	P.Square(&i, &i)
	P.Mul(&j, &h, &i)
	P.Sub(&rr, &s2, &s1)
	P.Add(&rr, &rr, &rr)
	P.Mul(&v, &u1, &i)

	// X3 = rr^2 - J - 2*V
	P.Square(&sum.X, &rr)
	P.Sub(&sum.X, &sum.X, &j)
	P.Sub(&sum.X, &sum.X, &v)
	P.Sub(&sum.X, &sum.X, &v)

	// Y3 = rr*(V - X3) - 2*S1*J
	P.Sub(&t, &v, &sum.X)
	P.Mul(&sum.Y, &rr, &t)
	P.Mul(&t, &s1, &j)
	P.Sub(&sum.Y, &sum.Y, &t)
	P.Sub(&sum.Y, &sum.Y, &t)

	// Z3 = ((Z1+Z2)^2 - Z1Z1 - Z2Z2)*H
	P.Add(&t, &p.Z, &q.Z)
	P.Square(&t, &t)
	P.Sub(&t, &t, &z1z1)
	P.Sub(&t, &t, &z2z2)
	P.Mul(&sum.Z, &t, &h)

	var dbl JacobianPoint
	dbl.Double(p)

	pInf := p.Z.IsZero()
	qInf := q.Z.IsZero()
	same := h.IsZero() & rr.IsZero()

	res := sum
	res.CondMove(&dbl, same)
	res.CondMove(q, pInf)
	res.CondMove(p, qInf)
	*r = res
}

// ToAffine converts p to affine coordinates. Z is inverted with a fixed
// exponentiation; a zero Z inverts to zero and yields the infinity sentinel.
func (p *JacobianPoint) ToAffine() AffinePoint {
	var zInv, zInv2, zInv3, zero Element
	var a AffinePoint

	P.Inv(&zInv, &p.Z)
	P.Square(&zInv2, &zInv)
	P.Mul(&zInv3, &zInv2, &zInv)
	P.Mul(&a.X, &p.X, &zInv2)
	P.Mul(&a.Y, &p.Y, &zInv3)

	inf := p.Z.IsZero()
	a.X.CondMove(&zero, inf)
	a.Y.CondMove(&zero, inf)
	a.Infinity = inf == 1

	zInv.Clear()
	zInv2.Clear()
	zInv3.Clear()
	return a
}

// ScalarMult returns k*p. k is a plain 256-bit integer and need not be
// reduced mod n.
//
// The ladder is double-and-add-always over all 256 bits of k: the sum is
// always computed and kept or discarded with CondMove.
func ScalarMult(k *Element, p *AffinePoint) AffinePoint {
	var acc, base, sum JacobianPoint
	acc.SetInfinity()
	base.SetAffine(p)

	for i := 255; i >= 0; i-- {
		acc.Double(&acc)
		sum.Add(&acc, &base)
		acc.CondMove(&sum, k.Bit(i))
	}

	out := acc.ToAffine()
	acc.Clear()
	sum.Clear()
	return out
}

// ScalarBaseMult returns k*G.
func ScalarBaseMult(k *Element) AffinePoint {
	g := generator
	return ScalarMult(k, &g)
}

// AddAffine returns p + q.
func AddAffine(p, q *AffinePoint) AffinePoint {
	var jp, jq JacobianPoint
	jp.SetAffine(p)
	jq.SetAffine(q)
	jp.Add(&jp, &jq)
	return jp.ToAffine()
}

// Negate returns -p.
func (p *AffinePoint) Negate() AffinePoint {
	n := *p
	P.Neg(&n.Y, &p.Y)
	return n
}

// Equal reports whether p and q are the same point.
func (p *AffinePoint) Equal(q *AffinePoint) bool {
	if p.Infinity || q.Infinity {
		return p.Infinity == q.Infinity
	}
	return p.X.Equal(&q.X)&p.Y.Equal(&q.Y) == 1
}

// Clear overwrites the coordinates with zeros and marks p as infinity.
func (p *AffinePoint) Clear() {
	p.X.Clear()
	p.Y.Clear()
	p.Infinity = true
}

func boolToFlag(b bool) uint32 {
	var f uint32
	if b {
		f = 1
	}
	return f
}
