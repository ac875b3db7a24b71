package p256

import (
	"github.com/pkg/errors"
)

// ErrOutOfRange is returned when an encoded integer is not below its modulus
// or has the wrong length.
var ErrOutOfRange = errors.New("p256: value out of range")

// Modulus describes an odd 256-bit modulus for Montgomery arithmetic with
// R = 2^256. Instances are built once and never mutated.
type Modulus struct {
	m   Element // the modulus
	rr  Element // R^2 mod m
	ni  uint32  // -m^-1 mod 2^32
	one Element // R mod m, i.e. 1 in the Montgomery domain
}

var (
	// P is the P-256 field prime.
	P = newModulus(
		Element{0xFFFFFFFF, 0xFFFFFFFF, 0xFFFFFFFF, 0x00000000, 0x00000000, 0x00000000, 0x00000001, 0xFFFFFFFF},
		Element{0x00000003, 0x00000000, 0xFFFFFFFF, 0xFFFFFFFB, 0xFFFFFFFE, 0xFFFFFFFF, 0xFFFFFFFD, 0x00000004},
		0x00000001,
	)

	// N is the order of the P-256 base point.
	N = newModulus(
		Element{0xFC632551, 0xF3B9CAC2, 0xA7179E84, 0xBCE6FAAD, 0xFFFFFFFF, 0xFFFFFFFF, 0x00000000, 0xFFFFFFFF},
		Element{0xBE79EEA2, 0x83244C95, 0x49BD6FA6, 0x4699799C, 0x2B6BEC59, 0x2845B239, 0xF3D95620, 0x66E12D94},
		0xEE00BC4F,
	)
)

func newModulus(m, rr Element, ni uint32) *Modulus {
	mod := &Modulus{m: m, rr: rr, ni: ni}
	mod.one.SetSmall(1)
	mod.ToMontgomery(&mod.one, &mod.one)
	return mod
}

// Value returns the modulus as a plain integer.
func (m *Modulus) Value() Element {
	return m.m
}

// One returns 1 in the Montgomery domain.
func (m *Modulus) One() Element {
	return m.one
}

// Mul sets z = x*y/R mod m (HAC 14.36). x and y must be below m. z may alias
// x or y.
func (m *Modulus) Mul(z, x, y *Element) {
	var a [9]uint32
	for i := 0; i < 8; i++ {
		u := (a[0] + x[i]*y[0]) * m.ni
		c := mulAdd288(&a, x[i], y)
		c += mulAdd288(&a, u, &m.m)
		shiftRight288(&a, c)
	}

	// a < 2m here; subtract m once when a >= m.
	var lo, t Element
	copy(lo[:], a[:8])
	borrow := Sub(&t, &lo, &m.m)
	lo.CondMove(&t, a[8]|(borrow^1))
	*z = lo
}

// Square sets z = x*x/R mod m.
func (m *Modulus) Square(z, x *Element) {
	m.Mul(z, x, x)
}

// ToMontgomery sets z = x*R mod m.
func (m *Modulus) ToMontgomery(z, x *Element) {
	m.Mul(z, x, &m.rr)
}

// FromMontgomery sets z = x/R mod m.
func (m *Modulus) FromMontgomery(z, x *Element) {
	var one Element
	one.SetSmall(1)
	m.Mul(z, x, &one)
}

// Add sets z = x + y mod m.
func (m *Modulus) Add(z, x, y *Element) {
	var t Element
	carry := Add(z, x, y)
	borrow := Sub(&t, z, &m.m)
	z.CondMove(&t, carry|(borrow^1))
}

// Sub sets z = x - y mod m.
func (m *Modulus) Sub(z, x, y *Element) {
	var t Element
	borrow := Sub(z, x, y)
	Add(&t, z, &m.m)
	z.CondMove(&t, borrow)
}

// Neg sets z = -x mod m.
func (m *Modulus) Neg(z, x *Element) {
	var zero Element
	m.Sub(z, &zero, x)
}

// Exp sets z = x^e in the Montgomery domain. e is a plain integer; every one
// of its 256 bits is processed regardless of value.
func (m *Modulus) Exp(z, x, e *Element) {
	acc := m.one
	base := *x
	for i := 255; i >= 0; i-- {
		m.Square(&acc, &acc)
		var t Element
		m.Mul(&t, &acc, &base)
		acc.CondMove(&t, e.Bit(i))
	}
	*z = acc
}

// Inv sets z = x^-1 mod m using Fermat's little theorem. Inv of zero is zero.
func (m *Modulus) Inv(z, x *Element) {
	var two, e Element
	two.SetSmall(2)
	Sub(&e, &m.m, &two)
	m.Exp(z, x, &e)
}

// SetCanonicalBytes sets z to the plain integer encoded big-endian in b. It
// fails with ErrOutOfRange unless len(b) == 32 and the value is below m.
func (m *Modulus) SetCanonicalBytes(z *Element, b []byte) error {
	if len(b) != 32 {
		return errors.Wrapf(ErrOutOfRange, "got %d bytes, want 32", len(b))
	}
	var t Element
	z.SetBytes((*[32]byte)(b))
	if Sub(&t, z, &m.m) == 0 {
		z.Clear()
		return ErrOutOfRange
	}
	return nil
}

// FromBytes decodes 32 big-endian bytes into the Montgomery domain. Values
// greater than or equal to m are rejected with ErrOutOfRange.
func (m *Modulus) FromBytes(z *Element, b []byte) error {
	if err := m.SetCanonicalBytes(z, b); err != nil {
		return err
	}
	m.ToMontgomery(z, z)
	return nil
}

// ToBytes takes x out of the Montgomery domain and encodes it big-endian.
func (m *Modulus) ToBytes(x *Element) [32]byte {
	var t Element
	m.FromMontgomery(&t, x)
	b := t.Bytes()
	t.Clear()
	return b
}

// ReduceWide returns the plain integer encoded big-endian in b (at most 64
// bytes) reduced mod m.
func (m *Modulus) ReduceWide(b []byte) (Element, error) {
	if len(b) > 64 {
		return Element{}, errors.Wrapf(ErrOutOfRange, "got %d bytes, want at most 64", len(b))
	}
	var buf [64]byte
	copy(buf[64-len(b):], b)

	var hi, lo, t Element
	hi.SetBytes((*[32]byte)(buf[:32]))
	lo.SetBytes((*[32]byte)(buf[32:]))
	for i := range buf {
		buf[i] = 0
	}

	// Both moduli exceed 2^255, so one conditional subtraction brings any
	// 256-bit value below m.
	borrow := Sub(&t, &hi, &m.m)
	hi.CondMove(&t, borrow^1)
	borrow = Sub(&t, &lo, &m.m)
	lo.CondMove(&t, borrow^1)

	// hi*R^2/R = hi*2^256 mod m, as a plain integer.
	m.Mul(&hi, &hi, &m.rr)
	m.Add(&lo, &lo, &hi)
	hi.Clear()
	t.Clear()
	return lo, nil
}
