package crypto

import (
	"io"

	"github.com/backkem/spake2plus-go/internal/p256"
	"github.com/pkg/errors"
)

type nativeP256 struct{}

// NativeP256 returns the P-256 group backed by the constant-time arithmetic
// in internal/p256.
func NativeP256() Group {
	return nativeP256{}
}

func (nativeP256) String() string {
	return "P-256/native"
}

func (nativeP256) Generator() []byte {
	g := p256.Generator()
	enc, _ := g.Encode()
	return enc[:]
}

// RandomScalar draws 32 bytes at a time until the value is nonzero and below
// n.
func (nativeP256) RandomScalar(rand io.Reader) ([]byte, error) {
	buf := make([]byte, ScalarLen)
	for attempt := 0; attempt < 64; attempt++ {
		if _, err := io.ReadFull(rand, buf); err != nil {
			Wipe(buf)
			return nil, errors.Wrap(ErrEntropy, err.Error())
		}
		var k p256.Element
		if err := p256.N.SetCanonicalBytes(&k, buf); err != nil {
			continue
		}
		zero := k.IsZero()
		k.Clear()
		if zero == 1 {
			continue
		}
		return buf, nil
	}
	Wipe(buf)
	return nil, errors.Wrap(ErrEntropy, "no valid scalar after 64 draws")
}

func (g nativeP256) ScalarMult(k, p []byte) ([]byte, error) {
	pt, err := decodePoint(p)
	if err != nil {
		return nil, err
	}
	return g.mul(k, &pt)
}

func (g nativeP256) ScalarBaseMult(k []byte) ([]byte, error) {
	base := p256.Generator()
	return g.mul(k, &base)
}

func (nativeP256) mul(k []byte, p *p256.AffinePoint) ([]byte, error) {
	if len(k) != ScalarLen {
		return nil, errors.Wrapf(ErrInvalidScalar, "scalar is %d bytes", len(k))
	}
	var e p256.Element
	e.SetBytes((*[32]byte)(k))
	r := p256.ScalarMult(&e, p)
	e.Clear()
	defer r.Clear()
	return encodePoint(&r)
}

func (nativeP256) Add(p, q []byte) ([]byte, error) {
	a, err := decodePoint(p)
	if err != nil {
		return nil, err
	}
	b, err := decodePoint(q)
	if err != nil {
		return nil, err
	}
	r := p256.AddAffine(&a, &b)
	defer r.Clear()
	return encodePoint(&r)
}

func (nativeP256) Neg(p []byte) ([]byte, error) {
	a, err := decodePoint(p)
	if err != nil {
		return nil, err
	}
	r := a.Negate()
	return encodePoint(&r)
}

func (nativeP256) ValidatePoint(p []byte) error {
	_, err := decodePoint(p)
	return err
}

func decodePoint(b []byte) (p256.AffinePoint, error) {
	p, err := p256.Decode(b)
	if err != nil {
		return p, errors.Wrap(ErrInvalidPoint, err.Error())
	}
	return p, nil
}

func encodePoint(p *p256.AffinePoint) ([]byte, error) {
	enc, err := p.Encode()
	if err != nil {
		return nil, ErrIdentity
	}
	out := make([]byte, PointLen)
	copy(out, enc[:])
	Wipe(enc[:])
	return out, nil
}
