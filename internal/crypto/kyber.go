package crypto

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.dedis.ch/kyber/v4"
	"go.dedis.ch/kyber/v4/group/nist"
	"go.dedis.ch/kyber/v4/util/random"
)

type kyberP256 struct {
	group kyber.Group
}

// KyberP256 returns the P-256 group backed by go.dedis.ch/kyber. It has the
// same semantics as NativeP256 and serves as the alternate backend.
func KyberP256() Group {
	return &kyberP256{
		group: nist.NewBlakeSHA256P256(),
	}
}

func (g *kyberP256) String() string {
	return "P-256/kyber"
}

func (g *kyberP256) Generator() []byte {
	b, _ := g.group.Point().Base().MarshalBinary()
	return b
}

func (g *kyberP256) RandomScalar(rand io.Reader) (b []byte, err error) {
	// random.New panics when none of its readers deliver.
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, errors.Wrap(ErrEntropy, fmt.Sprint(r))
		}
	}()

	stream := random.New(rand)
	for attempt := 0; attempt < 64; attempt++ {
		s := g.group.Scalar().Pick(stream)
		if s.Equal(g.group.Scalar().Zero()) {
			continue
		}
		return s.MarshalBinary()
	}
	return nil, errors.Wrap(ErrEntropy, "no nonzero scalar after 64 draws")
}

func (g *kyberP256) ScalarMult(k, p []byte) ([]byte, error) {
	pt, err := g.point(p)
	if err != nil {
		return nil, err
	}
	return g.mul(k, pt)
}

func (g *kyberP256) ScalarBaseMult(k []byte) ([]byte, error) {
	return g.mul(k, g.group.Point().Base())
}

func (g *kyberP256) mul(k []byte, p kyber.Point) ([]byte, error) {
	if len(k) != ScalarLen {
		return nil, errors.Wrapf(ErrInvalidScalar, "scalar is %d bytes", len(k))
	}
	s := g.group.Scalar().SetBytes(k)
	defer s.Zero()
	return g.marshal(g.group.Point().Mul(s, p))
}

func (g *kyberP256) Add(p, q []byte) ([]byte, error) {
	a, err := g.point(p)
	if err != nil {
		return nil, err
	}
	b, err := g.point(q)
	if err != nil {
		return nil, err
	}
	return g.marshal(g.group.Point().Add(a, b))
}

func (g *kyberP256) Neg(p []byte) ([]byte, error) {
	a, err := g.point(p)
	if err != nil {
		return nil, err
	}
	return g.marshal(g.group.Point().Neg(a))
}

func (g *kyberP256) ValidatePoint(p []byte) error {
	_, err := g.point(p)
	return err
}

func (g *kyberP256) point(b []byte) (kyber.Point, error) {
	if len(b) != PointLen || b[0] != 0x04 {
		return nil, errors.Wrapf(ErrInvalidPoint, "want %d-byte uncompressed encoding", PointLen)
	}
	p := g.group.Point()
	if err := p.UnmarshalBinary(b); err != nil {
		return nil, errors.Wrap(ErrInvalidPoint, err.Error())
	}
	return p, nil
}

func (g *kyberP256) marshal(p kyber.Point) ([]byte, error) {
	if p.Equal(g.group.Point().Null()) {
		return nil, ErrIdentity
	}
	return p.MarshalBinary()
}
