package wire

import (
	"io"

	"github.com/pkg/errors"
)

// FrameType identifies a handshake frame.
type FrameType uint16

const (
	FrameShare   FrameType = 1
	FrameConfirm FrameType = 2
)

const (
	// PointFormatUncompressed is the SEC1 tag of an uncompressed point.
	PointFormatUncompressed = 0x04

	// ShareFrameSize is type, session id, point format, X and Y.
	ShareFrameSize = 2 + 8 + 2 + 32 + 32

	// ConfirmFrameSize is type, session id and verifier.
	ConfirmFrameSize = 2 + 8 + 16

	shareSize = 65
)

var (
	ErrUnexpectedFrame = errors.New("wire: unexpected frame type")
	ErrPointFormat     = errors.New("wire: unsupported point format")
	ErrFrameSize       = errors.New("wire: wrong frame size")
)

// Share carries a public share.
//
//	u16 type (1) | u64 session id | u16 point format (0x04) | X 256 | Y 256
type Share struct {
	SessionID uint64
	Point     [shareSize]byte
}

// Confirm carries a verifier.
//
//	u16 type (2) | u64 session id | verifier 128
type Confirm struct {
	SessionID uint64
	Verifier  [16]byte
}

// NewShare builds a Share from a 65-byte uncompressed point.
func NewShare(sessionID uint64, point []byte) (Share, error) {
	s := Share{SessionID: sessionID}
	if len(point) != shareSize || point[0] != PointFormatUncompressed {
		return s, errors.Wrapf(ErrPointFormat, "share of %d bytes", len(point))
	}
	copy(s.Point[:], point)
	return s, nil
}

// NewConfirm builds a Confirm from a 16-byte verifier.
func NewConfirm(sessionID uint64, verifier []byte) (Confirm, error) {
	c := Confirm{SessionID: sessionID}
	if len(verifier) != len(c.Verifier) {
		return c, errors.Wrapf(ErrFrameSize, "verifier of %d bytes", len(verifier))
	}
	copy(c.Verifier[:], verifier)
	return c, nil
}

func EncodeShare(s *Share) []byte {
	buf := make([]byte, ShareFrameSize)
	e := NewEncoder(buf)
	e.PutUint16(uint16(FrameShare))
	e.PutUint64(s.SessionID)
	e.PutUint16(uint16(s.Point[0]))
	e.Put256((*[32]byte)(s.Point[1:33]))
	e.Put256((*[32]byte)(s.Point[33:65]))
	return e.Bytes()
}

func DecodeShare(b []byte) (Share, error) {
	var s Share
	if len(b) != ShareFrameSize {
		return s, errors.Wrapf(ErrFrameSize, "share frame of %d bytes", len(b))
	}
	d := NewDecoder(b)
	if t := FrameType(d.Uint16()); t != FrameShare {
		return s, errors.Wrapf(ErrUnexpectedFrame, "got type %d", t)
	}
	s.SessionID = d.Uint64()
	format := d.Uint16()
	if format != PointFormatUncompressed {
		return s, errors.Wrapf(ErrPointFormat, "format 0x%02x", format)
	}
	x, y := d.Get256(), d.Get256()
	s.Point[0] = PointFormatUncompressed
	copy(s.Point[1:33], x[:])
	copy(s.Point[33:], y[:])
	return s, nil
}

func EncodeConfirm(c *Confirm) []byte {
	buf := make([]byte, ConfirmFrameSize)
	e := NewEncoder(buf)
	e.PutUint16(uint16(FrameConfirm))
	e.PutUint64(c.SessionID)
	e.Put128(&c.Verifier)
	return e.Bytes()
}

func DecodeConfirm(b []byte) (Confirm, error) {
	var c Confirm
	if len(b) != ConfirmFrameSize {
		return c, errors.Wrapf(ErrFrameSize, "confirm frame of %d bytes", len(b))
	}
	d := NewDecoder(b)
	if t := FrameType(d.Uint16()); t != FrameConfirm {
		return c, errors.Wrapf(ErrUnexpectedFrame, "got type %d", t)
	}
	c.SessionID = d.Uint64()
	c.Verifier = d.Get128()
	return c, nil
}

func WriteShare(w io.Writer, s *Share) error {
	_, err := w.Write(EncodeShare(s))
	return errors.Wrap(err, "write share frame")
}

func ReadShare(r io.Reader) (Share, error) {
	buf := make([]byte, ShareFrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Share{}, errors.Wrap(err, "read share frame")
	}
	return DecodeShare(buf)
}

func WriteConfirm(w io.Writer, c *Confirm) error {
	_, err := w.Write(EncodeConfirm(c))
	return errors.Wrap(err, "write confirm frame")
}

func ReadConfirm(r io.Reader) (Confirm, error) {
	buf := make([]byte, ConfirmFrameSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Confirm{}, errors.Wrap(err, "read confirm frame")
	}
	return DecodeConfirm(buf)
}
