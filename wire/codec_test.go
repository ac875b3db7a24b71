package wire

import (
	"bytes"
	"encoding/hex"
	"net"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestEncoderLayout(t *testing.T) {
	var b128 [16]byte
	var b256 [32]byte
	for i := range b128 {
		b128[i] = byte(i)
	}
	for i := range b256 {
		b256[i] = byte(0xa0 + i)
	}

	buf := make([]byte, 2+8+16+32)
	e := NewEncoder(buf)
	e.PutUint16(0x0102)
	require.Equal(t, 2, e.Pos())
	e.PutUint64(0x0102030405060708)
	require.Equal(t, 10, e.Pos())
	e.Put128(&b128)
	e.Put256(&b256)
	require.Equal(t, len(buf), e.Pos())

	require.Equal(t, "0201", hex.EncodeToString(buf[:2]))
	require.Equal(t, "0807060504030201", hex.EncodeToString(buf[2:10]))
	require.Equal(t, b128[:], buf[10:26])
	require.Equal(t, b256[:], buf[26:])

	d := NewDecoder(buf)
	require.Equal(t, uint16(0x0102), d.Uint16())
	require.Equal(t, uint64(0x0102030405060708), d.Uint64())
	require.Equal(t, b128, d.Get128())
	require.Equal(t, b256, d.Get256())
	require.Equal(t, len(buf), d.Pos())
}

func TestEncoderOverrunPanics(t *testing.T) {
	e := NewEncoder(make([]byte, 9))
	e.PutUint64(1)
	require.Panics(t, func() { e.PutUint16(1) })

	d := NewDecoder(make([]byte, 15))
	require.Panics(t, func() { d.Get128() })
}

func testShare() Share {
	var s Share
	s.SessionID = 42
	s.Point[0] = PointFormatUncompressed
	for i := 1; i < len(s.Point); i++ {
		s.Point[i] = byte(i)
	}
	return s
}

func TestShareFrame(t *testing.T) {
	s := testShare()
	frame := EncodeShare(&s)
	require.Len(t, frame, ShareFrameSize)
	require.Equal(t, "0100", hex.EncodeToString(frame[:2]))
	require.Equal(t, "0400", hex.EncodeToString(frame[10:12]))
	require.Equal(t, s.Point[1:], frame[12:])

	got, err := DecodeShare(frame)
	require.NoError(t, err)
	require.Equal(t, s, got)

	_, err = DecodeShare(frame[:ShareFrameSize-1])
	require.True(t, errors.Is(err, ErrFrameSize))

	bad := bytes.Clone(frame)
	bad[10] = 0x02
	_, err = DecodeShare(bad)
	require.True(t, errors.Is(err, ErrPointFormat))

	bad = bytes.Clone(frame)
	bad[0] = byte(FrameConfirm)
	_, err = DecodeShare(bad)
	require.True(t, errors.Is(err, ErrUnexpectedFrame))
}

func TestConfirmFrame(t *testing.T) {
	c, err := NewConfirm(7, bytes.Repeat([]byte{0x5a}, 16))
	require.NoError(t, err)
	frame := EncodeConfirm(&c)
	require.Len(t, frame, ConfirmFrameSize)

	got, err := DecodeConfirm(frame)
	require.NoError(t, err)
	require.Equal(t, c, got)

	_, err = NewConfirm(7, make([]byte, 15))
	require.True(t, errors.Is(err, ErrFrameSize))

	s := testShare()
	_, err = DecodeConfirm(EncodeShare(&s)[:ConfirmFrameSize])
	require.True(t, errors.Is(err, ErrUnexpectedFrame))
}

func TestNewShare(t *testing.T) {
	s := testShare()
	got, err := NewShare(s.SessionID, s.Point[:])
	require.NoError(t, err)
	require.Equal(t, s, got)

	_, err = NewShare(1, s.Point[:33])
	require.True(t, errors.Is(err, ErrPointFormat))
}

func TestFramesOverPipe(t *testing.T) {
	a, b := net.Pipe()
	defer a.Close()
	defer b.Close()

	s := testShare()
	c, err := NewConfirm(s.SessionID, bytes.Repeat([]byte{1}, 16))
	require.NoError(t, err)

	errc := make(chan error, 1)
	go func() {
		if err := WriteShare(a, &s); err != nil {
			errc <- err
			return
		}
		errc <- WriteConfirm(a, &c)
	}()

	gotShare, err := ReadShare(b)
	require.NoError(t, err)
	require.Equal(t, s, gotShare)
	gotConfirm, err := ReadConfirm(b)
	require.NoError(t, err)
	require.Equal(t, c, gotConfirm)
	require.NoError(t, <-errc)
}
