// Package wire packs and unpacks the fixed-width fields of handshake
// messages. Integers are little-endian; 128- and 256-bit blocks are copied
// verbatim.
//
// Encoder and Decoder do not check bounds. Callers size the buffer for the
// message being built; an overrun panics with the usual slice bounds error.
package wire

import "encoding/binary"

// Encoder writes fields into a caller-supplied buffer and advances a cursor.
type Encoder struct {
	buf []byte
	pos int
}

// NewEncoder returns an Encoder writing from the start of buf.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

func (e *Encoder) PutUint16(v uint16) {
	binary.LittleEndian.PutUint16(e.buf[e.pos:], v)
	e.pos += 2
}

func (e *Encoder) PutUint64(v uint64) {
	binary.LittleEndian.PutUint64(e.buf[e.pos:], v)
	e.pos += 8
}

func (e *Encoder) Put128(b *[16]byte) {
	e.pos += copy(e.buf[e.pos:e.pos+16], b[:])
}

func (e *Encoder) Put256(b *[32]byte) {
	e.pos += copy(e.buf[e.pos:e.pos+32], b[:])
}

// Pos returns the number of bytes written.
func (e *Encoder) Pos() int {
	return e.pos
}

// Bytes returns the written prefix of the buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf[:e.pos]
}

// Decoder reads fields from a buffer and advances a cursor.
type Decoder struct {
	buf []byte
	pos int
}

// NewDecoder returns a Decoder reading from the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

func (d *Decoder) Uint16() uint16 {
	v := binary.LittleEndian.Uint16(d.buf[d.pos:])
	d.pos += 2
	return v
}

func (d *Decoder) Uint64() uint64 {
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v
}

func (d *Decoder) Get128() (b [16]byte) {
	d.pos += copy(b[:], d.buf[d.pos:d.pos+16])
	return b
}

func (d *Decoder) Get256() (b [32]byte) {
	d.pos += copy(b[:], d.buf[d.pos:d.pos+32])
	return b
}

// Pos returns the number of bytes consumed.
func (d *Decoder) Pos() int {
	return d.pos
}
