// Package p256 implements constant-time arithmetic modulo the NIST P-256
// field prime and group order, and the curve's point algebra on top of it.
//
// Integers are held as eight 32-bit limbs, least significant first. Values
// handed to a Modulus are in the Montgomery domain unless a function says
// otherwise; scalars fed to ScalarMult are plain integers.
package p256

// Element is a 256-bit unsigned integer, least significant limb first.
type Element [8]uint32

// SetSmall sets z = x (x < 2^32) and returns z.
func (z *Element) SetSmall(x uint32) *Element {
	z[0] = x
	for i := 1; i < len(z); i++ {
		z[i] = 0
	}
	return z
}

// Add sets z = x + y mod 2^256 and returns the carry (0 or 1).
func Add(z, x, y *Element) uint32 {
	var carry uint32
	for i := 0; i < len(z); i++ {
		sum := uint64(x[i]) + uint64(y[i]) + uint64(carry)
		z[i] = uint32(sum)
		carry = uint32(sum >> 32)
	}
	return carry
}

// Sub sets z = x - y mod 2^256 and returns the borrow: 1 if x < y, else 0.
func Sub(z, x, y *Element) uint32 {
	var borrow uint32
	for i := 0; i < len(z); i++ {
		diff := uint64(x[i]) - uint64(y[i]) - uint64(borrow)
		z[i] = uint32(diff)
		borrow = uint32(diff>>32) & 1
	}
	return borrow
}

// CondMove sets z = src if flag is 1 and leaves z unchanged if flag is 0.
//
// The selection is done with a mask so there is no branch on flag.
func (z *Element) CondMove(src *Element, flag uint32) {
	mask := -(flag & 1)
	for i := 0; i < len(z); i++ {
		z[i] ^= mask & (z[i] ^ src[i])
	}
}

// IsZero returns 1 if z == 0 and 0 otherwise.
func (z *Element) IsZero() uint32 {
	var acc uint32
	for _, limb := range z {
		acc |= limb
	}
	return isZero32(acc)
}

// Equal returns 1 if z == y and 0 otherwise.
func (z *Element) Equal(y *Element) uint32 {
	var acc uint32
	for i := 0; i < len(z); i++ {
		acc |= z[i] ^ y[i]
	}
	return isZero32(acc)
}

// Bit returns bit i of z (0 is the least significant bit).
func (z *Element) Bit(i int) uint32 {
	return (z[i/32] >> uint(i%32)) & 1
}

// SetBytes sets z from 32 big-endian bytes without any reduction.
func (z *Element) SetBytes(b *[32]byte) *Element {
	for i := 0; i < len(z); i++ {
		j := 4 * (7 - i)
		z[i] = uint32(b[j])<<24 | uint32(b[j+1])<<16 | uint32(b[j+2])<<8 | uint32(b[j+3])
	}
	return z
}

// Bytes returns z as 32 big-endian bytes.
func (z *Element) Bytes() [32]byte {
	var b [32]byte
	for i := 0; i < len(z); i++ {
		j := 4 * (7 - i)
		b[j] = byte(z[i] >> 24)
		b[j+1] = byte(z[i] >> 16)
		b[j+2] = byte(z[i] >> 8)
		b[j+3] = byte(z[i])
	}
	return b
}

// Clear overwrites z with zeros.
func (z *Element) Clear() {
	for i := range z {
		z[i] = 0
	}
}

// isZero32 returns 1 if x == 0 and 0 otherwise, without branching.
func isZero32(x uint32) uint32 {
	return uint32((uint64(x) - 1) >> 63)
}

// mulAdd288 sets z += x*y over a 9-limb accumulator and returns the carry out
// of the top limb.
func mulAdd288(z *[9]uint32, x uint32, y *Element) uint32 {
	var carry uint32
	for i := 0; i < len(y); i++ {
		prod := uint64(x)*uint64(y[i]) + uint64(z[i]) + uint64(carry)
		z[i] = uint32(prod)
		carry = uint32(prod >> 32)
	}
	sum := uint64(z[8]) + uint64(carry)
	z[8] = uint32(sum)
	return uint32(sum >> 32)
}

// shiftRight288 drops the lowest limb of z and inserts c at the top.
func shiftRight288(z *[9]uint32, c uint32) {
	for i := 0; i < len(z)-1; i++ {
		z[i] = z[i+1]
	}
	z[8] = c
}
