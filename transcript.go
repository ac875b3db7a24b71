package spake2plus

import (
	"github.com/backkem/spake2plus-go/internal/crypto"
	sha256simd "github.com/minio/sha256-simd"
)

// Transcript accumulates the protocol transcript
//
//	TT = Context || X || Y || Z || V || w0
//
// and hashes it once with SHA-256. The fields are concatenated without
// length prefixes; all but the context have fixed size.
type Transcript struct {
	buf  []byte
	done bool
}

// NewTranscript creates an empty transcript.
func NewTranscript() *Transcript {
	return &Transcript{}
}

// Append adds parts to the transcript in order. When the buffer grows the
// old allocation is wiped.
func (t *Transcript) Append(parts ...[]byte) error {
	if t.done {
		return ErrTranscriptFinalized
	}
	n := len(t.buf)
	for _, p := range parts {
		n += len(p)
	}
	if n > cap(t.buf) {
		grown := make([]byte, len(t.buf), n)
		copy(grown, t.buf)
		crypto.Wipe(t.buf)
		t.buf = grown
	}
	for _, p := range parts {
		t.buf = append(t.buf, p...)
	}
	return nil
}

// Finalize returns SHA-256 of everything appended and wipes the buffer. It
// may be called once.
func (t *Transcript) Finalize() ([32]byte, error) {
	if t.done {
		return [32]byte{}, ErrTranscriptFinalized
	}
	sum := sha256simd.Sum256(t.buf)
	t.Wipe()
	return sum, nil
}

// Wipe zeroizes the buffer and finalizes the transcript.
func (t *Transcript) Wipe() {
	crypto.Wipe(t.buf)
	t.buf = t.buf[:0]
	t.done = true
}

// Len returns the number of bytes appended so far.
func (t *Transcript) Len() int {
	return len(t.buf)
}
