package crypto

import (
	"crypto/hmac"
	"encoding/binary"
	"io"

	"github.com/backkem/spake2plus-go/internal/p256"
	sha256simd "github.com/minio/sha256-simd"
	"github.com/pkg/errors"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/pbkdf2"
	"golang.org/x/crypto/scrypt"
)

// Supported password hardening functions.
const (
	KDFScrypt = "scrypt"
	KDFPBKDF2 = "pbkdf2"
)

// hardenedLen is the output length of the password hardening function. Each
// scalar is taken from 40 bytes so the bias after reduction mod n is
// negligible.
const hardenedLen = 80

// ErrKDFParams indicates unusable password hardening parameters.
var ErrKDFParams = errors.New("crypto: invalid KDF parameters")

// KDFParams selects and tunes the password hardening function.
type KDFParams struct {
	Algorithm string

	// scrypt cost parameters.
	ScryptN, ScryptR, ScryptP int

	// PBKDF2-SHA256 iteration count.
	Iterations int

	// Optional identities bound into the hardened input.
	IDProver, IDVerifier []byte
}

// DefaultKDFParams returns scrypt with N=32768, r=8, p=1.
func DefaultKDFParams() KDFParams {
	return KDFParams{
		Algorithm:  KDFScrypt,
		ScryptN:    32768,
		ScryptR:    8,
		ScryptP:    1,
		Iterations: 100000,
	}
}

// DeriveScalars hardens a password into the scalars w0 and w1. Both are
// returned as 32-byte big-endian values reduced mod n.
func DeriveScalars(password, salt []byte, params KDFParams) (w0, w1 []byte, err error) {
	input := hardeningInput(password, params.IDProver, params.IDVerifier)
	defer Wipe(input)

	var out []byte
	switch params.Algorithm {
	case KDFScrypt, "":
		out, err = scrypt.Key(input, salt, params.ScryptN, params.ScryptR, params.ScryptP, hardenedLen)
		if err != nil {
			return nil, nil, errors.Wrap(ErrKDFParams, err.Error())
		}
	case KDFPBKDF2:
		if params.Iterations < 1 {
			return nil, nil, errors.Wrapf(ErrKDFParams, "iterations %d", params.Iterations)
		}
		out = pbkdf2.Key(input, salt, params.Iterations, hardenedLen, sha256simd.New)
	default:
		return nil, nil, errors.Wrapf(ErrKDFParams, "unknown algorithm %q", params.Algorithm)
	}
	defer Wipe(out)

	w0, err = reduceScalar(out[:hardenedLen/2])
	if err != nil {
		return nil, nil, err
	}
	w1, err = reduceScalar(out[hardenedLen/2:])
	if err != nil {
		Wipe(w0)
		return nil, nil, err
	}
	return w0, w1, nil
}

// RegistrationRecord returns L = w1*G, the value a verifier stores in place
// of w1.
func RegistrationRecord(g Group, w1 []byte) ([]byte, error) {
	return g.ScalarBaseMult(w1)
}

// hardeningInput length-prefixes each field with a little-endian uint64.
func hardeningInput(password, idProver, idVerifier []byte) []byte {
	buf := make([]byte, 0, 24+len(password)+len(idProver)+len(idVerifier))
	for _, field := range [][]byte{password, idProver, idVerifier} {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(len(field)))
		buf = append(buf, field...)
	}
	return buf
}

func reduceScalar(b []byte) ([]byte, error) {
	e, err := p256.N.ReduceWide(b)
	if err != nil {
		return nil, err
	}
	out := e.Bytes()
	e.Clear()
	return out[:], nil
}

// HKDF implements RFC 5869 with SHA-256.
func HKDF(ikm, salt, info []byte, length int) ([]byte, error) {
	out := make([]byte, length)
	if _, err := io.ReadFull(hkdf.New(sha256simd.New, ikm, salt, info), out); err != nil {
		return nil, errors.Wrap(err, "hkdf expand")
	}
	return out, nil
}

// HMACSHA256 implements the HMAC-SHA256 Message Authentication Code
func HMACSHA256(key, message []byte) []byte {
	h := hmac.New(sha256simd.New, key)
	h.Write(message)
	return h.Sum(nil)
}
