package spake2plus

import (
	"github.com/backkem/spake2plus-go/internal/crypto"
)

// KDFParams selects and tunes password hardening.
type KDFParams = crypto.KDFParams

// DefaultKDFParams returns scrypt with N=32768, r=8, p=1.
func DefaultKDFParams() KDFParams {
	return crypto.DefaultKDFParams()
}

// DeriveScalars hardens a password into w0 and w1.
func DeriveScalars(password, salt []byte, params KDFParams) (w0, w1 []byte, err error) {
	w0, w1, err = crypto.DeriveScalars(password, salt, params)
	if err != nil {
		return nil, nil, classify(err, "derive scalars")
	}
	return w0, w1, nil
}

// RegistrationRecord returns L = w1*G, which a verifier stores instead of
// w1. Only the group of opts' ciphersuite is used.
func RegistrationRecord(w1 []byte, opts *Options) ([]byte, error) {
	if err := checkScalar(w1, "w1"); err != nil {
		return nil, err
	}
	o := opts.withDefaults()
	L, err := crypto.RegistrationRecord(o.Ciphersuite.Group, w1)
	if err != nil {
		return nil, classify(err, "registration record")
	}
	return L, nil
}

// KyberCiphersuite returns DefaultCiphersuite on the go.dedis.ch/kyber
// backend.
func KyberCiphersuite() *Ciphersuite {
	cs := DefaultCiphersuite()
	cs.Group = crypto.KyberP256()
	return cs
}
