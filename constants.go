package spake2plus

import (
	"crypto/rand"
	"encoding/hex"
	"io"

	"github.com/backkem/spake2plus-go/internal/crypto"
	"go.uber.org/zap"
)

// Blinding points for P-256, uncompressed.
const (
	P256_M_HEX = "04886e2f97ace46e55ba9dd7242579f2993b64e16ef3dcab95afd497333d8fa12f" +
		"5ff355163e43ce224e0b0e65ff02ac8e5c7be09419c785e0ca547d55a12e2d20"
	P256_N_HEX = "04d8bbd6c639c62937b04d997f38c3770719c629d7014d49a24b4f98baa1292b49" +
		"07d60aa6bfade45008a636337f5168c64d9bd36034808cd564490b1e656edbe7"
)

const (
	// ScalarSize is the encoded size of w0, w1 and r.
	ScalarSize = crypto.ScalarLen

	// ShareSize is the encoded size of a public share.
	ShareSize = crypto.PointLen

	// KeySize is the size of the session key Ke.
	KeySize = 16

	// VerifierSize is the size of a confirmation value.
	VerifierSize = 16
)

var (
	pointM = mustDecodeHex(P256_M_HEX)
	pointN = mustDecodeHex(P256_N_HEX)
)

func mustDecodeHex(s string) []byte {
	b, err := hex.DecodeString(s)
	if err != nil {
		panic(err)
	}
	return b
}

// Role selects which side of the exchange a Handshake plays.
type Role int

const (
	// RoleProver is the client. Its share is blinded with M.
	RoleProver Role = iota

	// RoleVerifier is the server. Its share is blinded with N.
	RoleVerifier
)

func (r Role) String() string {
	switch r {
	case RoleProver:
		return "prover"
	case RoleVerifier:
		return "verifier"
	default:
		return "unknown"
	}
}

func (r Role) blinding() []byte {
	if r == RoleProver {
		return pointM
	}
	return pointN
}

func (r Role) peerBlinding() []byte {
	if r == RoleProver {
		return pointN
	}
	return pointM
}

// Ciphersuite represents a complete set of algorithms for the protocol
type Ciphersuite struct {
	// Group specific operations
	Group crypto.Group

	// Key derivation function
	KDF func(ikm, salt, info []byte, l int) ([]byte, error)

	// Message authentication code
	MAC func(key, message []byte) []byte
}

// DefaultCiphersuite returns P-256 on the native backend with HKDF-SHA256
// and HMAC-SHA256.
func DefaultCiphersuite() *Ciphersuite {
	return &Ciphersuite{
		Group: crypto.NativeP256(),
		KDF:   crypto.HKDF,
		MAC:   crypto.HMACSHA256,
	}
}

// Options configures a Handshake.
type Options struct {
	// The ciphersuite to use
	Ciphersuite *Ciphersuite

	// Context is hashed first into the transcript. Both sides must agree on
	// it.
	Context []byte

	// Random is the source for the ephemeral scalar. Defaults to
	// crypto/rand.Reader.
	Random io.Reader

	// Logger receives state transitions and aborts. Secrets are never
	// logged.
	Logger *zap.Logger

	// SymmetricVerifiers makes both parties send Ka itself as their
	// verifier instead of role-specific MACs.
	SymmetricVerifiers bool
}

// DefaultOptions returns the default options
func DefaultOptions() *Options {
	return &Options{
		Ciphersuite: DefaultCiphersuite(),
		Context:     nil,
		Random:      rand.Reader,
		Logger:      zap.NewNop(),
	}
}

// withDefaults returns a copy of o with unset fields filled in.
func (o *Options) withDefaults() Options {
	def := DefaultOptions()
	if o == nil {
		return *def
	}
	out := *o
	if out.Ciphersuite == nil {
		out.Ciphersuite = def.Ciphersuite
	} else {
		cs := *out.Ciphersuite
		if cs.Group == nil {
			cs.Group = def.Ciphersuite.Group
		}
		if cs.KDF == nil {
			cs.KDF = def.Ciphersuite.KDF
		}
		if cs.MAC == nil {
			cs.MAC = def.Ciphersuite.MAC
		}
		out.Ciphersuite = &cs
	}
	if out.Random == nil {
		out.Random = def.Random
	}
	if out.Logger == nil {
		out.Logger = def.Logger
	}
	out.Context = append([]byte(nil), o.Context...)
	return out
}
