package spake2plus

import (
	"bytes"
	"crypto/elliptic"
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/backkem/spake2plus-go/internal/crypto"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func mustParseHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func scalar(v int64) []byte {
	return big.NewInt(v).FillBytes(make([]byte, ScalarSize))
}

// testScalars hardens a password with cheap parameters.
func testScalars(t *testing.T, password string) (w0, w1 []byte) {
	t.Helper()
	params := DefaultKDFParams()
	params.ScryptN = 1024
	w0, w1, err := DeriveScalars([]byte(password), []byte("salt"), params)
	require.NoError(t, err)
	return w0, w1
}

type exchange struct {
	proverKey, verifierKey []byte
	proverErr, verifierErr error
}

// run drives both sides through the full exchange in the order a network
// round trip would.
func run(t *testing.T, prover, verifier *Handshake) exchange {
	t.Helper()

	x, err := prover.ComputeShare()
	require.NoError(t, err)
	require.Len(t, x, ShareSize)

	y, err := verifier.ComputeShare()
	require.NoError(t, err)
	require.NoError(t, verifier.DeriveShared(x))
	require.NoError(t, verifier.DeriveKeys())
	cV, err := verifier.Verifier()
	require.NoError(t, err)
	require.Len(t, cV, VerifierSize)

	require.NoError(t, prover.DeriveShared(y))
	require.NoError(t, prover.DeriveKeys())
	cP, err := prover.Verifier()
	require.NoError(t, err)

	var ex exchange
	ex.proverKey, ex.proverErr = prover.Confirm(cV)
	ex.verifierKey, ex.verifierErr = verifier.Confirm(cP)
	return ex
}

func TestHandshake(t *testing.T) {
	tests := []struct {
		name string
		opts func() *Options
	}{
		{"default", DefaultOptions},
		{"nil options", func() *Options { return nil }},
		{"context", func() *Options {
			o := DefaultOptions()
			o.Context = []byte("spake2plus test context")
			return o
		}},
		{"symmetric verifiers", func() *Options {
			o := DefaultOptions()
			o.SymmetricVerifiers = true
			return o
		}},
		{"kyber", func() *Options {
			o := DefaultOptions()
			o.Ciphersuite = KyberCiphersuite()
			return o
		}},
	}

	w0, w1 := testScalars(t, "password123")
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			prover, err := NewProver(w0, w1, tc.opts())
			require.NoError(t, err)
			defer prover.Close()
			verifier, err := NewVerifier(w0, w1, tc.opts())
			require.NoError(t, err)
			defer verifier.Close()

			ex := run(t, prover, verifier)
			require.NoError(t, ex.proverErr)
			require.NoError(t, ex.verifierErr)
			require.Len(t, ex.proverKey, KeySize)
			require.Equal(t, ex.proverKey, ex.verifierKey)

			require.Equal(t, StateConfirmed, prover.State())
			require.Equal(t, StateConfirmed, verifier.State())

			key, err := prover.SessionKey()
			require.NoError(t, err)
			require.Equal(t, ex.proverKey, key)
		})
	}
}

func TestHandshakeFromRecord(t *testing.T) {
	w0, w1 := testScalars(t, "hunter2")
	record, err := RegistrationRecord(w1, nil)
	require.NoError(t, err)

	prover, err := NewProver(w0, w1, nil)
	require.NoError(t, err)
	verifier, err := NewVerifierFromRecord(w0, record, nil)
	require.NoError(t, err)
	require.True(t, bytes.Equal(verifier.sec.w1[:], make([]byte, ScalarSize)), "verifier never holds w1")

	ex := run(t, prover, verifier)
	require.NoError(t, ex.proverErr)
	require.NoError(t, ex.verifierErr)
	require.Equal(t, ex.proverKey, ex.verifierKey)
}

func TestBackendsInteroperate(t *testing.T) {
	w0, w1 := testScalars(t, "password123")

	native := DefaultOptions()
	kyber := DefaultOptions()
	kyber.Ciphersuite = KyberCiphersuite()

	prover, err := NewProver(w0, w1, native)
	require.NoError(t, err)
	verifier, err := NewVerifier(w0, w1, kyber)
	require.NoError(t, err)

	ex := run(t, prover, verifier)
	require.NoError(t, ex.proverErr)
	require.NoError(t, ex.verifierErr)
	require.Equal(t, ex.proverKey, ex.verifierKey)
}

func TestDeterministicKeys(t *testing.T) {
	w0, w1 := testScalars(t, "password123")

	derive := func(opts *Options) []byte {
		prover, err := NewProver(w0, w1, opts)
		require.NoError(t, err)
		verifier, err := NewVerifier(w0, w1, opts)
		require.NoError(t, err)

		x, err := prover.ComputeShareWithScalar(scalar(0x1234))
		require.NoError(t, err)
		y, err := verifier.ComputeShareWithScalar(scalar(0x5678))
		require.NoError(t, err)
		require.NoError(t, prover.DeriveShared(y))
		require.NoError(t, verifier.DeriveShared(x))
		require.Equal(t, prover.sec.z, verifier.sec.z)
		require.Equal(t, prover.sec.v, verifier.sec.v)
		require.NoError(t, prover.DeriveKeys())
		require.NoError(t, verifier.DeriveKeys())

		cP, err := prover.Verifier()
		require.NoError(t, err)
		key, err := verifier.Confirm(cP)
		require.NoError(t, err)
		return key
	}

	opts := DefaultOptions()
	first := derive(opts)
	require.Equal(t, first, derive(opts))

	opts.Ciphersuite = KyberCiphersuite()
	require.Equal(t, first, derive(opts))

	opts = DefaultOptions()
	opts.Context = []byte("other context")
	require.NotEqual(t, first, derive(opts))
}

func TestShareMatchesReference(t *testing.T) {
	curve := elliptic.P256()
	w0, w1 := testScalars(t, "password123")
	r := scalar(0xc0ffee)

	for _, role := range []Role{RoleProver, RoleVerifier} {
		t.Run(role.String(), func(t *testing.T) {
			h, err := New(role, w0, w1, nil)
			require.NoError(t, err)
			share, err := h.ComputeShareWithScalar(r)
			require.NoError(t, err)

			//lint:ignore SA1019 used as a reference implementation
			bx, by := elliptic.Unmarshal(curve, role.blinding())
			require.NotNil(t, bx)
			rx, ry := curve.ScalarBaseMult(r)
			tx, ty := curve.ScalarMult(bx, by, w0)
			sx, sy := curve.Add(rx, ry, tx, ty)
			//lint:ignore SA1019 used as a reference implementation
			require.Equal(t, elliptic.Marshal(curve, sx, sy), share)
		})
	}
}

func TestBlindingPointsOnCurve(t *testing.T) {
	g := crypto.NativeP256()
	require.NoError(t, g.ValidatePoint(pointM))
	require.NoError(t, g.ValidatePoint(pointN))
	require.Equal(t, mustParseHex(t, P256_M_HEX), pointM)
}

func TestPasswordMismatch(t *testing.T) {
	for _, symmetric := range []bool{false, true} {
		t.Run(map[bool]string{false: "role separated", true: "symmetric"}[symmetric], func(t *testing.T) {
			opts := DefaultOptions()
			opts.SymmetricVerifiers = symmetric

			pw0, pw1 := testScalars(t, "password123")
			vw0, vw1 := testScalars(t, "password124")

			prover, err := NewProver(pw0, pw1, opts)
			require.NoError(t, err)
			verifier, err := NewVerifier(vw0, vw1, opts)
			require.NoError(t, err)

			ex := run(t, prover, verifier)
			for _, h := range []*Handshake{prover, verifier} {
				require.Equal(t, StateAborted, h.State())
				require.True(t, h.sec.isZero())
				_, err := h.SessionKey()
				require.True(t, errors.Is(err, ErrInvalidState))
			}
			require.Nil(t, ex.proverKey)
			require.Nil(t, ex.verifierKey)
			require.Equal(t, ErrVerifierMismatch, ex.proverErr, "mismatch carries no detail")
			require.Equal(t, ErrVerifierMismatch, ex.verifierErr)
		})
	}
}

func TestVerifiersAreRoleSeparated(t *testing.T) {
	w0, w1 := testScalars(t, "password123")
	prover, err := NewProver(w0, w1, nil)
	require.NoError(t, err)
	verifier, err := NewVerifier(w0, w1, nil)
	require.NoError(t, err)

	x, err := prover.ComputeShare()
	require.NoError(t, err)
	y, err := verifier.ComputeShare()
	require.NoError(t, err)
	require.NoError(t, prover.DeriveShared(y))
	require.NoError(t, verifier.DeriveShared(x))
	require.NoError(t, prover.DeriveKeys())
	require.NoError(t, verifier.DeriveKeys())

	cP, err := prover.Verifier()
	require.NoError(t, err)
	cV, err := verifier.Verifier()
	require.NoError(t, err)
	require.NotEqual(t, cP, cV)

	// Reflecting the prover's own verifier back must fail.
	_, err = prover.Confirm(cP)
	require.Equal(t, ErrVerifierMismatch, err)
}

func TestStateErrors(t *testing.T) {
	w0, w1 := testScalars(t, "password123")

	t.Run("out of order", func(t *testing.T) {
		h, err := NewProver(w0, w1, nil)
		require.NoError(t, err)
		err = h.DeriveKeys()
		require.True(t, errors.Is(err, ErrInvalidState))
		require.Equal(t, StateAborted, h.State())
		require.True(t, h.sec.isZero())

		_, err = h.ComputeShare()
		require.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("verifier before keys", func(t *testing.T) {
		h, err := NewVerifier(w0, w1, nil)
		require.NoError(t, err)
		_, err = h.ComputeShare()
		require.NoError(t, err)
		_, err = h.Verifier()
		require.True(t, errors.Is(err, ErrInvalidState))
		_, err = h.SessionKey()
		require.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("confirmed stays confirmed", func(t *testing.T) {
		prover, err := NewProver(w0, w1, nil)
		require.NoError(t, err)
		verifier, err := NewVerifier(w0, w1, nil)
		require.NoError(t, err)
		ex := run(t, prover, verifier)
		require.NoError(t, ex.proverErr)

		_, err = prover.Confirm(make([]byte, VerifierSize))
		require.True(t, errors.Is(err, ErrInvalidState))
		require.Equal(t, StateConfirmed, prover.State())
		key, err := prover.SessionKey()
		require.NoError(t, err)
		require.Equal(t, ex.proverKey, key)
	})

	t.Run("close", func(t *testing.T) {
		h, err := NewProver(w0, w1, nil)
		require.NoError(t, err)
		_, err = h.ComputeShare()
		require.NoError(t, err)

		require.NoError(t, h.Close())
		require.NoError(t, h.Close())
		require.Equal(t, StateAborted, h.State())
		require.True(t, h.sec.isZero())

		err = h.DeriveShared(crypto.NativeP256().Generator())
		require.True(t, errors.Is(err, ErrInvalidState))
	})

	t.Run("close after confirm", func(t *testing.T) {
		prover, err := NewProver(w0, w1, nil)
		require.NoError(t, err)
		verifier, err := NewVerifier(w0, w1, nil)
		require.NoError(t, err)
		run(t, prover, verifier)

		require.NoError(t, prover.Close())
		require.Equal(t, StateConfirmed, prover.State())
		require.True(t, prover.sec.isZero())
		_, err = prover.SessionKey()
		require.True(t, errors.Is(err, ErrInvalidState))
	})
}

func TestInputValidation(t *testing.T) {
	w0, w1 := testScalars(t, "password123")
	order := elliptic.P256().Params().N.FillBytes(make([]byte, ScalarSize))

	_, err := NewProver(order, w1, nil)
	require.True(t, errors.Is(err, ErrOutOfRange))
	_, err = NewProver(w0, w1[:31], nil)
	require.True(t, errors.Is(err, ErrOutOfRange))
	_, err = NewVerifier(w0, order, nil)
	require.True(t, errors.Is(err, ErrOutOfRange))
	_, err = New(Role(7), w0, w1, nil)
	require.True(t, errors.Is(err, ErrInvalidRole))

	_, err = NewVerifier(w0, make([]byte, ScalarSize), nil)
	require.True(t, errors.Is(err, ErrCurveOperation), "w1 = 0 gives L at infinity")

	_, err = NewVerifierFromRecord(w0, pointM[:64], nil)
	require.True(t, errors.Is(err, ErrOutOfRange))
	bad := bytes.Clone(pointM)
	bad[64] ^= 1
	_, err = NewVerifierFromRecord(w0, bad, nil)
	require.True(t, errors.Is(err, ErrOutOfRange))

	h, err := NewProver(w0, w1, nil)
	require.NoError(t, err)
	_, err = h.ComputeShareWithScalar(order)
	require.True(t, errors.Is(err, ErrOutOfRange))
	require.Equal(t, StateAborted, h.State())

	h, err = NewProver(w0, w1, nil)
	require.NoError(t, err)
	_, err = h.ComputeShareWithScalar(scalar(0))
	require.True(t, errors.Is(err, ErrCurveOperation))

	for name, share := range map[string][]byte{
		"short":      pointN[:ShareSize-1],
		"off curve":  bad,
		"compressed": append([]byte{0x02}, pointN[1:33]...),
	} {
		t.Run(name, func(t *testing.T) {
			h, err := NewProver(w0, w1, nil)
			require.NoError(t, err)
			_, err = h.ComputeShare()
			require.NoError(t, err)
			err = h.DeriveShared(share)
			require.True(t, errors.Is(err, ErrOutOfRange))
			require.Equal(t, StateAborted, h.State())
			require.True(t, h.sec.isZero())
		})
	}
}

func TestDegeneratePeerShare(t *testing.T) {
	w0, w1 := testScalars(t, "password123")

	// A peer share of exactly w0*N unblinds to the point at infinity.
	degenerate, err := crypto.NativeP256().ScalarMult(w0, pointN)
	require.NoError(t, err)

	h, err := NewProver(w0, w1, nil)
	require.NoError(t, err)
	_, err = h.ComputeShare()
	require.NoError(t, err)

	err = h.DeriveShared(degenerate)
	require.True(t, errors.Is(err, ErrCurveOperation))
	require.Equal(t, StateAborted, h.State())
	require.True(t, h.sec.isZero())
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("entropy pool empty")
}

func TestEntropyFailure(t *testing.T) {
	w0, w1 := testScalars(t, "password123")
	opts := DefaultOptions()
	opts.Random = failingReader{}

	h, err := NewProver(w0, w1, opts)
	require.NoError(t, err)
	_, err = h.ComputeShare()
	require.True(t, errors.Is(err, ErrResource))
	require.Equal(t, StateAborted, h.State())
	require.True(t, h.sec.isZero())
}

func TestPanicWipes(t *testing.T) {
	w0, w1 := testScalars(t, "password123")
	opts := DefaultOptions()
	opts.Ciphersuite.MAC = func(key, message []byte) []byte {
		panic("mac failure")
	}

	prover, err := NewProver(w0, w1, opts)
	require.NoError(t, err)
	verifier, err := NewVerifier(w0, w1, opts)
	require.NoError(t, err)

	x, err := prover.ComputeShare()
	require.NoError(t, err)
	_, err = verifier.ComputeShare()
	require.NoError(t, err)
	require.NoError(t, verifier.DeriveShared(x))

	require.PanicsWithValue(t, "mac failure", func() {
		_ = verifier.DeriveKeys()
	})
	require.Equal(t, StateAborted, verifier.State())
	require.True(t, verifier.sec.isZero())
}

func TestLogging(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	w0, w1 := testScalars(t, "password123")
	opts := DefaultOptions()
	opts.Logger = zap.New(core)

	pw0, pw1 := testScalars(t, "wrong")
	prover, err := NewProver(w0, w1, opts)
	require.NoError(t, err)
	verifier, err := NewVerifier(pw0, pw1, opts)
	require.NoError(t, err)
	run(t, prover, verifier)

	aborts := logs.FilterMessage("handshake aborted")
	require.Equal(t, 2, aborts.Len())
	for _, entry := range aborts.All() {
		require.Equal(t, zapcore.WarnLevel, entry.Level)
		fields := entry.ContextMap()
		require.Equal(t, "confirm", fields["op"])
		require.Contains(t, []interface{}{"prover", "verifier"}, fields["role"])
	}
	require.NotZero(t, logs.FilterMessage("state transition").Len())
}

func BenchmarkHandshake(b *testing.B) {
	w0 := scalar(0x1111)
	w1 := scalar(0x2222)
	for i := 0; i < b.N; i++ {
		prover, _ := NewProver(w0, w1, nil)
		verifier, _ := NewVerifier(w0, w1, nil)
		x, _ := prover.ComputeShare()
		y, _ := verifier.ComputeShare()
		_ = verifier.DeriveShared(x)
		_ = verifier.DeriveKeys()
		_ = prover.DeriveShared(y)
		_ = prover.DeriveKeys()
		cP, _ := prover.Verifier()
		_, _ = verifier.Confirm(cP)
	}
}
