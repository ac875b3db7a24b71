package spake2plus

import (
	"crypto/subtle"
	"fmt"

	"github.com/backkem/spake2plus-go/internal/crypto"
	"github.com/backkem/spake2plus-go/internal/p256"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// State represents the protocol state
type State int

const (
	// StateInit is the state of a new handshake.
	StateInit State = iota

	// StateShareComputed means the local share has been computed.
	StateShareComputed

	// StateSharedDerived means Z and V have been derived from the peer share.
	StateSharedDerived

	// StateKeysDerived means Ke and the verifiers are available.
	StateKeysDerived

	// StateConfirmed means the peer verifier matched. Terminal.
	StateConfirmed

	// StateAborted means the handshake failed or was closed. Terminal.
	StateAborted
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateShareComputed:
		return "share-computed"
	case StateSharedDerived:
		return "shared-derived"
	case StateKeysDerived:
		return "keys-derived"
	case StateConfirmed:
		return "confirmed"
	case StateAborted:
		return "aborted"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

const confirmationInfo = "ConfirmationKeys"

// Handshake is one side of a SPAKE2+ exchange. It is not safe for concurrent
// use; run each handshake on a single goroutine.
//
// A prover runs ComputeShare, DeriveShared, DeriveKeys, Verifier and Confirm.
// A verifier runs the same steps; it usually sends its share and verifier
// together after DeriveKeys. Any error aborts the handshake and zeroizes its
// secrets. Callers should defer Close.
type Handshake struct {
	options Options
	group   crypto.Group
	log     *zap.Logger

	role   Role
	state  State
	closed bool

	// record is L = w1*G, used by the verifier.
	record    [ShareSize]byte
	share     [ShareSize]byte
	peerShare [ShareSize]byte

	sec secrets
}

// NewProver creates the client side from w0 and w1.
func NewProver(w0, w1 []byte, opts *Options) (*Handshake, error) {
	return New(RoleProver, w0, w1, opts)
}

// NewVerifier creates the server side from w0 and w1. It computes
// L = w1*G and does not keep w1.
func NewVerifier(w0, w1 []byte, opts *Options) (*Handshake, error) {
	return New(RoleVerifier, w0, w1, opts)
}

// NewVerifierFromRecord creates the server side from w0 and a stored
// registration record L.
func NewVerifierFromRecord(w0, record []byte, opts *Options) (*Handshake, error) {
	h, err := newHandshake(RoleVerifier, w0, opts)
	if err != nil {
		return nil, err
	}
	if len(record) != ShareSize {
		h.Close()
		return nil, errors.Wrapf(ErrOutOfRange, "registration record is %d bytes", len(record))
	}
	if err := h.group.ValidatePoint(record); err != nil {
		h.Close()
		return nil, classify(err, "registration record")
	}
	copy(h.record[:], record)
	return h, nil
}

// New creates a handshake for role from w0 and w1.
func New(role Role, w0, w1 []byte, opts *Options) (*Handshake, error) {
	h, err := newHandshake(role, w0, opts)
	if err != nil {
		return nil, err
	}
	if err := checkScalar(w1, "w1"); err != nil {
		h.Close()
		return nil, err
	}

	if role == RoleProver {
		copy(h.sec.w1[:], w1)
		return h, nil
	}

	L, err := crypto.RegistrationRecord(h.group, w1)
	if err != nil {
		h.Close()
		return nil, classify(err, "registration record")
	}
	copy(h.record[:], L)
	return h, nil
}

func newHandshake(role Role, w0 []byte, opts *Options) (*Handshake, error) {
	if role != RoleProver && role != RoleVerifier {
		return nil, errors.Wrapf(ErrInvalidRole, "role %d", int(role))
	}
	if err := checkScalar(w0, "w0"); err != nil {
		return nil, err
	}

	o := opts.withDefaults()
	h := &Handshake{
		options: o,
		group:   o.Ciphersuite.Group,
		role:    role,
		state:   StateInit,
	}
	h.log = o.Logger.With(
		zap.Stringer("role", role),
		zap.String("backend", h.group.String()),
	)
	copy(h.sec.w0[:], w0)
	return h, nil
}

// checkScalar requires a 32-byte big-endian value below the group order.
func checkScalar(k []byte, name string) error {
	var e p256.Element
	defer e.Clear()
	if err := p256.N.SetCanonicalBytes(&e, k); err != nil {
		return errors.Wrapf(ErrOutOfRange, "%s: %v", name, err)
	}
	return nil
}

// Role returns the role of this handshake.
func (h *Handshake) Role() Role {
	return h.role
}

// State returns the current protocol state.
func (h *Handshake) State() State {
	return h.state
}

// ComputeShare draws the ephemeral scalar r from the configured random source
// and returns the public share r*G + w0*M (prover) or r*G + w0*N (verifier).
func (h *Handshake) ComputeShare() (share []byte, err error) {
	defer h.guard("compute share", &err)

	if err := h.expect(StateInit); err != nil {
		return nil, err
	}
	r, err := h.group.RandomScalar(h.options.Random)
	if err != nil {
		return nil, classify(err, "ephemeral scalar")
	}
	defer crypto.Wipe(r)
	return h.computeShare(r)
}

// ComputeShareWithScalar is ComputeShare with a caller-supplied r. r must be
// below the group order. A zero r fails with ErrCurveOperation.
func (h *Handshake) ComputeShareWithScalar(r []byte) (share []byte, err error) {
	defer h.guard("compute share", &err)

	if err := h.expect(StateInit); err != nil {
		return nil, err
	}
	if err := checkScalar(r, "r"); err != nil {
		return nil, err
	}
	return h.computeShare(r)
}

func (h *Handshake) computeShare(r []byte) ([]byte, error) {
	blind, err := h.group.ScalarMult(h.sec.w0[:], h.role.blinding())
	if err != nil {
		return nil, classify(err, "w0 blinding")
	}
	defer crypto.Wipe(blind)

	rG, err := h.group.ScalarBaseMult(r)
	if err != nil {
		return nil, classify(err, "r*G")
	}
	defer crypto.Wipe(rG)

	share, err := h.group.Add(rG, blind)
	if err != nil {
		return nil, classify(err, "share")
	}

	copy(h.sec.r[:], r)
	copy(h.share[:], share)
	h.setState(StateShareComputed)
	return share, nil
}

// DeriveShared removes the peer's blinding and derives Z and V:
//
//	Z = r * (peerShare - w0*peerBlinding)
//	V = w1 * (peerShare - w0*peerBlinding)   prover
//	V = r * L                                verifier
func (h *Handshake) DeriveShared(peerShare []byte) (err error) {
	defer h.guard("derive shared", &err)

	if err := h.expect(StateShareComputed); err != nil {
		return err
	}
	if len(peerShare) != ShareSize {
		return errors.Wrapf(ErrOutOfRange, "peer share is %d bytes", len(peerShare))
	}
	if err := h.group.ValidatePoint(peerShare); err != nil {
		return classify(err, "peer share")
	}

	blind, err := h.group.ScalarMult(h.sec.w0[:], h.role.peerBlinding())
	if err != nil {
		return classify(err, "peer blinding")
	}
	defer crypto.Wipe(blind)

	unblinded, err := crypto.Sub(h.group, peerShare, blind)
	if err != nil {
		return classify(err, "unblind peer share")
	}
	defer crypto.Wipe(unblinded)

	z, err := h.group.ScalarMult(h.sec.r[:], unblinded)
	if err != nil {
		return classify(err, "Z")
	}
	defer crypto.Wipe(z)

	var v []byte
	if h.role == RoleProver {
		v, err = h.group.ScalarMult(h.sec.w1[:], unblinded)
	} else {
		v, err = h.group.ScalarMult(h.sec.r[:], h.record[:])
	}
	if err != nil {
		return classify(err, "V")
	}
	defer crypto.Wipe(v)

	copy(h.peerShare[:], peerShare)
	copy(h.sec.z[:], z)
	copy(h.sec.v[:], v)
	h.setState(StateSharedDerived)
	return nil
}

// DeriveKeys hashes the transcript and splits the digest into Ka (first
// half) and Ke (second half), then computes both verifiers from Ka.
func (h *Handshake) DeriveKeys() (err error) {
	defer h.guard("derive keys", &err)

	if err := h.expect(StateSharedDerived); err != nil {
		return err
	}

	x, y := h.share[:], h.peerShare[:]
	if h.role == RoleVerifier {
		x, y = y, x
	}

	tt := NewTranscript()
	defer tt.Wipe()
	if err := tt.Append(h.options.Context, x, y, h.sec.z[:], h.sec.v[:], h.sec.w0[:]); err != nil {
		return err
	}
	digest, err := tt.Finalize()
	if err != nil {
		return err
	}
	copy(h.sec.ka[:], digest[:16])
	copy(h.sec.ke[:], digest[16:])
	clear(digest[:])

	proverV, verifierV, err := h.verifiers(x, y)
	if err != nil {
		return err
	}
	if h.role == RoleProver {
		h.sec.verifier, h.sec.peerVerifier = proverV, verifierV
	} else {
		h.sec.verifier, h.sec.peerVerifier = verifierV, proverV
	}
	clear(proverV[:])
	clear(verifierV[:])

	h.sec.wipeExchange()
	h.setState(StateKeysDerived)
	return nil
}

// verifiers returns the prover's and the verifier's confirmation values.
// Each side MACs the other side's share with its own confirmation key.
func (h *Handshake) verifiers(x, y []byte) (prover, verifier [VerifierSize]byte, err error) {
	if h.options.SymmetricVerifiers {
		return h.sec.ka, h.sec.ka, nil
	}

	kc, err := h.options.Ciphersuite.KDF(h.sec.ka[:], nil, []byte(confirmationInfo), 32)
	if err != nil {
		return prover, verifier, errors.Wrap(ErrResource, err.Error())
	}
	defer crypto.Wipe(kc)

	macP := h.options.Ciphersuite.MAC(kc[:16], y)
	macV := h.options.Ciphersuite.MAC(kc[16:], x)
	copy(prover[:], macP)
	copy(verifier[:], macV)
	crypto.Wipe(macP)
	crypto.Wipe(macV)
	return prover, verifier, nil
}

// Verifier returns the confirmation value to send to the peer. It must be
// called before Confirm.
func (h *Handshake) Verifier() (verifier []byte, err error) {
	defer h.guard("verifier", &err)

	if err := h.expect(StateKeysDerived); err != nil {
		return nil, err
	}
	out := make([]byte, VerifierSize)
	copy(out, h.sec.verifier[:])
	return out, nil
}

// Confirm checks the peer's verifier in constant time. On success it returns
// the session key Ke and wipes every other secret. On mismatch the handshake
// is aborted and ErrVerifierMismatch is returned without further detail.
func (h *Handshake) Confirm(peerVerifier []byte) (key []byte, err error) {
	defer h.guard("confirm", &err)

	if err := h.expect(StateKeysDerived); err != nil {
		return nil, err
	}
	if subtle.ConstantTimeCompare(peerVerifier, h.sec.peerVerifier[:]) != 1 {
		return nil, ErrVerifierMismatch
	}

	h.sec.keepSessionKey()
	h.setState(StateConfirmed)
	return h.SessionKey()
}

// SessionKey returns a copy of Ke once the handshake is confirmed.
func (h *Handshake) SessionKey() ([]byte, error) {
	if h.state != StateConfirmed || h.closed {
		return nil, errors.Wrapf(ErrInvalidState, "session key unavailable in state %s", h.state)
	}
	out := make([]byte, KeySize)
	copy(out, h.sec.ke[:])
	return out, nil
}

// Close zeroizes all secrets. A handshake that has not been confirmed moves
// to StateAborted. Close is idempotent.
func (h *Handshake) Close() error {
	if h.closed {
		return nil
	}
	h.closed = true
	h.sec.wipe()
	if h.state != StateConfirmed {
		h.setState(StateAborted)
	}
	return nil
}

func (h *Handshake) expect(want State) error {
	if h.closed || h.state != want {
		return errors.Wrapf(ErrInvalidState, "want %s, have %s", want, h.state)
	}
	return nil
}

func (h *Handshake) setState(s State) {
	if h.state == s {
		return
	}
	h.log.Debug("state transition",
		zap.Stringer("from", h.state),
		zap.Stringer("to", s),
	)
	h.state = s
}

// guard runs deferred in every operation. On error or panic it aborts the
// handshake and zeroizes its secrets; a panic is re-raised afterwards.
func (h *Handshake) guard(op string, err *error) {
	if r := recover(); r != nil {
		h.abort(op, errors.Errorf("panic: %v", r))
		panic(r)
	}
	if *err != nil {
		h.abort(op, *err)
	}
}

func (h *Handshake) abort(op string, cause error) {
	// A confirmed handshake only holds Ke; a late misuse does not revoke it.
	if h.state == StateConfirmed {
		return
	}
	h.sec.wipe()
	if h.state == StateAborted {
		return
	}
	h.log.Warn("handshake aborted",
		zap.String("op", op),
		zap.Stringer("state", h.state),
		zap.Error(cause),
	)
	h.state = StateAborted
}
