package main

import (
	"bytes"
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"net"

	spake2plus "github.com/backkem/spake2plus-go"
	"github.com/backkem/spake2plus-go/wire"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var errKeyMismatch = errors.New("session keys differ")

func demoCmd(a *app) *cobra.Command {
	var password, peerPassword, salt string
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run a prover and a verifier against each other over an in-memory connection",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if password == "" {
				return errors.New("--password is required")
			}
			if peerPassword == "" {
				peerPassword = password
			}
			res, err := runDemo(a, []byte(password), []byte(peerPassword), []byte(salt))
			if err != nil {
				fmt.Fprintf(a.out, "handshake failed: %v\n", err)
				return err
			}
			fmt.Fprintf(a.out, "session %016x\n", res.sessionID)
			fmt.Fprintf(a.out, "prover key:   %s\n", hex.EncodeToString(res.proverKey))
			fmt.Fprintf(a.out, "verifier key: %s\n", hex.EncodeToString(res.verifierKey))
			fmt.Fprintln(a.out, "keys match")
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "prover password")
	cmd.Flags().StringVar(&peerPassword, "peer-password", "", "password registered at the verifier (defaults to --password)")
	cmd.Flags().StringVar(&salt, "salt", "spake2p", "salt for password hardening")
	return cmd
}

type demoResult struct {
	sessionID              uint64
	proverKey, verifierKey []byte
}

// runDemo registers peerPassword with the verifier, then runs both sides of
// the exchange over net.Pipe.
func runDemo(a *app, password, peerPassword, salt []byte) (*demoResult, error) {
	prover, err := register(a, password, salt)
	if err != nil {
		return nil, errors.WithMessage(err, "prover registration")
	}
	stored, err := register(a, peerPassword, salt)
	if err != nil {
		return nil, errors.WithMessage(err, "verifier registration")
	}
	opts, err := a.options()
	if err != nil {
		return nil, err
	}

	var idBuf [8]byte
	if _, err := rand.Read(idBuf[:]); err != nil {
		return nil, errors.Wrap(err, "session id")
	}
	res := &demoResult{sessionID: binary.LittleEndian.Uint64(idBuf[:])}

	proverConn, verifierConn := net.Pipe()
	var g errgroup.Group
	var proverErr, verifierErr error
	g.Go(func() error {
		defer proverConn.Close()
		res.proverKey, proverErr = runProver(proverConn, res.sessionID, prover, opts)
		return proverErr
	})
	g.Go(func() error {
		defer verifierConn.Close()
		res.verifierKey, verifierErr = runVerifier(verifierConn, res.sessionID, stored, opts)
		return verifierErr
	})
	if g.Wait() != nil {
		// The prover checks first; a verifier error after a prover failure
		// is just the closed connection.
		err := errors.WithMessage(proverErr, "prover")
		if err == nil {
			err = errors.WithMessage(verifierErr, "verifier")
		}
		a.logger.Warn("demo handshake failed", zap.Error(err))
		return nil, err
	}
	if !bytes.Equal(res.proverKey, res.verifierKey) {
		return nil, errKeyMismatch
	}
	a.logger.Info("demo handshake complete",
		zap.Uint64("session", res.sessionID),
		zap.String("backend", a.cfg.Backend),
	)
	return res, nil
}

// runProver sends its share, waits for the verifier's share and verifier,
// and answers with its own verifier once the peer's checks out.
func runProver(conn net.Conn, sessionID uint64, reg *registration, opts *spake2plus.Options) ([]byte, error) {
	h, err := spake2plus.NewProver(reg.W0, reg.W1, opts)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	x, err := h.ComputeShare()
	if err != nil {
		return nil, err
	}
	share, err := wire.NewShare(sessionID, x)
	if err != nil {
		return nil, err
	}
	if err := wire.WriteShare(conn, &share); err != nil {
		return nil, err
	}

	peer, err := wire.ReadShare(conn)
	if err != nil {
		return nil, err
	}
	peerConfirm, err := wire.ReadConfirm(conn)
	if err != nil {
		return nil, err
	}
	if err := checkSession(sessionID, peer.SessionID, peerConfirm.SessionID); err != nil {
		return nil, err
	}

	if err := h.DeriveShared(peer.Point[:]); err != nil {
		return nil, err
	}
	if err := h.DeriveKeys(); err != nil {
		return nil, err
	}
	cP, err := h.Verifier()
	if err != nil {
		return nil, err
	}
	key, err := h.Confirm(peerConfirm.Verifier[:])
	if err != nil {
		return nil, err
	}

	confirm, err := wire.NewConfirm(sessionID, cP)
	if err != nil {
		return nil, err
	}
	if err := wire.WriteConfirm(conn, &confirm); err != nil {
		return nil, err
	}
	return key, nil
}

// runVerifier answers the prover's share with its own share and verifier,
// then checks the prover's verifier.
func runVerifier(conn net.Conn, sessionID uint64, reg *registration, opts *spake2plus.Options) ([]byte, error) {
	h, err := spake2plus.NewVerifierFromRecord(reg.W0, reg.L, opts)
	if err != nil {
		return nil, err
	}
	defer h.Close()

	peer, err := wire.ReadShare(conn)
	if err != nil {
		return nil, err
	}
	if err := checkSession(sessionID, peer.SessionID); err != nil {
		return nil, err
	}

	y, err := h.ComputeShare()
	if err != nil {
		return nil, err
	}
	if err := h.DeriveShared(peer.Point[:]); err != nil {
		return nil, err
	}
	if err := h.DeriveKeys(); err != nil {
		return nil, err
	}
	cV, err := h.Verifier()
	if err != nil {
		return nil, err
	}

	share, err := wire.NewShare(sessionID, y)
	if err != nil {
		return nil, err
	}
	if err := wire.WriteShare(conn, &share); err != nil {
		return nil, err
	}
	confirm, err := wire.NewConfirm(sessionID, cV)
	if err != nil {
		return nil, err
	}
	if err := wire.WriteConfirm(conn, &confirm); err != nil {
		return nil, err
	}

	peerConfirm, err := wire.ReadConfirm(conn)
	if err != nil {
		return nil, err
	}
	if err := checkSession(sessionID, peerConfirm.SessionID); err != nil {
		return nil, err
	}
	return h.Confirm(peerConfirm.Verifier[:])
}

func checkSession(want uint64, got ...uint64) error {
	for _, id := range got {
		if id != want {
			return errors.Errorf("session id %016x, want %016x", id, want)
		}
	}
	return nil
}
