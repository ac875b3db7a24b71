// Package spake2plus implements the SPAKE2+ augmented password-authenticated
// key exchange over NIST P-256 (RFC 9383).
//
// The prover (client) holds the password-derived scalars w0 and w1. The
// verifier (server) holds w0 and the registration record L = w1*G. Each side
// sends one public share and one 16-byte verifier, and ends with a 16-byte
// session key that both sides share.
//
// Basic usage:
//
//	w0, w1, err := spake2plus.DeriveScalars(password, salt, spake2plus.DefaultKDFParams())
//
//	prover, err := spake2plus.NewProver(w0, w1, opts)
//	defer prover.Close()
//	verifier, err := spake2plus.NewVerifier(w0, w1, opts)
//	defer verifier.Close()
//
//	x, err := prover.ComputeShare()       // send x
//	y, err := verifier.ComputeShare()     // send y
//	err = verifier.DeriveShared(x)
//	err = verifier.DeriveKeys()
//	cV, err := verifier.Verifier()        // send cV
//
//	err = prover.DeriveShared(y)
//	err = prover.DeriveKeys()
//	cP, err := prover.Verifier()          // send cP
//	key, err := prover.Confirm(cV)
//
//	key, err = verifier.Confirm(cP)
//
// Any failed step aborts the handshake and zeroizes its secrets. A wrong
// password surfaces only as ErrVerifierMismatch from Confirm.
package spake2plus
