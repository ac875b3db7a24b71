package spake2plus

// secrets holds every secret-bearing value of a handshake in fixed arrays so
// a single assignment zeroizes all of it.
type secrets struct {
	w0 [ScalarSize]byte
	w1 [ScalarSize]byte
	r  [ScalarSize]byte

	z [ShareSize]byte
	v [ShareSize]byte

	ke [KeySize]byte
	ka [16]byte

	verifier     [VerifierSize]byte
	peerVerifier [VerifierSize]byte
}

func (s *secrets) wipe() {
	*s = secrets{}
}

// wipeExchange clears the values that are no longer needed once the
// transcript has been hashed.
func (s *secrets) wipeExchange() {
	clear(s.w0[:])
	clear(s.w1[:])
	clear(s.r[:])
	clear(s.z[:])
	clear(s.v[:])
	clear(s.ka[:])
}

// keepSessionKey clears everything except Ke.
func (s *secrets) keepSessionKey() {
	ke := s.ke
	s.wipe()
	s.ke = ke
	clear(ke[:])
}

func (s *secrets) isZero() bool {
	return *s == secrets{}
}
