// Package srtp implements the SRTP and SRTCP protection profiles of
// RFC 3711 (AES-CM + HMAC-SHA1) and RFC 7714 (AES-GCM) behind one session
// façade, built on top of pion/rtp's header codec and on this module's
// replay detector, retransmission buffer, and key-derivation function.
package srtp

import "errors"

// Error kinds exposed at the package boundary (§7). Per-packet failures
// (MalformedPacket, AuthenticationFailed, Replay) are returned to the
// caller and never crash the session; construction errors
// (InvalidKeyingMaterial, InvalidConfiguration) are terminal for the
// session being built.
var (
	// ErrMalformedPacket is returned when RTP/RTCP parsing rejects the
	// input (§4.1).
	ErrMalformedPacket = errors.New("srtp: malformed packet")

	// ErrAuthenticationFailed is returned when an AEAD tag or HMAC-SHA1
	// tag fails to verify. No plaintext is released on this path.
	ErrAuthenticationFailed = errors.New("srtp: authentication failed")

	// ErrReplay is returned when the replay window rejects a sequence
	// number (duplicate or too old).
	ErrReplay = errors.New("srtp: replayed packet")

	// ErrInvalidKeyingMaterial is returned at session construction when
	// the supplied key/salt material is the wrong length for the profile.
	ErrInvalidKeyingMaterial = errors.New("srtp: invalid keying material")

	// ErrInvalidConfiguration is returned at session construction for an
	// unknown protection profile, and by EncryptAndWriteRTPBatch when the
	// writer accepts no buffers. Zero-valued sizes in Config are not
	// errors: they are replaced by their defaults.
	ErrInvalidConfiguration = errors.New("srtp: invalid configuration")
)

// AuthenticationOrReplayError wraps whichever of ErrAuthenticationFailed or
// ErrReplay caused a packet to be dropped. Callers are intentionally
// steered toward treating both the same way ("packet dropped") to avoid
// giving an attacker a side channel distinguishing a forged packet from a
// replayed one; Is() still matches the underlying sentinel for callers
// that need to log it.
type AuthenticationOrReplayError struct {
	err error
}

func (e *AuthenticationOrReplayError) Error() string { return e.err.Error() }

// Unwrap lets errors.Is/As see through to the underlying sentinel.
func (e *AuthenticationOrReplayError) Unwrap() error { return e.err }
