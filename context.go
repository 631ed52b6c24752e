package srtp

import "github.com/watchtower-rtc/srtpcore/replaydetector"

// rolloverWrapThreshold is how far backward a sequence number has to jump,
// measured as a plain (non-modular) difference against the last sequence
// recorded, before it is treated as the 16-bit space having wrapped rather
// than an out-of-order packet (§4.4 step 1).
const rolloverWrapThreshold = -0x8000

// streamState is the per-SSRC protection state the session façade never
// duplicates between its RTP and RTCP paths (§3 "per-stream protection
// state", §9 design note 2): rollover counter, replay window, and SRTCP
// index for one source all live in a single value.
type streamState struct {
	ssrc uint32

	outboundInitialized bool
	outboundROC         uint32
	outboundLastSeq     uint16

	inboundInitialized bool
	inboundROC         uint32
	inboundLastSeq     uint16
	replay             *replaydetector.SlidingWindow

	srtcpIndex uint32 // pre-incremented; first outbound packet uses index 1
}

func newStreamState(ssrc uint32, replayWindowSize uint64) *streamState {
	return &streamState{
		ssrc:   ssrc,
		replay: replaydetector.New(replayWindowSize),
	}
}

// updateOutboundRollover advances the sender-side rollover counter for a
// freshly-assigned outbound sequence number and returns the ROC to encrypt
// with.
func (s *streamState) updateOutboundRollover(seq uint16) uint32 {
	if !s.outboundInitialized {
		s.outboundInitialized = true
		s.outboundLastSeq = seq

		return s.outboundROC
	}

	delta := int64(seq) - int64(s.outboundLastSeq)
	if delta < rolloverWrapThreshold {
		s.outboundROC++
	}
	s.outboundLastSeq = seq

	return s.outboundROC
}

// nextOutboundSRTCPIndex pre-increments and returns the 31-bit SRTCP index
// for the next outbound RTCP packet on this stream; the first call on a
// fresh stream returns 1 (§4.4, §9 open question resolution).
func (s *streamState) nextOutboundSRTCPIndex() uint32 {
	s.srtcpIndex++

	return s.srtcpIndex & 0x7FFFFFFF
}

// rolloverForInbound returns the ROC to attempt decryption with for an
// inbound sequence number, without yet committing the update. Callers
// must call commitInboundRollover only after the packet authenticates
// (§5 ordering: decryption failure must not advance any state).
//
// A jump forward across the 16-bit boundary guesses ROC+1; a packet that
// arrives late, still addressed to the ROC from before that boundary
// crossing, guesses ROC-1 instead of being decrypted (and rejected) under
// the now-current ROC. Without this second case a reordered packet from
// just before a wrap is permanently lost once a single packet from just
// after the wrap has been seen.
func (s *streamState) rolloverForInbound(seq uint16) uint32 {
	if !s.inboundInitialized {
		return s.inboundROC
	}

	delta := int64(seq) - int64(s.inboundLastSeq)
	switch {
	case delta < rolloverWrapThreshold:
		return s.inboundROC + 1
	case delta > -rolloverWrapThreshold && s.inboundROC > 0:
		return s.inboundROC - 1
	default:
		return s.inboundROC
	}
}

// commitInboundRollover persists the ROC and last-sequence update after a
// packet has been authenticated and passed the replay check.
func (s *streamState) commitInboundRollover(seq uint16, roc uint32) {
	s.inboundInitialized = true
	s.inboundROC = roc
	s.inboundLastSeq = seq
}

// reset clears rollover, replay, and SRTCP index state (§5 session reset)
// without invalidating plaintexts already returned to the caller.
func (s *streamState) reset(replayWindowSize uint64) {
	*s = streamState{ssrc: s.ssrc, replay: replaydetector.New(replayWindowSize)}
}
