// Package rtx implements RFC 4588 retransmission wrap/unwrap (§4.8): the
// sender re-sends a lost packet under a separate SSRC and payload type with
// its own independent sequence-number space, prefixing the payload with the
// two-byte original sequence number (OSN) so the receiver can restore the
// packet's original identity.
package rtx

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/pion/rtp"

	"github.com/watchtower-rtc/srtpcore/internal/fastrand"
)

// ErrNotRTX is returned by Unwrap when the packet's (SSRC, payload type)
// does not match any registered RTX mapping.
var ErrNotRTX = errors.New("rtx: packet does not match a registered rtx stream")

// ErrPayloadTooShort is returned by Unwrap when the payload is too short to
// contain the two-byte OSN prefix.
var ErrPayloadTooShort = errors.New("rtx: payload shorter than osn prefix")

// Wrapper generates RTX packets for one outbound media stream. Its sequence
// number space is entirely independent of the media stream's: it advances
// on every wrap, including repeated NACKs for the same original packet.
type Wrapper struct {
	ssrc        uint32
	payloadType uint8
	nextSeq     uint16
}

// NewWrapper constructs a Wrapper emitting packets under the given RTX SSRC
// and payload type. The RTX sequence space starts at a pseudo-random value
// rather than zero, the same way the media sequence number itself is
// randomised at stream start, so that two RTX streams started close
// together don't begin emitting identical sequence numbers.
func NewWrapper(ssrc uint32, payloadType uint8) *Wrapper {
	return &Wrapper{ssrc: ssrc, payloadType: payloadType, nextSeq: uint16(fastrand.Uint32())}
}

// Wrap builds the RTX packet for a retransmission of original: a new
// header under the RTX SSRC/payload type and sequence number, with the
// original sequence number prefixed to the payload.
func (w *Wrapper) Wrap(original *rtp.Packet) *rtp.Packet {
	seq := w.nextSeq
	w.nextSeq++ // uint16 wraps at 0xFFFF by construction

	header := original.Header.Clone()
	header.SSRC = w.ssrc
	header.PayloadType = w.payloadType
	header.SequenceNumber = seq

	payload := make([]byte, 2+len(original.Payload))
	binary.BigEndian.PutUint16(payload, original.SequenceNumber)
	copy(payload[2:], original.Payload)

	return &rtp.Packet{Header: header, Payload: payload}
}

// mapping records the original stream an RTX stream stands in for.
type mapping struct {
	originalSSRC        uint32
	originalPayloadType uint8
}

type mappingKey struct {
	ssrc        uint32
	payloadType uint8
}

// Unwrapper restores RTX packets from one or more registered RTX streams
// back to their original SSRC, payload type, and sequence number.
type Unwrapper struct {
	mappings map[mappingKey]mapping
}

// NewUnwrapper constructs an empty Unwrapper.
func NewUnwrapper() *Unwrapper {
	return &Unwrapper{mappings: make(map[mappingKey]mapping)}
}

// Register associates an RTX (SSRC, payload type) pair with the original
// stream it retransmits for.
func (u *Unwrapper) Register(rtxSSRC uint32, rtxPayloadType uint8, originalSSRC uint32, originalPayloadType uint8) {
	u.mappings[mappingKey{rtxSSRC, rtxPayloadType}] = mapping{originalSSRC, originalPayloadType}
}

// Unwrap restores pkt to its original identity if its (SSRC, payload type)
// matches a registered mapping. It returns ErrNotRTX when no mapping
// matches, leaving the caller free to treat pkt as ordinary media.
func (u *Unwrapper) Unwrap(pkt *rtp.Packet) (*rtp.Packet, error) {
	m, ok := u.mappings[mappingKey{pkt.SSRC, pkt.PayloadType}]
	if !ok {
		return nil, ErrNotRTX
	}

	if len(pkt.Payload) < 2 {
		return nil, fmt.Errorf("%w: ssrc=%x", ErrPayloadTooShort, pkt.SSRC)
	}

	osn := binary.BigEndian.Uint16(pkt.Payload[:2])

	header := pkt.Header.Clone()
	header.SSRC = m.originalSSRC
	header.PayloadType = m.originalPayloadType
	header.SequenceNumber = osn

	return &rtp.Packet{Header: header, Payload: append([]byte(nil), pkt.Payload[2:]...)}, nil
}
