package rtx

import (
	"testing"

	"github.com/pion/rtp"
	"github.com/stretchr/testify/require"
)

func originalPacket(seq uint16) *rtp.Packet {
	return &rtp.Packet{
		Header: rtp.Header{
			Version:        2,
			PayloadType:    96,
			SequenceNumber: seq,
			Timestamp:      0xdeadbeef,
			SSRC:           0xcafebabe,
		},
		Payload: []byte("media payload"),
	}
}

func TestWrapUnwrapRoundTrip(t *testing.T) {
	wrapper := NewWrapper(0xfeedface, 97)
	unwrapper := NewUnwrapper()
	unwrapper.Register(0xfeedface, 97, 0xcafebabe, 96)

	original := originalPacket(1000)
	wrapped := wrapper.Wrap(original)

	require.Equal(t, uint32(0xfeedface), wrapped.SSRC)
	require.Equal(t, uint8(97), wrapped.PayloadType)

	restored, err := unwrapper.Unwrap(wrapped)
	require.NoError(t, err)
	require.Equal(t, original.SSRC, restored.SSRC)
	require.Equal(t, original.PayloadType, restored.PayloadType)
	require.Equal(t, original.SequenceNumber, restored.SequenceNumber)
	require.Equal(t, original.Payload, restored.Payload)
}

func TestWrapperSequenceIndependentOfMedia(t *testing.T) {
	wrapper := NewWrapper(0xfeedface, 97)

	first := wrapper.Wrap(originalPacket(10))
	second := wrapper.Wrap(originalPacket(10)) // repeated NACK for the same original packet

	require.Equal(t, first.SequenceNumber+1, second.SequenceNumber)
}

func TestWrapperSequenceWrapsAt0xFFFF(t *testing.T) {
	wrapper := &Wrapper{ssrc: 1, payloadType: 97, nextSeq: 0xFFFF}

	last := wrapper.Wrap(originalPacket(1))
	wrapped := wrapper.Wrap(originalPacket(2))

	require.Equal(t, uint16(0xFFFF), last.SequenceNumber)
	require.Equal(t, uint16(0), wrapped.SequenceNumber)
}

func TestUnwrapRejectsUnregisteredStream(t *testing.T) {
	unwrapper := NewUnwrapper()

	_, err := unwrapper.Unwrap(originalPacket(1))
	require.ErrorIs(t, err, ErrNotRTX)
}

func TestUnwrapRejectsShortPayload(t *testing.T) {
	unwrapper := NewUnwrapper()
	unwrapper.Register(0xcafebabe, 96, 0x1, 1)

	pkt := originalPacket(1)
	pkt.Payload = []byte{0x01}

	_, err := unwrapper.Unwrap(pkt)
	require.ErrorIs(t, err, ErrPayloadTooShort)
}
