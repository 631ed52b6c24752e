package rtcp

import (
	"testing"

	pionrtcp "github.com/pion/rtcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransportLayerNackRoundTrip(t *testing.T) {
	nack := &pionrtcp.TransportLayerNack{
		SenderSSRC: 0x11111111,
		MediaSSRC:  0x22222222,
		Nacks:      NackPairsFromSequenceNumbers([]uint16{100, 101, 103, 200}),
	}

	buf, err := nack.Marshal()
	require.NoError(t, err)

	decoded := &pionrtcp.TransportLayerNack{}
	require.NoError(t, decoded.Unmarshal(buf))

	assert.Equal(t, nack.SenderSSRC, decoded.SenderSSRC)
	assert.Equal(t, nack.MediaSSRC, decoded.MediaSSRC)
	assert.Equal(t, []uint16{100, 101, 103, 200}, PacketList(decoded))
}

func TestNackPairsFromSequenceNumbersPacksBitmask(t *testing.T) {
	pairs := NackPairsFromSequenceNumbers([]uint16{10, 11, 12, 26})
	require.Len(t, pairs, 1)
	assert.Equal(t, uint16(10), pairs[0].PacketID)
	assert.Equal(t, []uint16{10, 11, 12, 26}, pairs[0].PacketList())
}
