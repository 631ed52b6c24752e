// Package rtcp adapts github.com/pion/rtcp's packet codec to the
// truncation-tolerant compound parsing this subsystem needs (§4.1): a
// compound RTCP datagram whose last sub-packet was cut short by a lossy
// or undersized write should still yield every sub-packet that arrived
// intact, rather than failing the whole buffer the way pion/rtcp's own
// Unmarshal does on a short tail.
package rtcp

import (
	pionrtcp "github.com/pion/rtcp"
)

// minHeaderLength is the size of the fixed RTCP header pion/rtcp's Header
// type decodes: V/P/count, packet type, and the 16-bit length field.
const minHeaderLength = 4

// packetByteSize returns the declared total size of one RTCP packet,
// header included, per RFC 3550's length field: (length + 1) * 4.
func packetByteSize(h pionrtcp.Header) int {
	return (int(h.Length) + 1) * 4
}

// UnmarshalCompound splits a compound RTCP packet (an unbroken
// concatenation of RTCP packets) into its constituent packets, handing
// each fully-present sub-packet to pion/rtcp.Unmarshal for real typed
// decoding. A sub-packet whose declared size overruns what remains of
// the buffer is not fully present: it is dropped and the walk halts
// there, returning every complete sub-packet read so far.
func UnmarshalCompound(buf []byte) ([]pionrtcp.Packet, error) {
	var packets []pionrtcp.Packet

	for len(buf) > 0 {
		if len(buf) < minHeaderLength {
			break
		}

		var probe pionrtcp.Header
		if err := probe.Unmarshal(buf); err != nil {
			break
		}

		declared := packetByteSize(probe)
		if declared > len(buf) {
			break
		}

		decoded, err := pionrtcp.Unmarshal(buf[:declared])
		if err != nil || len(decoded) == 0 {
			break
		}

		packets = append(packets, decoded...)
		buf = buf[declared:]
	}

	return packets, nil
}

// MarshalCompound concatenates the wire bytes of each packet in order,
// producing a compound RTCP packet. A thin wrapper over pion/rtcp.Marshal
// kept for symmetry with UnmarshalCompound's name.
func MarshalCompound(packets []pionrtcp.Packet) ([]byte, error) {
	return pionrtcp.Marshal(packets)
}
