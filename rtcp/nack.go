package rtcp

import pionrtcp "github.com/pion/rtcp"

// NackPairsFromSequenceNumbers packs a (possibly non-contiguous) list of
// lost sequence numbers into the minimal set of NackPairs a
// TransportLayerNack carries, delegating to pion/rtcp's own packer so the
// bitmask layout stays byte-for-byte what the rest of the ecosystem
// produces.
func NackPairsFromSequenceNumbers(seqNumbers []uint16) []pionrtcp.NackPair {
	return pionrtcp.NackPairsFromSequenceNumbers(seqNumbers)
}

// PacketList flattens every NackPair of a TransportLayerNack into the
// complete, ordered set of lost sequence numbers it reports. pion/rtcp
// exposes PacketList per NackPair but not for the whole feedback message,
// which is what the NACK detector's retry loop actually wants to compare
// against.
func PacketList(nack *pionrtcp.TransportLayerNack) []uint16 {
	var out []uint16
	for i := range nack.Nacks {
		out = append(out, nack.Nacks[i].PacketList()...)
	}

	return out
}
