// Package rtpbuffer implements the retransmission store (§4.7): a circular
// cache of recently sent RTP packets keyed by sequence number, used to
// answer NACK-driven retransmission requests without re-deriving the
// packet from higher layers.
package rtpbuffer

// DefaultCapacity is the default number of slots (§6
// `retransmission_buffer_size`): roughly 0.5s of audio or video at typical
// packetisation rates.
const DefaultCapacity = 128

type slot struct {
	occupied bool
	seq      uint16
	packet   []byte
}

// Buffer is a fixed-size circular cache of recently sent packets. It
// carries no notion of time: eviction happens purely by sequence-number
// advance, as a later Store at the same slot overwrites whatever sequence
// previously lived there. It is not safe for concurrent use; the session
// that owns it is expected to serialise access the same way it serialises
// every other piece of per-session state.
type Buffer struct {
	slots []slot
}

// New constructs a Buffer with the given capacity, clamped to
// DefaultCapacity when capacity is zero or negative.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Buffer{slots: make([]slot, capacity)}
}

// Store caches packet under sequence seq, overwriting whatever previously
// occupied that slot. The caller retains ownership of packet's backing
// array; Store copies it so later mutation by the caller does not corrupt
// the cached copy.
func (b *Buffer) Store(seq uint16, packet []byte) {
	idx := int(seq) % len(b.slots)
	s := &b.slots[idx]

	if cap(s.packet) >= len(packet) {
		s.packet = s.packet[:len(packet)]
	} else {
		s.packet = make([]byte, len(packet))
	}
	copy(s.packet, packet)

	s.seq = seq
	s.occupied = true
}

// Retrieve returns a copy of the packet stored for seq, and whether it is
// still present: a slot is stale (and Retrieve reports false) once the
// sequence space has advanced far enough that a later packet landed in
// the same slot and overwrote it. Retrieve copies rather than returning
// the slot's own backing array directly, since Store reuses that array
// in place on a later write to the same slot and would otherwise corrupt
// a packet the caller is still holding onto.
func (b *Buffer) Retrieve(seq uint16) ([]byte, bool) {
	idx := int(seq) % len(b.slots)
	s := &b.slots[idx]

	if !s.occupied || s.seq != seq {
		return nil, false
	}

	return append([]byte(nil), s.packet...), true
}

// Clear empties every slot.
func (b *Buffer) Clear() {
	for i := range b.slots {
		b.slots[i] = slot{}
	}
}

// Len returns the buffer's configured capacity.
func (b *Buffer) Len() int { return len(b.slots) }
