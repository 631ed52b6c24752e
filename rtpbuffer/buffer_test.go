package rtpbuffer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferStoreRetrieveRoundTrip(t *testing.T) {
	b := New(4)

	b.Store(10, []byte("hello"))

	got, ok := b.Retrieve(10)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), got)
}

func TestBufferRetrieveMissReportsFalse(t *testing.T) {
	b := New(4)

	_, ok := b.Retrieve(1)
	assert.False(t, ok)
}

func TestBufferOverwriteEvictsStaleSequence(t *testing.T) {
	b := New(4)

	b.Store(1, []byte("first"))
	b.Store(5, []byte("second")) // same slot (1 % 4 == 5 % 4)

	_, ok := b.Retrieve(1)
	assert.False(t, ok, "slot 1 should have been evicted by the wrap to seq 5")

	got, ok := b.Retrieve(5)
	require.True(t, ok)
	assert.Equal(t, []byte("second"), got)
}

func TestBufferClearEmptiesAllSlots(t *testing.T) {
	b := New(4)

	b.Store(1, []byte("x"))
	b.Clear()

	_, ok := b.Retrieve(1)
	assert.False(t, ok)
}

func TestBufferDefaultCapacityOnNonPositive(t *testing.T) {
	assert.Equal(t, DefaultCapacity, New(0).Len())
	assert.Equal(t, DefaultCapacity, New(-1).Len())
	assert.Equal(t, 10, New(10).Len())
}
