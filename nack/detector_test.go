package nack

import (
	"testing"
	"time"

	"github.com/pion/transport/v3/test"
	"github.com/stretchr/testify/require"
)

func TestDetectorMarksGapAsLost(t *testing.T) {
	d := New(10*time.Millisecond, 3, nil, nil)

	d.Receive(100)
	d.Receive(102)

	require.Equal(t, 1, d.LostLen())
}

func TestDetectorRecoversOnLateArrival(t *testing.T) {
	d := New(10*time.Millisecond, 3, nil, nil)

	// 100..110 arrive with 105 omitted; 105 then arrives late.
	for seq := uint16(100); seq <= 110; seq++ {
		if seq != 105 {
			d.Receive(seq)
		}
	}
	d.Receive(105)

	require.Equal(t, 0, d.LostLen())
}

func TestDetectorEmitsNackAfterOneInterval(t *testing.T) {
	d := New(10*time.Millisecond, 2, nil, nil)

	d.Receive(100)
	d.Receive(102)
	// Retry times are scheduled from the moment Receive marks the gap, so
	// the reference clock is read after it.
	start := time.Now()

	toNack, lost := d.Tick(start.Add(10 * time.Millisecond))
	require.Equal(t, []uint16{101}, toNack)
	require.Empty(t, lost)
}

func TestDetectorPermanentlyLostAfterMaxRetries(t *testing.T) {
	var nacked [][]uint16
	var permanentlyLost []uint16

	d := New(10*time.Millisecond, 2, func(seqs []uint16) {
		nacked = append(nacked, append([]uint16(nil), seqs...))
	}, func(seq uint16) {
		permanentlyLost = append(permanentlyLost, seq)
	})

	d.Receive(100)
	d.Receive(102)
	start := time.Now()

	// Retry delay doubles each round (10ms, 20ms, 40ms, ...), so the ticks
	// land at +10ms, +30ms, +70ms rather than a fixed stride.
	offsets := []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 70 * time.Millisecond}
	for _, offset := range offsets {
		toNack, lost := d.Tick(start.Add(offset))
		if len(toNack) > 0 {
			d.onNack(toNack)
		}
		for _, seq := range lost {
			d.onPermanentlyLost(seq)
		}
	}

	require.Len(t, nacked, 2)
	require.Equal(t, []uint16{101}, permanentlyLost)
}

func TestDetectorClosePreventsFurtherEmission(t *testing.T) {
	defer test.TimeOut(time.Second * 5).Stop()

	d := New(time.Millisecond, 1, nil, nil)
	d.Start()
	d.Close()
	d.Close() // idempotent

	require.Equal(t, 0, d.LostLen())
}
