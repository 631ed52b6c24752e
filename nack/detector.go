// Package nack implements the NACK detector of §4.9: it watches an
// inbound RTP sequence-number stream for gaps, tracks each gap through a
// bounded retry schedule with exponentially doubling backoff, and reports
// both the outgoing Generic NACK lists and any sequence that exhausts its
// retries.
package nack

import (
	"sync"
	"time"
)

// maxLostSetSize bounds the number of sequences tracked at once; pruning
// drops the oldest entry first.
const maxLostSetSize = 150

type lostEntry struct {
	attempts  int
	delay     time.Duration
	nextRetry time.Time
}

// Detector tracks gaps in one inbound RTP stream's sequence numbers.
// Receive, Tick, and Close are safe for concurrent use; Tick is also
// exposed directly so tests can drive the retry schedule with synthetic
// timestamps instead of real sleeps.
type Detector struct {
	mu          sync.Mutex
	initialized bool
	highest     uint16

	lost  map[uint16]*lostEntry
	order []uint16 // insertion order, for pruning the oldest entry

	interval   time.Duration
	maxRetries int

	onNack            func(seqs []uint16)
	onPermanentlyLost func(seq uint16)

	ticker *time.Ticker
	done   chan struct{}
	once   sync.Once
}

// New constructs a Detector with the given retry interval and maximum
// number of retry attempts before a sequence is declared permanently lost.
// onNack is invoked with the set of sequences due for a retry on every
// tick that has any; onPermanentlyLost is invoked once per sequence that
// exhausts maxRetries.
func New(interval time.Duration, maxRetries int, onNack func([]uint16), onPermanentlyLost func(uint16)) *Detector {
	return &Detector{
		lost:              make(map[uint16]*lostEntry),
		interval:          interval,
		maxRetries:        maxRetries,
		onNack:            onNack,
		onPermanentlyLost: onPermanentlyLost,
		done:              make(chan struct{}),
	}
}

// seqGreater reports whether a is ahead of b in the signed-16 sense: a > b
// iff (a-b) mod 2^16 falls in [1, 0x7FFF] (§4.9).
func seqGreater(a, b uint16) bool {
	d := a - b

	return d != 0 && d <= 0x7FFF
}

// Receive records a newly-arrived sequence number: advancing sequences
// mark any intermediate gap as lost, and a sequence already in the lost
// set is treated as recovered and removed.
func (d *Detector) Receive(seq uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.initialized {
		d.initialized = true
		d.highest = seq

		return
	}

	if seqGreater(seq, d.highest) {
		for s := d.highest + 1; s != seq; s++ {
			d.markLostLocked(s)
		}
		d.highest = seq

		return
	}

	if _, ok := d.lost[seq]; ok {
		delete(d.lost, seq)
		d.removeFromOrderLocked(seq)
	}
}

func (d *Detector) markLostLocked(seq uint16) {
	if _, exists := d.lost[seq]; exists {
		return
	}

	now := time.Now()
	d.lost[seq] = &lostEntry{delay: d.interval, nextRetry: now.Add(d.interval)}
	d.order = append(d.order, seq)

	if len(d.order) > maxLostSetSize {
		oldest := d.order[0]
		d.order = d.order[1:]
		delete(d.lost, oldest)
	}
}

func (d *Detector) removeFromOrderLocked(seq uint16) {
	for i, s := range d.order {
		if s == seq {
			d.order = append(d.order[:i], d.order[i+1:]...)

			return
		}
	}
}

// Tick advances the retry schedule against now, returning the sequences
// due for a retry NACK (retry delay doubled and attempt counted) and the
// sequences that exhausted maxRetries and were removed. Tests call this
// directly with synthetic timestamps; the background ticker goroutine
// calls it with time.Now().
func (d *Detector) Tick(now time.Time) (toNack, permanentlyLost []uint16) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for seq, entry := range d.lost {
		if now.Before(entry.nextRetry) {
			continue
		}

		if entry.attempts >= d.maxRetries {
			delete(d.lost, seq)
			d.removeFromOrderLocked(seq)
			permanentlyLost = append(permanentlyLost, seq)

			continue
		}

		entry.attempts++
		entry.delay *= 2
		entry.nextRetry = now.Add(entry.delay)
		toNack = append(toNack, seq)
	}

	return toNack, permanentlyLost
}

// Start launches the background goroutine that calls Tick once per
// interval and dispatches the results to onNack / onPermanentlyLost. It is
// a no-op if already started.
func (d *Detector) Start() {
	if d.ticker != nil {
		return
	}

	d.ticker = time.NewTicker(d.interval)
	go d.run()
}

func (d *Detector) run() {
	for {
		select {
		case <-d.done:
			return
		case now := <-d.ticker.C:
			toNack, lost := d.Tick(now)
			if len(toNack) > 0 && d.onNack != nil {
				d.onNack(toNack)
			}
			for _, seq := range lost {
				if d.onPermanentlyLost != nil {
					d.onPermanentlyLost(seq)
				}
			}
		}
	}
}

// Close halts the retry ticker; pending NACKs are dropped and the
// detector never emits again (§5 cancellation, §4.10).
func (d *Detector) Close() {
	d.once.Do(func() {
		close(d.done)
		if d.ticker != nil {
			d.ticker.Stop()
		}
	})
}

// LostLen reports how many sequences are currently tracked as lost, for
// tests and diagnostics.
func (d *Detector) LostLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.lost)
}
