package pacing

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Interval is a closed range of pause durations.
type Interval struct {
	Min time.Duration
	Max time.Duration
}

func Between(min, max time.Duration) Interval {
	return Interval{Min: min, Max: max}
}

func (i Interval) Contains(d time.Duration) bool {
	return d >= i.Min && d <= i.Max
}

// Pacer inserts human-looking pauses between browser actions.
type Pacer interface {
	Pause(ctx context.Context, interval Interval) error
	Pick(interval Interval) time.Duration
}

type RandomPacer struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomPacer() *RandomPacer {
	return &RandomPacer{
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Pick returns a uniformly jittered duration inside interval.
func (p *RandomPacer) Pick(interval Interval) time.Duration {
	if interval.Max <= interval.Min {
		return interval.Min
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	delta := interval.Max - interval.Min
	return interval.Min + time.Duration(p.rng.Int63n(int64(delta)+1))
}

func (p *RandomPacer) Pause(ctx context.Context, interval Interval) error {
	wait := p.Pick(interval)
	if wait <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Instant picks durations like RandomPacer but never sleeps. It records
// what it would have waited, which replay mode and tests rely on.
type Instant struct {
	picker *RandomPacer

	mu     sync.Mutex
	paused []time.Duration
}

func NewInstant() *Instant {
	return &Instant{picker: NewRandomPacer()}
}

func (p *Instant) Pick(interval Interval) time.Duration {
	return p.picker.Pick(interval)
}

func (p *Instant) Pause(ctx context.Context, interval Interval) error {
	wait := p.picker.Pick(interval)

	p.mu.Lock()
	p.paused = append(p.paused, wait)
	p.mu.Unlock()

	return ctx.Err()
}

func (p *Instant) Paused() []time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]time.Duration, len(p.paused))
	copy(out, p.paused)
	return out
}

func (p *Instant) Total() time.Duration {
	var total time.Duration
	for _, d := range p.Paused() {
		total += d
	}
	return total
}
