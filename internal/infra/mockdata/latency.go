package mockdata

import (
	"context"
	"math/rand/v2"
	"time"
)

// Latency is a simulated network delay drawn uniformly from [Min, Max].
// The zero value sleeps for nothing.
type Latency struct {
	Min time.Duration
	Max time.Duration
}

var (
	PPSRLatency   = Latency{Min: 500 * time.Millisecond, Max: 1500 * time.Millisecond}
	NEVDISLatency = Latency{Min: time.Second, Max: 2500 * time.Millisecond}
)

func (l Latency) duration() time.Duration {
	if l.Max <= 0 {
		return 0
	}
	if l.Max <= l.Min {
		return l.Min
	}
	return l.Min + rand.N(l.Max-l.Min)
}

// Wait sleeps for a random duration or until ctx is done.
func (l Latency) Wait(ctx context.Context) error {
	d := l.duration()
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
