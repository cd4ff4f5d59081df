package engine

import (
	"context"
	"time"
)

// Stepper advances simulated time by one step.
type Stepper interface {
	Step()
}

// Ticker drives a Stepper on a fixed wall-clock interval, standing in for
// the interactive loop's "one step per completed cycle" when the simulator
// runs unattended.
type Ticker struct {
	interval time.Duration
	target   Stepper
}

// NewTicker creates a Ticker. A non-positive interval disables it.
func NewTicker(interval time.Duration, target Stepper) *Ticker {
	return &Ticker{
		interval: interval,
		target:   target,
	}
}

// Enabled reports whether the ticker will step the target.
func (t *Ticker) Enabled() bool {
	return t.interval > 0 && t.target != nil
}

// Start launches a background goroutine that steps the target at the
// configured interval. It stops when ctx is cancelled.
func (t *Ticker) Start(ctx context.Context) {
	if !t.Enabled() {
		return
	}
	go func() {
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.target.Step()
			}
		}
	}()
}
