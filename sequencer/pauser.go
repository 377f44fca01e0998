package sequencer

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
)

// ClockPauser waits on timers from a clock
type ClockPauser struct {
	clock clock.Clock
}

func NewClockPauser(c clock.Clock) *ClockPauser {
	if c == nil {
		c = clock.New()
	}
	return &ClockPauser{clock: c}
}

func (p *ClockPauser) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := p.clock.Timer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
