package transport

import (
	"context"

	"golang.org/x/time/rate"

	"kobuki-controller/kobuki"
)

// Sink is the transport contract shared with the sequencer
type Sink interface {
	Send(ctx context.Context, frame []byte) error
	Close() error
}

// RateLimitedSink spaces out sends with a token bucket
type RateLimitedSink struct {
	next    Sink
	limiter *rate.Limiter
}

// RateLimited wraps next so at most framesPerSecond frames are sent per second.
// A rate of 0 or less returns next unchanged.
func RateLimited(next Sink, framesPerSecond float64) Sink {
	if framesPerSecond <= 0 {
		return next
	}
	return &RateLimitedSink{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(framesPerSecond), 1),
	}
}

// Send waits for a token first. Safety frames take a token without waiting,
// so the bucket still accounts for them.
func (s *RateLimitedSink) Send(ctx context.Context, frame []byte) error {
	if kobuki.IsSafetyFrame(ctx) {
		s.limiter.Reserve()
		return s.next.Send(ctx, frame)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	return s.next.Send(ctx, frame)
}

func (s *RateLimitedSink) Close() error {
	return s.next.Close()
}
