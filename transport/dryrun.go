package transport

import (
	"context"

	"kobuki-controller/kobuki"
)

// DryRunSink decodes and logs frames instead of sending them
type DryRunSink struct {
	log     kobuki.Logger
	decoder kobuki.Encoder
	Sent    int
}

func NewDryRunSink(decoder kobuki.Encoder, log kobuki.Logger) *DryRunSink {
	if log == nil {
		log = kobuki.NopLogger{}
	}
	return &DryRunSink{log: log, decoder: decoder}
}

func (s *DryRunSink) Send(ctx context.Context, frame []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	f, err := s.decoder.DecodeFrame(frame)
	if err != nil {
		s.log.Warn("Dry run: undecodable frame [% X]: %v", frame, err)
		return err
	}

	s.Sent++
	s.log.Info("Dry run: %s [% X]", f, frame)
	return nil
}

func (s *DryRunSink) Close() error {
	return nil
}
