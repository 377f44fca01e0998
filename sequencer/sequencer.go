package sequencer

import (
	"context"
	"time"

	"kobuki-controller/kobuki"
	"kobuki-controller/script"
)

const (
	DefaultStartupPause    = time.Second
	DefaultShutdownTimeout = 2 * time.Second
)

// Config contains configuration for the sequencer
type Config struct {
	Encoder         kobuki.Encoder
	StartupPause    time.Duration
	ShutdownTimeout time.Duration
	Logger          kobuki.Logger
	Pauser          Pauser
	Observer        Observer
}

// Sequencer executes a script against a sink, one command at a time.
// It owns the cumulative LED state for the lifetime of the robot connection.
type Sequencer struct {
	sink     Sink
	encoder  kobuki.Encoder
	log      kobuki.Logger
	pauser   Pauser
	observer Observer
	ledState kobuki.LedState

	startupPause    time.Duration
	shutdownTimeout time.Duration
}

func New(sink Sink, config Config) *Sequencer {
	s := &Sequencer{
		sink:            sink,
		encoder:         config.Encoder,
		log:             config.Logger,
		pauser:          config.Pauser,
		observer:        config.Observer,
		startupPause:    config.StartupPause,
		shutdownTimeout: config.ShutdownTimeout,
	}
	if s.log == nil {
		s.log = kobuki.NopLogger{}
	}
	if s.pauser == nil {
		s.pauser = NewClockPauser(nil)
	}
	if s.observer == nil {
		s.observer = NopObserver{}
	}
	if s.shutdownTimeout <= 0 {
		s.shutdownTimeout = DefaultShutdownTimeout
	}
	return s
}

// LedState returns the tracked cumulative LED mask
func (s *Sequencer) LedState() kobuki.LedState {
	return s.ledState
}

// Run performs the ready indication, executes the script and always finishes
// with LEDs off and the base stopped, even when ctx is cancelled.
func (s *Sequencer) Run(ctx context.Context, sc *script.Script) error {
	defer s.Shutdown(ctx)

	if err := s.Startup(ctx); err != nil {
		return err
	}
	return s.Execute(ctx, sc.Commands)
}

// Startup stops the base and blinks both LEDs off, red, then green
func (s *Sequencer) Startup(ctx context.Context) error {
	s.observer.PhaseChanged(PhaseStartup)
	s.log.Info("Running startup indication")

	s.stop(ctx)
	s.setLed(ctx, kobuki.LedUnit1, kobuki.ColorOff)
	s.setLed(ctx, kobuki.LedUnit2, kobuki.ColorOff)
	if err := s.pauser.Pause(ctx, s.startupPause); err != nil {
		return err
	}

	s.setLed(ctx, kobuki.LedUnit1, kobuki.ColorRed)
	if err := s.pauser.Pause(ctx, s.startupPause); err != nil {
		return err
	}

	s.setLed(ctx, kobuki.LedUnit2, kobuki.ColorRed)
	if err := s.pauser.Pause(ctx, s.startupPause); err != nil {
		return err
	}

	s.setLed(ctx, kobuki.LedUnit1, kobuki.ColorGreen)
	s.setLed(ctx, kobuki.LedUnit2, kobuki.ColorGreen)
	return s.pauser.Pause(ctx, s.startupPause)
}

// Execute runs cmds strictly in order. Send failures and invalid LED values are
// logged and skipped; only cancellation ends the run early.
func (s *Sequencer) Execute(ctx context.Context, cmds []script.Command) error {
	s.observer.PhaseChanged(PhaseScript)
	s.log.Info("Executing %d script commands", len(cmds))

	for i, cmd := range cmds {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.observer.StepStarted(i, cmd)
		s.log.Debug("#%d: %s", i, cmd)

		switch c := cmd.(type) {
		case script.LedCommand:
			s.setLed(ctx, c.Unit, c.Color)

		case script.SleepCommand:
			if err := s.pauser.Pause(ctx, c.Duration()); err != nil {
				return err
			}

		case script.DriveCommand:
			if err := s.drive(ctx, c); err != nil {
				return err
			}

		default:
			// NoneCommand and anything unknown
			continue
		}
	}

	return nil
}

// Shutdown turns both LEDs off and stops the base. It uses its own bounded
// context so it still runs after ctx has been cancelled.
func (s *Sequencer) Shutdown(ctx context.Context) {
	s.observer.PhaseChanged(PhaseShutdown)
	s.log.Info("Shutting down: LEDs off, base stopped")

	sctx, cancel := s.safetyContext(ctx)
	defer cancel()

	s.setLed(sctx, kobuki.LedUnit1, kobuki.ColorOff)
	s.setLed(sctx, kobuki.LedUnit2, kobuki.ColorOff)
	s.stop(sctx)

	s.observer.PhaseChanged(PhaseDone)
}

// drive sends the move, waits out the move time and always sends a stop frame
func (s *Sequencer) drive(ctx context.Context, c script.DriveCommand) error {
	s.log.Info("Start to write speed control message - speed: %d, radius: %d", c.SpeedMMs, c.RadiusMM)
	s.send(ctx, kobuki.FrameDrive, s.encoder.EncodeDriveFrame(int16(c.SpeedMMs), int16(c.RadiusMM)))

	err := s.pauser.Pause(ctx, c.Duration())

	sctx, cancel := s.safetyContext(ctx)
	defer cancel()
	s.stop(sctx)

	return err
}

// safetyContext survives cancellation of ctx, is bounded by the shutdown
// timeout and lets the frame bypass transport pacing
func (s *Sequencer) safetyContext(ctx context.Context) (context.Context, context.CancelFunc) {
	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
	return kobuki.WithSafetyFrame(sctx), cancel
}

func (s *Sequencer) stop(ctx context.Context) {
	s.send(ctx, kobuki.FrameDrive, s.encoder.EncodeStopFrame())
}

// setLed updates the cumulative LED state and sends it. The state is kept
// even if the send fails.
func (s *Sequencer) setLed(ctx context.Context, unit int, color kobuki.Color) {
	s.log.Info("Start to write led control message - led_num: %d, color: %s", unit, color)

	frame, next, err := s.encoder.EncodeLedFrame(s.ledState, unit, color)
	if err != nil {
		s.log.Error("Fail to write led control message: %v", err)
		return
	}

	if next != s.ledState {
		s.ledState = next
		s.observer.LedStateChanged(next)
	}
	green, red := next.Unit(unit)
	s.log.Debug("LED %d now green=%t red=%t (mask %s)", unit, green, red, next)
	s.send(ctx, kobuki.FrameLed, frame)
}

func (s *Sequencer) send(ctx context.Context, kind kobuki.FrameKind, frame []byte) error {
	kobuki.LogFrame(s.log, "TX", kind, frame)

	err := s.sink.Send(ctx, frame)
	s.observer.FrameSent(kind, frame, err)
	if err != nil {
		s.log.Error("Fail to send %s control message: %v", kind, err)
		return err
	}

	s.log.Debug("Success to send %s control message", kind)
	return nil
}
