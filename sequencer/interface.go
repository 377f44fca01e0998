package sequencer

import (
	"context"
	"time"

	"kobuki-controller/kobuki"
	"kobuki-controller/script"
)

// Sink delivers frames to the robot
type Sink interface {
	// Send transmits one frame. Delivery is best effort; nothing is read back.
	Send(ctx context.Context, frame []byte) error

	// Close releases the underlying transport
	Close() error
}

// Pauser blocks for a duration or until ctx is done
type Pauser interface {
	Pause(ctx context.Context, d time.Duration) error
}

// Phase is the part of a run currently executing
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseStartup
	PhaseScript
	PhaseShutdown
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseStartup:
		return "starting"
	case PhaseScript:
		return "running"
	case PhaseShutdown:
		return "stopping"
	case PhaseDone:
		return "done"
	default:
		return "idle"
	}
}

// Observer is notified as a run progresses. Calls happen on the sequencer's goroutine.
type Observer interface {
	PhaseChanged(phase Phase)
	StepStarted(index int, cmd script.Command)
	FrameSent(kind kobuki.FrameKind, frame []byte, err error)
	LedStateChanged(state kobuki.LedState)
}

// NopObserver ignores all notifications
type NopObserver struct{}

func (NopObserver) PhaseChanged(Phase)                        {}
func (NopObserver) StepStarted(int, script.Command)           {}
func (NopObserver) FrameSent(kobuki.FrameKind, []byte, error) {}
func (NopObserver) LedStateChanged(kobuki.LedState)           {}

// Observers fans notifications out in order
type Observers []Observer

func (o Observers) PhaseChanged(phase Phase) {
	for _, obs := range o {
		obs.PhaseChanged(phase)
	}
}

func (o Observers) StepStarted(index int, cmd script.Command) {
	for _, obs := range o {
		obs.StepStarted(index, cmd)
	}
}

func (o Observers) FrameSent(kind kobuki.FrameKind, frame []byte, err error) {
	for _, obs := range o {
		obs.FrameSent(kind, frame, err)
	}
}

func (o Observers) LedStateChanged(state kobuki.LedState) {
	for _, obs := range o {
		obs.LedStateChanged(state)
	}
}
