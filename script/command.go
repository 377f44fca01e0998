package script

import (
	"fmt"
	"time"

	"kobuki-controller/kobuki"
)

// Kind identifies a script command variant
type Kind int

const (
	KindNone Kind = iota
	KindLed
	KindDrive
	KindSleep
)

func (k Kind) String() string {
	switch k {
	case KindLed:
		return "led"
	case KindDrive:
		return "speed"
	case KindSleep:
		return "sleep"
	default:
		return "none"
	}
}

// Command is one executable script line
type Command interface {
	Kind() Kind
	String() string
}

// NoneCommand does nothing when executed
type NoneCommand struct{}

func (NoneCommand) Kind() Kind     { return KindNone }
func (NoneCommand) String() string { return "None" }

// LedCommand sets one LED unit to a color. Unit and color are validated by the encoder.
type LedCommand struct {
	Unit  int
	Color kobuki.Color
}

func (LedCommand) Kind() Kind { return KindLed }

func (c LedCommand) String() string {
	return fmt.Sprintf("LED - led_num: %d, led_color: %s", c.Unit, c.Color)
}

// DriveCommand moves the base at SpeedMMs along RadiusMM for DurationMS
type DriveCommand struct {
	SpeedMMs   int
	RadiusMM   int
	DistanceMM int
	DurationMS int
}

func (DriveCommand) Kind() Kind { return KindDrive }

func (c DriveCommand) String() string {
	return fmt.Sprintf("Speed - speed: %dmm/s, radius: %dmm, distance: %dmm, move_time: %dms",
		c.SpeedMMs, c.RadiusMM, c.DistanceMM, c.DurationMS)
}

func (c DriveCommand) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// SleepCommand pauses the sequence
type SleepCommand struct {
	DurationMS int
}

func (SleepCommand) Kind() Kind { return KindSleep }

func (c SleepCommand) String() string {
	return fmt.Sprintf("Sleep - time: %dms", c.DurationMS)
}

func (c SleepCommand) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// Script is the ordered command list of one script file
type Script struct {
	Name     string
	Commands []Command
}

func (s *Script) Len() int {
	return len(s.Commands)
}

// Summary describes a parsed script
type Summary struct {
	Counts   map[Kind]int
	Planned  time.Duration
	Distance int // mm, absolute
}

// Summary counts commands by kind and adds up the time spent in drives and sleeps
func (s *Script) Summary() Summary {
	sum := Summary{Counts: make(map[Kind]int)}
	for _, cmd := range s.Commands {
		sum.Counts[cmd.Kind()]++
		switch c := cmd.(type) {
		case DriveCommand:
			sum.Planned += c.Duration()
			sum.Distance += abs(c.DistanceMM)
		case SleepCommand:
			sum.Planned += c.Duration()
		}
	}
	return sum
}
