package kobuki

import "fmt"

const (
	// Frame header
	Header0 = 0xAA
	Header1 = 0x55

	// Payload lengths (sub-payload id + sub-payload length + data)
	PayloadLedLen   = 4
	PayloadDriveLen = 6

	// Sub-payload ids and lengths
	LedControlID   = 0x0C
	LedControlLen  = 2
	BaseControlID  = 0x01
	BaseControlLen = 4

	// Full frame sizes including the trailing checksum byte
	LedFrameSize   = 8
	DriveFrameSize = 10

	headerSize = 2
)

// LED unit numbers as written in scripts
const (
	LedUnit1 = 1
	LedUnit2 = 2
)

// Color is an LED color as written in scripts (0: off, 1: green, 2: red)
type Color int

const (
	ColorOff Color = iota
	ColorGreen
	ColorRed
)

func (c Color) String() string {
	switch c {
	case ColorOff:
		return "Off"
	case ColorGreen:
		return "Green"
	case ColorRed:
		return "Red"
	default:
		return fmt.Sprintf("Color(%d)", int(c))
	}
}

// Valid reports whether c is one of the colors the robot understands
func (c Color) Valid() bool {
	return c >= ColorOff && c <= ColorRed
}

// FrameKind identifies the sub-payload carried by a frame
type FrameKind int

const (
	FrameUnknown FrameKind = iota
	FrameLed
	FrameDrive
)

func (k FrameKind) String() string {
	switch k {
	case FrameLed:
		return "led"
	case FrameDrive:
		return "drive"
	default:
		return "unknown"
	}
}

// LED bit positions in the cumulative bitmask
const (
	led1RedBit   = 8
	led1GreenBit = 9
	led2RedBit   = 10
	led2GreenBit = 11
)

// LedState is the cumulative 16-bit LED bitmask sent in every LED frame.
// Each unit owns two bits; updating one unit never touches the other's bits.
type LedState uint16

// Apply returns the state after setting unit to color.
func (s LedState) Apply(unit int, color Color) (LedState, error) {
	var redBit, greenBit uint
	switch unit {
	case LedUnit1:
		redBit, greenBit = led1RedBit, led1GreenBit
	case LedUnit2:
		redBit, greenBit = led2RedBit, led2GreenBit
	default:
		return s, fmt.Errorf("%w: %d", ErrInvalidUnit, unit)
	}

	switch color {
	case ColorGreen:
		return s | 1<<greenBit, nil
	case ColorRed:
		return s | 1<<redBit, nil
	case ColorOff:
		return s &^ (1<<redBit | 1<<greenBit), nil
	default:
		return s, fmt.Errorf("%w: %d", ErrInvalidColor, int(color))
	}
}

// Unit returns the color bits currently set for unit as (green, red).
func (s LedState) Unit(unit int) (green bool, red bool) {
	switch unit {
	case LedUnit1:
		return s&(1<<led1GreenBit) != 0, s&(1<<led1RedBit) != 0
	case LedUnit2:
		return s&(1<<led2GreenBit) != 0, s&(1<<led2RedBit) != 0
	}
	return false, false
}

func (s LedState) String() string {
	return fmt.Sprintf("0x%04X", uint16(s))
}
