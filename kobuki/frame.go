package kobuki

import (
	"encoding/binary"
	"fmt"
)

// Encoder builds wire frames with a fixed checksum policy
type Encoder struct {
	Checksum ChecksumPolicy
}

// DefaultEncoder uses the XOR checksum
var DefaultEncoder = Encoder{Checksum: ChecksumXOR}

func NewEncoder(policy ChecksumPolicy) Encoder {
	return Encoder{Checksum: policy}
}

// EncodeLedFrame applies (unit, color) to state and returns the frame carrying the new mask.
// On error the state is returned unchanged and no frame is built.
func (e Encoder) EncodeLedFrame(state LedState, unit int, color Color) ([]byte, LedState, error) {
	next, err := state.Apply(unit, color)
	if err != nil {
		return nil, state, err
	}

	frame := make([]byte, LedFrameSize)
	frame[0] = Header0
	frame[1] = Header1
	frame[2] = PayloadLedLen
	frame[3] = LedControlID
	frame[4] = LedControlLen
	binary.LittleEndian.PutUint16(frame[5:7], uint16(next))
	frame[7] = e.Checksum.checksumFor(frame[:7])

	return frame, next, nil
}

// EncodeDriveFrame builds a base control frame. speed is mm/s, radius is mm.
func (e Encoder) EncodeDriveFrame(speed, radius int16) []byte {
	frame := make([]byte, DriveFrameSize)
	frame[0] = Header0
	frame[1] = Header1
	frame[2] = PayloadDriveLen
	frame[3] = BaseControlID
	frame[4] = BaseControlLen
	binary.LittleEndian.PutUint16(frame[5:7], uint16(speed))
	binary.LittleEndian.PutUint16(frame[7:9], uint16(radius))
	frame[9] = e.Checksum.checksumFor(frame[:9])

	return frame
}

// EncodeStopFrame is a drive frame with zero speed and radius
func (e Encoder) EncodeStopFrame() []byte {
	return e.EncodeDriveFrame(0, 0)
}

func EncodeLedFrame(state LedState, unit int, color Color) ([]byte, LedState, error) {
	return DefaultEncoder.EncodeLedFrame(state, unit, color)
}

func EncodeDriveFrame(speed, radius int16) []byte {
	return DefaultEncoder.EncodeDriveFrame(speed, radius)
}

// Frame is a decoded wire frame
type Frame struct {
	Kind     FrameKind
	Led      LedState
	Speed    int16
	Radius   int16
	Checksum byte
}

func (f Frame) String() string {
	switch f.Kind {
	case FrameLed:
		return fmt.Sprintf("led mask=%s", f.Led)
	case FrameDrive:
		return fmt.Sprintf("drive speed=%dmm/s radius=%dmm", f.Speed, f.Radius)
	default:
		return "unknown"
	}
}

// DecodeFrame parses a frame produced by an Encoder using the same checksum policy
func (e Encoder) DecodeFrame(data []byte) (Frame, error) {
	if len(data) < 5 {
		return Frame{}, ErrShortFrame
	}
	if data[0] != Header0 || data[1] != Header1 {
		return Frame{}, ErrBadHeader
	}

	payloadLen := int(data[2])
	// header(2) + length(1) + payload + checksum(1)
	if len(data) != payloadLen+4 {
		return Frame{}, fmt.Errorf("%w: length byte %d, frame %d bytes", ErrBadLength, payloadLen, len(data))
	}
	if int(data[4]) != payloadLen-2 {
		return Frame{}, fmt.Errorf("%w: sub-payload length %d", ErrBadLength, data[4])
	}
	if err := e.Checksum.VerifyChecksum(data); err != nil {
		return Frame{}, err
	}

	f := Frame{Checksum: data[len(data)-1]}
	switch data[3] {
	case LedControlID:
		if payloadLen != PayloadLedLen {
			return Frame{}, ErrBadLength
		}
		f.Kind = FrameLed
		f.Led = LedState(binary.LittleEndian.Uint16(data[5:7]))
	case BaseControlID:
		if payloadLen != PayloadDriveLen {
			return Frame{}, ErrBadLength
		}
		f.Kind = FrameDrive
		f.Speed = int16(binary.LittleEndian.Uint16(data[5:7]))
		f.Radius = int16(binary.LittleEndian.Uint16(data[7:9]))
	default:
		return Frame{}, fmt.Errorf("%w: 0x%02X", ErrUnknownPayload, data[3])
	}

	return f, nil
}

// KindOf reports the frame kind from the sub-payload id without validating the rest
func KindOf(frame []byte) FrameKind {
	if len(frame) < 4 {
		return FrameUnknown
	}
	switch frame[3] {
	case LedControlID:
		return FrameLed
	case BaseControlID:
		return FrameDrive
	}
	return FrameUnknown
}
