package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/brutella/can"

	"kobuki-controller/kobuki"
)

const (
	// DefaultCANFrameID is the id used for frames to a CAN-attached base bridge
	DefaultCANFrameID = 0x0C1

	canMaxDataLength = 8
)

type framePublisher interface {
	Publish(frame can.Frame) error
}

// CANSink writes each robot frame to a CAN bus, split into 8-byte CAN frames
// sent back to back on the same id. The bridge reassembles them using the
// length byte of the robot frame.
type CANSink struct {
	mu        sync.Mutex
	log       kobuki.Logger
	bus       *can.Bus
	publisher framePublisher
	id        uint32
}

// NewCANSink opens the named interface and starts the bus
func NewCANSink(device string, id uint32, log kobuki.Logger) (*CANSink, error) {
	if log == nil {
		log = kobuki.NopLogger{}
	}

	bus, err := can.NewBusForInterfaceWithName(device)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize CAN bus %s: %w", device, err)
	}

	go func() {
		if err := bus.ConnectAndPublish(); err != nil {
			log.Error("CAN bus publish error: %v", err)
		}
	}()

	log.Info("CAN bus %s initialized, frame id 0x%03X", device, id)
	return &CANSink{log: log, bus: bus, publisher: bus, id: id}, nil
}

func newCANSinkWithPublisher(p framePublisher, id uint32, log kobuki.Logger) *CANSink {
	if log == nil {
		log = kobuki.NopLogger{}
	}
	return &CANSink{log: log, publisher: p, id: id}
}

func (s *CANSink) Send(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range SplitCANFrames(s.id, frame) {
		if err := ctx.Err(); err != nil {
			return err
		}
		s.log.Debug("CAN TX: ID=0x%03X Len=%d Data=[% X]", f.ID, f.Length, f.Data[:f.Length])
		if err := s.publisher.Publish(f); err != nil {
			return fmt.Errorf("failed to publish CAN frame: %w", err)
		}
	}
	return nil
}

func (s *CANSink) Close() error {
	if s.bus == nil {
		return nil
	}
	return s.bus.Disconnect()
}

// SplitCANFrames packs data into consecutive CAN frames of at most 8 bytes
func SplitCANFrames(id uint32, data []byte) []can.Frame {
	frames := make([]can.Frame, 0, (len(data)+canMaxDataLength-1)/canMaxDataLength)
	for start := 0; start < len(data); start += canMaxDataLength {
		end := start + canMaxDataLength
		if end > len(data) {
			end = len(data)
		}

		var frameData [8]byte
		copy(frameData[:], data[start:end])
		frames = append(frames, can.Frame{
			ID:     id,
			Length: uint8(end - start),
			Flags:  0,
			Data:   frameData,
		})
	}
	return frames
}
