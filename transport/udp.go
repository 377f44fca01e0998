package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"kobuki-controller/kobuki"
)

const DefaultWriteTimeout = time.Second

// UDPSink sends each frame as one datagram to a fixed address
type UDPSink struct {
	mu     sync.Mutex
	log    kobuki.Logger
	conn   *net.UDPConn
	addr   *net.UDPAddr
	closed bool
}

// NewUDPSink resolves ip:port and opens an unconnected UDP socket
func NewUDPSink(ip string, port int, log kobuki.Logger) (*UDPSink, error) {
	if log == nil {
		log = kobuki.NopLogger{}
	}
	if net.ParseIP(ip) == nil {
		return nil, fmt.Errorf("invalid IPv4 address %q", ip)
	}

	addr, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s:%d: %w", ip, port, err)
	}

	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		log.Error("Fail to create socket: %v", err)
		return nil, fmt.Errorf("failed to create UDP socket: %w", err)
	}

	log.Info("Success to create socket - destination %s", addr)
	return &UDPSink{log: log, conn: conn, addr: addr}, nil
}

// Addr returns the destination address
func (s *UDPSink) Addr() *net.UDPAddr {
	return s.addr
}

func (s *UDPSink) Send(ctx context.Context, frame []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return net.ErrClosed
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	deadline := time.Now().Add(DefaultWriteTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := s.conn.SetWriteDeadline(deadline); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	n, err := s.conn.WriteToUDP(frame, s.addr)
	if err != nil {
		s.log.Error("Fail to send %s UDP message: %v", kobuki.KindOf(frame), err)
		return fmt.Errorf("sendto %s: %w", s.addr, err)
	}
	if n != len(frame) {
		return fmt.Errorf("sendto %s: short write %d of %d bytes", s.addr, n, len(frame))
	}

	s.log.Debug("Success to send UDP message (%d bytes)", n)
	return nil
}

func (s *UDPSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.conn.Close()
}
