package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	commandChannel = "robot-controller:cmd"

	CommandStop = "stop"

	IPCRxRetryDelay = 500 * time.Millisecond
)

type IPCRx struct {
	log    *LeveledLogger
	redis  *redis.Client
	onStop func()
	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}

	commandSubscription *redis.PubSub
}

// NewIPCRx subscribes to the command channel. onStop is called for every
// stop request received.
func NewIPCRx(logger *LeveledLogger, redis *redis.Client, onStop func()) (*IPCRx, error) {
	ctx, cancel := context.WithCancel(context.Background())

	rx := &IPCRx{
		log:    logger,
		redis:  redis,
		onStop: onStop,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	if err := rx.setupSubscriptions(); err != nil {
		rx.Destroy()
		return nil, err
	}

	return rx, nil
}

func (rx *IPCRx) setupSubscriptions() error {
	rx.commandSubscription = rx.redis.Subscribe(rx.ctx, commandChannel)

	// Wait for the confirmation so no command published after setup is missed
	if _, err := rx.commandSubscription.Receive(rx.ctx); err != nil {
		close(rx.done)
		return fmt.Errorf("failed to subscribe to %s: %w", commandChannel, err)
	}

	go rx.handleCommandSubscription()

	return nil
}

func (rx *IPCRx) handleCommandSubscription() {
	defer close(rx.done)

	rx.log.Info("Starting command subscription handler")

	for {
		msg, err := rx.commandSubscription.Receive(rx.ctx)
		if err != nil {
			if rx.ctx.Err() != nil || errors.Is(err, redis.ErrClosed) {
				return
			}
			rx.log.Error("Command subscription error: %v", err)
			select {
			case <-rx.ctx.Done():
				return
			case <-time.After(IPCRxRetryDelay):
			}
			continue
		}

		switch m := msg.(type) {
		case *redis.Message:
			rx.log.Debug("Command message received: channel=%s, payload=%s", m.Channel, m.Payload)
			rx.handleCommand(m.Payload)

		case *redis.Subscription:
			rx.log.Debug("Command subscription event: %s %s", m.Channel, m.Kind)
		}
	}
}

func (rx *IPCRx) handleCommand(payload string) {
	switch strings.TrimSpace(strings.ToLower(payload)) {
	case CommandStop:
		rx.log.Info("Stop requested over redis")
		if rx.onStop != nil {
			rx.onStop()
		}
	default:
		rx.log.Warn("Ignoring unknown command: %q", payload)
	}
}

func (rx *IPCRx) Destroy() {
	rx.mu.Lock()
	defer rx.mu.Unlock()

	if rx.cancel != nil {
		rx.cancel()
	}

	if rx.commandSubscription != nil {
		rx.commandSubscription.Close()
		<-rx.done
		rx.commandSubscription = nil
	}
}
