package main

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
)

const (
	statusHashKey      = "robot-controller"
	statusChannelFmt   = "robot-controller %s"
	statusFieldRunID   = "run-id"
	statusFieldState   = "state"
	statusFieldScript  = "script"
	statusFieldStep    = "step"
	statusFieldCommand = "command"
	statusFieldLed     = "led"
	statusFieldSpeed   = "speed"
	statusFieldRadius  = "radius"
	statusFieldFrame   = "last-frame"
)

type IPCTx struct {
	log   *LeveledLogger
	redis *redis.Client
	mu    sync.Mutex
	ctx   context.Context
}

func NewIPCTx(logger *LeveledLogger, redis *redis.Client) *IPCTx {
	return &IPCTx{
		log:   logger,
		redis: redis,
		ctx:   context.Background(),
	}
}

func (tx *IPCTx) Destroy() {}

func (tx *IPCTx) SendRunState(data RedisRunState) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(tx.ctx, statusHashKey, map[string]interface{}{
		statusFieldRunID:  data.RunID,
		statusFieldState:  data.State,
		statusFieldScript: data.Script,
	})

	pipe.Publish(tx.ctx, fmt.Sprintf(statusChannelFmt, statusFieldState), data.State)

	if _, err := pipe.Exec(tx.ctx); err != nil {
		return fmt.Errorf("failed to send run state: %w", err)
	}

	return nil
}

func (tx *IPCTx) SendStep(data RedisStep) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(tx.ctx, statusHashKey,
		statusFieldStep, data.Index,
		statusFieldCommand, data.Command,
	)

	pipe.Publish(tx.ctx, fmt.Sprintf(statusChannelFmt, statusFieldStep), data.Index)

	if _, err := pipe.Exec(tx.ctx); err != nil {
		return fmt.Errorf("failed to send step: %w", err)
	}

	return nil
}

func (tx *IPCTx) SendLedState(data RedisLedState) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	pipe := tx.redis.Pipeline()

	pipe.HSet(tx.ctx, statusHashKey, statusFieldLed, data.Mask)
	pipe.Publish(tx.ctx, fmt.Sprintf(statusChannelFmt, statusFieldLed), data.Mask)

	if _, err := pipe.Exec(tx.ctx); err != nil {
		return fmt.Errorf("failed to send LED state: %w", err)
	}

	return nil
}

func (tx *IPCTx) SendDrive(data RedisDrive) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if err := tx.redis.HSet(tx.ctx, statusHashKey,
		statusFieldSpeed, data.Speed,
		statusFieldRadius, data.Radius,
	).Err(); err != nil {
		return fmt.Errorf("failed to send drive state: %w", err)
	}

	return nil
}

func (tx *IPCTx) SendLastFrame(data RedisLastFrame) error {
	tx.mu.Lock()
	defer tx.mu.Unlock()

	if err := tx.redis.HSet(tx.ctx, statusHashKey,
		statusFieldFrame, fmt.Sprintf("%s %s", data.Kind, data.Data),
	).Err(); err != nil {
		return fmt.Errorf("failed to send last frame: %w", err)
	}

	return nil
}
