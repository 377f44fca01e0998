package main

import (
	"context"
	"sync"

	"github.com/go-redis/redis/v8"
)

const (
	diagGroupName           = "robot-controller"
	diagFaultSetKey         = "robot-controller:fault"
	diagEventStream         = "events:faults"
	diagEventStreamMaxLen   = 1000
	diagNotificationChannel = "robot-controller"
)

type DiagFault uint32

const (
	DiagFaultNone DiagFault = iota
	DiagFaultTransport
	DiagFaultRunInterrupted
)

type DiagFaultConfig struct {
	Description string
}

var diagFaultConfigs = map[DiagFault]DiagFaultConfig{
	DiagFaultTransport:      {Description: "Frame transport send failure"},
	DiagFaultRunInterrupted: {Description: "Script run interrupted before completion"},
}

type Diag struct {
	log         *LeveledLogger
	redis       *redis.Client
	mu          sync.RWMutex
	faultStates map[DiagFault]bool
	ctx         context.Context
}

func NewDiag(logger *LeveledLogger, redis *redis.Client) *Diag {
	return &Diag{
		log:         logger,
		redis:       redis,
		faultStates: make(map[DiagFault]bool),
		ctx:         context.Background(),
	}
}

func (d *Diag) Destroy() {}

// FaultPresent reports whether fault is currently set
func (d *Diag) FaultPresent(fault DiagFault) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.faultStates[fault]
}

func (d *Diag) SetFaultPresence(fault DiagFault, present bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if fault == DiagFaultNone {
		return
	}

	wasPresent := d.faultStates[fault]
	if wasPresent == present {
		return
	}

	config, ok := diagFaultConfigs[fault]
	if !ok {
		d.log.Warn("Unknown fault code: %d", fault)
		return
	}

	d.faultStates[fault] = present

	if present {
		d.log.Warn("Fault set: code=%d, description=%s", fault, config.Description)
		d.reportFaultPresent(fault, config)
	} else {
		d.log.Info("Fault cleared: code=%d, description=%s", fault, config.Description)
		d.reportFaultAbsent(fault)
	}
}

func (d *Diag) reportFaultPresent(fault DiagFault, config DiagFaultConfig) {
	pipe := d.redis.Pipeline()

	pipe.SAdd(d.ctx, diagFaultSetKey, uint32(fault))

	pipe.XAdd(d.ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group":       diagGroupName,
			"code":        uint32(fault),
			"description": config.Description,
		},
	})

	pipe.Publish(d.ctx, diagNotificationChannel, "fault")

	if _, err := pipe.Exec(d.ctx); err != nil {
		d.log.Error("Failed to report fault present: %v", err)
	}
}

func (d *Diag) reportFaultAbsent(fault DiagFault) {
	pipe := d.redis.Pipeline()

	pipe.SRem(d.ctx, diagFaultSetKey, uint32(fault))

	pipe.XAdd(d.ctx, &redis.XAddArgs{
		Stream: diagEventStream,
		MaxLen: diagEventStreamMaxLen,
		Values: map[string]interface{}{
			"group": diagGroupName,
			"code":  -int32(fault),
		},
	})

	pipe.Publish(d.ctx, diagNotificationChannel, "fault")

	if _, err := pipe.Exec(d.ctx); err != nil {
		d.log.Error("Failed to report fault absent: %v", err)
	}
}
