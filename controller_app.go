package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"kobuki-controller/kobuki"
	"kobuki-controller/script"
	"kobuki-controller/sequencer"
	"kobuki-controller/transport"
)

const (
	ControllerAppRedisConnectTimeout = 5 * time.Second

	runStateFailed = "failed"
)

type ControllerApp struct {
	log     *LeveledLogger
	opts    *Options
	redis   *redis.Client
	ipcRx   *IPCRx
	ipcTx   *IPCTx
	diag    *Diag
	metrics *Metrics
	encoder kobuki.Encoder
	sink    sequencer.Sink
	seq     *sequencer.Sequencer
	runID   string
	script  string

	mu            sync.Mutex
	cancelRun     context.CancelFunc
	stopRequested bool
}

// NewControllerApp opens the configured transport and, if enabled, redis
func NewControllerApp(opts *Options, logger *LeveledLogger) (*ControllerApp, error) {
	encoder := kobuki.NewEncoder(opts.Checksum)

	sink, err := newSink(opts, encoder, logger)
	if err != nil {
		return nil, err
	}

	app, err := newControllerApp(opts, logger, sink)
	if err != nil {
		sink.Close()
		return nil, err
	}
	return app, nil
}

func newSink(opts *Options, encoder kobuki.Encoder, logger *LeveledLogger) (sequencer.Sink, error) {
	var sink sequencer.Sink

	switch {
	case opts.DryRun:
		logger.Info("Dry run: frames are logged, not sent")
		sink = transport.NewDryRunSink(encoder, logger)

	case opts.Transport == TransportCAN:
		canSink, err := transport.NewCANSink(opts.CANDevice, opts.CANFrameID, logger)
		if err != nil {
			return nil, err
		}
		sink = canSink

	default:
		udpSink, err := transport.NewUDPSink(opts.IP, opts.Port, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create socket: %w", err)
		}
		logger.Info("Sending frames over UDP to %s", udpSink.Addr())
		sink = udpSink
	}

	if opts.MaxFrameRate > 0 {
		logger.Info("Limiting transmission to %g frames/s", opts.MaxFrameRate)
	}
	return transport.RateLimited(sink, opts.MaxFrameRate), nil
}

func newControllerApp(opts *Options, logger *LeveledLogger, sink sequencer.Sink) (*ControllerApp, error) {
	app := &ControllerApp{
		log:     logger,
		opts:    opts,
		encoder: kobuki.NewEncoder(opts.Checksum),
		sink:    sink,
		metrics: NewMetrics(),
		runID:   uuid.NewString(),
	}

	observers := sequencer.Observers{app.metrics}

	if opts.RedisServerAddr != "" {
		if err := app.connectRedis(); err != nil {
			return nil, err
		}

		app.ipcTx = NewIPCTx(app.log, app.redis)
		app.log.Info("IPC TX component initialized")

		app.diag = NewDiag(app.log, app.redis)
		app.log.Info("Diagnostics component initialized")

		ipcRx, err := NewIPCRx(app.log, app.redis, app.Stop)
		if err != nil {
			app.redis.Close()
			return nil, fmt.Errorf("failed to initialize IPC RX: %w", err)
		}
		app.ipcRx = ipcRx
		app.log.Info("IPC RX component initialized")

		observers = append(observers, &statusObserver{app: app})
	}

	app.seq = sequencer.New(sink, sequencer.Config{
		Encoder:      app.encoder,
		StartupPause: opts.StartupPause,
		Logger:       app.log,
		Observer:     observers,
	})

	app.log.Info("Controller initialized, run id %s", app.runID)
	return app, nil
}

func (app *ControllerApp) connectRedis() error {
	addr := fmt.Sprintf("%s:%d", app.opts.RedisServerAddr, app.opts.RedisServerPort)

	app.redis = redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), ControllerAppRedisConnectTimeout)
	defer cancel()

	app.log.Info("Connecting to Redis at %s...", addr)
	if err := app.redis.Ping(ctx).Err(); err != nil {
		app.redis.Close()
		app.redis = nil
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.log.Info("Successfully connected to Redis")
	return nil
}

// RunID identifies this run in the published status
func (app *ControllerApp) RunID() string {
	return app.runID
}

// Metrics returns the run metrics
func (app *ControllerApp) Metrics() *Metrics {
	return app.metrics
}

// Run executes sc once. The robot is always left with LEDs off and the base
// stopped, also when ctx is cancelled or Stop is called.
func (app *ControllerApp) Run(ctx context.Context, sc *script.Script) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.mu.Lock()
	app.cancelRun = cancel
	app.script = sc.Name
	if app.stopRequested {
		cancel()
	}
	app.mu.Unlock()

	summary := sc.Summary()
	app.log.Info("Running %s: %d commands, planned %s, %d mm",
		sc.Name, sc.Len(), summary.Planned, summary.Distance)

	err := app.seq.Run(runCtx, sc)

	if app.diag != nil {
		app.diag.SetFaultPresence(DiagFaultRunInterrupted, err != nil)
	}
	if err != nil && !errors.Is(err, context.Canceled) && app.ipcTx != nil {
		if txErr := app.ipcTx.SendRunState(RedisRunState{RunID: app.runID, State: runStateFailed, Script: sc.Name}); txErr != nil {
			app.log.Error("%v", txErr)
		}
	}

	if app.opts.MetricsFile != "" {
		if mErr := app.metrics.WriteTextfile(app.opts.MetricsFile); mErr != nil {
			app.log.Error("Failed to write metrics to %s: %v", app.opts.MetricsFile, mErr)
		} else {
			app.log.Info("Metrics written to %s", app.opts.MetricsFile)
		}
	}

	return err
}

// Stop cancels the current run, or the next one if none has started
func (app *ControllerApp) Stop() {
	app.mu.Lock()
	defer app.mu.Unlock()

	app.stopRequested = true
	if app.cancelRun != nil {
		app.cancelRun()
	}
}

func (app *ControllerApp) Destroy() {
	app.log.Info("Shutting down controller...")

	if app.ipcRx != nil {
		app.ipcRx.Destroy()
		app.log.Info("IPC RX shutdown complete")
	}

	if app.sink != nil {
		if err := app.sink.Close(); err != nil {
			app.log.Error("Error closing transport: %v", err)
		} else {
			app.log.Info("Transport closed")
		}
	}

	if app.diag != nil {
		app.diag.Destroy()
	}

	if app.ipcTx != nil {
		app.ipcTx.Destroy()
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.log.Error("Error closing Redis connection: %v", err)
		} else {
			app.log.Info("Redis connection closed")
		}
	}

	app.log.Info("Controller shutdown complete")
}

// statusObserver mirrors sequencer progress into redis
type statusObserver struct {
	app *ControllerApp
}

func (o *statusObserver) PhaseChanged(phase sequencer.Phase) {
	app := o.app
	app.mu.Lock()
	name := app.script
	app.mu.Unlock()

	if err := app.ipcTx.SendRunState(RedisRunState{RunID: app.runID, State: phase.String(), Script: name}); err != nil {
		app.log.Error("%v", err)
	}
}

func (o *statusObserver) StepStarted(index int, cmd script.Command) {
	if err := o.app.ipcTx.SendStep(RedisStep{Index: index, Command: cmd.String()}); err != nil {
		o.app.log.Error("%v", err)
	}
}

func (o *statusObserver) FrameSent(kind kobuki.FrameKind, frame []byte, err error) {
	app := o.app
	app.diag.SetFaultPresence(DiagFaultTransport, err != nil)
	if err != nil {
		return
	}

	if txErr := app.ipcTx.SendLastFrame(RedisLastFrame{Kind: kind.String(), Data: fmt.Sprintf("%X", frame)}); txErr != nil {
		app.log.Error("%v", txErr)
	}

	if kind != kobuki.FrameDrive {
		return
	}
	f, decErr := app.encoder.DecodeFrame(frame)
	if decErr != nil {
		app.log.Warn("Sent drive frame does not decode: %v", decErr)
		return
	}
	if txErr := app.ipcTx.SendDrive(RedisDrive{Speed: int(f.Speed), Radius: int(f.Radius)}); txErr != nil {
		app.log.Error("%v", txErr)
	}
}

func (o *statusObserver) LedStateChanged(state kobuki.LedState) {
	if err := o.app.ipcTx.SendLedState(RedisLedState{Mask: state.String()}); err != nil {
		o.app.log.Error("%v", err)
	}
}

var _ sequencer.Observer = (*statusObserver)(nil)
