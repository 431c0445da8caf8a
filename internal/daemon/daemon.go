package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"drivermon/internal/config"
	"drivermon/internal/fault"
	"drivermon/internal/logging"
	"drivermon/internal/messaging"
	"drivermon/internal/monitor"
	"drivermon/internal/params"
	"drivermon/internal/region"
	"drivermon/internal/settings"
)

// Transport carries envelopes between the bus and the loop.
type Transport interface {
	messaging.Source
	messaging.Publisher
	Run(ctx context.Context) error
}

type connectionReporter interface {
	Connected() bool
}

// Daemon coordinates the transport and the monitoring loop.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *params.Store
	transport Transport
	loop      *Loop
	lock      *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	started time.Time
	loopErr error
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	StartedAt    time.Time
	ParamsDBPath string
	LockFilePath string
	BusURL       string
	BusConnected bool
	LoopError    string
	Loop         Snapshot
}

// New constructs a daemon with its monitoring pipeline.
func New(ctx context.Context, cfg *config.Config, store *params.Store, logger *slog.Logger, transport Transport) (*Daemon, error) {
	if cfg == nil || store == nil || transport == nil {
		return nil, errors.New("daemon requires config, store, and transport")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	validator, err := messaging.NewValidator()
	if err != nil {
		return nil, fmt.Errorf("build schema validator: %w", err)
	}
	dataset, err := region.LoadDataset(cfg.Region.DatasetPath)
	if err != nil {
		return nil, err
	}
	initial, err := region.LoadStatus(ctx, store)
	if err != nil {
		logging.WarnWithContext(logger, "region status unavailable", "region_load_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "region is resolved from the next fix"),
		)
		initial = region.Status{}
	}

	policy := monitor.DefaultPolicy().WithOverrides(cfg.Monitor)
	agg := messaging.NewAggregator(transport, validator, messaging.InboundTopics(), logger)
	loop := NewLoop(LoopDeps{
		Aggregator: agg,
		Publisher:  transport,
		Settings:   settings.NewWatcher(store, cfg.ReloadInterval(), logger),
		Region:     region.NewResolver(initial, dataset.Classifier(), store, logger),
		Engine:     monitor.NewDriverStatus(policy),
		Policy:     policy,
		Logger:     logger,
	})

	return &Daemon{
		cfg:       cfg,
		logger:    logging.NewComponentLogger(logger, "daemon"),
		store:     store,
		transport: transport,
		loop:      loop,
		lock:      flock.New(cfg.LockPath()),
	}, nil
}

// Start begins background processing.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	locked, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire daemon lock: %w", err)
	}
	if !locked {
		return errors.New("another drivermon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.ctx = runCtx
	d.cancel = cancel
	d.started = time.Now()
	d.loopErr = nil
	d.running.Store(true)

	d.wg.Add(2)
	go func() {
		defer d.wg.Done()
		if err := d.transport.Run(runCtx); err != nil && runCtx.Err() == nil {
			d.logger.Error("transport stopped", logging.Error(err))
		}
	}()
	go func() {
		defer d.wg.Done()
		if err := d.loop.Run(runCtx); err != nil {
			d.logger.Error("monitoring loop stopped",
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the bus bridge connection"),
				logging.String("error_kind", fault.Kind(err)),
			)
			d.mu.Lock()
			d.loopErr = err
			d.mu.Unlock()
		}
	}()

	d.logger.Info("drivermon daemon started",
		logging.String(logging.FieldEventType, "daemon_start"),
		logging.String("lock_path", d.cfg.LockPath()),
		logging.String("params_db", d.store.Path()),
		logging.String("bus_url", d.cfg.Bus.URL),
	)
	return nil
}

// Stop halts background processing and releases the lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running.Load() {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	d.mu.Unlock()

	cancel()
	d.wg.Wait()

	d.mu.Lock()
	defer d.mu.Unlock()
	d.running.Store(false)
	d.cancel = nil
	d.ctx = nil
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock",
			logging.Error(err),
			logging.String(logging.FieldEventType, "daemon_lock_release_failed"),
			logging.String(logging.FieldErrorHint, "remove the stale lock file if the daemon does not restart"),
		)
	}
	d.logger.Info("drivermon daemon stopped", logging.String(logging.FieldEventType, "daemon_stop"))
}

// Close stops the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return nil
}

// Done is closed when the daemon context ends. It returns nil before Start.
func (d *Daemon) Done() <-chan struct{} {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.ctx == nil {
		return nil
	}
	return d.ctx.Done()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	d.mu.Lock()
	started := d.started
	loopErr := d.loopErr
	d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		StartedAt:    started,
		ParamsDBPath: d.store.Path(),
		LockFilePath: d.cfg.LockPath(),
		BusURL:       d.cfg.Bus.URL,
		Loop:         d.loop.Snapshot(),
	}
	if loopErr != nil {
		status.LoopError = loopErr.Error()
	}
	if reporter, ok := d.transport.(connectionReporter); ok {
		status.BusConnected = reporter.Connected()
	}
	return status
}
