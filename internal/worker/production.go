package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/taskfish-server/internal/config"
	"github.com/taskfish-server/internal/domain"
)

// ProductionSource computes the idle production report
type ProductionSource interface {
	Production(ctx context.Context) (domain.ProductionReport, error)
}

// ProductionSink receives production reports
type ProductionSink interface {
	BroadcastProduction(report domain.ProductionReport)
}

// ProductionTicker periodically pushes idle production to clients. It only
// reads state; accrual is derived from the upgrade schedule.
type ProductionTicker struct {
	source  ProductionSource
	sink    ProductionSink
	config  *config.ProductionConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewProductionTicker creates a new production ticker
func NewProductionTicker(
	source ProductionSource,
	sink ProductionSink,
	cfg *config.ProductionConfig,
	logger *slog.Logger,
) *ProductionTicker {
	return &ProductionTicker{
		source: source,
		sink:   sink,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background broadcast loop
func (w *ProductionTicker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("production ticker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background broadcast loop
func (w *ProductionTicker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("production ticker stopped")
	return nil
}

// run is the main worker loop
func (w *ProductionTicker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce computes and broadcasts a single report
func (w *ProductionTicker) RunOnce(ctx context.Context) {
	report, err := w.source.Production(ctx)
	if err != nil {
		w.logger.Error("failed to compute production", "error", err)
		return
	}

	w.sink.BroadcastProduction(report)
	w.logger.Debug("production broadcast",
		"elapsed_seconds", report.ElapsedSeconds,
		"current_power", report.CurrentPower,
		"accrued_points", report.AccruedPoints,
	)
}

// IsRunning returns whether the ticker is currently running
func (w *ProductionTicker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
