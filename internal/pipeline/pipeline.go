package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/water-utility-etl/internal/domain"
	"github.com/couchcryptid/water-utility-etl/internal/observability"
	"github.com/jonboulle/clockwork"
)

// Extractor reads the raw report into memory.
type Extractor interface {
	Extract(ctx context.Context) (domain.Table, error)
}

// Normalizer turns the raw report into the cleaned monthly table.
type Normalizer interface {
	Normalize(ctx context.Context, raw domain.Table) (domain.Result, error)
}

// Loader writes the cleaned table artifact. Implementations must replace the
// artifact atomically.
type Loader interface {
	Load(ctx context.Context, table domain.CleanedTable) error
}

// Publisher announces a freshly written cleaned table downstream.
type Publisher interface {
	Publish(ctx context.Context, table domain.CleanedTable) error
}

// Notifier receives every cleaned table the pipeline produces.
type Notifier interface {
	Update(table domain.CleanedTable)
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithPublisher publishes each cleaned table after it is written.
func WithPublisher(pub Publisher) Option {
	return func(p *Pipeline) { p.publisher = pub }
}

// WithNotifier hands each cleaned table to n after it is written.
func WithNotifier(n Notifier) Option {
	return func(p *Pipeline) { p.notifiers = append(p.notifiers, n) }
}

// WithInterval reruns the pipeline every d. Zero runs once.
func WithInterval(d time.Duration) Option {
	return func(p *Pipeline) { p.interval = d }
}

// WithClock replaces the real clock, for tests.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline orchestrates the extract-normalize-load run.
type Pipeline struct {
	extractor  Extractor
	normalizer Normalizer
	loader     Loader
	publisher  Publisher
	notifiers  []Notifier
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock
	interval   time.Duration
	ready      atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, n Normalizer, l Loader, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor:  e,
		normalizer: n,
		loader:     l,
		logger:     logger,
		metrics:    metrics,
		clock:      clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a cleaned table is available, or an error
// describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no cleaned table has been produced yet")
	}
	return nil
}

// Restore hands a previously written artifact to the notifiers and marks the
// pipeline ready, so the dashboard can serve before the first run finishes.
func (p *Pipeline) Restore(table domain.CleanedTable) {
	p.notify(table)
	p.ready.Store(true)
	p.logger.Info("restored cleaned table", "periods", table.Len())
}

// Run executes one run, then repeats on the configured interval until the
// context is cancelled. A configuration error stops the pipeline; other
// failures are logged and retried on the next tick.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "interval", p.interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	if err := p.runLogged(ctx); err != nil {
		var cfgErr *domain.ConfigurationError
		if p.interval <= 0 || errors.As(err, &cfgErr) {
			return err
		}
	}
	if p.interval <= 0 {
		return nil
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-ticker.Chan():
			if err := p.runLogged(ctx); err != nil {
				var cfgErr *domain.ConfigurationError
				if errors.As(err, &cfgErr) {
					return err
				}
			}
		}
	}
}

func (p *Pipeline) runLogged(ctx context.Context) error {
	if _, err := p.RunOnce(ctx); err != nil {
		if ctx.Err() != nil {
			return nil
		}
		p.logger.Error("pipeline run failed", "error", err)
		return err
	}
	return nil
}

// RunOnce performs a single extract-normalize-load cycle. Nothing is written
// unless normalization succeeds. A publish failure is logged and counted but
// does not fail the run: the artifact is already in place.
func (p *Pipeline) RunOnce(ctx context.Context) (domain.Result, error) {
	start := p.clock.Now()

	raw, err := p.extractor.Extract(ctx)
	if err != nil {
		p.metrics.Runs.WithLabelValues("failed").Inc()
		return domain.Result{}, fmt.Errorf("extract: %w", err)
	}

	res, err := p.normalizer.Normalize(ctx, raw)
	if err != nil {
		p.metrics.Runs.WithLabelValues("failed").Inc()
		return domain.Result{}, fmt.Errorf("normalize: %w", err)
	}

	if err := p.loader.Load(ctx, res.Table); err != nil {
		p.metrics.Runs.WithLabelValues("failed").Inc()
		return domain.Result{}, fmt.Errorf("load: %w", err)
	}
	p.ready.Store(true)

	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, res.Table); err != nil {
			p.logger.Error("publish cleaned table failed", "error", err, "periods", res.Table.Len())
			p.metrics.PublishErrors.Inc()
		} else {
			p.metrics.RowsPublished.Add(float64(res.Table.Len()))
		}
	}

	p.notify(res.Table)

	elapsed := p.clock.Since(start)
	p.metrics.Runs.WithLabelValues("success").Inc()
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.logger.Info("pipeline run complete",
		"rows_read", res.Stats.RowsRead,
		"rows_excluded", res.Stats.RowsExcluded,
		"rows_without_period", res.Stats.RowsWithoutPeriod,
		"periods", res.Stats.Periods,
		"diagnostics", len(res.Diagnostics),
		"duration", elapsed,
	)
	return res, nil
}

func (p *Pipeline) notify(table domain.CleanedTable) {
	for _, n := range p.notifiers {
		n.Update(table)
	}
}
