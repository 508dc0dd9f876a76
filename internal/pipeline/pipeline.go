package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/OuyangWenyu/et-demands/internal/domain"
	"github.com/OuyangWenyu/et-demands/internal/observability"
)

const (
	maxLoadAttempts = 3
	initialBackoff  = 200 * time.Millisecond
	maxBackoff      = 5 * time.Second
)

// CellExtractor lists the cells to simulate and reads each cell's climate.
type CellExtractor interface {
	Cells(ctx context.Context) ([]domain.Cell, error)
	Climate(ctx context.Context, cell domain.Cell) ([]domain.ClimateRecord, error)
}

// Simulator turns one cell's climate into a series per crop.
type Simulator interface {
	Simulate(ctx context.Context, cell domain.Cell, records []domain.ClimateRecord) ([]domain.CropSeries, error)
}

// BatchLoader writes the series of one cell to the destination.
type BatchLoader interface {
	LoadBatch(ctx context.Context, series []domain.CropSeries) error
}

// Pipeline orchestrates the extract-simulate-load run across cells.
type Pipeline struct {
	extractor CellExtractor
	simulator Simulator
	loader    BatchLoader
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
	workers   int

	total   atomic.Int64
	loaded  atomic.Int64
	failed  atomic.Int64
	running atomic.Bool
}

// Progress is a point-in-time view of a run.
type Progress struct {
	Running bool  `json:"running"`
	Cells   int64 `json:"cells"`
	Loaded  int64 `json:"loaded"`
	Failed  int64 `json:"failed"`
}

// New creates a Pipeline with the given stages and observability. Up to
// workers cells are processed concurrently.
func New(e CellExtractor, s Simulator, l BatchLoader, logger *slog.Logger, metrics *observability.Metrics, workers int) *Pipeline {
	return &Pipeline{
		extractor: e,
		simulator: s,
		loader:    l,
		logger:    logger,
		metrics:   metrics,
		workers:   max(1, workers),
	}
}

// CheckReadiness returns nil once at least one cell has been loaded.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not loaded any cells yet")
	}
	return nil
}

// Ready reports whether at least one cell has been loaded.
func (p *Pipeline) Ready() bool {
	return p.ready.Load()
}

// Progress reports how many cells the current or last run listed, loaded
// and failed.
func (p *Pipeline) Progress() Progress {
	return Progress{
		Running: p.running.Load(),
		Cells:   p.total.Load(),
		Loaded:  p.loaded.Load(),
		Failed:  p.failed.Load(),
	}
}

// Run simulates every cell once. The first cell that fails cancels the
// remaining work and its error is returned.
func (p *Pipeline) Run(ctx context.Context) error {
	p.logger.Info("pipeline started", "workers", p.workers)
	p.metrics.PipelineRunning.Set(1)
	p.running.Store(true)
	defer func() {
		p.metrics.PipelineRunning.Set(0)
		p.running.Store(false)
	}()

	cells, err := p.extractor.Cells(ctx)
	if err != nil {
		return fmt.Errorf("list cells: %w", err)
	}
	p.total.Store(int64(len(cells)))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for _, cell := range cells {
		g.Go(func() error {
			if err := p.processCell(gctx, cell); err != nil {
				p.metrics.SimulationErrors.Inc()
				p.failed.Add(1)
				p.logger.Error("cell failed", "cell_id", cell.ID, "error", err)
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	p.logger.Info("pipeline finished", "cells", len(cells))
	return nil
}

func (p *Pipeline) processCell(ctx context.Context, cell domain.Cell) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	start := time.Now()
	records, err := p.extractor.Climate(ctx, cell)
	if err != nil {
		return fmt.Errorf("extract climate for cell %s: %w", cell.ID, err)
	}
	p.metrics.CellDuration.WithLabelValues("extract").Observe(time.Since(start).Seconds())

	start = time.Now()
	series, err := p.simulator.Simulate(ctx, cell, records)
	if err != nil {
		return err
	}
	p.metrics.CellDuration.WithLabelValues("simulate").Observe(time.Since(start).Seconds())
	for _, s := range series {
		p.metrics.CropsSimulated.Inc()
		p.metrics.DaysSimulated.Add(float64(len(s.Days)))
		if s.LongtermFallback {
			p.metrics.LongtermFallbacks.Inc()
		}
	}

	start = time.Now()
	if err := p.loadWithRetry(ctx, series); err != nil {
		return fmt.Errorf("load cell %s: %w", cell.ID, err)
	}
	p.metrics.CellDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	p.metrics.SeriesLoaded.Add(float64(len(series)))
	p.metrics.CellsProcessed.Inc()
	p.loaded.Add(1)
	p.ready.Store(true)

	p.logger.Info("cell loaded", "cell_id", cell.ID, "crops", len(series), "days", len(records))
	return nil
}

// loadWithRetry retries transient sink failures with exponential backoff:
// start at 200ms, double each retry, cap at 5s.
func (p *Pipeline) loadWithRetry(ctx context.Context, series []domain.CropSeries) error {
	backoff := initialBackoff
	var err error
	for attempt := 1; attempt <= maxLoadAttempts; attempt++ {
		if err = p.loader.LoadBatch(ctx, series); err == nil {
			return nil
		}
		if attempt == maxLoadAttempts || ctx.Err() != nil {
			break
		}
		p.logger.Warn("load batch failed, retrying", "error", err, "attempt", attempt, "backoff", backoff)
		p.metrics.LoadRetries.Inc()
		if !sleepWithContext(ctx, backoff) {
			return ctx.Err()
		}
		backoff = nextBackoff(backoff, maxBackoff)
	}
	return err
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
