package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// ErrUnknownCrop is returned when a cell lists a crop class with no parameters.
var ErrUnknownCrop = errors.New("crop class has no parameters")

// CellSimulator implements Simulator over static crop and curve tables shared
// read-only by every cell.
type CellSimulator struct {
	opts   domain.Options
	crops  map[int]*domain.CropParameters
	curves domain.CoefficientTable
	logger *slog.Logger
}

// NewCellSimulator creates a CellSimulator. crops must already be prepared
// and validated.
func NewCellSimulator(opts domain.Options, crops map[int]*domain.CropParameters, curves domain.CoefficientTable, logger *slog.Logger) *CellSimulator {
	return &CellSimulator{
		opts:   opts,
		crops:  crops,
		curves: curves,
		logger: logger,
	}
}

// Simulate preprocesses the cell's climate once and runs each of its crops
// in order.
func (cs *CellSimulator) Simulate(ctx context.Context, cell domain.Cell, records []domain.ClimateRecord) ([]domain.CropSeries, error) {
	climate, err := domain.PreprocessClimate(records)
	if err != nil {
		return nil, fmt.Errorf("preprocess climate for cell %s: %w", cell.ID, err)
	}

	logger := cs.logger.With("cell_id", cell.ID)
	out := make([]domain.CropSeries, 0, len(cell.Crops))
	for _, cc := range cell.Crops {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		crop, ok := cs.crops[cc.Class]
		if !ok {
			return nil, fmt.Errorf("cell %s crop %d: %w", cell.ID, cc.Class, ErrUnknownCrop)
		}
		series, err := SimulateCrop(cs.opts, cell, crop, cc.Crosswalk, cs.curves, climate, logger)
		if err != nil {
			return nil, fmt.Errorf("cell %s: %w", cell.ID, err)
		}
		logger.Debug("crop simulated", "crop", crop.ClassNumber, "days", len(series.Days))
		out = append(out, series)
	}
	return out, nil
}
