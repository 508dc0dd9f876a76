package climatecsv

import (
	"context"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// CellReader reads the climate records of a cell.
type CellReader interface {
	ReadCell(ctx context.Context, cell domain.Cell) ([]domain.ClimateRecord, error)
}

// Source pairs the static cell list with a climate reader.
// It implements pipeline.CellExtractor.
type Source struct {
	cells  []domain.Cell
	reader CellReader
}

// NewSource creates a Source over cells.
func NewSource(cells []domain.Cell, reader CellReader) *Source {
	return &Source{cells: cells, reader: reader}
}

func (s *Source) Cells(_ context.Context) ([]domain.Cell, error) {
	return s.cells, nil
}

func (s *Source) Climate(ctx context.Context, cell domain.Cell) ([]domain.ClimateRecord, error) {
	return s.reader.ReadCell(ctx, cell)
}
