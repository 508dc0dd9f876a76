package pipeline

import (
	"context"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// MultiLoader writes each batch to every loader in order, stopping at the
// first failure.
type MultiLoader []BatchLoader

func (m MultiLoader) LoadBatch(ctx context.Context, series []domain.CropSeries) error {
	for _, l := range m {
		if err := l.LoadBatch(ctx, series); err != nil {
			return err
		}
	}
	return nil
}
