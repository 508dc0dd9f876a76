package pipeline

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// SimulateCrop runs one crop through every day of a cell's preprocessed
// climate and returns the daily output. Parameter errors are reported before
// the first day is stepped.
func SimulateCrop(opts domain.Options, cell domain.Cell, crop *domain.CropParameters, crosswalk []int,
	curves domain.CoefficientTable, climate *domain.ClimateSeries, logger *slog.Logger,
) (domain.CropSeries, error) {
	if err := opts.RefET.Validate(); err != nil {
		return domain.CropSeries{}, err
	}
	s, err := domain.InitializeCropCycle(cell, crop, crosswalk, curves, climate.Index, logger)
	if err != nil {
		return domain.CropSeries{}, err
	}

	series := domain.NewCropSeries(cell, crop, opts.RefET, len(climate.Days))
	series.LongtermFallback = s.LongtermFallback

	for _, day := range climate.Days {
		if !s.InSeason && s.CropSetupPending {
			s.SetupCrop(crop)
		}
		if !s.InSeason && s.DormantSetup {
			s.SetupDormant(crop)
		}
		s.AccumulateGDD(crop, day)

		if err := domain.StepKc(opts, cell, crop, curves, s, day, logger); err != nil {
			return domain.CropSeries{}, fmt.Errorf("step crop %d on %s: %w", crop.ClassNumber, day.Date.Format(time.DateOnly), err)
		}
		if err := domain.EvaluateET(opts, cell, crop, s, day); err != nil {
			return domain.CropSeries{}, fmt.Errorf("evaluate crop %d on %s: %w", crop.ClassNumber, day.Date.Format(time.DateOnly), err)
		}
		series.Days = append(series.Days, s.Record(day))
	}
	return series, nil
}
