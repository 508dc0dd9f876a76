package domain

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

// InitializeCropCycle prepares the day-loop state for one crop in one cell.
// The long-term start estimate comes from the historic day-of-year index;
// when the index never crosses the start threshold the estimate falls back
// to 0 and the fallback is logged.
func InitializeCropCycle(cell Cell, crop *CropParameters, crosswalk []int, curves CoefficientTable, index ClimateIndex, logger *slog.Logger) (*CropCycleState, error) {
	if err := crop.Validate(); err != nil {
		return nil, fmt.Errorf("initialize crop %d: %w", crop.ClassNumber, err)
	}

	s := newCropCycleState()
	s.HeightMin = crop.HeightInitial
	s.HeightMax = crop.HeightMax
	s.Height = s.HeightMin
	s.IrrigationOn = crop.IrrigationFlag >= 1

	if crop.CurveNumber > 0 {
		ini, mid, end, err := curves.Resolve(crosswalk)
		if err != nil {
			return nil, fmt.Errorf("initialize crop %d: %w", crop.ClassNumber, err)
		}
		s.KcIni, s.KcMid, s.KcEnd = ini, mid, end
	}
	if crop.CurveType == CurveTabulated && !crop.Role.IsWinterSurface() && !crop.Role.IsOpenWater() {
		if _, err := curves.Tabulated(crop.CurveNumber); err != nil {
			return nil, fmt.Errorf("initialize crop %d: %w", crop.ClassNumber, err)
		}
	}

	switch crop.StartMethod {
	case StartByCGDD:
		s.LongtermStart, s.LongtermFallback = longtermStart(index.CGDDHist, crop.StartThreshold)
	case StartByT30:
		s.LongtermStart, s.LongtermFallback = longtermStart(index.T30Hist, crop.StartThreshold)
	case StartByDate:
		s.FixedStart = fixedStartFrom(crop.PlantingDate)
		if int(crop.PlantingDate) == 0 {
			logger.Info("planting month 0 treated as December", "cell_id", cell.ID, "crop", crop.ClassNumber)
		}
	}
	if s.LongtermFallback {
		logger.Warn("long-term climatology never crossed the season start threshold, using 0",
			"cell_id", cell.ID,
			"crop", crop.ClassNumber,
			"method", crop.StartMethod.String(),
			"threshold", crop.StartThreshold,
		)
	}

	s.SetupCrop(crop)
	return s, nil
}

// longtermStart returns one past the first index at which the long-term
// series goes from at-or-below to above the threshold.
func longtermStart(lt []float64, threshold float64) (int, bool) {
	for i := 0; i+1 < len(lt); i++ {
		if lt[i] <= threshold && lt[i+1] > threshold {
			return i + 1, false
		}
	}
	return 0, true
}

// fixedStartFrom converts a fractional month such as 4.8333 (April 25) to a
// month and day. A zero fraction means mid-month; month 0 means December.
func fixedStartFrom(v float64) FixedStart {
	month := int(v)
	day := int(math.RoundToEven((v - float64(month)) * 30.4))
	if day < 1 {
		day = 15
	}
	if month == 0 {
		month = 12
	}
	return FixedStart{Month: time.Month(month), Day: day}
}
