package domain

import (
	"fmt"
	"log/slog"
	"math"
	"time"
)

const (
	// latestStartOffset days after the GDD trigger day no new season may start.
	latestStartOffset = 195
	// frostCheckOffset days after the GDD trigger day killing frosts are checked.
	frostCheckOffset  = 211
	longtermWindow    = 40
	maxSeasonLength   = 366
	warmTurfWinterKcb = 0.25
	winterSurfaceKcb  = 0.1
	tableSteps        = 10
)

// openWaterKcb holds the fixed coefficients for open water by reference type.
// Deep water has no basal coefficient; its evaporation needs an aerodynamic model.
var openWaterKcb = map[Role]map[RefETType]float64{
	RoleOpenWaterShallow: {RefETGrass: 1.05, RefETAlfalfa: 0.875},
	RoleStockPond:        {RefETGrass: 0.85, RefETAlfalfa: 0.7},
}

// StepKc advances the crop one day: it detects season start, computes the
// basal coefficient from the crop's curve, applies frost termination and the
// fixed coefficients of winter-surface and open-water classes. Days must be
// stepped in chronological order.
func StepKc(opts Options, cell Cell, crop *CropParameters, curves CoefficientTable, s *CropCycleState, day ClimateDay, logger *slog.Logger) error {
	if err := s.detectSeasonStart(opts, crop, day, logger); err != nil {
		return err
	}

	if s.InSeason && !crop.Role.IsOpenWater() {
		if !crop.Role.IsWinterSurface() {
			if err := s.stepCurve(crop, curves, day, logger); err != nil {
				return err
			}
		}
		s.checkFrost(cell, crop, day, logger)
	}

	s.KcBasPrev = s.KcBas

	switch {
	case crop.Role.IsWinterSurface():
		s.KcBas = winterSurfaceKcb
		s.KcBasPrev = s.KcBas
	case crop.Role.IsOpenWater():
		if err := opts.RefET.Validate(); err != nil {
			return err
		}
		if kc, ok := openWaterKcb[crop.Role][opts.RefET]; ok {
			s.KcBas = kc
		}
		s.KcAct = s.KcBas
		s.KcPot = s.KcBas
		s.EtcAct = s.KcAct * day.RefET
		s.EtcPot = s.KcPot * day.RefET
		s.EtcBas = s.KcBas * day.RefET
		s.KcBasPrev = s.KcBas
	}

	s.Height = max(s.Height, minCropHeight)

	if opts.RefET == RefETGrass && opts.AdjustKcbForClimate && !crop.Role.IsOpenWater() {
		s.KcBas += climateAdjustment(day, s.Height)
	}
	return nil
}

// climateAdjustment is the FAO-56 correction of a grass-reference
// coefficient for wind speed and minimum humidity other than 2 m/s and 45%.
func climateAdjustment(day ClimateDay, height float64) float64 {
	return (0.04*(day.Wind-2) - 0.004*(day.RHMin-45)) * math.Pow(height/3, 0.3)
}

func (s *CropCycleState) detectSeasonStart(opts Options, crop *CropParameters, day ClimateDay, logger *slog.Logger) error {
	switch crop.StartMethod {
	case StartByCGDD:
		if !s.InSeason && day.DOY < crop.GDDTriggerDOY+latestStartOffset {
			s.detectByThreshold(crop, day, s.CGDD, longtermWindow, false, logger)
		}
	case StartByT30:
		if !s.InSeason && day.DOY < crop.GDDTriggerDOY+latestStartOffset {
			s.detectByThreshold(crop, day, day.T30, opts.seasonWindow(), !opts.LimitSeasonStart, logger)
		}
	case StartByDate:
		if !s.InSeason {
			if doy := s.FixedStart.DOY(day.Date.Year()); day.DOY == doy {
				s.DOYStartCycle = doy
				s.InSeason = true
				s.DormantSetup = true
				s.SetupCrop(crop)
			}
		}
	case StartAlways:
		s.InSeason = true
		s.DormantSetup = true
	default:
		return fmt.Errorf("crop %d start method %d: %w", crop.ClassNumber, int(crop.StartMethod), ErrUnknownStartMethod)
	}
	return nil
}

// detectByThreshold implements the CGDD and T30 start rules. A season not
// confirmed more than window days after the long-term estimate is forced to
// start. A threshold crossing more than window days before the estimate is
// deferred to the estimate less 40 days, or to day 1 when deferToYearStart
// is set.
func (s *CropCycleState) detectByThreshold(crop *CropParameters, day ClimateDay, value float64, window int, deferToYearStart bool, logger *slog.Logger) {
	lt := s.LongtermStart
	if lt > 0 && day.DOY > lt+window && !s.RealStart {
		s.DOYStartCycle = day.DOY
		s.RealStart = true
		logger.Debug("season start forced past long-term estimate", "crop", crop.ClassNumber, "doy", day.DOY, "longterm_start", lt)
	}
	if !s.RealStart && value > crop.StartThreshold {
		if lt > 0 && day.DOY < lt-window {
			s.RealStart = false
			s.DOYStartCycle = lt - longtermWindow
			if deferToYearStart {
				s.DOYStartCycle = 1
			}
			if s.DOYStartCycle < 1 {
				s.DOYStartCycle += 365
			}
		} else {
			s.DOYStartCycle = day.DOY
			s.RealStart = true
		}
	}
	if day.DOY == s.DOYStartCycle {
		s.RealStart = true
		s.InSeason = true
		s.DormantSetup = true
		s.SetupCrop(crop)
		s.Cycle = 1
		if crop.StartOffsetDays < 0 {
			s.DOYStartCycle += crop.StartOffsetDays
			if s.DOYStartCycle < 1 {
				s.DOYStartCycle += 365
			}
		}
	}
}

func (s *CropCycleState) stepCurve(crop *CropParameters, curves CoefficientTable, day ClimateDay, logger *slog.Logger) error {
	switch crop.CurveType {
	case CurveNormalizedCGDD:
		s.stepNormalizedCGDD(crop, day)
	case CurvePercentTimeToEFC:
		s.stepPercentTime(crop, day)
	case CurveDaysAfterEFC:
		s.stepDaysAfterEFC(crop, day)
	case CurveTabulated:
		return s.stepTabulated(crop, curves, day, logger)
	default:
		return fmt.Errorf("crop %d curve type %d: %w", crop.ClassNumber, int(crop.CurveType), ErrUnknownCurveType)
	}
	return nil
}

// daysIntoSeason counts the start day as day 1, wrapping across the year end.
func (s *CropCycleState) daysIntoSeason(day ClimateDay) int {
	d := day.DOY - s.DOYStartCycle + 1
	if d < 1 {
		d += 365
	}
	return d
}

func (s *CropCycleState) stepNormalizedCGDD(crop *CropParameters, day ClimateDay) {
	if s.DOYStartCycle == day.DOY {
		s.CGDDAtPlanting = s.CGDD
	}
	inSeason := max(0, s.CGDD-s.CGDDAtPlanting)
	efc := crop.CGDDForEFC
	term := crop.CGDDForTermination
	dev := crop.NCGDDForDev / 100
	late := crop.NCGDDForLate / 100

	s.Cutting = false

	if crop.Role == RoleAlfalfaCycle {
		term = crop.CGDDForEFC
		if s.Cycle > 1 {
			efc = crop.CGDDForTermination
			term = crop.CGDDForTermination
		}
	}
	efc = nonZeroSpan(efc)

	s.NCGDD = inSeason / efc
	switch {
	case inSeason < efc:
		if s.NCGDD <= dev {
			s.KcBas = s.KcIni
		} else {
			s.KcBas = s.KcIni + (s.NCGDD-dev)*(s.KcMid-s.KcIni)/nonZeroSpan(1-dev)
		}
	case s.NCGDD < late:
		s.KcBas = s.KcMid
	case inSeason < term:
		s.KcBas = s.KcMid + (s.KcEnd-s.KcMid)/nonZeroSpan(term/efc-late)*(s.NCGDD-late)
	default:
		s.InSeason = false
		if crop.CuttingCrop {
			s.Cutting = true
			s.Cycle++
			s.InSeason = true
			s.CGDDAtPlanting = s.CGDD
			s.Height = s.HeightMin
			s.KcBas = s.KcIni
		}
	}

	if !crop.Harvest.ExtendUntilFrost && crop.Harvest.Days > 10 && float64(s.daysIntoSeason(day)) > crop.Harvest.Days {
		s.InSeason = false
	}
}

// rampToEFC is the shared pre-EFC portion of the percent-time curves.
func (s *CropCycleState) rampToEFC(crop *CropParameters, npl float64) {
	dev := crop.TimeForDevPct
	if npl <= dev {
		s.KcBas = s.KcIni
		return
	}
	s.KcBas = s.KcIni + (npl-dev)*(s.KcMid-s.KcIni)/nonZeroSpan(100-dev)
}

func (s *CropCycleState) stepPercentTime(crop *CropParameters, day ClimateDay) {
	days := float64(s.daysIntoSeason(day))
	s.NPLEC = days / max(crop.TimeForEFC, 1)
	npl := s.NPLEC * 100

	term := crop.Harvest.Days
	late := min(crop.TimeForLatePct, term)

	switch {
	case npl <= 100:
		s.rampToEFC(crop, npl)
	case npl <= term:
		if npl <= late {
			s.KcBas = s.KcMid
		} else {
			s.KcBas = s.KcMid + (s.KcEnd-s.KcMid)/nonZeroSpan(term-late)*(npl-late)
		}
	case crop.Harvest.ExtendUntilFrost:
		s.KcBas = s.KcEnd
	default:
		s.InSeason = false
	}
}

func (s *CropCycleState) stepDaysAfterEFC(crop *CropParameters, day ClimateDay) {
	days := float64(s.daysIntoSeason(day))
	efc := max(crop.TimeForEFC, 1)
	s.NPLEC = days / efc
	npl := s.NPLEC * 100

	term := crop.Harvest.Days
	late := min(crop.DaysAfterEFCLate, term)

	if s.NPLEC < 1 {
		s.rampToEFC(crop, npl)
		return
	}
	afterEFC := days - efc
	switch {
	case afterEFC <= term:
		if afterEFC <= late {
			s.KcBas = s.KcMid
		} else {
			s.KcBas = s.KcMid + (s.KcEnd-s.KcMid)/nonZeroSpan(term-late)*(afterEFC-late)
		}
	case crop.Harvest.ExtendUntilFrost:
		s.KcBas = s.KcBasPrev
	default:
		s.InSeason = false
	}
}

func (s *CropCycleState) stepTabulated(crop *CropParameters, curves CoefficientTable, day ClimateDay, logger *slog.Logger) error {
	curve, err := curves.Tabulated(crop.CurveNumber)
	if err != nil {
		return fmt.Errorf("crop %d: %w", crop.ClassNumber, err)
	}

	midsummer := crop.GDDTriggerDOY + latestStartOffset
	if s.DOYStartCycle >= midsummer {
		return fmt.Errorf("crop %d season start %d is not before day %d, check T30 or negative planting offset: %w",
			crop.ClassNumber, s.DOYStartCycle, midsummer, ErrSeasonLength)
	}
	length := 2 * (midsummer - s.DOYStartCycle)
	if length > maxSeasonLength {
		logger.Info("season length capped, not centered on mid-July", "crop", crop.ClassNumber, "length", length)
		length = maxSeasonLength
	}
	if crop.ClassNumber == cheatgrassClass {
		length = max(length, 60)
		if length > 90 {
			length = 100
		}
	}

	days := day.DOY - s.DOYStartCycle
	if days < 0 {
		days += 365
	}
	s.NPLEC = float64(days) / float64(length)
	if s.NPLEC > 1 {
		s.InSeason = false
		return nil
	}
	pos := s.NPLEC * tableSteps
	i := min(CurveTableLength-2, int(pos))
	s.KcBas = curve.Points[i] + (pos-float64(i))*(curve.Points[i+1]-curve.Points[i])
	return nil
}

// checkFrost ends the season on the first killing frost late in the year.
func (s *CropCycleState) checkFrost(cell Cell, crop *CropParameters, day ClimateDay, logger *slog.Logger) {
	if !s.InSeason || day.DOY <= crop.GDDTriggerDOY+frostCheckOffset {
		return
	}
	if day.Tmin < crop.KillingFrost && !crop.Role.IsWinterSurface() {
		logger.Info("killing frost ended season",
			"cell_id", cell.ID,
			"crop", crop.ClassNumber,
			"killing_frost_c", crop.KillingFrost,
			"doy", day.DOY,
			"year", day.Date.Year(),
		)
		s.InSeason = false
		return
	}
	if crop.Role == RoleAlfalfaCycle && crop.ClassNumber != alfalfaHayClass &&
		day.Date.Month() == time.December && day.Date.Day() == 31 {
		logger.Info("no killing frost this year", "cell_id", cell.ID, "crop", crop.ClassNumber, "year", day.Date.Year())
	}
}

// nonZeroSpan guards an interpolation denominator against a zero or
// inverted span.
func nonZeroSpan(v float64) float64 {
	if v <= 0 {
		return 1
	}
	return v
}
