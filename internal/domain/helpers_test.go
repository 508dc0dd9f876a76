package domain

import (
	"io"
	"log/slog"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func date(s string) time.Time {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return t
}

// neutralDay is a day with 2 m/s wind and 45% minimum humidity, for which the
// grass-reference climate adjustment is zero.
func neutralDay(s string, tmin, tmax float64) ClimateDay {
	d := date(s)
	return ClimateDay{
		ClimateRecord: ClimateRecord{Date: d, Tmin: tmin, Tmax: tmax, Wind: 2, RHMin: 45, RefET: 5},
		DOY:           d.YearDay(),
		TMean:         0.5 * (tmin + tmax),
		TMeanHist:     0.5 * (tmin + tmax),
	}
}

func dayOfYear(year, doy int) ClimateDay {
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	return neutralDay(d.Format(time.DateOnly), 5, 20)
}

func testOptions() Options {
	return Options{RefET: RefETGrass, LimitSeasonStart: true}
}

func fieldCrop() *CropParameters {
	c := &CropParameters{
		ClassNumber:        7,
		Name:               "Field Corn",
		CurveNumber:        12,
		CurveType:          CurveNormalizedCGDD,
		StartMethod:        StartByCGDD,
		StartThreshold:     300,
		GDDTriggerDOY:      1,
		CGDDForEFC:         500,
		CGDDForTermination: 1000,
		NCGDDForDev:        40,
		NCGDDForLate:       150,
		HeightInitial:      0.1,
		HeightMax:          2.5,
		WinterCover:        WinterCoverBare,
		IrrigationFlag:     1,
		KillingFrost:       -2,
	}
	c.Prepare(false)
	return c
}

func stateWithCoefficients(ini, mid, end float64) *CropCycleState {
	s := newCropCycleState()
	s.KcIni, s.KcMid, s.KcEnd = ini, mid, end
	s.InSeason = true
	return s
}
