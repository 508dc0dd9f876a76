package domain

import (
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

const t30Window = 30

// ClimateRecord is one raw daily observation for a cell. Temperatures are in
// degrees C, wind is at 2 m in m/s, precipitation in mm and RefET in mm/day.
type ClimateRecord struct {
	Date   time.Time `json:"date"`
	Tmax   float64   `json:"tmax"`
	Tmin   float64   `json:"tmin"`
	Precip float64   `json:"ppt"`
	Wind   float64   `json:"wind"`
	RHMin  float64   `json:"rh_min"`
	RefET  float64   `json:"refet"`
}

// ClimateDay is a record augmented with the derived temperature quantities.
// The historic basis drives long-term phenology estimates; it currently
// mirrors the observed temperatures.
type ClimateDay struct {
	ClimateRecord
	DOY int

	TMean     float64
	T30       float64
	CGDD      float64
	TMeanHist float64
	T30Hist   float64
	CGDDHist  float64
}

// ClimateIndex holds long-term means by day of year. Index d holds the mean
// for day-of-year d; index 0 repeats day 1 so crossings can be detected
// without a special case at the start of the array.
type ClimateIndex struct {
	T30      []float64 `json:"t30"`
	CGDD     []float64 `json:"cgdd"`
	T30Hist  []float64 `json:"t30_hist"`
	CGDDHist []float64 `json:"cgdd_hist"`
}

// ClimateSeries is the preprocessed climate of one cell.
type ClimateSeries struct {
	Days  []ClimateDay
	Index ClimateIndex
}

// Records returns the raw observations the series was built from.
func (s *ClimateSeries) Records() []ClimateRecord {
	out := make([]ClimateRecord, len(s.Days))
	for i, d := range s.Days {
		out[i] = d.ClimateRecord
	}
	return out
}

// PreprocessClimate derives mean temperature, rolling 30-day mean and
// cumulative degree-days for every day, plus the long-term day-of-year
// index. Records must be contiguous calendar days in ascending order. It
// does not modify records, so calling it twice yields identical results.
func PreprocessClimate(records []ClimateRecord) (*ClimateSeries, error) {
	for i := 1; i < len(records); i++ {
		if !sameDay(records[i-1].Date.AddDate(0, 0, 1), records[i].Date) {
			return nil, fmt.Errorf("record %d (%s) after %s: %w", i,
				records[i].Date.Format(time.DateOnly), records[i-1].Date.Format(time.DateOnly), ErrNonContiguousClimate)
		}
	}

	days := make([]ClimateDay, len(records))
	tmean := make([]float64, len(records))
	for i, r := range records {
		tmean[i] = 0.5 * (r.Tmax + r.Tmin)
		days[i] = ClimateDay{ClimateRecord: r, DOY: r.Date.YearDay(), TMean: tmean[i], TMeanHist: tmean[i]}
	}

	t30 := rollingMean(tmean, t30Window)
	cgdd := cumulativeGDD(records, tmean)
	for i := range days {
		days[i].T30 = t30[i]
		days[i].T30Hist = t30[i]
		days[i].CGDD = cgdd[i]
		days[i].CGDDHist = cgdd[i]
	}

	return &ClimateSeries{
		Days: days,
		Index: ClimateIndex{
			T30:      longTermByDOY(days, func(d ClimateDay) float64 { return d.T30 }),
			CGDD:     longTermByDOY(days, func(d ClimateDay) float64 { return d.CGDD }),
			T30Hist:  longTermByDOY(days, func(d ClimateDay) float64 { return d.T30Hist }),
			CGDDHist: longTermByDOY(days, func(d ClimateDay) float64 { return d.CGDDHist }),
		},
	}, nil
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// rollingMean is a trailing window mean that uses however many values are
// available at the start of the series.
func rollingMean(vals []float64, window int) []float64 {
	out := make([]float64, len(vals))
	for i := range vals {
		lo := max(0, i-window+1)
		out[i] = stat.Mean(vals[lo:i+1], nil)
	}
	return out
}

// cumulativeGDD sums base-zero degree-days within each calendar year.
func cumulativeGDD(records []ClimateRecord, tmean []float64) []float64 {
	out := make([]float64, len(records))
	var sum float64
	for i, r := range records {
		if i > 0 && r.Date.Year() != records[i-1].Date.Year() {
			sum = 0
		}
		if tmean[i] > 0 {
			sum += tmean[i]
		}
		out[i] = sum
	}
	return out
}

// longTermByDOY averages a quantity over all years by day of year. Days of
// year that never occur take the preceding value.
func longTermByDOY(days []ClimateDay, field func(ClimateDay) float64) []float64 {
	if len(days) == 0 {
		return nil
	}
	maxDOY := 365
	buckets := make([][]float64, 367)
	for _, d := range days {
		buckets[d.DOY] = append(buckets[d.DOY], field(d))
		if d.DOY > maxDOY {
			maxDOY = d.DOY
		}
	}

	out := make([]float64, maxDOY+1)
	first := -1
	for doy := 1; doy <= maxDOY; doy++ {
		if len(buckets[doy]) > 0 {
			out[doy] = stat.Mean(buckets[doy], nil)
			if first < 0 {
				first = doy
			}
		} else if first > 0 {
			out[doy] = out[doy-1]
		}
	}
	for doy := 1; doy < first; doy++ {
		out[doy] = out[first]
	}
	out[0] = out[1]
	return out
}
