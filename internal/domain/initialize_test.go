package domain

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCurves() CoefficientTable {
	points := make([]float64, CurveTableLength)
	for i := range points {
		points[i] = min(1.0, float64(i)*0.1)
	}
	return CoefficientTable{
		12: {Number: 12, Name: "Corn", KcIni: 0.15, KcMid: 1.0, KcEnd: 0.5},
		13: {Number: 13, Name: "Corn late", KcIni: 0.25, KcMid: 1.2, KcEnd: 0.3},
		40: {Number: 40, Name: "Range grass", Points: points},
		41: {Number: 41, Name: "Short table", Points: points[:10]},
	}
}

func TestLongtermStart(t *testing.T) {
	tests := []struct {
		name      string
		lt        []float64
		threshold float64
		want      int
		fallback  bool
	}{
		{"first upward crossing", []float64{1, 1, 2, 3, 5}, 2.5, 3, false},
		{"equal is not above", []float64{1, 1, 2.5, 2.5, 4}, 2.5, 4, false},
		{"never crosses", []float64{1, 1, 2, 2}, 10, 0, true},
		{"always above", []float64{5, 5, 6, 7}, 1, 0, true},
		{"empty", nil, 1, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, fallback := longtermStart(tt.lt, tt.threshold)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.fallback, fallback)
		})
	}
}

func TestFixedStartFrom(t *testing.T) {
	tests := []struct {
		name  string
		v     float64
		month time.Month
		day   int
	}{
		{"late April", 4.8333, time.April, 25},
		{"whole month is mid-month", 4, time.April, 15},
		{"half month", 5.5, time.May, 15},
		{"month zero is December", 0.5, time.December, 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fixedStartFrom(tt.v)
			assert.Equal(t, tt.month, got.Month)
			assert.Equal(t, tt.day, got.Day)
		})
	}
}

func TestFixedStartDOY(t *testing.T) {
	f := FixedStart{Month: time.March, Day: 1}
	assert.Equal(t, 60, f.DOY(2021))
	assert.Equal(t, 61, f.DOY(2020))
}

func TestInitializeCropCycle(t *testing.T) {
	index := ClimateIndex{CGDDHist: []float64{0, 0, 100, 250, 400, 600}}

	t.Run("resolves coefficients and long-term start", func(t *testing.T) {
		crop := fieldCrop()
		s, err := InitializeCropCycle(Cell{ID: "c1"}, crop, []int{12, 13}, testCurves(), index, discardLogger())
		require.NoError(t, err)

		assert.InDelta(t, 0.2, s.KcIni, 1e-9)
		assert.InDelta(t, 1.1, s.KcMid, 1e-9)
		assert.InDelta(t, 0.4, s.KcEnd, 1e-9)
		assert.Equal(t, 4, s.LongtermStart)
		assert.False(t, s.LongtermFallback)
		assert.Equal(t, 0.1, s.Height)
		assert.Equal(t, 0.1, s.HeightMin)
		assert.Equal(t, 2.5, s.HeightMax)
		assert.True(t, s.IrrigationOn)
		assert.Equal(t, 1, s.Cycle)
		assert.False(t, s.InSeason)
		assert.False(t, s.RealStart)
		assert.False(t, s.CropSetupPending)
		assert.False(t, s.DormantSetup)
	})

	t.Run("no curve means zero coefficients", func(t *testing.T) {
		crop := fieldCrop()
		crop.CurveNumber = 0
		crop.IrrigationFlag = 0
		s, err := InitializeCropCycle(Cell{ID: "c1"}, crop, []int{12}, testCurves(), index, discardLogger())
		require.NoError(t, err)
		assert.Zero(t, s.KcMid)
		assert.False(t, s.IrrigationOn)
	})

	t.Run("T30 method uses historic T30", func(t *testing.T) {
		crop := fieldCrop()
		crop.StartMethod = StartByT30
		crop.StartThreshold = 8
		idx := ClimateIndex{T30Hist: []float64{2, 2, 5, 9, 12}}
		s, err := InitializeCropCycle(Cell{ID: "c1"}, crop, []int{12}, testCurves(), idx, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, 3, s.LongtermStart)
	})

	t.Run("no crossing falls back and warns", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		crop := fieldCrop()
		crop.StartThreshold = 10000

		s, err := InitializeCropCycle(Cell{ID: "c9"}, crop, []int{12}, testCurves(), index, logger)
		require.NoError(t, err)
		assert.Zero(t, s.LongtermStart)
		assert.True(t, s.LongtermFallback)
		assert.Contains(t, buf.String(), "level=WARN")
		assert.Contains(t, buf.String(), "cell_id=c9")
	})

	t.Run("fixed date method resolves month and day", func(t *testing.T) {
		crop := fieldCrop()
		crop.StartMethod = StartByDate
		crop.PlantingDate = 4.8333
		s, err := InitializeCropCycle(Cell{ID: "c1"}, crop, []int{12}, testCurves(), index, discardLogger())
		require.NoError(t, err)
		assert.Equal(t, FixedStart{Month: time.April, Day: 25}, s.FixedStart)
		assert.Zero(t, s.LongtermStart)
	})

	t.Run("missing crosswalk curve", func(t *testing.T) {
		_, err := InitializeCropCycle(Cell{ID: "c1"}, fieldCrop(), []int{99}, testCurves(), index, discardLogger())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingCurve))
	})

	t.Run("tabulated curve must be complete", func(t *testing.T) {
		crop := fieldCrop()
		crop.CurveType = CurveTabulated
		crop.CurveNumber = 41
		_, err := InitializeCropCycle(Cell{ID: "c1"}, crop, []int{12}, testCurves(), index, discardLogger())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrMissingCurve))
	})

	t.Run("invalid parameters fail before the loop", func(t *testing.T) {
		crop := fieldCrop()
		crop.StartMethod = 9
		_, err := InitializeCropCycle(Cell{ID: "c1"}, crop, []int{12}, testCurves(), index, discardLogger())
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownStartMethod))
	})
}
