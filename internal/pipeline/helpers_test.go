package pipeline_test

import (
	"context"
	"io"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/OuyangWenyu/et-demands/internal/domain"
	"github.com/OuyangWenyu/et-demands/internal/observability"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

// synthClimate builds a mid-latitude climate: mean temperature near -5 C in
// mid January and 25 C in mid July, with reference ET following the same cycle.
func synthClimate(start string, days int) []domain.ClimateRecord {
	d, err := time.Parse(time.DateOnly, start)
	if err != nil {
		panic(err)
	}
	out := make([]domain.ClimateRecord, days)
	for i := range out {
		day := d.AddDate(0, 0, i)
		phase := math.Cos(2 * math.Pi * float64(day.YearDay()-15) / 365)
		tmean := 10 - 15*phase
		out[i] = domain.ClimateRecord{
			Date:   day,
			Tmin:   tmean - 7,
			Tmax:   tmean + 7,
			Wind:   2,
			RHMin:  45,
			RefET:  math.Max(0.5, 3-2.5*phase),
			Precip: 1,
		}
	}
	return out
}

func tablePoints() []float64 {
	pts := make([]float64, domain.CurveTableLength)
	for i := range pts {
		x := math.Min(1, float64(i)/10)
		pts[i] = 0.2 + 0.8*math.Sin(math.Pi*x)
	}
	return pts
}

func testCurves() domain.CoefficientTable {
	return domain.CoefficientTable{
		3:  {Number: 3, Name: "Alfalfa", KcIni: 0.4, KcMid: 1.2, KcEnd: 1.0},
		12: {Number: 12, Name: "Field corn", KcIni: 0.15, KcMid: 1.15, KcEnd: 0.5},
		20: {Number: 20, Name: "Pasture", KcIni: 0.3, KcMid: 0.9, KcEnd: 0.8},
		40: {Number: 40, Name: "Range", Points: tablePoints()},
	}
}

func testCrops() map[int]*domain.CropParameters {
	crops := []*domain.CropParameters{
		{
			ClassNumber: 2, Name: "Alfalfa beef", CurveNumber: 3, CurveType: domain.CurveNormalizedCGDD,
			StartMethod: domain.StartByT30, StartThreshold: 8, GDDTriggerDOY: 1,
			CGDDForEFC: 400, CGDDForTermination: 700, NCGDDForDev: 10, NCGDDForLate: 100,
			HeightInitial: 0.1, HeightMax: 0.6, WinterCover: domain.WinterCoverSod,
			KillingFrost: -2, CuttingCrop: true,
		},
		{
			ClassNumber: 7, Name: "Field corn", CurveNumber: 12, CurveType: domain.CurveNormalizedCGDD,
			StartMethod: domain.StartByCGDD, StartThreshold: 300, GDDTriggerDOY: 1, TBase: 0,
			CGDDForEFC: 800, CGDDForTermination: 1600, NCGDDForDev: 30, NCGDDForLate: 150,
			HeightInitial: 0.1, HeightMax: 2.5, WinterCover: domain.WinterCoverBare, KillingFrost: -2,
			IrrigationFlag: 1,
		},
		{
			ClassNumber: 15, Name: "Pasture", CurveNumber: 20, CurveType: domain.CurvePercentTimeToEFC,
			StartMethod: domain.StartByDate, PlantingDate: 4.5, GDDTriggerDOY: 1,
			TimeForEFC: 40, TimeForHarvest: -300, TimeForDevPct: 30, TimeForLatePct: 200,
			HeightInitial: 0.1, HeightMax: 0.5, WinterCover: domain.WinterCoverSod, KillingFrost: -4,
		},
		{
			ClassNumber: 47, Name: "Cheatgrass", CurveNumber: 40, CurveType: domain.CurveTabulated,
			StartMethod: domain.StartByT30, StartThreshold: 8, GDDTriggerDOY: 1,
			HeightInitial: 0.05, HeightMax: 0.4, WinterCover: domain.WinterCoverMulch, KillingFrost: -5,
		},
		{ClassNumber: 55, Name: "Open water shallow", StartMethod: domain.StartAlways},
	}
	out := make(map[int]*domain.CropParameters, len(crops))
	for _, c := range crops {
		c.Prepare(true)
		out[c.ClassNumber] = c
	}
	return out
}

func testCell(id string) domain.Cell {
	return domain.Cell{
		ID:       id,
		Name:     "Basin " + id,
		Latitude: 41.5,
		Crops: []domain.CellCrop{
			{Class: 2, Crosswalk: []int{3}},
			{Class: 7, Crosswalk: []int{12}},
			{Class: 15, Crosswalk: []int{20}},
			{Class: 47, Crosswalk: []int{20}},
			{Class: 55},
		},
	}
}

// --- mocks ---

type mockExtractor struct {
	cells      []domain.Cell
	climate    []domain.ClimateRecord
	cellsErr   error
	climateErr map[string]error
}

func (m *mockExtractor) Cells(_ context.Context) ([]domain.Cell, error) {
	return m.cells, m.cellsErr
}

func (m *mockExtractor) Climate(_ context.Context, cell domain.Cell) ([]domain.ClimateRecord, error) {
	if err := m.climateErr[cell.ID]; err != nil {
		return nil, err
	}
	return m.climate, nil
}

type mockLoader struct {
	mu       sync.Mutex
	batches  [][]domain.CropSeries
	calls    int
	failures int
	err      error
}

func (m *mockLoader) LoadBatch(_ context.Context, series []domain.CropSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.calls <= m.failures {
		return m.err
	}
	m.batches = append(m.batches, series)
	return nil
}
