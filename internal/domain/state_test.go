package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestSetupDormant(t *testing.T) {
	tests := []struct {
		cover WinterCover
		kcb   float64
	}{
		{WinterCoverBare, 0.1},
		{WinterCoverMulch, 0.1},
		{WinterCoverSod, 0.2},
	}

	for _, tt := range tests {
		s := newCropCycleState()
		s.DormantSetup = true
		s.Cutting = true
		crop := fieldCrop()
		crop.WinterCover = tt.cover

		s.SetupDormant(crop)
		assert.Equal(t, tt.kcb, s.KcBas)
		assert.Equal(t, 0.1, s.WinterKcb(tt.cover), "winter table stays fixed")
		assert.False(t, s.DormantSetup)
		assert.False(t, s.Cutting)
	}
}

func TestSetupCrop(t *testing.T) {
	s := newCropCycleState()
	s.Height = 2
	s.SetupCrop(&CropParameters{HeightInitial: 0.3, HeightMax: 1.8})

	assert.Equal(t, 0.3, s.Height)
	assert.Equal(t, 0.3, s.HeightMin)
	assert.Equal(t, 1.8, s.HeightMax)
	assert.False(t, s.CropSetupPending)
}

func TestAccumulateGDD(t *testing.T) {
	crop := fieldCrop()
	crop.TBase = 5
	crop.GDDTriggerDOY = 1
	s := newCropCycleState()

	s.AccumulateGDD(crop, neutralDay("2021-12-30", 10, 20))
	assert.InDelta(t, 10.0, s.GDD, 1e-9)
	s.AccumulateGDD(crop, neutralDay("2021-12-31", 0, 6))
	assert.InDelta(t, 0.0, s.GDD, 1e-9)
	assert.InDelta(t, 10.0, s.CGDD, 1e-9)

	s.RealStart = true
	s.AccumulateGDD(crop, neutralDay("2022-01-01", 5, 9))
	assert.InDelta(t, 2.0, s.CGDD, 1e-9)
	assert.False(t, s.RealStart)
}

func TestRecordAndSeries(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	defer SetClock(nil)

	crop := fieldCrop()
	series := NewCropSeries(Cell{ID: "basin-7"}, crop, RefETGrass, 2)
	assert.Equal(t, "basin-7", series.CellID)
	assert.Equal(t, 7, series.CropClass)
	assert.Equal(t, fixed, series.ComputedAt)
	assert.Empty(t, series.Days)

	s := newCropCycleState()
	s.InSeason = true
	s.Cutting = true
	s.KcBas, s.KcAct = 0.8, 0.8
	s.EtcAct, s.EtcPot, s.EtcBas = 4, 4, 4
	out := s.Record(neutralDay("2021-06-01", 10, 20))

	assert.Equal(t, 152, out.DOY)
	assert.Equal(t, 1, out.Season)
	assert.Equal(t, 1, out.Cutting)
	assert.Equal(t, 5.0, out.RefET)
	assert.Equal(t, 4.0, out.EtBas)
}

func TestSetClock(t *testing.T) {
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	assert.Equal(t, fixed, clock.Now())

	SetClock(nil)
	assert.True(t, time.Since(clock.Now()) < time.Second)
}
