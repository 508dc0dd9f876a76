package domain

import "time"

const (
	minCropHeight = 0.05
	// dormantKcb is the out-of-season basal coefficient of every winter
	// surface class.
	dormantKcb = 0.1
)

// dormantSetupKcb is the coefficient a crop drops to on the day its
// dormant period is set up.
var dormantSetupKcb = map[WinterCover]float64{
	WinterCoverBare:  0.1,
	WinterCoverMulch: 0.1,
	WinterCoverSod:   0.2,
}

// FixedStart is a calendar month and day resolved from a fractional month.
type FixedStart struct {
	Month time.Month
	Day   int
}

// DOY returns the day of year the fixed start falls on in year.
func (f FixedStart) DOY(year int) int {
	return time.Date(year, f.Month, f.Day, 0, 0, 0, 0, time.UTC).YearDay()
}

// CropCycleState is the mutable per-crop state carried from day to day.
type CropCycleState struct {
	CGDD           float64
	GDD            float64
	CGDDAtPlanting float64

	KcBas     float64
	KcBasPrev float64
	KcAct     float64
	KcPot     float64
	KcMax     float64
	KcMin     float64
	KcIni     float64
	KcMid     float64
	KcEnd     float64

	EtcAct float64
	EtcPot float64
	EtcBas float64

	Height    float64
	HeightMin float64
	HeightMax float64
	// CanopyCover is the fraction of ground covered by a winter surface.
	CanopyCover float64

	// NCGDD and NPLEC are the normalized progress values of the current curve.
	NCGDD float64
	NPLEC float64

	InSeason  bool
	Cycle     int
	Cutting   bool
	RealStart bool
	// DOYStartCycle is the detected or planned start of the current season.
	DOYStartCycle int
	// LongtermStart is the DOY a long-term climatology would start the season, or 0 if unknown.
	LongtermStart    int
	LongtermFallback bool
	FixedStart       FixedStart
	IrrigationOn     bool

	CropSetupPending bool
	DormantSetup     bool
}

func newCropCycleState() *CropCycleState {
	return &CropCycleState{
		Cycle:            1,
		CropSetupPending: true,
	}
}

// SetupCrop resets the canopy at the start of a growing season.
func (s *CropCycleState) SetupCrop(c *CropParameters) {
	s.HeightMin = c.HeightInitial
	s.HeightMax = c.HeightMax
	s.Height = s.HeightMin
	s.CropSetupPending = false
}

// SetupDormant switches the crop to its winter surface after a season ends.
// The winter table read by WinterKcb is not changed.
func (s *CropCycleState) SetupDormant(c *CropParameters) {
	if kc, ok := dormantSetupKcb[c.WinterCover]; ok {
		s.KcBas = kc
	}
	s.DormantSetup = false
	s.Cutting = false
}

// WinterKcb is the basal coefficient used outside the growing season.
func (s *CropCycleState) WinterKcb(w WinterCover) float64 {
	switch w {
	case WinterCoverBare, WinterCoverMulch, WinterCoverSod:
		return dormantKcb
	}
	return 0
}

// AccumulateGDD adds one day of growing degree-days above the crop's base
// temperature, restarting the sum on the crop's trigger day. Season start
// confirmation is cleared on the same day so each year is detected afresh.
func (s *CropCycleState) AccumulateGDD(c *CropParameters, day ClimateDay) {
	if day.DOY == c.GDDTriggerDOY {
		s.CGDD = 0
		s.RealStart = false
	}
	s.GDD = max(0, day.TMean-c.TBase)
	s.CGDD += s.GDD
}
