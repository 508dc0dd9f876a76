package domain

import "time"

// DailyOutput is one simulated day for one crop.
type DailyOutput struct {
	Date    time.Time `json:"date" msgpack:"date"`
	DOY     int       `json:"doy" msgpack:"doy"`
	RefET   float64   `json:"etref" msgpack:"etref"`
	EtAct   float64   `json:"et_act" msgpack:"et_act"`
	EtPot   float64   `json:"et_pot" msgpack:"et_pot"`
	EtBas   float64   `json:"et_bas" msgpack:"et_bas"`
	KcAct   float64   `json:"kc_act" msgpack:"kc_act"`
	KcBas   float64   `json:"kc_bas" msgpack:"kc_bas"`
	Season  int       `json:"season" msgpack:"season"`
	Cutting int       `json:"cutting" msgpack:"cutting"`
}

// CropSeries is the full daily output of one crop in one cell.
type CropSeries struct {
	CellID     string    `json:"cell_id" msgpack:"cell_id"`
	CropClass  int       `json:"crop_class" msgpack:"crop_class"`
	CropName   string    `json:"crop_name" msgpack:"crop_name"`
	RefET      RefETType `json:"refet_type" msgpack:"refet_type"`
	ComputedAt time.Time `json:"computed_at" msgpack:"computed_at"`
	// LongtermFallback is set when season start had no long-term bound.
	LongtermFallback bool          `json:"longterm_fallback" msgpack:"longterm_fallback"`
	Days             []DailyOutput `json:"days" msgpack:"days"`
}

// NewCropSeries starts an empty series stamped with the current time.
func NewCropSeries(cell Cell, crop *CropParameters, refET RefETType, capacity int) CropSeries {
	return CropSeries{
		CellID:     cell.ID,
		CropClass:  crop.ClassNumber,
		CropName:   crop.Name,
		RefET:      refET,
		ComputedAt: clock.Now().UTC(),
		Days:       make([]DailyOutput, 0, capacity),
	}
}

// Record captures the state after a day's step and evaluation.
func (s *CropCycleState) Record(day ClimateDay) DailyOutput {
	return DailyOutput{
		Date:    day.Date,
		DOY:     day.DOY,
		RefET:   day.RefET,
		EtAct:   s.EtcAct,
		EtPot:   s.EtcPot,
		EtBas:   s.EtcBas,
		KcAct:   s.KcAct,
		KcBas:   s.KcBas,
		Season:  boolToInt(s.InSeason),
		Cutting: boolToInt(s.Cutting),
	}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
