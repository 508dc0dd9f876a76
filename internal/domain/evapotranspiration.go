package domain

const (
	kcMinEvaporation = 0.1
	kcMaxFloorMargin = 0.05
	defaultKcMaxETo  = 1.2
	defaultKcMaxETr  = 1.0
	// minStatedKcMax is the smallest table kc_max taken as a real value.
	minStatedKcMax = 0.3
)

// winterKcMax is the upper coefficient of a cold-soil winter surface.
var winterKcMax = map[WinterCover]map[RefETType]float64{
	WinterCoverBare:  {RefETGrass: 1.1, RefETAlfalfa: 0.9},
	WinterCoverMulch: {RefETGrass: 1.0, RefETAlfalfa: 0.85},
	WinterCoverSod:   {RefETGrass: 0.95, RefETAlfalfa: 0.8},
}

// winterSurfaceCover maps the fixed winter-surface roles to their cover
// class and fraction of ground covered.
var winterSurfaceCover = map[Role]struct {
	cover    WinterCover
	fraction float64
}{
	RoleBareSoil:    {WinterCoverBare, 0.0},
	RoleMulch:       {WinterCoverMulch, 0.4},
	RoleDormantTurf: {WinterCoverSod, 0.7},
}

// EvaluateET converts the day's basal coefficient into crop ET. Only the
// basal method is modeled, so actual, potential and basal ET are equal.
// Open-water crops are skipped because StepKc already computed their ET.
func EvaluateET(opts Options, cell Cell, crop *CropParameters, s *CropCycleState, day ClimateDay) error {
	if crop.Role.IsOpenWater() {
		return nil
	}
	if err := opts.RefET.Validate(); err != nil {
		return err
	}

	s.Height = max(minCropHeight, s.Height)

	var kcMax float64
	switch opts.RefET {
	case RefETGrass:
		kcMax = climateAdjustment(day, s.Height)
		if crop.KcMax > minStatedKcMax {
			kcMax += crop.KcMax
		} else {
			kcMax += defaultKcMaxETo
		}
	case RefETAlfalfa:
		kcMax = defaultKcMaxETr
		if crop.KcMax > minStatedKcMax {
			kcMax = crop.KcMax
		}
	}

	if cell.IsWinter(day.Date.Month()) {
		cover := crop.WinterCover
		if ws, ok := winterSurfaceCover[crop.Role]; ok {
			cover = ws.cover
			s.CanopyCover = ws.fraction
		}
		if v, ok := winterKcMax[cover][opts.RefET]; ok {
			kcMax = v
		}
	}

	if !s.InSeason {
		if crop.Role == RoleWarmSeasonTurf {
			s.KcBas = warmTurfWinterKcb
		} else {
			s.KcBas = s.WinterKcb(crop.WinterCover)
		}
	}

	kcMax = max(kcMax, s.KcBas+kcMaxFloorMargin)
	s.KcMin = kcMinEvaporation
	if !crop.Role.IsWinterSurface() && kcMax <= s.KcMin {
		kcMax = s.KcMin + 0.001
	}
	s.KcMax = kcMax

	s.KcAct = s.KcBas
	s.KcPot = s.KcBas
	s.EtcAct = s.KcAct * day.RefET
	s.EtcPot = s.KcPot * day.RefET
	s.EtcBas = s.KcBas * day.RefET
	return nil
}
