package domain

import (
	"fmt"
	"math"
	"strings"
)

// SeasonStartMethod selects how the start of a growing season is detected.
type SeasonStartMethod int

const (
	// StartByCGDD starts the season when cumulative growing degree-days exceed the threshold.
	StartByCGDD SeasonStartMethod = 1
	// StartByT30 starts the season when the 30-day mean air temperature exceeds the threshold.
	StartByT30 SeasonStartMethod = 2
	// StartByDate starts the season on a fixed calendar date.
	StartByDate SeasonStartMethod = 3
	// StartAlways keeps the crop in season every day.
	StartAlways SeasonStartMethod = 4
)

func (m SeasonStartMethod) String() string {
	switch m {
	case StartByCGDD:
		return "cgdd"
	case StartByT30:
		return "t30"
	case StartByDate:
		return "date"
	case StartAlways:
		return "always"
	default:
		return fmt.Sprintf("method(%d)", int(m))
	}
}

// CurveType selects how the basal crop coefficient is interpolated through the season.
type CurveType int

const (
	// CurveNormalizedCGDD uses cumulative GDD since planting, normalized by CGDD to full cover.
	CurveNormalizedCGDD CurveType = 1
	// CurvePercentTimeToEFC uses percent of days from planting to effective full cover.
	CurvePercentTimeToEFC CurveType = 2
	// CurveDaysAfterEFC uses percent time to EFC, then absolute days after EFC.
	CurveDaysAfterEFC CurveType = 3
	// CurveTabulated interpolates a fixed table over a season length estimated from the start date.
	CurveTabulated CurveType = 4
)

// WinterCover is the dormant-season surface class.
type WinterCover int

const (
	WinterCoverBare  WinterCover = 1
	WinterCoverMulch WinterCover = 2
	WinterCoverSod   WinterCover = 3
)

// Role captures the special-case behaviors some crop classes carry. It is
// derived once from the class number when crop parameters are loaded.
type Role int

const (
	RoleNormal Role = iota
	// RoleBareSoil, RoleMulch and RoleDormantTurf are non-growing winter surfaces (classes 44-46).
	RoleBareSoil
	RoleMulch
	RoleDormantTurf
	// RoleOpenWaterShallow, RoleOpenWaterDeep and RoleStockPond bypass the curve logic (classes 55-57).
	RoleOpenWaterShallow
	RoleOpenWaterDeep
	RoleStockPond
	// RoleWarmSeasonTurf uses a higher dormant Kcb (class 87).
	RoleWarmSeasonTurf
	// RoleAlfalfaCycle marks crops cut and regrown within a season.
	RoleAlfalfaCycle
)

// IsWinterSurface reports whether the role is one of the fixed bare, mulch or dormant-turf classes.
func (r Role) IsWinterSurface() bool {
	return r == RoleBareSoil || r == RoleMulch || r == RoleDormantTurf
}

// IsOpenWater reports whether the role is an open-water surface.
func (r Role) IsOpenWater() bool {
	return r == RoleOpenWaterShallow || r == RoleOpenWaterDeep || r == RoleStockPond
}

func (r Role) String() string {
	switch r {
	case RoleBareSoil:
		return "bare-soil"
	case RoleMulch:
		return "mulch"
	case RoleDormantTurf:
		return "dormant-turf"
	case RoleOpenWaterShallow:
		return "open-water-shallow"
	case RoleOpenWaterDeep:
		return "open-water-deep"
	case RoleStockPond:
		return "stock-pond"
	case RoleWarmSeasonTurf:
		return "warm-season-turf"
	case RoleAlfalfaCycle:
		return "alfalfa-cycle"
	default:
		return "normal"
	}
}

const (
	cheatgrassClass   = 47
	firstCycleAlfalfa = "ALFALFA 1ST CYCLE"
	alfalfaHayClass   = 1
	alfalfaBeefClass  = 2
	alfalfaDairyClass = 3
	warmSeasonTurf    = 87
)

// DeriveRole maps a crop class number to its role. Class 1 is only treated
// as a cutting alfalfa when cropOneFlag is set; classes above 3 are treated
// as alfalfa when their curve is the first-cycle alfalfa curve.
func DeriveRole(class int, curveName string, cropOneFlag bool) Role {
	switch class {
	case 44:
		return RoleBareSoil
	case 45:
		return RoleMulch
	case 46:
		return RoleDormantTurf
	case 55:
		return RoleOpenWaterShallow
	case 56:
		return RoleOpenWaterDeep
	case 57:
		return RoleStockPond
	case warmSeasonTurf:
		return RoleWarmSeasonTurf
	case alfalfaBeefClass, alfalfaDairyClass:
		return RoleAlfalfaCycle
	case alfalfaHayClass:
		if cropOneFlag {
			return RoleAlfalfaCycle
		}
		return RoleNormal
	}
	if class >= 4 && strings.EqualFold(strings.TrimSpace(curveName), firstCycleAlfalfa) {
		return RoleAlfalfaCycle
	}
	return RoleNormal
}

// HarvestRule is the signed time-for-harvest parameter split into its two meanings.
// A negative source value means the crop stays in season until a killing frost.
type HarvestRule struct {
	Days             float64
	ExtendUntilFrost bool
}

// NewHarvestRule converts the signed table value.
func NewHarvestRule(v float64) HarvestRule {
	return HarvestRule{Days: math.Abs(v), ExtendUntilFrost: v < -0.5}
}

// CropParameters is the static description of one crop class.
type CropParameters struct {
	ClassNumber int    `yaml:"class" json:"class"`
	Name        string `yaml:"name" json:"name"`
	CurveNumber int    `yaml:"curve_number" json:"curve_number"`
	CurveName   string `yaml:"curve_name" json:"curve_name"`

	CurveType   CurveType         `yaml:"curve_type" json:"curve_type"`
	StartMethod SeasonStartMethod `yaml:"start_method" json:"start_method"`
	// StartThreshold is the CGDD or T30 value that triggers the season start.
	StartThreshold float64 `yaml:"start_threshold" json:"start_threshold"`
	// PlantingDate is a fractional month (4.5 is mid-April) used by StartByDate.
	PlantingDate float64 `yaml:"planting_date" json:"planting_date"`
	// StartOffsetDays shifts a detected start earlier; zero or negative.
	StartOffsetDays int `yaml:"start_offset_days" json:"start_offset_days"`

	GDDTriggerDOY int     `yaml:"gdd_trigger_doy" json:"gdd_trigger_doy"`
	TBase         float64 `yaml:"tbase" json:"tbase"`

	CGDDForEFC         float64 `yaml:"cgdd_for_efc" json:"cgdd_for_efc"`
	CGDDForTermination float64 `yaml:"cgdd_for_termination" json:"cgdd_for_termination"`
	NCGDDForDev        float64 `yaml:"ncgdd_for_dev_pct" json:"ncgdd_for_dev_pct"`
	NCGDDForLate       float64 `yaml:"ncgdd_for_late_pct" json:"ncgdd_for_late_pct"`

	TimeForEFC       float64     `yaml:"time_for_efc" json:"time_for_efc"`
	Harvest          HarvestRule `yaml:"-" json:"-"`
	TimeForHarvest   float64     `yaml:"time_for_harvest" json:"time_for_harvest"`
	TimeForDevPct    float64     `yaml:"time_for_dev_pct" json:"time_for_dev_pct"`
	TimeForLatePct   float64     `yaml:"time_for_late_pct" json:"time_for_late_pct"`
	DaysAfterEFCLate float64     `yaml:"days_after_efc_for_late" json:"days_after_efc_for_late"`

	HeightInitial float64 `yaml:"height_initial" json:"height_initial"`
	HeightMax     float64 `yaml:"height_max" json:"height_max"`
	RootDepthMin  float64 `yaml:"root_depth_min" json:"root_depth_min"`
	RootDepthMax  float64 `yaml:"root_depth_max" json:"root_depth_max"`

	WinterCover    WinterCover `yaml:"winter_cover" json:"winter_cover"`
	IrrigationFlag int         `yaml:"irrigation_flag" json:"irrigation_flag"`
	KcMax          float64     `yaml:"kc_max" json:"kc_max"`
	KillingFrost   float64     `yaml:"killing_frost_c" json:"killing_frost_c"`
	CuttingCrop    bool        `yaml:"cutting_crop" json:"cutting_crop"`

	Role Role `yaml:"-" json:"-"`
}

// Prepare derives the fields that are not read directly from a parameter table.
func (c *CropParameters) Prepare(cropOneFlag bool) {
	c.Harvest = NewHarvestRule(c.TimeForHarvest)
	c.Role = DeriveRole(c.ClassNumber, c.CurveName, cropOneFlag)
	if c.GDDTriggerDOY == 0 {
		c.GDDTriggerDOY = 1
	}
	if c.StartOffsetDays == 0 && c.PlantingDate < 0 {
		c.StartOffsetDays = int(c.PlantingDate)
	}
	if c.StartOffsetDays > 0 {
		c.StartOffsetDays = -c.StartOffsetDays
	}
}

// Validate rejects unrecognized enumerations before any day is simulated.
func (c *CropParameters) Validate() error {
	if c.Role.IsOpenWater() {
		return nil
	}
	if c.GDDTriggerDOY < 1 || c.GDDTriggerDOY > 366 {
		return fmt.Errorf("crop %d trigger doy %d: %w", c.ClassNumber, c.GDDTriggerDOY, ErrInvalidTriggerDOY)
	}
	switch c.StartMethod {
	case StartByCGDD, StartByT30, StartByDate, StartAlways:
	default:
		return fmt.Errorf("crop %d start method %d: %w", c.ClassNumber, int(c.StartMethod), ErrUnknownStartMethod)
	}
	if !c.Role.IsWinterSurface() {
		switch c.CurveType {
		case CurveNormalizedCGDD, CurvePercentTimeToEFC, CurveDaysAfterEFC, CurveTabulated:
		default:
			return fmt.Errorf("crop %d curve type %d: %w", c.ClassNumber, int(c.CurveType), ErrUnknownCurveType)
		}
	}
	switch c.WinterCover {
	case WinterCoverBare, WinterCoverMulch, WinterCoverSod:
	default:
		return fmt.Errorf("crop %d winter cover %d: %w", c.ClassNumber, int(c.WinterCover), ErrUnknownWinterCover)
	}
	return nil
}
