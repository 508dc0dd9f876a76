// Package domain is the crop evapotranspiration engine: it derives phenology
// indices from daily climate, initializes per-crop cycle state, steps the
// growing-season and basal crop coefficient state machine one day at a time
// and converts coefficients into daily crop ET.
//
// # Method
//
// Crop ET follows the FAO-56 basal crop coefficient approach:
//
//	ETc = Kcb * ETref
//
// Soil evaporation is not modeled, so actual, potential and basal ET are
// equal for every day.
//
// # Season detection
//
// Each crop selects one start method:
//
//	1  cumulative growing degree-days exceed a threshold
//	2  30-day mean temperature (T30) exceeds a threshold
//	3  fixed calendar date given as a fractional month
//	4  always in season
//
// Methods 1 and 2 are bounded by a long-term start estimate derived from the
// multi-year day-of-year climatology. A start more than 40 days after the
// estimate is forced; a threshold crossing more than 40 days before it is
// deferred.
//
// # Curves
//
// While in season Kcb follows one of four curves: normalized CGDD (type 1),
// percent time to effective full cover (type 2), percent time then days after
// full cover (type 3), or a 35-point table over estimated season length
// (type 4). Cutting crops such as alfalfa restart the type 1 curve after each
// cutting.
//
// # Special classes
//
// Class numbers with special behavior are mapped once to a [Role]:
//
//	44 45 46   bare soil, mulch, dormant turf (fixed Kcb 0.1)
//	55 56 57   open water: shallow, deep, stock pond
//	87         warm-season turf (dormant Kcb 0.25)
//	1 2 3      alfalfa cutting cycles (class 1 only with the crop-one flag)
package domain
