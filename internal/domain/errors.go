package domain

import "errors"

// Configuration and consistency errors. These abort the run for the affected
// crop; they are detected before the day loop wherever possible.
var (
	ErrUnknownCurveType     = errors.New("unrecognized crop curve type")
	ErrUnknownStartMethod   = errors.New("unrecognized season start method")
	ErrUnknownWinterCover   = errors.New("unrecognized winter surface cover class")
	ErrInvalidTriggerDOY    = errors.New("gdd trigger day of year must be within 1..366")
	ErrUnknownRefETType     = errors.New("reference ET type must be eto or etr")
	ErrMissingCurve         = errors.New("crop coefficient curve not found")
	ErrSeasonLength         = errors.New("problem with estimated season length")
	ErrNonContiguousClimate = errors.New("climate records are not contiguous daily values")
)
