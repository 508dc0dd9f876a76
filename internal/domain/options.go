package domain

// Options are the run-wide switches shared by every crop and cell.
type Options struct {
	RefET RefETType
	// LimitSeasonStart bounds T30 season detection to 40 days around the
	// long-term estimate; when false the window is a full year.
	LimitSeasonStart bool
	// AdjustKcbForClimate applies the wind and humidity correction to the
	// basal coefficient when the reference is grass (ETo).
	AdjustKcbForClimate bool
}

// DefaultOptions returns grass reference with the climate adjustment on.
func DefaultOptions() Options {
	return Options{
		RefET:               RefETGrass,
		LimitSeasonStart:    true,
		AdjustKcbForClimate: true,
	}
}

func (o Options) seasonWindow() int {
	if o.LimitSeasonStart {
		return 40
	}
	return 365
}
