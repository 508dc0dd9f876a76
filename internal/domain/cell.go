package domain

import "time"

// Cell is one spatial unit with a climate station and a set of crops.
type Cell struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	// Station names the climate record the cell uses; empty means the cell ID.
	Station   string     `yaml:"station,omitempty" json:"station,omitempty"`
	Latitude  float64    `yaml:"latitude" json:"latitude"`
	Longitude float64    `yaml:"longitude" json:"longitude"`
	Elevation float64    `yaml:"elevation" json:"elevation"`
	Crops     []CellCrop `yaml:"crops" json:"crops"`
}

// CellCrop links a crop class to the coefficient curves it is crosswalked to.
type CellCrop struct {
	Class     int   `yaml:"class" json:"class"`
	Crosswalk []int `yaml:"crosswalk" json:"crosswalk"`
}

// StationID returns the key of the cell's climate record.
func (c Cell) StationID() string {
	if c.Station != "" {
		return c.Station
	}
	return c.ID
}

// IsWinter reports whether a month falls in the dormant window for the
// cell's hemisphere: November through March in the north, May through
// September in the south.
func (c Cell) IsWinter(month time.Month) bool {
	if c.Latitude > 0 {
		return month < time.April || month > time.October
	}
	return month > time.April && month < time.October
}
