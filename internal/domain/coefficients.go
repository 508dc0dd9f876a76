package domain

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// CurveTableLength is the number of points in a tabulated (type 4) curve,
// covering 0% to 100% of the season in 10% steps plus padding.
const CurveTableLength = 35

// CoefficientCurve is one basal crop coefficient curve.
type CoefficientCurve struct {
	Number int       `yaml:"number" json:"number"`
	Name   string    `yaml:"name" json:"name"`
	KcIni  float64   `yaml:"kc_ini" json:"kc_ini"`
	KcMid  float64   `yaml:"kc_mid" json:"kc_mid"`
	KcEnd  float64   `yaml:"kc_end" json:"kc_end"`
	Points []float64 `yaml:"points" json:"points"`
}

// CoefficientTable indexes curves by their number.
type CoefficientTable map[int]CoefficientCurve

// Curve returns the curve numbered n.
func (t CoefficientTable) Curve(n int) (CoefficientCurve, error) {
	c, ok := t[n]
	if !ok {
		return CoefficientCurve{}, fmt.Errorf("curve %d: %w", n, ErrMissingCurve)
	}
	return c, nil
}

// Tabulated returns curve n and checks that it carries a full point table.
func (t CoefficientTable) Tabulated(n int) (CoefficientCurve, error) {
	c, err := t.Curve(n)
	if err != nil {
		return c, err
	}
	if len(c.Points) < CurveTableLength {
		return c, fmt.Errorf("curve %d has %d points, want %d: %w", n, len(c.Points), CurveTableLength, ErrMissingCurve)
	}
	return c, nil
}

// Resolve averages the initial, mid and end coefficients across the
// crosswalked curves. An empty crosswalk yields zeros.
func (t CoefficientTable) Resolve(numbers []int) (ini, mid, end float64, err error) {
	if len(numbers) == 0 {
		return 0, 0, 0, nil
	}
	inis := make([]float64, 0, len(numbers))
	mids := make([]float64, 0, len(numbers))
	ends := make([]float64, 0, len(numbers))
	for _, n := range numbers {
		c, err := t.Curve(n)
		if err != nil {
			return 0, 0, 0, fmt.Errorf("resolve crosswalk: %w", err)
		}
		inis = append(inis, c.KcIni)
		mids = append(mids, c.KcMid)
		ends = append(ends, c.KcEnd)
	}
	return stat.Mean(inis, nil), stat.Mean(mids, nil), stat.Mean(ends, nil), nil
}
