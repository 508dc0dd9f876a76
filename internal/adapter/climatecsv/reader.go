// Package climatecsv reads per-cell daily climate files and normalizes them
// to the units the simulation expects: degrees Celsius and wind at 2 m.
package climatecsv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// ErrEmptyClimate is returned when a file has no rows inside the configured
// date range.
var ErrEmptyClimate = errors.New("climate series is empty")

// Columns every climate file must carry.
var requiredColumns = []string{"date", "tmin", "tmax", "ppt", "wind", "rh_min", "etref"}

// Options controls where files are found and how their values are converted.
type Options struct {
	Dir        string
	NameFormat string
	// TemperatureUnits is c, k or f.
	TemperatureUnits string
	// WindHeight is the anemometer height in meters.
	WindHeight float64
	// Start and End truncate the series when non-zero. Both are inclusive.
	Start time.Time
	End   time.Time
}

// Reader loads climate files for cells.
type Reader struct {
	opts Options
}

// NewReader creates a Reader. A zero WindHeight is treated as 2 m.
func NewReader(opts Options) *Reader {
	if opts.NameFormat == "" {
		opts.NameFormat = "%s.csv"
	}
	if opts.WindHeight == 0 {
		opts.WindHeight = 2
	}
	return &Reader{opts: opts}
}

// Path returns the file the reader uses for a cell's station.
func (r *Reader) Path(cell domain.Cell) string {
	return filepath.Join(r.opts.Dir, fmt.Sprintf(r.opts.NameFormat, cell.StationID()))
}

// ReadCell reads and normalizes the climate file for one cell.
func (r *Reader) ReadCell(ctx context.Context, cell domain.Cell) ([]domain.ClimateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	path := r.Path(cell)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open climate: %w", err)
	}
	defer f.Close()

	records, err := r.Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// Parse decodes a climate CSV. Columns are matched by header name, so their
// order is free and extra columns are ignored.
func (r *Reader) Parse(in io.Reader) ([]domain.ClimateRecord, error) {
	reader := csv.NewReader(in)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyClimate
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, c := range requiredColumns {
		if _, ok := colIdx[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	windScale := windTo2m(r.opts.WindHeight)
	var out []domain.ClimateRecord
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		date, err := time.Parse(time.DateOnly, strings.TrimSpace(row[colIdx["date"]]))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !r.opts.Start.IsZero() && date.Before(r.opts.Start) {
			continue
		}
		if !r.opts.End.IsZero() && date.After(r.opts.End) {
			continue
		}

		var vals [6]float64
		for i, c := range requiredColumns[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(row[colIdx[c]]), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d column %s: %w", line, c, err)
			}
			vals[i] = v
		}

		out = append(out, domain.ClimateRecord{
			Date:   date,
			Tmin:   r.toCelsius(vals[0]),
			Tmax:   r.toCelsius(vals[1]),
			Precip: vals[2],
			Wind:   vals[3] * windScale,
			RHMin:  vals[4],
			RefET:  vals[5],
		})
	}
	if len(out) == 0 {
		return nil, ErrEmptyClimate
	}
	return out, nil
}

func (r *Reader) toCelsius(t float64) float64 {
	switch r.opts.TemperatureUnits {
	case "k":
		return t - 273.15
	case "f":
		return (t - 32) * 5 / 9
	default:
		return t
	}
}

// windTo2m is the FAO-56 logarithmic profile factor from height z to 2 m.
func windTo2m(z float64) float64 {
	if z == 2 {
		return 1
	}
	return 4.87 / math.Log(67.8*z-5.42)
}
