package climatecsv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// Write encodes records in the layout Parse reads, with temperatures in
// Celsius and wind at 2 m.
func Write(w io.Writer, records []domain.ClimateRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(requiredColumns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Date.Format(time.DateOnly),
			formatFloat(r.Tmin),
			formatFloat(r.Tmax),
			formatFloat(r.Precip),
			formatFloat(r.Wind),
			formatFloat(r.RHMin),
			formatFloat(r.RefET),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write %s: %w", r.Date.Format(time.DateOnly), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
