// Command validate checks a results database written by cropet for the
// invariants of the basal crop coefficient method: equal actual, potential
// and basal ET, ET equal to Kcb times reference ET, well-formed flags and
// contiguous dates. With -tables it also checks that every crop of every
// cell has a series.
//
// Usage:
//
//	go run ./cmd/validate -db out/et.db -tables data/tables.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/OuyangWenyu/et-demands/internal/adapter/sqlite"
	"github.com/OuyangWenyu/et-demands/internal/adapter/tables"
	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// maxErrorsPerPhase keeps the report readable for badly broken databases.
const maxErrorsPerPhase = 50

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	errors  []string
	dropped int
}

func (p *phase) errorf(format string, args ...any) {
	if len(p.errors) >= maxErrorsPerPhase {
		p.dropped++
		return
	}
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

type storedSeries struct {
	key  sqlite.SeriesKey
	days []domain.DailyOutput
}

func main() {
	dbPath := flag.String("db", "", "path to the results SQLite database")
	tablesPath := flag.String("tables", "", "optional static tables file for coverage checks")
	flag.Parse()

	if *dbPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dbPath, *tablesPath); code != 0 {
		os.Exit(code)
	}
}

func run(dbPath, tablesPath string) int {
	ctx := context.Background()

	fmt.Println("=== Crop ET Results Validation ===")
	fmt.Println()

	if _, err := os.Stat(dbPath); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	store, err := sqlite.Open(ctx, dbPath, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: open results: %v\n", err)
		return 1
	}
	defer store.Close()

	all, err := loadSeries(ctx, store)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load results: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateMethod(all),
		validateContinuity(all),
		validateSeasons(all),
	}
	if tablesPath != "" {
		tbl, err := tables.Load(tablesPath, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load tables: %v\n", err)
			return 1
		}
		phases = append(phases, validateCoverage(all, tbl))
	}

	return report(os.Stdout, phases, all)
}

func report(w io.Writer, phases []*phase, all []storedSeries) int {
	fmt.Fprintln(w)
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors)+p.dropped)
			allPassed = false
		}
		fmt.Fprintf(w, "  %-42s %s\n", p.name, status)
	}

	rows := 0
	for _, s := range all {
		rows += len(s.days)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Series: %d, daily rows: %d\n", len(all), rows)

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Fprintf(w, "\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Fprintf(w, "  [%d] %s\n", i+1, e)
		}
		if p.dropped > 0 {
			fmt.Fprintf(w, "  ... and %d more\n", p.dropped)
		}
	}

	if allPassed {
		fmt.Fprintln(w, "\nAll validations passed.")
		return 0
	}
	fmt.Fprintln(w, "\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadSeries(ctx context.Context, store *sqlite.Store) ([]storedSeries, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]storedSeries, 0, len(keys))
	for _, k := range keys {
		days, err := store.Days(ctx, k)
		if err != nil {
			return nil, err
		}
		out = append(out, storedSeries{key: k, days: days})
	}
	return out, nil
}

// ── Phases ──

func validateMethod(all []storedSeries) *phase {
	p := &phase{name: "Basal method invariants"}
	for _, s := range all {
		for _, d := range s.days {
			at := fmt.Sprintf("%s/%d %s", s.key.CellID, s.key.CropClass, d.Date.Format(time.DateOnly))
			if !floatEq(d.EtAct, d.EtPot) || !floatEq(d.EtAct, d.EtBas) {
				p.errorf("%s: et_act %.6f, et_pot %.6f, et_bas %.6f differ", at, d.EtAct, d.EtPot, d.EtBas)
			}
			if !floatEq(d.KcAct, d.KcBas) {
				p.errorf("%s: kc_act %.6f != kc_bas %.6f", at, d.KcAct, d.KcBas)
			}
			if !floatEq(d.EtBas, d.KcBas*d.RefET) {
				p.errorf("%s: et_bas %.6f != kc_bas*etref %.6f", at, d.EtBas, d.KcBas*d.RefET)
			}
			if d.KcBas < 0 {
				p.errorf("%s: negative kc_bas %.6f", at, d.KcBas)
			}
			if d.Season != 0 && d.Season != 1 {
				p.errorf("%s: season flag %d", at, d.Season)
			}
			if d.Cutting != 0 && d.Cutting != 1 {
				p.errorf("%s: cutting flag %d", at, d.Cutting)
			}
		}
	}
	return p
}

func validateContinuity(all []storedSeries) *phase {
	p := &phase{name: "Date continuity"}
	lengths := map[string]int{}
	for _, s := range all {
		name := fmt.Sprintf("%s/%d", s.key.CellID, s.key.CropClass)
		if len(s.days) == 0 {
			p.errorf("%s: no daily rows", name)
			continue
		}
		for i, d := range s.days {
			if d.DOY != d.Date.YearDay() {
				p.errorf("%s %s: doy %d, want %d", name, d.Date.Format(time.DateOnly), d.DOY, d.Date.YearDay())
			}
			if i > 0 && !d.Date.Equal(s.days[i-1].Date.AddDate(0, 0, 1)) {
				p.errorf("%s: gap between %s and %s", name, s.days[i-1].Date.Format(time.DateOnly), d.Date.Format(time.DateOnly))
			}
		}
		if n, ok := lengths[s.key.CellID]; ok && n != len(s.days) {
			p.errorf("%s: %d days, other crops of the cell have %d", name, len(s.days), n)
		}
		lengths[s.key.CellID] = len(s.days)
	}
	return p
}

// maxDormantKcb is the largest basal coefficient a crop can carry outside
// its season (warm-season turf).
const maxDormantKcb = 0.25

func validateSeasons(all []storedSeries) *phase {
	p := &phase{name: "Dormant coefficients"}
	for _, s := range all {
		for _, d := range s.days {
			if d.Season == 0 && d.KcBas > maxDormantKcb+1e-9 {
				p.errorf("%s/%d %s: kc_bas %.4f outside the season", s.key.CellID, s.key.CropClass, d.Date.Format(time.DateOnly), d.KcBas)
			}
		}
	}
	return p
}

func validateCoverage(all []storedSeries, tbl *tables.Tables) *phase {
	p := &phase{name: "Cell and crop coverage"}
	stored := make(map[sqlite.SeriesKey]bool, len(all))
	for _, s := range all {
		stored[s.key] = true
	}
	expected := map[sqlite.SeriesKey]bool{}
	for _, cell := range tbl.Cells {
		for _, cc := range cell.Crops {
			k := sqlite.SeriesKey{CellID: cell.ID, CropClass: cc.Class}
			expected[k] = true
			if !stored[k] {
				p.errorf("cell %s crop %d: no series stored", cell.ID, cc.Class)
			}
		}
	}
	for _, s := range all {
		if !expected[s.key] {
			p.errorf("cell %s crop %d: series not in tables", s.key.CellID, s.key.CropClass)
		}
	}
	return p
}

// ── Helpers ──

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
