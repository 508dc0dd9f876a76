// Package sqlite persists simulated crop series to a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS crop_series (
	cell_id           TEXT    NOT NULL,
	crop_class        INTEGER NOT NULL,
	crop_name         TEXT    NOT NULL,
	refet_type        TEXT    NOT NULL,
	computed_at       TEXT    NOT NULL,
	longterm_fallback INTEGER NOT NULL,
	PRIMARY KEY (cell_id, crop_class)
);
CREATE TABLE IF NOT EXISTS daily_et (
	cell_id    TEXT    NOT NULL,
	crop_class INTEGER NOT NULL,
	date       TEXT    NOT NULL,
	doy        INTEGER NOT NULL,
	etref      REAL    NOT NULL,
	et_act     REAL    NOT NULL,
	et_pot     REAL    NOT NULL,
	et_bas     REAL    NOT NULL,
	kc_act     REAL    NOT NULL,
	kc_bas     REAL    NOT NULL,
	season     INTEGER NOT NULL,
	cutting    INTEGER NOT NULL,
	PRIMARY KEY (cell_id, crop_class, date)
);`

const upsertSeries = `
INSERT INTO crop_series (cell_id, crop_class, crop_name, refet_type, computed_at, longterm_fallback)
VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (cell_id, crop_class) DO UPDATE SET
	crop_name = excluded.crop_name,
	refet_type = excluded.refet_type,
	computed_at = excluded.computed_at,
	longterm_fallback = excluded.longterm_fallback`

const upsertDay = `
INSERT INTO daily_et (cell_id, crop_class, date, doy, etref, et_act, et_pot, et_bas, kc_act, kc_bas, season, cutting)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (cell_id, crop_class, date) DO UPDATE SET
	doy = excluded.doy,
	etref = excluded.etref,
	et_act = excluded.et_act,
	et_pot = excluded.et_pot,
	et_bas = excluded.et_bas,
	kc_act = excluded.kc_act,
	kc_bas = excluded.kc_bas,
	season = excluded.season,
	cutting = excluded.cutting`

// SeriesKey identifies one stored crop series.
type SeriesKey struct {
	CellID    string
	CropClass int
}

// Store writes crop series to SQLite. It implements pipeline.BatchLoader.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single connection serializes writers from concurrent workers.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// LoadBatch upserts all series of a cell in one transaction.
func (s *Store) LoadBatch(ctx context.Context, series []domain.CropSeries) error {
	if len(series) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	dayStmt, err := tx.PrepareContext(ctx, upsertDay)
	if err != nil {
		return fmt.Errorf("prepare daily insert: %w", err)
	}
	defer dayStmt.Close()

	rows := 0
	for _, cs := range series {
		if _, err := tx.ExecContext(ctx, upsertSeries, cs.CellID, cs.CropClass, cs.CropName, string(cs.RefET),
			cs.ComputedAt.UTC().Format(time.RFC3339), cs.LongtermFallback); err != nil {
			return fmt.Errorf("upsert series %s/%d: %w", cs.CellID, cs.CropClass, err)
		}
		for _, d := range cs.Days {
			if _, err := dayStmt.ExecContext(ctx, cs.CellID, cs.CropClass, d.Date.Format(time.DateOnly), d.DOY,
				d.RefET, d.EtAct, d.EtPot, d.EtBas, d.KcAct, d.KcBas, d.Season, d.Cutting); err != nil {
				return fmt.Errorf("upsert %s/%d on %s: %w", cs.CellID, cs.CropClass, d.Date.Format(time.DateOnly), err)
			}
			rows++
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	s.logger.Debug("series stored", "cell_id", series[0].CellID, "series", len(series), "rows", rows)
	return nil
}

// Keys lists every stored series in key order.
func (s *Store) Keys(ctx context.Context) ([]SeriesKey, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cell_id, crop_class FROM crop_series ORDER BY cell_id, crop_class`)
	if err != nil {
		return nil, fmt.Errorf("query series: %w", err)
	}
	defer rows.Close()

	var keys []SeriesKey
	for rows.Next() {
		var k SeriesKey
		if err := rows.Scan(&k.CellID, &k.CropClass); err != nil {
			return nil, fmt.Errorf("scan series: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Days returns the daily rows of one series ordered by date.
func (s *Store) Days(ctx context.Context, key SeriesKey) ([]domain.DailyOutput, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, doy, etref, et_act, et_pot, et_bas, kc_act, kc_bas, season, cutting
		FROM daily_et WHERE cell_id = ? AND crop_class = ? ORDER BY date`, key.CellID, key.CropClass)
	if err != nil {
		return nil, fmt.Errorf("query days: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyOutput
	for rows.Next() {
		var (
			d    domain.DailyOutput
			date string
		)
		if err := rows.Scan(&date, &d.DOY, &d.RefET, &d.EtAct, &d.EtPot, &d.EtBas, &d.KcAct, &d.KcBas, &d.Season, &d.Cutting); err != nil {
			return nil, fmt.Errorf("scan day: %w", err)
		}
		if d.Date, err = time.Parse(time.DateOnly, date); err != nil {
			return nil, fmt.Errorf("parse date %q: %w", date, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// CheckReadiness pings the database.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}
