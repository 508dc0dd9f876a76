// Package tables loads the static cell, crop parameter and coefficient curve
// tables from a single YAML document.
package tables

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/OuyangWenyu/et-demands/internal/domain"
)

// ErrInvalidTables is returned for structural problems: duplicates, missing
// identifiers and references to crops or curves that are not defined.
var ErrInvalidTables = errors.New("invalid static tables")

// Tables holds the validated static inputs shared by every cell.
type Tables struct {
	Cells  []domain.Cell
	Crops  map[int]*domain.CropParameters
	Curves domain.CoefficientTable
}

type document struct {
	Cells  []domain.Cell             `yaml:"cells"`
	Crops  []domain.CropParameters   `yaml:"crops"`
	Curves []domain.CoefficientCurve `yaml:"curves"`
}

// Load reads and validates the tables file at path.
func Load(path string, cropOneFlag bool) (*Tables, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open tables: %w", err)
	}
	defer f.Close()

	t, err := Decode(f, cropOneFlag)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Decode parses a tables document. Unknown keys are rejected so that a
// misspelled parameter does not silently fall back to zero.
func Decode(r io.Reader, cropOneFlag bool) (*Tables, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty document: %w", ErrInvalidTables)
		}
		return nil, fmt.Errorf("decode tables: %w", err)
	}

	curves := make(domain.CoefficientTable, len(doc.Curves))
	for _, c := range doc.Curves {
		if _, dup := curves[c.Number]; dup {
			return nil, fmt.Errorf("curve %d defined twice: %w", c.Number, ErrInvalidTables)
		}
		curves[c.Number] = c
	}

	crops := make(map[int]*domain.CropParameters, len(doc.Crops))
	for i := range doc.Crops {
		crop := &doc.Crops[i]
		if _, dup := crops[crop.ClassNumber]; dup {
			return nil, fmt.Errorf("crop %d defined twice: %w", crop.ClassNumber, ErrInvalidTables)
		}
		crop.Prepare(cropOneFlag)
		if err := crop.Validate(); err != nil {
			return nil, err
		}
		crops[crop.ClassNumber] = crop
	}

	seen := make(map[string]bool, len(doc.Cells))
	for _, cell := range doc.Cells {
		if cell.ID == "" {
			return nil, fmt.Errorf("cell without id: %w", ErrInvalidTables)
		}
		if seen[cell.ID] {
			return nil, fmt.Errorf("cell %s defined twice: %w", cell.ID, ErrInvalidTables)
		}
		seen[cell.ID] = true
		if err := checkCellCrops(cell, crops, curves); err != nil {
			return nil, err
		}
	}

	return &Tables{Cells: doc.Cells, Crops: crops, Curves: curves}, nil
}

func checkCellCrops(cell domain.Cell, crops map[int]*domain.CropParameters, curves domain.CoefficientTable) error {
	for _, cc := range cell.Crops {
		if _, ok := crops[cc.Class]; !ok {
			return fmt.Errorf("cell %s crop %d not in crop table: %w", cell.ID, cc.Class, ErrInvalidTables)
		}
		for _, n := range cc.Crosswalk {
			if _, err := curves.Curve(n); err != nil {
				return fmt.Errorf("cell %s crop %d: %w", cell.ID, cc.Class, err)
			}
		}
	}
	return nil
}
