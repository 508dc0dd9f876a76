package domain

import (
	"fmt"
	"strings"
)

// RefETType identifies the reference surface the daily RefET values were computed for.
type RefETType string

const (
	// RefETGrass is the short (grass) reference, ETo.
	RefETGrass RefETType = "eto"
	// RefETAlfalfa is the tall (alfalfa) reference, ETr.
	RefETAlfalfa RefETType = "etr"
)

// ParseRefETType accepts "eto" or "etr" in any case.
func ParseRefETType(s string) (RefETType, error) {
	switch RefETType(strings.ToLower(strings.TrimSpace(s))) {
	case RefETGrass:
		return RefETGrass, nil
	case RefETAlfalfa:
		return RefETAlfalfa, nil
	default:
		return "", fmt.Errorf("parse reference ET type %q: %w", s, ErrUnknownRefETType)
	}
}

// Validate reports whether t is one of the two supported reference types.
func (t RefETType) Validate() error {
	if t != RefETGrass && t != RefETAlfalfa {
		return fmt.Errorf("reference ET type %q: %w", string(t), ErrUnknownRefETType)
	}
	return nil
}
