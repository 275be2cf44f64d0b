package models

import (
	"strings"

	apperrors "github.com/julianstephens/habitlit/internal/errors"
)

// Frequency is how often a habit is expected to be completed
type Frequency string

const (
	Daily   Frequency = "daily"
	Weekly  Frequency = "weekly"
	Monthly Frequency = "monthly"
)

// Frequencies lists every supported frequency in display order
var Frequencies = []Frequency{Daily, Weekly, Monthly}

// ParseFrequency parses a frequency name, ignoring case and surrounding space.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToLower(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", apperrors.ErrInvalidFrequency
	}
	return f, nil
}

// Valid reports whether f is one of the supported frequencies
func (f Frequency) Valid() bool {
	switch f {
	case Daily, Weekly, Monthly:
		return true
	default:
		return false
	}
}

func (f Frequency) String() string {
	return string(f)
}

// PeriodNoun returns the human name of one period, e.g. "day"
func (f Frequency) PeriodNoun() string {
	switch f {
	case Daily:
		return "day"
	case Weekly:
		return "week"
	case Monthly:
		return "month"
	default:
		return "period"
	}
}
