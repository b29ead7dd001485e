package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Score is either a percentage in [0,100] or Incomplete.
// The zero value is Incomplete.
type Score struct {
	pct   float64
	valid bool
}

// Incomplete marks an assessment that was attempted but not finished,
// or a cell that could not be read as a number.
var Incomplete = Score{}

// Percentage builds a valid score. Callers are expected to pass a value
// already clamped to [0,100]; out of range values are clamped here too.
func Percentage(v float64) Score {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return Score{pct: v, valid: true}
}

func (s Score) IsIncomplete() bool { return !s.valid }

// Value returns the percentage and whether the score is complete.
func (s Score) Value() (float64, bool) { return s.pct, s.valid }

func (s Score) String() string {
	if !s.valid {
		return "incomplete"
	}
	return strconv.FormatFloat(s.pct, 'f', -1, 64)
}

// MarshalJSON writes a number, or null for Incomplete.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.pct)
}

func (s *Score) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Incomplete
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return fmt.Errorf("score: %w", err)
	}
	*s = Percentage(v)
	return nil
}
