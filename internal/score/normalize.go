// Package score turns the many ways exports spell a grade into a
// domain.Score.
package score

import (
	"math"
	"strconv"
	"strings"

	"course-cert/internal/domain"
)

// incompleteExact are whole-cell spellings of "no result".
var incompleteExact = map[string]bool{
	"":    true,
	"-":   true,
	"n/a": true,
}

// incompleteWords mark a cell as not finished wherever they appear.
var incompleteWords = []string{"not", "incomplete", "null", "undefined", "nan"}

// NormalizeFloat applies the numeric rules: (0,1] is a fraction, (1,100] is
// already a percentage, anything outside is clamped.
func NormalizeFloat(v float64) domain.Score {
	switch {
	case math.IsNaN(v):
		return domain.Incomplete
	case v <= 0:
		return domain.Percentage(0)
	case v <= 1:
		return domain.Percentage(v * 100)
	case v <= 100:
		return domain.Percentage(v)
	default:
		return domain.Percentage(100)
	}
}

// Normalize reads a raw cell. It never fails: anything it cannot read as a
// number is Incomplete, which is distinct from a real zero.
func Normalize(raw string) domain.Score {
	s := strings.ToLower(strings.TrimSpace(raw))
	if incompleteExact[s] {
		return domain.Incomplete
	}
	for _, w := range incompleteWords {
		if strings.Contains(s, w) {
			return domain.Incomplete
		}
	}

	s = strings.TrimSuffix(s, "%")
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' {
			b.WriteRune(r)
		}
	}
	v, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return domain.Incomplete
	}
	return NormalizeFloat(v)
}
