package score

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"course-cert/internal/domain"
)

func TestNormalizeFloat(t *testing.T) {
	testCases := []struct {
		in   float64
		want float64
	}{
		{0.5, 50},
		{1, 100},
		{0.01, 1},
		{1.5, 1.5},
		{85, 85},
		{100, 100},
		{150, 100},
		{-5, 0},
		{0, 0},
		{math.Inf(1), 100},
		{math.Inf(-1), 0},
	}

	for _, tc := range testCases {
		got, ok := NormalizeFloat(tc.in).Value()
		assert.True(t, ok, "NormalizeFloat(%v) should be complete", tc.in)
		assert.InDelta(t, tc.want, got, 1e-9, "NormalizeFloat(%v)", tc.in)
	}

	assert.True(t, NormalizeFloat(math.NaN()).IsIncomplete())
}

func TestNormalizeFractionRange(t *testing.T) {
	for x := 0.05; x <= 1.0; x += 0.05 {
		got, _ := NormalizeFloat(x).Value()
		assert.InDelta(t, x*100, got, 1e-9)
	}
	for x := 1.5; x <= 100; x += 7.5 {
		got, _ := NormalizeFloat(x).Value()
		assert.Equal(t, x, got)
	}
}

func TestNormalizeString(t *testing.T) {
	testCases := []struct {
		in   string
		want domain.Score
	}{
		{"85%", domain.Percentage(85)},
		{" 85 % ", domain.Percentage(85)},
		{"0.5", domain.Percentage(50)},
		{"72.5", domain.Percentage(72.5)},
		{"250", domain.Percentage(100)},
		{"0", domain.Percentage(0)},
		{"Score: 64", domain.Percentage(64)},
		{"", domain.Incomplete},
		{"   ", domain.Incomplete},
		{"-", domain.Incomplete},
		{"N/A", domain.Incomplete},
		{"not finished", domain.Incomplete},
		{"Incomplete", domain.Incomplete},
		{"NULL", domain.Incomplete},
		{"undefined", domain.Incomplete},
		{"NaN", domain.Incomplete},
		{"abc", domain.Incomplete},
		{"1.2.3", domain.Incomplete},
		{"%", domain.Incomplete},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.want, Normalize(tc.in), "Normalize(%q)", tc.in)
	}
}
