package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"course-cert/internal/eligibility"
)

const (
	EligibleSheet = "Eligible"
	SummarySheet  = "Summary"
)

// WriteEligibleXLSX writes a workbook with the eligible list on one sheet and
// the run statistics on another.
func WriteEligibleXLSX(w io.Writer, res eligibility.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), EligibleSheet); err != nil {
		return fmt.Errorf("xlsx: rename sheet: %w", err)
	}
	if err := setRow(f, EligibleSheet, 1, toAny(eligibleHeader)); err != nil {
		return err
	}
	for i, s := range res.Eligible {
		row := toEligibleRow(s)
		cells := toAny(row)
		cells[3] = s.AverageScore
		if err := setRow(f, EligibleSheet, i+2, cells); err != nil {
			return err
		}
	}

	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("xlsx: new sheet: %w", err)
	}
	summary := [][]any{
		{"Total Students", res.Stats.TotalStudents},
		{"Eligible Students", res.Stats.EligibleStudents},
		{"Average Score", res.Stats.AverageScore},
		{"Pass Rate", res.Stats.PassRate},
	}
	for i, r := range summary {
		if err := setRow(f, SummarySheet, i+1, r); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx: write: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx: %s row %d: %w", sheet, row, err)
	}
	return nil
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
