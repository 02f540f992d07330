// Package excel exports experiment results to an .xlsx workbook, one sheet
// per experiment, for offline review of the results view.
package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"gosplit/domain/stats"
)

var resultHeaders = []string{
	"Variant", "Name", "Control", "Participants", "Conversions",
	"Conversion Rate %", "Uplift %", "Confidence %", "Significant",
}

// WriteResults writes one sheet per experiment result set to path.
func WriteResults(path string, results []*stats.ExperimentResults) error {
	if len(results) == 0 {
		return fmt.Errorf("no results to export")
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, res := range results {
		sheet := sheetName(res.ExperimentID, i)
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet); err != nil {
				return fmt.Errorf("renaming sheet: %w", err)
			}
		} else {
			if _, err := f.NewSheet(sheet); err != nil {
				return fmt.Errorf("creating sheet %q: %w", sheet, err)
			}
		}
		if err := writeSheet(f, sheet, res); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, res *stats.ExperimentResults) error {
	for col, h := range resultHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for rowIdx, v := range res.Variants {
		row := []any{
			v.VariantID, v.Name, v.IsControl, v.Participants, v.Conversions,
			v.ConversionRate, v.Uplift, v.Confidence, v.Significant,
		}
		for col, val := range row {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err := f.SetCellValue(sheet, cell, val); err != nil {
				return fmt.Errorf("writing row %d: %w", rowIdx+2, err)
			}
		}
	}

	summaryRow := len(res.Variants) + 3
	cell, _ := excelize.CoordinatesToCellName(1, summaryRow)
	summary := fmt.Sprintf("Total participants: %d", res.TotalParticipants)
	if res.RecommendedWinner != "" {
		summary += fmt.Sprintf(", recommended winner: %s", res.RecommendedWinner)
	}
	return f.SetCellValue(sheet, cell, summary)
}

// sheetName keeps within excelize's 31-character sheet name limit.
func sheetName(experimentID string, idx int) string {
	name := experimentID
	if name == "" {
		name = fmt.Sprintf("experiment_%d", idx+1)
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}
