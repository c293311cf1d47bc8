package report

import (
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"
)

const (
	winnersSheet = "Winners"
	summarySheet = "Summary"
)

// WriteWorkbook saves the winners and summary as an .xlsx file at path.
func WriteWorkbook(path string, results Results, summary Summary) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), winnersSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	header := []any{"Rank", "Random number", "Index", "Points", "Twitter", "Account"}
	if err := f.SetSheetRow(winnersSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, e := range results.Draw.Entries {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		// Spreadsheet numbers are float64; keep the raw value exact as text.
		row := []any{i + 1, strconv.FormatUint(e.Value, 10), e.Index, e.Record.Points, e.Record.Handle, e.Record.AccountID}
		if err := f.SetSheetRow(winnersSheet, cell, &row); err != nil {
			return fmt.Errorf("write winner %d: %w", i+1, err)
		}
	}

	if _, err := f.NewSheet(summarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}
	rows := [][]any{
		{"Block hash", summary.BlockHash},
		{"Eligible", summary.Eligible},
		{"Distinct accounts", summary.DistinctAccounts},
		{"Winners", summary.Winners},
		{"Raw draws", summary.Draws},
		{"Duplicates discarded", summary.Rejected},
		{"Pool mean points", summary.PoolPoints.Mean},
		{"Pool median points", summary.PoolPoints.Median},
		{"Winner mean points", summary.WinnerPoints.Mean},
		{"Winner median points", summary.WinnerPoints.Median},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(summarySheet, cell, &row); err != nil {
			return fmt.Errorf("write summary: %w", err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}
