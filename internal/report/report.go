package report

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"call-harvester-go/internal/types"
)

const sheet = "Calls"

var header = []interface{}{
	"Call ID", "Type", "Duration (s)", "Date", "Time", "Manager", "Entity", "Handed off",
}

// Write renders the run's call summaries into an xlsx file, one row per call
// that reached hand-off.
func Write(path string, calls []types.CallSummary) error {
	f := excelize.NewFile()
	defer f.Close()
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("drop default sheet: %w", err)
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, c := range calls {
		row := []interface{}{
			c.CallID, c.CallType, c.Duration, c.Date, c.Time, c.Manager, c.EntityLink, c.HandedOff,
		}
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}
