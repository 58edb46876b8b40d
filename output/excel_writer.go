package output

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/wdiazux/harvest-sheet/timesheet"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, records []timesheet.Record) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	extended := timesheet.AnyExtended(records)

	for col, header := range Headers(records) {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, record := range records {
		row := i + 2
		for col, value := range Row(record, extended) {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}
	return nil
}
