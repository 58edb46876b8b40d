package output

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/wdiazux/harvest-sheet/timesheet"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, records []timesheet.Record) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	extended := timesheet.AnyExtended(records)
	if err := writer.Write(Headers(records)); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, record := range records {
		if err := writer.Write(Row(record, extended)); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}
