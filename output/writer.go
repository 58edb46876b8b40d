package output

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/wdiazux/harvest-sheet/timesheet"
)

type Writer interface {
	Write(path string, records []timesheet.Record) error
}

func WriterForFormat(format string) (Writer, error) {
	switch normalizeFormat(format) {
	case "csv":
		return &CSVWriter{}, nil
	case "excel", "xlsx":
		return &ExcelWriter{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}

// DetectFormat infers the output format from the file extension,
// defaulting to CSV.
func DetectFormat(path string) string {
	switch strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".") {
	case "xlsx", "xlsm", "xls":
		return "excel"
	default:
		return "csv"
	}
}

func normalizeFormat(value string) string {
	return strings.TrimSpace(strings.ToLower(value))
}

// Headers returns the column order for a record set: core columns first,
// extended columns appended only when some record carries one.
func Headers(records []timesheet.Record) []string {
	headers := timesheet.CoreHeaders()
	if timesheet.AnyExtended(records) {
		headers = append(headers, timesheet.ExtendedHeaders()...)
	}
	return headers
}

// Row renders one record against the header layout chosen for the set.
func Row(record timesheet.Record, extended bool) []string {
	row := record.CoreRow()
	if extended {
		row = append(row, record.ExtendedRow()...)
	}
	return row
}
