package sheets

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/wdiazux/harvest-sheet/config"
	"github.com/wdiazux/harvest-sheet/output"
	"github.com/wdiazux/harvest-sheet/timesheet"
)

// UploadError is any failure while talking to the Google Sheets API:
// bad credentials, missing spreadsheet or tab, or quota exhaustion.
// An upload failure never rolls back the CSV already written.
type UploadError struct {
	Op  string
	Err error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("sheets upload: %s: %v", e.Op, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

type Uploader struct {
	service *gsheets.Service
	logger  *slog.Logger
}

// NewUploader authenticates against the Sheets API with the
// service-account credential set.
func NewUploader(ctx context.Context, sa config.ServiceAccount, logger *slog.Logger) (*Uploader, error) {
	keyJSON, err := sa.JSON()
	if err != nil {
		return nil, &UploadError{Op: "build service account key", Err: err}
	}

	conf, err := google.JWTConfigFromJSON(keyJSON, gsheets.SpreadsheetsScope)
	if err != nil {
		return nil, &UploadError{Op: "parse service account key", Err: err}
	}

	service, err := gsheets.NewService(ctx, option.WithHTTPClient(conf.Client(ctx)))
	if err != nil {
		return nil, &UploadError{Op: "create sheets service", Err: err}
	}
	return NewUploaderWithService(service, logger), nil
}

// NewUploaderWithService wraps an existing Sheets service; used by tests
// to point the uploader at a fake endpoint.
func NewUploaderWithService(service *gsheets.Service, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Uploader{service: service, logger: logger}
}

// Upload replaces the contents of the named tab with the header row plus
// one row per record, creating the tab when it does not exist yet. The
// whole write happens as one clear followed by one batch update.
func (u *Uploader) Upload(ctx context.Context, spreadsheetID, tab string, records []timesheet.Record) error {
	if err := u.ensureTab(ctx, spreadsheetID, tab); err != nil {
		return err
	}

	tabRange := quoteTab(tab)
	if _, err := u.service.Spreadsheets.Values.
		Clear(spreadsheetID, tabRange, &gsheets.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return &UploadError{Op: fmt.Sprintf("clear tab %s", tab), Err: err}
	}

	values := buildValues(records)
	if _, err := u.service.Spreadsheets.Values.
		Update(spreadsheetID, tabRange+"!A1", &gsheets.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).Do(); err != nil {
		return &UploadError{Op: fmt.Sprintf("update tab %s", tab), Err: err}
	}

	u.logger.Info("uploaded records to google sheet",
		"spreadsheet_id", spreadsheetID, "tab", tab, "rows", len(values))
	return nil
}

func (u *Uploader) ensureTab(ctx context.Context, spreadsheetID, tab string) error {
	spreadsheet, err := u.service.Spreadsheets.Get(spreadsheetID).Context(ctx).Do()
	if err != nil {
		return &UploadError{Op: fmt.Sprintf("get spreadsheet %s", spreadsheetID), Err: err}
	}

	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == tab {
			return nil
		}
	}

	request := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := u.service.Spreadsheets.BatchUpdate(spreadsheetID, request).Context(ctx).Do(); err != nil {
		return &UploadError{Op: fmt.Sprintf("create tab %s", tab), Err: err}
	}
	u.logger.Info("created missing sheet tab", "spreadsheet_id", spreadsheetID, "tab", tab)
	return nil
}

func buildValues(records []timesheet.Record) [][]any {
	extended := timesheet.AnyExtended(records)

	values := make([][]any, 0, len(records)+1)
	values = append(values, toAnyRow(output.Headers(records)))
	for _, record := range records {
		values = append(values, toAnyRow(output.Row(record, extended)))
	}
	return values
}

func toAnyRow(cells []string) []any {
	row := make([]any, len(cells))
	for i, cell := range cells {
		row[i] = cell
	}
	return row
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}
