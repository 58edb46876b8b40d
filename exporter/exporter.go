package exporter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/wdiazux/harvest-sheet/config"
	"github.com/wdiazux/harvest-sheet/harvest"
	"github.com/wdiazux/harvest-sheet/internal/timeutil"
	"github.com/wdiazux/harvest-sheet/output"
	"github.com/wdiazux/harvest-sheet/storage"
	"github.com/wdiazux/harvest-sheet/timesheet"
)

// Uploader pushes a record set into one spreadsheet tab.
type Uploader interface {
	Upload(ctx context.Context, spreadsheetID, tab string, records []timesheet.Record) error
}

// Result is one account's outcome for the end-of-run summary.
type Result struct {
	Prefix      string
	RecordCount int
	CSVPath     string
	Uploaded    bool
	Err         error
}

// Summary aggregates all per-account results of one run.
type Summary struct {
	Results   []Result
	DateRange timeutil.Range
}

func (s Summary) Succeeded() int {
	count := 0
	for _, result := range s.Results {
		if result.Err == nil {
			count++
		}
	}
	return count
}

func (s Summary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// Options configures one driver run. The constructor hooks exist so
// tests can substitute fake API clients and uploaders.
type Options struct {
	Env      config.Environment
	Settings config.Settings

	// Account selection: an explicit prefix, discovery of all accounts,
	// or neither (a single discovered account is picked automatically).
	Prefix   string
	AllUsers bool

	// Date range: CLI arguments take priority over FROM_DATE/TO_DATE
	// from the settings; with neither the reporting-week default applies.
	FromArg string
	ToArg   string

	// OutputPath overrides the derived CSV path; only honored for
	// single-account runs. RawJSONPath forces a raw dump.
	OutputPath  string
	RawJSONPath string
	Format      string
	NoUpload    bool

	Logger  *slog.Logger
	History *storage.SQLiteStore
	Now     func() time.Time
	Sleep   func(time.Duration)

	NewClient   func(account config.AccountConfig) (harvest.Client, error)
	NewUploader func(ctx context.Context) (Uploader, error)
}

func (o *Options) withDefaults() {
	if o.Logger == nil {
		o.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Sleep == nil {
		o.Sleep = time.Sleep
	}
	if o.NewClient == nil {
		o.NewClient = func(account config.AccountConfig) (harvest.Client, error) {
			return harvest.NewClient(harvest.ClientConfig{
				AccountID: account.AccountID,
				AuthToken: account.AuthToken,
				UserAgent: account.UserAgent,
				Logger:    o.Logger,
			})
		}
	}
}

// Run executes the export pipeline for every selected account. A failing
// account is recorded and never stops the remaining accounts; the
// returned error is non-nil only when no account could be selected or
// every selected account failed.
func Run(ctx context.Context, opts Options) (Summary, error) {
	opts.withDefaults()

	prefixes, err := selectPrefixes(opts)
	if err != nil {
		return Summary{}, err
	}

	fromArg, toArg := opts.FromArg, opts.ToArg
	if fromArg == "" && toArg == "" {
		fromArg, toArg = opts.Settings.FromDate, opts.Settings.ToDate
	}
	dateRange, err := timeutil.ResolveRange(opts.Now(), fromArg, toArg)
	if err != nil {
		return Summary{}, err
	}
	opts.Logger.Info("resolved export date range", "from", dateRange.FromString(), "to", dateRange.ToString())

	if opts.OutputPath != "" && len(prefixes) > 1 {
		return Summary{}, &config.ConfigError{
			Reason: "an explicit output path cannot be combined with multiple accounts",
		}
	}

	summary := Summary{DateRange: dateRange}
	for i, prefix := range prefixes {
		if i > 0 && opts.Settings.AccountDelay > 0 {
			opts.Sleep(opts.Settings.AccountDelay)
		}

		result := exportAccount(ctx, opts, prefix, dateRange, len(prefixes) > 1)
		summary.Results = append(summary.Results, result)

		if result.Err != nil {
			opts.Logger.Error("account export failed",
				"prefix", displayPrefix(prefix),
				"kind", string(Classify(result.Err)),
				"error", result.Err)
		} else {
			opts.Logger.Info("account export succeeded",
				"prefix", displayPrefix(prefix),
				"records", result.RecordCount,
				"csv", result.CSVPath,
				"uploaded", result.Uploaded)
		}

		if opts.History != nil {
			record := storage.RunRecord{
				RunAt:       opts.Now(),
				Prefix:      prefix,
				RecordCount: result.RecordCount,
				CSVPath:     result.CSVPath,
				Uploaded:    result.Uploaded,
			}
			if result.Err != nil {
				record.Error = result.Err.Error()
			}
			if err := opts.History.RecordRun(record); err != nil {
				opts.Logger.Warn("could not record run history", "error", err)
			}
		}
	}

	if summary.Succeeded() == 0 {
		return summary, fmt.Errorf("all %d accounts failed", len(summary.Results))
	}
	return summary, nil
}

func selectPrefixes(opts Options) ([]string, error) {
	// Environment prefixes are upper-case by convention, so --user alice_
	// means ALICE_.
	if prefix := strings.ToUpper(strings.TrimSpace(opts.Prefix)); prefix != "" {
		return []string{prefix}, nil
	}

	prefixes := config.DiscoverPrefixes(opts.Env)
	if len(prefixes) == 0 {
		return nil, &config.ConfigError{
			Reason: "no accounts configured; set HARVEST_ACCOUNT_ID or a prefixed variant",
		}
	}
	if opts.AllUsers {
		return prefixes, nil
	}
	if len(prefixes) > 1 {
		return nil, &config.ConfigError{
			Reason: fmt.Sprintf("%d accounts configured; pass --user PREFIX or --all-users", len(prefixes)),
		}
	}
	return prefixes, nil
}

// exportAccount runs the full single-account pipeline: resolve, fetch,
// validate, write CSV, optional raw dump, optional upload.
func exportAccount(ctx context.Context, opts Options, prefix string, dateRange timeutil.Range, multiAccount bool) Result {
	result := Result{Prefix: prefix}

	account, err := config.ResolveAccount(opts.Env, prefix)
	if err != nil {
		result.Err = err
		return result
	}

	client, err := opts.NewClient(account)
	if err != nil {
		result.Err = err
		return result
	}

	opts.Logger.Debug("fetching time entries",
		"prefix", displayPrefix(prefix),
		"account_id", account.AccountID,
		"user_id", account.UserIDValue())
	collection, err := client.ListTimeEntries(ctx, dateRange.From, dateRange.To, account.UserIDValue())
	if err != nil {
		result.Err = err
		return result
	}

	records, err := timesheet.NormalizeAll(collection.Entries, timesheet.Options{
		Extended: opts.Settings.IncludeAdvancedFields,
	})
	if err != nil {
		result.Err = err
		return result
	}
	result.RecordCount = len(records)

	csvPath := opts.OutputPath
	if csvPath == "" {
		csvPath = output.DefaultPath(opts.Settings.OutputDir, opts.Settings.CSVOutputFile, prefix)
	}
	format := opts.Format
	if format == "" {
		format = output.DetectFormat(csvPath)
	}
	writer, err := output.WriterForFormat(format)
	if err != nil {
		result.Err = err
		return result
	}
	if err := writer.Write(csvPath, records); err != nil {
		result.Err = err
		return result
	}
	result.CSVPath = csvPath

	if opts.RawJSONPath != "" || opts.Settings.EnableRawJSON {
		rawPath := opts.RawJSONPath
		switch {
		case rawPath == "":
			rawPath = rawDumpPath(csvPath)
		case multiAccount:
			// A shared dump path would be overwritten by each account in
			// turn, so the prefix is folded into the file name.
			rawPath = prefixedPath(rawPath, prefix)
		}
		if err := output.WriteRawJSON(rawPath, collection.Raw); err != nil {
			// The raw dump is auxiliary; its failure does not fail the account.
			opts.Logger.Warn("could not write raw json dump", "path", rawPath, "error", err)
		}
	}

	if opts.Settings.UploadToGoogleSheet && !opts.NoUpload {
		if err := uploadRecords(ctx, opts, account, records); err != nil {
			result.Err = err
			return result
		}
		result.Uploaded = true
	}

	return result
}

func uploadRecords(ctx context.Context, opts Options, account config.AccountConfig, records []timesheet.Record) error {
	if !account.SheetConfigured() {
		return &config.ConfigError{
			Variable: account.Prefix + "GOOGLE_SHEET_ID",
			Reason:   "sheet id and tab name are required when upload is enabled",
		}
	}
	if opts.NewUploader == nil {
		return errors.New("no uploader configured")
	}

	uploader, err := opts.NewUploader(ctx)
	if err != nil {
		return err
	}
	return uploader.Upload(ctx, account.SheetID, account.SheetTab, records)
}

// rawDumpPath puts the raw dump next to the export file it mirrors.
func rawDumpPath(csvPath string) string {
	ext := filepath.Ext(csvPath)
	return strings.TrimSuffix(csvPath, ext) + "_raw.json"
}

// prefixedPath folds the lowercased account prefix into a file name, the
// same scheme output.DefaultPath uses for the CSV.
func prefixedPath(path, prefix string) string {
	trimmed := strings.ToLower(strings.TrimSuffix(prefix, "_"))
	if trimmed == "" {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_" + trimmed + ext
}

func displayPrefix(prefix string) string {
	if prefix == "" {
		return "(default)"
	}
	return prefix
}
