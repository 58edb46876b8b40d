package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wdiazux/harvest-sheet/config"
	"github.com/wdiazux/harvest-sheet/exporter"
	"github.com/wdiazux/harvest-sheet/sheets"
	"github.com/wdiazux/harvest-sheet/storage"
)

var (
	exportFromDate  string
	exportToDate    string
	exportOutput    string
	exportJSON      string
	exportUser      string
	exportAllUsers  bool
	exportFormat    string
	exportNoUpload  bool
	exportNoHistory bool
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Fetch time entries and export them to CSV (and optionally Google Sheets)",
	Long: `Fetch time entries from the Harvest API, validate them, and write one
CSV file per account. With UPLOAD_TO_GOOGLE_SHEET enabled and a sheet
target configured, the same rows replace the contents of the account's
spreadsheet tab after the CSV is written.

Without --from-date/--to-date the date range defaults to FROM_DATE and
TO_DATE from the environment, and failing that to the reporting week:
the previous Monday-Sunday week, or from this week's Friday through
today when run on a Friday, Saturday, or Sunday.`,
	Example: `
  # Default account, default date range
  harvest-sheet export

  # Explicit range and output file
  harvest-sheet export --from-date 2026-08-24 --to-date 2026-08-30 --output ./alice.csv

  # Every configured account, keeping the raw API responses
  harvest-sheet export --all-users --json ./output/raw.json

  # Excel output instead of CSV
  harvest-sheet export --output ./report.xlsx
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		env := config.SystemEnvironment()
		settings := config.LoadSettings()

		opts := exporter.Options{
			Env:         env,
			Settings:    settings,
			Prefix:      strings.TrimSpace(exportUser),
			AllUsers:    exportAllUsers,
			FromArg:     exportFromDate,
			ToArg:       exportToDate,
			OutputPath:  exportOutput,
			RawJSONPath: exportJSON,
			Format:      exportFormat,
			NoUpload:    exportNoUpload,
			Logger:      logger,
		}

		if settings.UploadToGoogleSheet && !exportNoUpload {
			sa, err := config.ResolveServiceAccount(env)
			if err != nil {
				return err
			}
			opts.NewUploader = func(ctx context.Context) (exporter.Uploader, error) {
				return sheets.NewUploader(ctx, sa, logger)
			}
		}

		if !exportNoHistory {
			store, err := storage.OpenSQLite(settings.HistoryDB)
			if err != nil {
				logger.Warn("run history disabled", "error", err)
			} else {
				defer store.Close()
				opts.History = store
			}
		}

		summary, err := exporter.Run(cmd.Context(), opts)
		if err != nil {
			return err
		}

		fmt.Printf("Export completed. Range: %s, Accounts: %d of %d succeeded\n",
			summary.DateRange, summary.Succeeded(), len(summary.Results))
		for _, result := range summary.Results {
			if result.Err != nil {
				fmt.Printf("  %s: FAILED (%s): %v\n",
					prefixLabel(result.Prefix), exporter.Classify(result.Err), result.Err)
				continue
			}
			fmt.Printf("  %s: %d records -> %s\n",
				prefixLabel(result.Prefix), result.RecordCount, result.CSVPath)
		}
		return nil
	},
}

func prefixLabel(prefix string) string {
	if prefix == "" {
		return "(default)"
	}
	return prefix
}

func init() {
	rootCmd.AddCommand(exportCmd)

	exportCmd.Flags().StringVar(&exportFromDate, "from-date", "", "Start date (YYYY-MM-DD)")
	exportCmd.Flags().StringVar(&exportToDate, "to-date", "", "End date (YYYY-MM-DD)")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file path (single account only; default output/harvest_export_<prefix>.csv)")
	exportCmd.Flags().StringVar(&exportJSON, "json", "", "Write the raw API response collection to this file (multi-account runs get a per-account suffix)")
	exportCmd.Flags().StringVarP(&exportUser, "user", "u", "", "Account prefix to export (case-insensitive, e.g. alice_)")
	exportCmd.Flags().BoolVar(&exportAllUsers, "all-users", false, "Discover and export every configured account")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "", "Output format: csv|excel (inferred from output extension)")
	exportCmd.Flags().BoolVar(&exportNoUpload, "no-upload", false, "Skip the Google Sheets upload even when enabled")
	exportCmd.Flags().BoolVar(&exportNoHistory, "no-history", false, "Do not record this run in the local history database")

	exportCmd.MarkFlagsMutuallyExclusive("user", "all-users")
}
