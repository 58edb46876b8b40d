package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wdiazux/harvest-sheet/config"
	"github.com/wdiazux/harvest-sheet/storage"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent export runs from the local history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		settings := config.LoadSettings()
		store, err := storage.OpenSQLite(settings.HistoryDB)
		if err != nil {
			return err
		}
		defer store.Close()

		runs, err := store.ListRuns(historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Println("No export runs recorded yet.")
			return nil
		}

		for _, run := range runs {
			status := fmt.Sprintf("%d records -> %s", run.RecordCount, run.CSVPath)
			if run.Error != "" {
				status = "FAILED: " + run.Error
			} else if run.Uploaded {
				status += " (uploaded)"
			}
			fmt.Printf("%s  %s  %s\n",
				run.RunAt.Local().Format(time.RFC3339), prefixLabel(run.Prefix), status)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum number of runs to show")
}
