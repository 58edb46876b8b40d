package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/wdiazux/harvest-sheet/config"
)

var (
	envFile   string
	debugMode bool

	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "harvest-sheet",
	Short: "Export Harvest time entries to CSV and Google Sheets.",
	Long: `harvest-sheet pulls time entries from the Harvest API for one or more
configured accounts, validates and flattens them into rows, writes a CSV
per account, and can replace the contents of a Google Sheets tab with the
same rows.

Accounts are configured through environment variables. A plain
HARVEST_ACCOUNT_ID / HARVEST_AUTH_TOKEN / HARVEST_USER_AGENT set defines
the default account; prefixed sets such as ALICE_HARVEST_ACCOUNT_ID define
additional accounts that are processed one at a time.`,
	Example: `
  # Export the default account for the last reporting week
  harvest-sheet export

  # Export one prefixed account with an explicit date range
  harvest-sheet export --user ALICE_ --from-date 2026-08-24 --to-date 2026-08-30

  # Export every configured account
  harvest-sheet export --all-users

  # List the accounts discovered in the environment
  harvest-sheet accounts

  # Show recent export runs
  harvest-sheet history --limit 20
`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Dotenv file to load before resolving configuration (default ./.env)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging")
}

// initConfig loads the dotenv file and binds environment variables.
func initConfig() {
	path := envFile
	explicit := path != ""
	if path == "" {
		path = ".env"
	}
	if err := config.LoadDotenv(path, explicit); err != nil {
		logger.Error("could not load env file", "path", path, "error", err)
		os.Exit(1)
	}

	config.SetDefaults()
	viper.AutomaticEnv()

	level := slog.LevelInfo
	if debugMode {
		level = slog.LevelDebug
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
