package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
)

const (
	KeyUploadToGoogleSheet   = "upload_to_google_sheet"
	KeyEnableRawJSON         = "enable_raw_json"
	KeyIncludeAdvancedFields = "include_advanced_fields"
	KeyFromDate              = "from_date"
	KeyToDate                = "to_date"
	KeyOutputDir             = "output_dir"
	KeyCSVOutputFile         = "csv_output_file"
	KeyAccountDelaySeconds   = "account_delay_seconds"
	KeyHistoryDB             = "history_db"
)

// Settings holds the run-wide switches read from environment variables
// (or a config file). Per-account credentials are resolved separately,
// see ResolveAccount.
type Settings struct {
	UploadToGoogleSheet   bool
	EnableRawJSON         bool
	IncludeAdvancedFields bool
	FromDate              string
	ToDate                string
	OutputDir             string
	CSVOutputFile         string
	AccountDelay          time.Duration
	HistoryDB             string
}

// SetDefaults sets default values if not provided
func SetDefaults() {
	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(KeyOutputDir, "output")
	v.SetDefault(KeyCSVOutputFile, "harvest_export.csv")
	v.SetDefault(KeyAccountDelaySeconds, 3)
	v.SetDefault(KeyHistoryDB, "./harvest-sheet.db")
}

// LoadSettings reads the run-wide settings from Viper.
func LoadSettings() Settings {
	return loadSettingsFromViper(viper.GetViper())
}

func loadSettingsFromViper(v *viper.Viper) Settings {
	delay := v.GetInt(KeyAccountDelaySeconds)
	if delay < 0 {
		delay = 0
	}
	return Settings{
		UploadToGoogleSheet:   FlagEnabled(v.GetString(KeyUploadToGoogleSheet)),
		EnableRawJSON:         FlagEnabled(v.GetString(KeyEnableRawJSON)),
		IncludeAdvancedFields: FlagEnabled(v.GetString(KeyIncludeAdvancedFields)),
		FromDate:              strings.TrimSpace(v.GetString(KeyFromDate)),
		ToDate:                strings.TrimSpace(v.GetString(KeyToDate)),
		OutputDir:             v.GetString(KeyOutputDir),
		CSVOutputFile:         v.GetString(KeyCSVOutputFile),
		AccountDelay:          time.Duration(delay) * time.Second,
		HistoryDB:             v.GetString(KeyHistoryDB),
	}
}

// FlagEnabled reports whether an environment toggle is switched on.
// 1, true and yes are accepted interchangeably.
func FlagEnabled(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes":
		return true
	default:
		return false
	}
}

// LoadDotenv loads variables from a dotenv file into the process
// environment without overriding values that are already set. A missing
// file at the default location is not an error.
func LoadDotenv(path string, explicit bool) error {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		return fmt.Errorf("stat env file %s: %w", path, err)
	}
	if err := gotenv.Load(path); err != nil {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}
