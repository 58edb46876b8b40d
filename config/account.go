package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
)

const accountIDSuffix = "HARVEST_ACCOUNT_ID"

// ConfigError reports a missing or malformed configuration value.
type ConfigError struct {
	Variable string
	Reason   string
}

func (e *ConfigError) Error() string {
	if e.Variable == "" {
		return fmt.Sprintf("configuration error: %s", e.Reason)
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Variable, e.Reason)
}

// Environment is a snapshot of process environment variables. Resolution
// works against an explicit map so prefix discovery is deterministic and
// tests never touch the real environment.
type Environment map[string]string

// SystemEnvironment snapshots os.Environ.
func SystemEnvironment() Environment {
	env := make(Environment, len(os.Environ()))
	for _, pair := range os.Environ() {
		if key, value, ok := strings.Cut(pair, "="); ok {
			env[key] = value
		}
	}
	return env
}

// AccountConfig carries everything needed to export one Harvest account.
// Immutable once resolved.
type AccountConfig struct {
	Prefix    string
	AccountID string `validate:"required"`
	AuthToken string `validate:"required"`
	UserAgent string `validate:"required"`
	UserID    string `validate:"omitempty,numeric"`
	SheetID   string
	SheetTab  string
}

// SheetConfigured reports whether the account names an upload target.
func (a AccountConfig) SheetConfigured() bool {
	return a.SheetID != "" && a.SheetTab != ""
}

// ResolveAccount builds the AccountConfig for one prefix. Each variable
// is looked up first with the prefix and then unprefixed, so shared
// values need to be set only once.
func ResolveAccount(env Environment, prefix string) (AccountConfig, error) {
	cfg := AccountConfig{
		Prefix:    prefix,
		AccountID: lookup(env, prefix, "HARVEST_ACCOUNT_ID"),
		AuthToken: lookup(env, prefix, "HARVEST_AUTH_TOKEN"),
		UserAgent: lookup(env, prefix, "HARVEST_USER_AGENT"),
		UserID:    lookup(env, prefix, "HARVEST_USER_ID"),
		SheetID:   lookup(env, prefix, "GOOGLE_SHEET_ID"),
		SheetTab:  lookup(env, prefix, "GOOGLE_SHEET_TAB_NAME"),
	}

	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return AccountConfig{}, configErrorForField(prefix, fieldErrs[0])
		}
		return AccountConfig{}, fmt.Errorf("validate account config: %w", err)
	}
	return cfg, nil
}

func configErrorForField(prefix string, fieldErr validator.FieldError) *ConfigError {
	variable := map[string]string{
		"AccountID": "HARVEST_ACCOUNT_ID",
		"AuthToken": "HARVEST_AUTH_TOKEN",
		"UserAgent": "HARVEST_USER_AGENT",
		"UserID":    "HARVEST_USER_ID",
	}[fieldErr.Field()]
	if variable == "" {
		variable = fieldErr.Field()
	}
	reason := "is required and not set"
	if fieldErr.Tag() == "numeric" {
		reason = "must be a numeric user id"
	}
	return &ConfigError{Variable: prefix + variable, Reason: reason}
}

func lookup(env Environment, prefix, name string) string {
	if prefix != "" {
		if value, ok := env[prefix+name]; ok && strings.TrimSpace(value) != "" {
			return strings.TrimSpace(value)
		}
	}
	return strings.TrimSpace(env[name])
}

// DiscoverPrefixes scans the environment for account configurations and
// returns the sorted set of prefixes. A bare HARVEST_ACCOUNT_ID counts as
// the default account with the empty prefix.
func DiscoverPrefixes(env Environment) []string {
	seen := make(map[string]struct{})
	for name, value := range env {
		if !strings.HasSuffix(name, accountIDSuffix) || strings.TrimSpace(value) == "" {
			continue
		}
		prefix := strings.TrimSuffix(name, accountIDSuffix)
		if prefix != "" && !strings.HasSuffix(prefix, "_") {
			continue
		}
		seen[prefix] = struct{}{}
	}

	prefixes := make([]string, 0, len(seen))
	for prefix := range seen {
		prefixes = append(prefixes, prefix)
	}
	sort.Strings(prefixes)
	return prefixes
}

// UserIDValue parses the optional numeric user filter. Returns 0 when the
// account has no user filter configured.
func (a AccountConfig) UserIDValue() int64 {
	if a.UserID == "" {
		return 0
	}
	id, err := strconv.ParseInt(a.UserID, 10, 64)
	if err != nil {
		return 0
	}
	return id
}
