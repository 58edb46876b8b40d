package exporter

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/wdiazux/harvest-sheet/config"
	"github.com/wdiazux/harvest-sheet/harvest"
	"github.com/wdiazux/harvest-sheet/timesheet"
)

type fakeClient struct {
	collection *harvest.TimeEntryCollection
	err        error
}

func (f fakeClient) ListTimeEntries(_ context.Context, _, _ time.Time, _ int64) (*harvest.TimeEntryCollection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.collection, nil
}

type fakeUploader struct {
	sheetID string
	tab     string
	rows    int
	err     error
}

func (f *fakeUploader) Upload(_ context.Context, spreadsheetID, tab string, records []timesheet.Record) error {
	f.sheetID = spreadsheetID
	f.tab = tab
	f.rows = len(records)
	return f.err
}

func entry(id int64, hours float64) harvest.TimeEntry {
	billable := true
	return harvest.TimeEntry{
		ID:        id,
		SpentDate: "2026-08-24",
		Hours:     &hours,
		Billable:  &billable,
		Client:    &harvest.NamedRef{ID: 1, Name: "Acme"},
		Project:   &harvest.ProjectRef{ID: 2, Name: "Website"},
		Task:      &harvest.NamedRef{ID: 3, Name: "Development"},
		User:      &harvest.NamedRef{ID: 4, Name: "Alice Smith"},
	}
}

func entries(ids ...int64) *harvest.TimeEntryCollection {
	collection := &harvest.TimeEntryCollection{}
	for _, id := range ids {
		collection.Entries = append(collection.Entries, entry(id, 1))
		collection.Raw = append(collection.Raw, []byte(fmt.Sprintf(`{"id":%d}`, id)))
	}
	return collection
}

func twoAccountEnv() config.Environment {
	return config.Environment{
		"ALICE_HARVEST_ACCOUNT_ID": "1",
		"ALICE_HARVEST_AUTH_TOKEN": "alice-token",
		"ALICE_HARVEST_USER_AGENT": "alice@example.com",
		"BOB_HARVEST_ACCOUNT_ID":   "2",
		"BOB_HARVEST_AUTH_TOKEN":   "bob-token",
		"BOB_HARVEST_USER_AGENT":   "bob@example.com",
	}
}

func countCSVRows(t *testing.T, path string) int {
	t.Helper()
	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("open csv %s: %v", path, err)
	}
	defer file.Close()
	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		t.Fatalf("parse csv %s: %v", path, err)
	}
	return len(rows)
}

func TestRun_PartialFailureStillSucceeds(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	opts := Options{
		Env:      twoAccountEnv(),
		AllUsers: true,
		Settings: config.Settings{OutputDir: outputDir},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(account config.AccountConfig) (harvest.Client, error) {
			switch account.AccountID {
			case "1":
				return fakeClient{collection: entries(101, 102, 103)}, nil
			default:
				return fakeClient{err: &harvest.APIError{StatusCode: http.StatusInternalServerError, Body: "boom"}}, nil
			}
		},
	}

	summary, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("expected partial success, got error: %v", err)
	}

	if summary.Succeeded() != 1 || summary.Failed() != 1 {
		t.Fatalf("expected 1 of 2 succeeded, got %d of %d", summary.Succeeded(), len(summary.Results))
	}

	alice := summary.Results[0]
	if alice.Prefix != "ALICE_" || alice.Err != nil {
		t.Fatalf("unexpected alice result: %+v", alice)
	}
	if alice.RecordCount != 3 {
		t.Fatalf("expected 3 records for alice, got %d", alice.RecordCount)
	}
	wantPath := filepath.Join(outputDir, "harvest_export_alice.csv")
	if alice.CSVPath != wantPath {
		t.Fatalf("unexpected csv path: %q", alice.CSVPath)
	}
	if rows := countCSVRows(t, wantPath); rows != 4 {
		t.Fatalf("expected header + 3 rows, got %d", rows)
	}

	bob := summary.Results[1]
	if bob.Prefix != "BOB_" || bob.Err == nil {
		t.Fatalf("expected bob to fail: %+v", bob)
	}
	var apiErr *harvest.APIError
	if !errors.As(bob.Err, &apiErr) || apiErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 APIError for bob, got %v", bob.Err)
	}
	if Classify(bob.Err) != KindAPI {
		t.Fatalf("expected api error kind, got %s", Classify(bob.Err))
	}
}

func TestRun_NoAccountsConfigured(t *testing.T) {
	t.Parallel()

	opts := Options{
		Env:      config.Environment{"PATH": "/usr/bin"},
		AllUsers: true,
		Settings: config.Settings{OutputDir: t.TempDir()},
	}

	_, err := Run(context.Background(), opts)
	var configErr *config.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError for empty discovery, got %v", err)
	}
}

func TestRun_AllAccountsFailed(t *testing.T) {
	t.Parallel()

	opts := Options{
		Env:      twoAccountEnv(),
		AllUsers: true,
		Settings: config.Settings{OutputDir: t.TempDir()},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{err: &harvest.APIError{StatusCode: http.StatusUnauthorized, Body: "bad token"}}, nil
		},
	}

	summary, err := Run(context.Background(), opts)
	if err == nil {
		t.Fatal("expected aggregate error when every account fails")
	}
	if summary.Failed() != 2 {
		t.Fatalf("expected 2 failures, got %d", summary.Failed())
	}
}

func TestRun_SingleDiscoveredAccountIsPickedAutomatically(t *testing.T) {
	t.Parallel()

	env := config.Environment{
		"HARVEST_ACCOUNT_ID": "1",
		"HARVEST_AUTH_TOKEN": "token",
		"HARVEST_USER_AGENT": "me@example.com",
	}
	opts := Options{
		Env:      env,
		Settings: config.Settings{OutputDir: t.TempDir()},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{collection: entries(1)}, nil
		},
	}

	summary, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Results) != 1 || summary.Results[0].Prefix != "" {
		t.Fatalf("expected single default-account result, got %+v", summary.Results)
	}
}

func TestRun_MultipleAccountsWithoutSelectionFlag(t *testing.T) {
	t.Parallel()

	opts := Options{
		Env:      twoAccountEnv(),
		Settings: config.Settings{OutputDir: t.TempDir()},
	}

	_, err := Run(context.Background(), opts)
	var configErr *config.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError asking for --user/--all-users, got %v", err)
	}
}

func TestRun_OneSidedDateRangeFails(t *testing.T) {
	t.Parallel()

	opts := Options{
		Env:      twoAccountEnv(),
		AllUsers: true,
		Settings: config.Settings{OutputDir: t.TempDir()},
		FromArg:  "2026-08-24",
	}

	_, err := Run(context.Background(), opts)
	var configErr *config.ConfigError
	if !errors.As(err, &configErr) {
		t.Fatalf("expected ConfigError for one-sided range, got %v", err)
	}
}

func TestRun_PacingSleepBetweenAccounts(t *testing.T) {
	t.Parallel()

	var slept []time.Duration
	opts := Options{
		Env:      twoAccountEnv(),
		AllUsers: true,
		Settings: config.Settings{OutputDir: t.TempDir(), AccountDelay: 3 * time.Second},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		Sleep:    func(d time.Duration) { slept = append(slept, d) },
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{collection: entries(1)}, nil
		},
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	// One pause between two accounts, none after the last.
	if len(slept) != 1 || slept[0] != 3*time.Second {
		t.Fatalf("unexpected sleeps: %v", slept)
	}
}

func TestRun_UploadsWhenEnabled(t *testing.T) {
	t.Parallel()

	env := config.Environment{
		"HARVEST_ACCOUNT_ID":    "1",
		"HARVEST_AUTH_TOKEN":    "token",
		"HARVEST_USER_AGENT":    "me@example.com",
		"GOOGLE_SHEET_ID":       "sheet-42",
		"GOOGLE_SHEET_TAB_NAME": "Hours",
	}
	uploader := &fakeUploader{}
	opts := Options{
		Env:      env,
		Settings: config.Settings{OutputDir: t.TempDir(), UploadToGoogleSheet: true},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{collection: entries(1, 2)}, nil
		},
		NewUploader: func(context.Context) (Uploader, error) { return uploader, nil },
	}

	summary, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if !summary.Results[0].Uploaded {
		t.Fatalf("expected upload, got %+v", summary.Results[0])
	}
	if uploader.sheetID != "sheet-42" || uploader.tab != "Hours" || uploader.rows != 2 {
		t.Fatalf("unexpected upload call: %+v", uploader)
	}
}

func TestRun_UploadFailureKeepsCSV(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	env := config.Environment{
		"HARVEST_ACCOUNT_ID":    "1",
		"HARVEST_AUTH_TOKEN":    "token",
		"HARVEST_USER_AGENT":    "me@example.com",
		"GOOGLE_SHEET_ID":       "sheet-42",
		"GOOGLE_SHEET_TAB_NAME": "Hours",
	}
	uploader := &fakeUploader{err: errors.New("quota exceeded")}
	opts := Options{
		Env:      env,
		Settings: config.Settings{OutputDir: outputDir, UploadToGoogleSheet: true},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{collection: entries(1)}, nil
		},
		NewUploader: func(context.Context) (Uploader, error) { return uploader, nil },
	}

	summary, err := Run(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error when the only account fails to upload")
	}
	result := summary.Results[0]
	if result.Err == nil || result.Uploaded {
		t.Fatalf("expected failed upload in result: %+v", result)
	}
	// The CSV written before the upload attempt stays on disk.
	if _, statErr := os.Stat(filepath.Join(outputDir, "harvest_export.csv")); statErr != nil {
		t.Fatalf("expected csv to survive upload failure: %v", statErr)
	}
}

func TestRun_ValidationFailureAbortsAccount(t *testing.T) {
	t.Parallel()

	bad := entry(7, 1)
	bad.Hours = nil
	collection := &harvest.TimeEntryCollection{Entries: []harvest.TimeEntry{bad}}

	env := config.Environment{
		"HARVEST_ACCOUNT_ID": "1",
		"HARVEST_AUTH_TOKEN": "token",
		"HARVEST_USER_AGENT": "me@example.com",
	}
	outputDir := t.TempDir()
	opts := Options{
		Env:      env,
		Settings: config.Settings{OutputDir: outputDir},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{collection: collection}, nil
		},
	}

	summary, err := Run(context.Background(), opts)
	if err == nil {
		t.Fatal("expected error when the only account fails validation")
	}
	if Classify(summary.Results[0].Err) != KindValidation {
		t.Fatalf("expected validation kind, got %s", Classify(summary.Results[0].Err))
	}
	// No partial CSV is written for a record set that failed validation.
	if _, statErr := os.Stat(filepath.Join(outputDir, "harvest_export.csv")); !os.IsNotExist(statErr) {
		t.Fatalf("expected no csv after validation failure, stat: %v", statErr)
	}
}

func TestRun_UserPrefixIsCaseInsensitive(t *testing.T) {
	t.Parallel()

	opts := Options{
		Env:      twoAccountEnv(),
		Prefix:   "alice_",
		Settings: config.Settings{OutputDir: t.TempDir()},
		FromArg:  "2026-08-24",
		ToArg:    "2026-08-30",
		NewClient: func(account config.AccountConfig) (harvest.Client, error) {
			if account.AccountID != "1" {
				t.Errorf("resolved wrong account: %q", account.AccountID)
			}
			return fakeClient{collection: entries(1)}, nil
		},
	}

	summary, err := Run(context.Background(), opts)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(summary.Results) != 1 || summary.Results[0].Prefix != "ALICE_" {
		t.Fatalf("expected the ALICE_ account, got %+v", summary.Results)
	}
}

func rawDumpIDs(t *testing.T, path string) []int64 {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read raw dump %s: %v", path, err)
	}
	var dump struct {
		TimeEntries []struct {
			ID int64 `json:"id"`
		} `json:"time_entries"`
	}
	if err := json.Unmarshal(data, &dump); err != nil {
		t.Fatalf("parse raw dump %s: %v", path, err)
	}
	ids := make([]int64, 0, len(dump.TimeEntries))
	for _, entry := range dump.TimeEntries {
		ids = append(ids, entry.ID)
	}
	return ids
}

func TestRun_RawJSONDumpPerAccount(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	rawPath := filepath.Join(outputDir, "raw.json")
	opts := Options{
		Env:         twoAccountEnv(),
		AllUsers:    true,
		Settings:    config.Settings{OutputDir: outputDir},
		FromArg:     "2026-08-24",
		ToArg:       "2026-08-30",
		RawJSONPath: rawPath,
		NewClient: func(account config.AccountConfig) (harvest.Client, error) {
			if account.AccountID == "1" {
				return fakeClient{collection: entries(101, 102, 103)}, nil
			}
			return fakeClient{collection: entries(201)}, nil
		},
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}

	// Each account gets its own dump; neither overwrites the other.
	aliceIDs := rawDumpIDs(t, filepath.Join(outputDir, "raw_alice.json"))
	if len(aliceIDs) != 3 || aliceIDs[0] != 101 {
		t.Fatalf("unexpected alice dump: %v", aliceIDs)
	}
	bobIDs := rawDumpIDs(t, filepath.Join(outputDir, "raw_bob.json"))
	if len(bobIDs) != 1 || bobIDs[0] != 201 {
		t.Fatalf("unexpected bob dump: %v", bobIDs)
	}
	if _, err := os.Stat(rawPath); !os.IsNotExist(err) {
		t.Fatalf("expected no shared dump file, stat: %v", err)
	}
}

func TestRun_RawJSONDump(t *testing.T) {
	t.Parallel()

	outputDir := t.TempDir()
	rawPath := filepath.Join(outputDir, "raw.json")
	env := config.Environment{
		"HARVEST_ACCOUNT_ID": "1",
		"HARVEST_AUTH_TOKEN": "token",
		"HARVEST_USER_AGENT": "me@example.com",
	}
	opts := Options{
		Env:         env,
		Settings:    config.Settings{OutputDir: outputDir},
		FromArg:     "2026-08-24",
		ToArg:       "2026-08-30",
		RawJSONPath: rawPath,
		NewClient: func(config.AccountConfig) (harvest.Client, error) {
			return fakeClient{collection: entries(1, 2, 3)}, nil
		},
	}

	if _, err := Run(context.Background(), opts); err != nil {
		t.Fatalf("run: %v", err)
	}
	if _, err := os.Stat(rawPath); err != nil {
		t.Fatalf("expected raw json dump: %v", err)
	}
}
