package output

import (
	"encoding/json"
	"fmt"
	"os"
)

type rawDump struct {
	TimeEntries []json.RawMessage `json:"time_entries"`
}

// WriteRawJSON dumps the unmodified API entries to a file in the same
// envelope shape the Harvest API returns them in.
func WriteRawJSON(path string, entries []json.RawMessage) error {
	if err := ensureParentDir(path); err != nil {
		return err
	}

	if entries == nil {
		entries = []json.RawMessage{}
	}
	data, err := json.MarshalIndent(rawDump{TimeEntries: entries}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal raw json: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write raw json %s: %w", path, err)
	}
	return nil
}
