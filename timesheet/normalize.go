package timesheet

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/wdiazux/harvest-sheet/harvest"
)

// defaultRole fills the Roles column for every record; the Harvest API
// has no role concept on time entries.
const defaultRole = "Developer"

// ValidationError reports a time entry that failed schema checks. It
// aborts the whole account export rather than dropping the entry, so an
// incomplete export is never produced silently.
type ValidationError struct {
	EntryID int64
	Field   string
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("time entry %d: field %q %s", e.EntryID, e.Field, e.Reason)
}

type Options struct {
	// Extended enables the optional extended field set
	// (INCLUDE_ADVANCED_FIELDS in the environment).
	Extended bool
}

// coreShape is validated declaratively after extraction; tags mirror the
// required-core contract.
type coreShape struct {
	Date  string  `validate:"required,datetime=2006-01-02"`
	Hours float64 `validate:"gte=0"`
}

// Normalize maps one raw API time entry into a Record, type-checking the
// core fields. Extended fields are copied only in extended mode and are
// left nil when the source omits them.
func Normalize(entry harvest.TimeEntry, opts Options) (Record, error) {
	required := []struct {
		field   string
		present bool
	}{
		{"spent_date", strings.TrimSpace(entry.SpentDate) != ""},
		{"hours", entry.Hours != nil},
		{"billable", entry.Billable != nil},
		{"client", entry.Client != nil},
		{"project", entry.Project != nil},
		{"task", entry.Task != nil},
	}
	for _, check := range required {
		if !check.present {
			return Record{}, &ValidationError{EntryID: entry.ID, Field: check.field, Reason: "is missing"}
		}
	}

	shape := coreShape{Date: entry.SpentDate, Hours: *entry.Hours}
	validate := validator.New()
	if err := validate.Struct(shape); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			return Record{}, coreShapeError(entry.ID, fieldErrs[0])
		}
		return Record{}, fmt.Errorf("validate time entry %d: %w", entry.ID, err)
	}

	firstName, lastName := splitName(userName(entry.User))

	record := Record{
		Date:                 entry.SpentDate,
		Client:               entry.Client.Name,
		Project:              entry.Project.Name,
		ProjectCode:          projectCode(entry.Project),
		Task:                 entry.Task.Name,
		Notes:                notes(entry.Notes),
		Hours:                *entry.Hours,
		Billable:             *entry.Billable,
		Invoiced:             boolValue(entry.IsBilled),
		FirstName:            firstName,
		LastName:             lastName,
		Roles:                defaultRole,
		Employee:             entry.UserAssignment != nil && entry.UserAssignment.IsActive,
		ExternalReferenceURL: externalURL(entry.ExternalReference),
		HarvestID:            strconv.FormatInt(entry.ID, 10),
		Approved:             boolValue(entry.IsLocked),
	}

	if opts.Extended {
		record.RoundedHours = entry.RoundedHours
		record.IsBilled = entry.IsBilled
		record.IsLocked = entry.IsLocked
		record.StartedTime = entry.StartedTime
		record.EndedTime = entry.EndedTime
		record.CreatedAt = entry.CreatedAt
		record.UpdatedAt = entry.UpdatedAt
		record.CostRate = entry.CostRate
	}

	return record, nil
}

// NormalizeAll converts the fetched collection in order, stopping at the
// first invalid entry.
func NormalizeAll(entries []harvest.TimeEntry, opts Options) ([]Record, error) {
	records := make([]Record, 0, len(entries))
	for _, entry := range entries {
		record, err := Normalize(entry, opts)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

func coreShapeError(entryID int64, fieldErr validator.FieldError) *ValidationError {
	switch fieldErr.Field() {
	case "Hours":
		return &ValidationError{EntryID: entryID, Field: "hours", Reason: "must be non-negative"}
	default:
		return &ValidationError{EntryID: entryID, Field: "spent_date", Reason: "must be a YYYY-MM-DD date"}
	}
}

func userName(user *harvest.NamedRef) string {
	if user == nil {
		return ""
	}
	return user.Name
}

func splitName(full string) (string, string) {
	parts := strings.Fields(full)
	if len(parts) == 0 {
		return "", ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}

func projectCode(project *harvest.ProjectRef) string {
	if project == nil || project.Code == nil {
		return ""
	}
	return *project.Code
}

func notes(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func boolValue(value *bool) bool {
	return value != nil && *value
}

func externalURL(ref *harvest.ExternalReference) string {
	if ref == nil {
		return ""
	}
	return ref.Permalink
}
