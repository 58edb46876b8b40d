package timesheet

import "strconv"

// Record is the normalized, immutable time-entry row written to CSV and
// uploaded to Google Sheets. Core fields are always present; extended
// fields are populated only in extended mode, and stay nil when the API
// omitted them.
type Record struct {
	Date                 string
	Client               string
	Project              string
	ProjectCode          string
	Task                 string
	Notes                string
	Hours                float64
	Billable             bool
	Invoiced             bool
	FirstName            string
	LastName             string
	Roles                string
	Employee             bool
	ExternalReferenceURL string
	HarvestID            string
	Approved             bool
	Department           string

	RoundedHours *float64
	IsBilled     *bool
	IsLocked     *bool
	StartedTime  *string
	EndedTime    *string
	CreatedAt    *string
	UpdatedAt    *string
	CostRate     *float64
}

// CoreHeaders is the fixed CSV column order. Downstream sheets depend
// on it, so new columns only ever go after Department.
func CoreHeaders() []string {
	return []string{
		"Date", "Client", "Project", "Project Code", "Task", "Notes", "Hours",
		"Billable?", "Invoiced?", "First Name", "Last Name", "Roles", "Employee?",
		"External Reference URL", "Harvest ID", "Approved", "Department",
	}
}

// ExtendedHeaders are appended after the core columns when any record in
// the export carries an extended value.
func ExtendedHeaders() []string {
	return []string{
		"Rounded Hours", "Billed", "Locked", "Started Time", "Ended Time",
		"Created At", "Updated At", "Cost Rate",
	}
}

// CoreRow renders the core columns in header order.
func (r Record) CoreRow() []string {
	return []string{
		r.Date,
		r.Client,
		r.Project,
		r.ProjectCode,
		r.Task,
		r.Notes,
		formatHours(r.Hours),
		yesNo(r.Billable),
		yesNo(r.Invoiced),
		r.FirstName,
		r.LastName,
		r.Roles,
		yesNo(r.Employee),
		r.ExternalReferenceURL,
		r.HarvestID,
		yesNo(r.Approved),
		r.Department,
	}
}

// ExtendedRow renders the extended columns in header order, with absent
// values as empty cells.
func (r Record) ExtendedRow() []string {
	return []string{
		optionalFloat(r.RoundedHours),
		optionalBool(r.IsBilled),
		optionalBool(r.IsLocked),
		optionalString(r.StartedTime),
		optionalString(r.EndedTime),
		optionalString(r.CreatedAt),
		optionalString(r.UpdatedAt),
		optionalFloat(r.CostRate),
	}
}

// HasExtended reports whether the record carries any extended value.
func (r Record) HasExtended() bool {
	return r.RoundedHours != nil || r.IsBilled != nil || r.IsLocked != nil ||
		r.StartedTime != nil || r.EndedTime != nil ||
		r.CreatedAt != nil || r.UpdatedAt != nil || r.CostRate != nil
}

// AnyExtended reports whether any record in the set carries an extended
// value; it decides whether the extended columns are emitted at all.
func AnyExtended(records []Record) bool {
	for _, record := range records {
		if record.HasExtended() {
			return true
		}
	}
	return false
}

func formatHours(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

func yesNo(value bool) string {
	if value {
		return "Yes"
	}
	return "No"
}

func optionalFloat(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'f', -1, 64)
}

func optionalBool(value *bool) string {
	if value == nil {
		return ""
	}
	return strconv.FormatBool(*value)
}

func optionalString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
