package harvest

import "encoding/json"

// TimeEntry mirrors one element of the Harvest v2 time_entries payload.
// Optional fields are pointers so the normalizer can tell "absent" from
// a zero value.
type TimeEntry struct {
	ID                int64              `json:"id"`
	SpentDate         string             `json:"spent_date"`
	Hours             *float64           `json:"hours"`
	RoundedHours      *float64           `json:"rounded_hours"`
	Notes             *string            `json:"notes"`
	Billable          *bool              `json:"billable"`
	IsBilled          *bool              `json:"is_billed"`
	IsLocked          *bool              `json:"is_locked"`
	IsRunning         *bool              `json:"is_running"`
	StartedTime       *string            `json:"started_time"`
	EndedTime         *string            `json:"ended_time"`
	CreatedAt         *string            `json:"created_at"`
	UpdatedAt         *string            `json:"updated_at"`
	CostRate          *float64           `json:"cost_rate"`
	BillableRate      *float64           `json:"billable_rate"`
	User              *NamedRef          `json:"user"`
	Client            *NamedRef          `json:"client"`
	Project           *ProjectRef        `json:"project"`
	Task              *NamedRef          `json:"task"`
	UserAssignment    *UserAssignment    `json:"user_assignment"`
	ExternalReference *ExternalReference `json:"external_reference"`
}

type NamedRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type ProjectRef struct {
	ID   int64   `json:"id"`
	Name string  `json:"name"`
	Code *string `json:"code"`
}

type UserAssignment struct {
	ID       int64 `json:"id"`
	IsActive bool  `json:"is_active"`
}

type ExternalReference struct {
	ID        string `json:"id"`
	GroupID   string `json:"group_id"`
	Permalink string `json:"permalink"`
}

// TimeEntryCollection is the aggregated result of a paginated listing.
// Raw keeps each entry's unmodified JSON for the optional raw dump, in
// the same order as Entries.
type TimeEntryCollection struct {
	Entries []TimeEntry
	Raw     []json.RawMessage
}

type timeEntriesPage struct {
	TimeEntries []json.RawMessage `json:"time_entries"`
	NextPage    *int              `json:"next_page"`
	Page        int               `json:"page"`
	TotalPages  int               `json:"total_pages"`
}
