package timeutil

import (
	"fmt"
	"time"

	"github.com/wdiazux/harvest-sheet/config"
)

const DayLayout = "2006-01-02"

// Range is an inclusive calendar date range with From <= To.
type Range struct {
	From time.Time
	To   time.Time
}

func (r Range) FromString() string {
	return r.From.Format(DayLayout)
}

func (r Range) ToString() string {
	return r.To.Format(DayLayout)
}

func (r Range) String() string {
	return r.FromString() + " to " + r.ToString()
}

// ResolveRange picks the export date range. Explicit from/to must be
// given together; with neither set, the range defaults to the reporting
// window relative to now (see ReportingWeek).
func ResolveRange(now time.Time, from, to string) (Range, error) {
	switch {
	case from != "" && to != "":
		return parseRange(from, to)
	case from != "" || to != "":
		return Range{}, &config.ConfigError{
			Reason: "from and to dates must be provided together",
		}
	default:
		return ReportingWeek(now), nil
	}
}

func parseRange(from, to string) (Range, error) {
	start, err := ParseDay(from)
	if err != nil {
		return Range{}, err
	}
	end, err := ParseDay(to)
	if err != nil {
		return Range{}, err
	}
	if start.After(end) {
		return Range{}, &config.ConfigError{
			Reason: fmt.Sprintf("from date %s is after to date %s", from, to),
		}
	}
	return Range{From: start, To: end}, nil
}

// ParseDay parses a YYYY-MM-DD calendar date.
func ParseDay(value string) (time.Time, error) {
	parsed, err := time.ParseInLocation(DayLayout, value, time.Local)
	if err != nil {
		return time.Time{}, &config.ConfigError{
			Reason: fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", value),
		}
	}
	return parsed, nil
}

// ReportingWeek returns the default export window for the given day.
// Monday through Thursday report on the previous Monday-Sunday week; from
// Friday on, the week in progress is fresh enough and the window runs
// from this week's Friday through today. Either way the window never
// extends past today.
func ReportingWeek(now time.Time) Range {
	day := StartOfDay(now)
	daysSinceMonday := (int(day.Weekday()) + 6) % 7

	if daysSinceMonday >= 4 { // Friday, Saturday, Sunday
		friday := day.AddDate(0, 0, 4-daysSinceMonday)
		return Range{From: friday, To: day}
	}

	monday := day.AddDate(0, 0, -daysSinceMonday-7)
	return Range{From: monday, To: monday.AddDate(0, 0, 6)}
}

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}
