package models

import (
	"sort"
	"strings"
	"time"
)

// Participant represents a study participant whose accelerometer data
// has been archived
type Participant struct {
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	SubjectNumber string    `json:"subject_number" db:"subject_number"`
	FirstSeen     time.Time `json:"first_seen" db:"first_seen"`
	LastSeen      time.Time `json:"last_seen" db:"last_seen"`
}

// ParticipantDays is the listing shape for participants joined with
// their archived day-record counts
type ParticipantDays struct {
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	SubjectNumber string    `json:"subject_number" db:"subject_number"`
	DayCount      int       `json:"day_count" db:"day_count"`
	FirstSeen     time.Time `json:"first_seen" db:"first_seen"`
	LastSeen      time.Time `json:"last_seen" db:"last_seen"`
}

// DayRecord represents one participant-day observation extracted from a
// GGIR part5 day-summary file. Date and weekday are kept raw: sorting and
// weekday resolution work on the original strings, so unparseable values
// must survive unchanged.
type DayRecord struct {
	ID            int64     `json:"id,omitempty" db:"id"`
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	CalendarDate  string    `json:"calendar_date" db:"calendar_date"`
	WeekdayLabel  string    `json:"weekday_label" db:"weekday_label"`
	SleepMin      float64   `json:"sleep_min" db:"sleep_min"`
	InactiveMin   float64   `json:"inactive_min" db:"inactive_min"`
	LightMin      float64   `json:"light_min" db:"light_min"`
	ModerateMin   float64   `json:"moderate_min" db:"moderate_min"`
	VigorousMin   float64   `json:"vigorous_min" db:"vigorous_min"`
	SourceFile    string    `json:"source_file,omitempty" db:"source_file"`
	CreatedAt     time.Time `json:"created_at,omitempty" db:"created_at"`
}

// ActivityMatrix groups day records by participant ID. Records keep
// file/row encounter order within each group; only aggregation sorts,
// and it sorts a copy.
type ActivityMatrix map[string][]*DayRecord

// Add appends a record to its participant's group, creating the group on
// first encounter.
func (m ActivityMatrix) Add(record *DayRecord) {
	m[record.ParticipantID] = append(m[record.ParticipantID], record)
}

// ParticipantIDs returns the participant IDs in sorted order so callers
// iterate deterministically.
func (m ActivityMatrix) ParticipantIDs() []string {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TotalDays returns the number of day records across all participants.
func (m ActivityMatrix) TotalDays() int {
	total := 0
	for _, records := range m {
		total += len(records)
	}
	return total
}

// calendarDateLayouts are tried in order and the first successful parse
// wins. A value valid under more than one layout (e.g. "03/04/2024") is
// read by the earlier one, month/day/year, so that ambiguity resolves the
// same way on every run. The unpadded layout forms also accept
// zero-padded input.
var calendarDateLayouts = [3]string{"2006-1-2", "1/2/2006", "2/1/2006"}

// ParseCalendarDate parses a raw calendar date against the known layouts.
func ParseCalendarDate(value string) (time.Time, bool) {
	for _, layout := range calendarDateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, true
		}
	}
	return time.Time{}, false
}

// ParseWeekdayName normalizes a free-text weekday label. Matching is
// case-insensitive after trimming; unrecognized text yields no result.
func ParseWeekdayName(value string) (time.Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "mon", "monday":
		return time.Monday, true
	case "tue", "tues", "tuesday":
		return time.Tuesday, true
	case "wed", "wednesday":
		return time.Wednesday, true
	case "thu", "thur", "thurs", "thursday":
		return time.Thursday, true
	case "fri", "friday":
		return time.Friday, true
	case "sat", "saturday":
		return time.Saturday, true
	case "sun", "sunday":
		return time.Sunday, true
	}
	return time.Sunday, false
}

// ResolvedWeekday determines the record's weekday. The parsed calendar
// date is authoritative; the free-text label is consulted only when the
// date does not parse.
func (r *DayRecord) ResolvedWeekday() (time.Weekday, bool) {
	if date, ok := ParseCalendarDate(r.CalendarDate); ok {
		return date.Weekday(), true
	}
	return ParseWeekdayName(r.WeekdayLabel)
}

// CompareByDate orders two records for truncation: parseable dates sort
// ascending, a record with an unparseable date sorts after any parseable
// one, and two unparseable dates fall back to raw string comparison.
func CompareByDate(a, b *DayRecord) int {
	aDate, aOK := ParseCalendarDate(a.CalendarDate)
	bDate, bOK := ParseCalendarDate(b.CalendarDate)
	switch {
	case aOK && bOK:
		return aDate.Compare(bDate)
	case aOK:
		return -1
	case bOK:
		return 1
	default:
		return strings.Compare(a.CalendarDate, b.CalendarDate)
	}
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
