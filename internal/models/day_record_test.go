package models

import (
	"testing"
	"time"
)

// TestParseCalendarDate covers the layout priority: ISO first, then
// month/day/year, then day/month/year, first successful parse wins.
func TestParseCalendarDate(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantOK   bool
		wantDate time.Time
	}{
		{
			name:     "ISO date",
			value:    "2024-03-04",
			wantOK:   true,
			wantDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "ambiguous slash date reads as month/day/year",
			value:    "03/04/2024",
			wantOK:   true,
			wantDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "day/month/year only reached when month slot is invalid",
			value:    "25/12/2024",
			wantOK:   true,
			wantDate: time.Date(2024, 12, 25, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "unpadded slash date",
			value:    "3/4/2024",
			wantOK:   true,
			wantDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "unpadded ISO date",
			value:    "2024-3-4",
			wantOK:   true,
			wantDate: time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC),
		},
		{
			name:   "out of range under every layout",
			value:  "2024-13-40",
			wantOK: false,
		},
		{
			name:   "free text",
			value:  "yesterday",
			wantOK: false,
		},
		{
			name:   "empty string",
			value:  "",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			date, ok := ParseCalendarDate(tt.value)

			if ok != tt.wantOK {
				t.Errorf("ParseCalendarDate(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
				return
			}

			if tt.wantOK && !date.Equal(tt.wantDate) {
				t.Errorf("ParseCalendarDate(%q) = %v, want %v", tt.value, date, tt.wantDate)
			}
		})
	}
}

// TestParseWeekdayName covers the abbreviation table, trimming and case
// folding.
func TestParseWeekdayName(t *testing.T) {
	tests := []struct {
		value   string
		want    time.Weekday
		wantOK  bool
	}{
		{value: "mon", want: time.Monday, wantOK: true},
		{value: "Monday", want: time.Monday, wantOK: true},
		{value: "tue", want: time.Tuesday, wantOK: true},
		{value: "TUES", want: time.Tuesday, wantOK: true},
		{value: "tuesday", want: time.Tuesday, wantOK: true},
		{value: "wed", want: time.Wednesday, wantOK: true},
		{value: "thu", want: time.Thursday, wantOK: true},
		{value: "thur", want: time.Thursday, wantOK: true},
		{value: " thurs ", want: time.Thursday, wantOK: true},
		{value: "Friday", want: time.Friday, wantOK: true},
		{value: "sat", want: time.Saturday, wantOK: true},
		{value: "SUNDAY", want: time.Sunday, wantOK: true},
		{value: "tu", wantOK: false},
		{value: "funday", wantOK: false},
		{value: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := ParseWeekdayName(tt.value)

			if ok != tt.wantOK {
				t.Errorf("ParseWeekdayName(%q) ok = %v, want %v", tt.value, ok, tt.wantOK)
				return
			}

			if tt.wantOK && got != tt.want {
				t.Errorf("ParseWeekdayName(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

// TestDayRecord_ResolvedWeekday verifies the parsed date is authoritative
// over a conflicting free-text label.
func TestDayRecord_ResolvedWeekday(t *testing.T) {
	tests := []struct {
		name   string
		record DayRecord
		want   time.Weekday
		wantOK bool
	}{
		{
			name:   "date wins over conflicting label",
			record: DayRecord{CalendarDate: "2024-03-04", WeekdayLabel: "Friday"},
			want:   time.Monday,
			wantOK: true,
		},
		{
			name:   "label fallback when date does not parse",
			record: DayRecord{CalendarDate: "not-a-date", WeekdayLabel: "tue"},
			want:   time.Tuesday,
			wantOK: true,
		},
		{
			name:   "neither resolvable",
			record: DayRecord{CalendarDate: "not-a-date", WeekdayLabel: "someday"},
			wantOK: false,
		},
		{
			name:   "empty label with parseable date",
			record: DayRecord{CalendarDate: "03/08/2024", WeekdayLabel: ""},
			want:   time.Friday,
			wantOK: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.record.ResolvedWeekday()

			if ok != tt.wantOK {
				t.Errorf("ResolvedWeekday() ok = %v, want %v", ok, tt.wantOK)
				return
			}

			if tt.wantOK && got != tt.want {
				t.Errorf("ResolvedWeekday() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCompareByDate covers the three-way ordering used before truncation.
func TestCompareByDate(t *testing.T) {
	tests := []struct {
		name  string
		aDate string
		bDate string
		want  int
	}{
		{
			name:  "both parseable ascending",
			aDate: "2024-03-04",
			bDate: "2024-03-05",
			want:  -1,
		},
		{
			name:  "both parseable descending",
			aDate: "2024-03-06",
			bDate: "2024-03-05",
			want:  1,
		},
		{
			name:  "equal dates across layouts",
			aDate: "2024-03-04",
			bDate: "03/04/2024",
			want:  0,
		},
		{
			name:  "parseable sorts before unparseable",
			aDate: "2024-03-04",
			bDate: "zzz",
			want:  -1,
		},
		{
			name:  "unparseable sorts after parseable",
			aDate: "???",
			bDate: "1999-12-31",
			want:  1,
		},
		{
			name:  "two unparseable compare lexically",
			aDate: "aaa",
			bDate: "bbb",
			want:  -1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &DayRecord{CalendarDate: tt.aDate}
			b := &DayRecord{CalendarDate: tt.bDate}

			got := CompareByDate(a, b)
			if (got < 0) != (tt.want < 0) || (got > 0) != (tt.want > 0) || (got == 0) != (tt.want == 0) {
				t.Errorf("CompareByDate(%q, %q) = %d, want sign of %d", tt.aDate, tt.bDate, got, tt.want)
			}
		})
	}
}

// TestActivityMatrix tests grouping and the deterministic ID ordering.
func TestActivityMatrix(t *testing.T) {
	matrix := ActivityMatrix{}

	matrix.Add(&DayRecord{ParticipantID: "7201", CalendarDate: "2024-03-04"})
	matrix.Add(&DayRecord{ParticipantID: "7105", CalendarDate: "2024-03-04"})
	matrix.Add(&DayRecord{ParticipantID: "7201", CalendarDate: "2024-03-05"})

	if len(matrix) != 2 {
		t.Fatalf("len(matrix) = %d, want 2", len(matrix))
	}

	if got := matrix.TotalDays(); got != 3 {
		t.Errorf("TotalDays() = %d, want 3", got)
	}

	ids := matrix.ParticipantIDs()
	if len(ids) != 2 || ids[0] != "7105" || ids[1] != "7201" {
		t.Errorf("ParticipantIDs() = %v, want [7105 7201]", ids)
	}

	records := matrix["7201"]
	if len(records) != 2 || records[0].CalendarDate != "2024-03-04" || records[1].CalendarDate != "2024-03-05" {
		t.Errorf("7201 group kept wrong order: %v, %v", records[0].CalendarDate, records[1].CalendarDate)
	}
}

// TestValidationError tests error handling
func TestValidationError(t *testing.T) {
	err := &ValidationError{
		Field:   "subject_number",
		Value:   "12",
		Message: "subject numbers must be a four-digit integer",
	}

	if err.Error() != "subject numbers must be a four-digit integer" {
		t.Errorf("Error() = %v, want %v", err.Error(), "subject numbers must be a four-digit integer")
	}

	if err.IsTransient() {
		t.Error("ValidationError should not be transient")
	}
}
