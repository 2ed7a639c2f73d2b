package models

import "time"

// Metric indexes into the five-slot hour arrays of WeeklySummary.
const (
	MetricSleep = iota
	MetricInactive
	MetricLight
	MetricModerate
	MetricVigorous
	MetricCount
)

// MetricLabels are the display names for the five hour metrics, in slot
// order.
var MetricLabels = [MetricCount]string{"Sleep", "IN", "LIG", "MOD", "VIG"}

// WeekdaySleep is one weekday's average sleep figure. Only weekdays with
// at least one contributing observation are reported.
type WeekdaySleep struct {
	Weekday      time.Weekday `json:"weekday"`
	AverageHours float64      `json:"average_hours"`
}

// WeeklySummary holds the aggregated weekly and daily activity figures.
// Hour arrays are indexed by the Metric constants. Computed once from the
// complete participant grouping and never partially updated.
type WeeklySummary struct {
	WeeklyHours         [MetricCount]float64 `json:"weekly_hours"`
	WeeklyMVPAMinutes   float64              `json:"weekly_mvpa_minutes"`
	DailyHours          [MetricCount]float64 `json:"daily_hours"`
	DailyMVPAMinutes    float64              `json:"daily_mvpa_minutes"`
	DailySedentaryHours float64              `json:"daily_sedentary_hours"`
	SleepByWeekday      []WeekdaySleep       `json:"sleep_by_weekday,omitempty"`
}
