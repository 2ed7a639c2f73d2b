package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-platform/internal/models"
)

const summaryDelta = 1e-9

func day(id, date, weekday string, sleep, inactive, light, moderate, vigorous float64) *models.DayRecord {
	return &models.DayRecord{
		ParticipantID: id,
		CalendarDate:  date,
		WeekdayLabel:  weekday,
		SleepMin:      sleep,
		InactiveMin:   inactive,
		LightMin:      light,
		ModerateMin:   moderate,
		VigorousMin:   vigorous,
	}
}

// A full week of identical days: the weekly figures are the plain sums in
// hours, dailies are a seventh of that, and every weekday reports the
// same sleep average.
func TestComputeWeeklySummary_FullWeek(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	dates := []string{"2024-03-04", "2024-03-05", "2024-03-06", "2024-03-07", "2024-03-08", "2024-03-09", "2024-03-10"}
	for _, date := range dates {
		matrix.Add(day("7105", date, "", 480, 600, 120, 30, 10))
	}

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	assert.InDelta(t, 56.0, summary.WeeklyHours[models.MetricSleep], summaryDelta)
	assert.InDelta(t, 70.0, summary.WeeklyHours[models.MetricInactive], summaryDelta)
	assert.InDelta(t, 14.0, summary.WeeklyHours[models.MetricLight], summaryDelta)
	assert.InDelta(t, 3.5, summary.WeeklyHours[models.MetricModerate], summaryDelta)
	assert.InDelta(t, 7.0/6.0, summary.WeeklyHours[models.MetricVigorous], summaryDelta)
	assert.InDelta(t, 280.0, summary.WeeklyMVPAMinutes, summaryDelta)

	assert.InDelta(t, 8.0, summary.DailyHours[models.MetricSleep], summaryDelta)
	assert.InDelta(t, 10.0, summary.DailyHours[models.MetricInactive], summaryDelta)
	assert.InDelta(t, 2.0, summary.DailyHours[models.MetricLight], summaryDelta)
	assert.InDelta(t, 0.5, summary.DailyHours[models.MetricModerate], summaryDelta)
	assert.InDelta(t, 1.0/6.0, summary.DailyHours[models.MetricVigorous], summaryDelta)
	assert.InDelta(t, 40.0, summary.DailyMVPAMinutes, summaryDelta)

	assert.InDelta(t, 2.0, summary.DailySedentaryHours, summaryDelta)

	require.Len(t, summary.SleepByWeekday, 7)
	wantOrder := []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday}
	for i, entry := range summary.SleepByWeekday {
		assert.Equal(t, wantOrder[i], entry.Weekday)
		assert.InDelta(t, 8.0, entry.AverageHours, summaryDelta)
	}
}

// Participants with 5, 7 and 3 days level at 3 days each, and the totals
// are projected back onto a nominal week by 7/3.
func TestComputeWeeklySummary_RescalesShortWindows(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	counts := map[string]int{"7105": 5, "7201": 7, "8042": 3}
	for id, n := range counts {
		for i := 0; i < n; i++ {
			date := fmt.Sprintf("2024-03-%02d", 4+i)
			matrix.Add(day(id, date, "", 60, 120, 0, 30, 0))
		}
	}

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	// 3 days of 1h sleep per participant, scaled by 7/3.
	assert.InDelta(t, 7.0, summary.WeeklyHours[models.MetricSleep], summaryDelta)
	assert.InDelta(t, 1.0, summary.DailyHours[models.MetricSleep], summaryDelta)
	assert.InDelta(t, 210.0, summary.WeeklyMVPAMinutes, summaryDelta)
	assert.InDelta(t, 30.0, summary.DailyMVPAMinutes, summaryDelta)
	assert.InDelta(t, 1.0, summary.DailySedentaryHours, summaryDelta)
}

// The window is the earliest days by calendar date, regardless of the
// order rows were scanned in, and the matrix itself keeps its encounter
// order.
func TestComputeWeeklySummary_TakesEarliestDays(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	matrix.Add(day("7105", "2024-03-06", "", 6000, 6000, 0, 0, 0))
	matrix.Add(day("7105", "2024-03-04", "", 60, 120, 0, 0, 0))
	matrix.Add(day("7105", "2024-03-05", "", 120, 180, 0, 0, 0))
	matrix.Add(day("7201", "2024-03-04", "", 60, 120, 0, 0, 0))
	matrix.Add(day("7201", "2024-03-05", "", 60, 120, 0, 0, 0))

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	// 7105 contributes 1h + 2h, 7201 contributes 1h + 1h; the 06 outlier
	// falls outside the two-day window. Mean 2.5h scaled by 7/2.
	assert.InDelta(t, 8.75, summary.WeeklyHours[models.MetricSleep], summaryDelta)

	assert.Equal(t, "2024-03-06", matrix["7105"][0].CalendarDate)
	assert.Equal(t, "2024-03-04", matrix["7105"][1].CalendarDate)
}

func TestComputeWeeklySummary_CapsWindowAtSevenDays(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	for i := 0; i < 9; i++ {
		sleep := 60.0
		if i >= 7 {
			sleep = 6000
		}
		matrix.Add(day("9001", fmt.Sprintf("2024-03-%02d", 4+i), "", sleep, 0, 0, 0, 0))
	}

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	assert.InDelta(t, 7.0, summary.WeeklyHours[models.MetricSleep], summaryDelta)
	assert.InDelta(t, 1.0, summary.DailyHours[models.MetricSleep], summaryDelta)
}

func TestComputeWeeklySummary_InsufficientData(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	t.Run("empty matrix", func(t *testing.T) {
		assert.Nil(t, service.ComputeWeeklySummary(context.Background(), models.ActivityMatrix{}))
	})

	t.Run("only empty groups", func(t *testing.T) {
		matrix := models.ActivityMatrix{"7105": {}, "7201": nil}
		assert.Nil(t, service.ComputeWeeklySummary(context.Background(), matrix))
	})
}

// An empty group neither blocks the summary nor drags the shared window
// to zero.
func TestComputeWeeklySummary_IgnoresEmptyGroups(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{"7201": {}}
	matrix.Add(day("7105", "2024-03-04", "", 480, 600, 0, 0, 0))

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	// One participant, one day, scaled by 7.
	assert.InDelta(t, 56.0, summary.WeeklyHours[models.MetricSleep], summaryDelta)
}

// Unparseable dates sort after parseable ones and between themselves by
// raw string, so they can still fall inside the window; their weekday
// comes from the label when one resolves.
func TestComputeWeeklySummary_UnparseableDates(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	matrix.Add(day("7105", "zzz", "", 6000, 0, 0, 0, 0))
	matrix.Add(day("7105", "2024-03-04", "", 480, 0, 0, 0, 0))
	matrix.Add(day("7105", "aaa", "fri", 240, 0, 0, 0, 0))
	matrix.Add(day("7201", "2024-03-04", "", 480, 0, 0, 0, 0))
	matrix.Add(day("7201", "2024-03-05", "", 360, 0, 0, 0, 0))

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	// 7105's window is 2024-03-04 then "aaa"; the "zzz" outlier sorts
	// last and stays out.
	assert.InDelta(t, (8.0+4.0+8.0+6.0)/2.0*3.5, summary.WeeklyHours[models.MetricSleep], summaryDelta)

	require.Len(t, summary.SleepByWeekday, 3)
	assert.Equal(t, time.Monday, summary.SleepByWeekday[0].Weekday)
	assert.InDelta(t, 8.0, summary.SleepByWeekday[0].AverageHours, summaryDelta)
	assert.Equal(t, time.Tuesday, summary.SleepByWeekday[1].Weekday)
	assert.InDelta(t, 6.0, summary.SleepByWeekday[1].AverageHours, summaryDelta)
	assert.Equal(t, time.Friday, summary.SleepByWeekday[2].Weekday)
	assert.InDelta(t, 4.0, summary.SleepByWeekday[2].AverageHours, summaryDelta)
}

// A day whose date and label both fail to resolve still counts toward the
// hour totals but contributes no weekday observation.
func TestComputeWeeklySummary_UnresolvableWeekdayStillCounted(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	matrix.Add(day("7105", "not-a-date", "someday", 480, 600, 0, 0, 0))

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	assert.InDelta(t, 56.0, summary.WeeklyHours[models.MetricSleep], summaryDelta)
	assert.Empty(t, summary.SleepByWeekday)
}

func TestComputeWeeklySummary_SedentaryFloorsAtZero(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	matrix.Add(day("7105", "2024-03-04", "", 600, 480, 0, 0, 0))

	summary := service.ComputeWeeklySummary(context.Background(), matrix)
	require.NotNil(t, summary)

	assert.Equal(t, 0.0, summary.DailySedentaryHours)
}

// Recomputing over the same matrix yields bit-identical results: the
// participant iteration order is fixed, so the float accumulation order
// is too.
func TestComputeWeeklySummary_Deterministic(t *testing.T) {
	service := NewSummaryService(testLogger, testMetrics)

	matrix := models.ActivityMatrix{}
	for p := 0; p < 12; p++ {
		id := fmt.Sprintf("71%02d", p)
		for i := 0; i < 5; i++ {
			date := fmt.Sprintf("2024-03-%02d", 4+i)
			matrix.Add(day(id, date, "", 455.3+float64(p)*1.7, 601.1+float64(i)*0.3, 119.9, 31.4, 9.8))
		}
	}

	first := service.ComputeWeeklySummary(context.Background(), matrix)
	second := service.ComputeWeeklySummary(context.Background(), matrix)

	require.NotNil(t, first)
	require.Equal(t, first, second)
}
