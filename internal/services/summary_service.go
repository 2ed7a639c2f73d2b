package services

import (
	"context"
	"math"
	"sort"
	"time"

	"activity-platform/internal/models"
	"activity-platform/pkg/logging"
	"activity-platform/pkg/metrics"
)

// weekdayOrder fixes the reporting order of the per-weekday sleep
// averages: Monday through Sunday.
var weekdayOrder = [7]time.Weekday{
	time.Monday,
	time.Tuesday,
	time.Wednesday,
	time.Thursday,
	time.Friday,
	time.Saturday,
	time.Sunday,
}

// SummaryService computes weekly and daily activity summaries from a
// participant-grouped day-record matrix.
type SummaryService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewSummaryService creates a new summary service
func NewSummaryService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SummaryService {
	return &SummaryService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ComputeWeeklySummary aggregates the matrix into one weekly/daily
// summary, or nil when no participant contributes at least one day.
//
// Every participant contributes the same number of days: the minimum
// day-count across participants, capped at 7. Each participant's records
// are sorted by calendar date (copy only; the matrix keeps its encounter
// order) and the first days_to_use records of the sorted series form the
// window, so the earliest comparable span is aggregated. Totals are
// averaged across participants and rescaled by 7/days_to_use to project
// a nominal 7-day week; daily figures are the weekly figures divided by
// 7. Sedentary time is inactive time minus sleep, floored at zero.
func (s *SummaryService) ComputeWeeklySummary(ctx context.Context, matrix models.ActivityMatrix) *models.WeeklySummary {
	startTime := time.Now()
	defer func() {
		s.metrics.SummaryDuration.Observe(time.Since(startTime).Seconds())
	}()

	// Participants without a single day record are dropped. Iterating
	// sorted IDs keeps the arithmetic deterministic run to run.
	groups := make([][]*models.DayRecord, 0, len(matrix))
	for _, id := range matrix.ParticipantIDs() {
		if records := matrix[id]; len(records) > 0 {
			groups = append(groups, records)
		}
	}

	if len(groups) == 0 {
		s.metrics.RecordSummaryOutcome("insufficient_data")
		s.logger.Info(ctx, "[SUMMARY_SKIPPED] No participant has day-level data", logging.Fields{
			"participants": len(matrix),
		})
		return nil
	}

	minDays := len(groups[0])
	for _, records := range groups[1:] {
		if len(records) < minDays {
			minDays = len(records)
		}
	}

	daysToUse := minDays
	if daysToUse > 7 {
		daysToUse = 7
	}

	type participantTotals struct {
		hours       [models.MetricCount]float64
		mvpaMinutes float64
	}
	totals := make([]participantTotals, 0, len(groups))

	var sleepHoursByWeekday [7]float64
	var sleepCountByWeekday [7]int

	for _, records := range groups {
		sorted := make([]*models.DayRecord, len(records))
		copy(sorted, records)
		sort.SliceStable(sorted, func(i, j int) bool {
			return models.CompareByDate(sorted[i], sorted[j]) < 0
		})

		var t participantTotals
		for _, day := range sorted[:daysToUse] {
			sleepHours := day.SleepMin / 60
			t.hours[models.MetricSleep] += sleepHours
			t.hours[models.MetricInactive] += day.InactiveMin / 60
			t.hours[models.MetricLight] += day.LightMin / 60
			t.hours[models.MetricModerate] += day.ModerateMin / 60
			t.hours[models.MetricVigorous] += day.VigorousMin / 60
			t.mvpaMinutes += day.ModerateMin + day.VigorousMin

			if weekday, ok := day.ResolvedWeekday(); ok {
				sleepHoursByWeekday[weekday] += sleepHours
				sleepCountByWeekday[weekday]++
			}
		}
		totals = append(totals, t)
	}

	summary := &models.WeeklySummary{}

	participantCount := float64(len(totals))
	scale := 7.0 / float64(daysToUse)

	for _, t := range totals {
		for i := range summary.WeeklyHours {
			summary.WeeklyHours[i] += t.hours[i]
		}
		summary.WeeklyMVPAMinutes += t.mvpaMinutes
	}
	for i := range summary.WeeklyHours {
		summary.WeeklyHours[i] = summary.WeeklyHours[i] / participantCount * scale
	}
	summary.WeeklyMVPAMinutes = summary.WeeklyMVPAMinutes / participantCount * scale

	for i := range summary.DailyHours {
		summary.DailyHours[i] = summary.WeeklyHours[i] / 7
	}
	summary.DailyMVPAMinutes = summary.WeeklyMVPAMinutes / 7

	// Inactive time includes sleep, so waking sedentary time is the
	// difference, never negative.
	summary.DailySedentaryHours = math.Max(0, summary.DailyHours[models.MetricInactive]-summary.DailyHours[models.MetricSleep])

	for _, weekday := range weekdayOrder {
		if count := sleepCountByWeekday[weekday]; count > 0 {
			summary.SleepByWeekday = append(summary.SleepByWeekday, models.WeekdaySleep{
				Weekday:      weekday,
				AverageHours: sleepHoursByWeekday[weekday] / float64(count),
			})
		}
	}

	s.metrics.RecordSummaryOutcome("computed")
	s.logger.Info(ctx, "[SUMMARY_COMPLETE] Weekly summary computed", logging.Fields{
		"participants":        len(totals),
		"days_used":           daysToUse,
		"weekly_mvpa_minutes": summary.WeeklyMVPAMinutes,
	})

	return summary
}
