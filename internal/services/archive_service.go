package services

import (
	"context"
	"fmt"
	"time"

	"github.com/schollz/progressbar/v3"

	"activity-platform/internal/models"
	"activity-platform/internal/repository"
	"activity-platform/pkg/logging"
	"activity-platform/pkg/metrics"
)

// defaultArchiveBatchSize bounds transaction size when the caller does
// not pick one.
const defaultArchiveBatchSize = 500

// ArchiveService stores scanned day records in the archive database and
// serves read access over what was stored.
type ArchiveService struct {
	repo    repository.ActivityRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// ArchiveResult contains archive statistics
type ArchiveResult struct {
	Participants int
	Records      int
	Batches      int
	Duration     time.Duration
}

// NewArchiveService creates a new archive service
func NewArchiveService(repo repository.ActivityRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ArchiveService {
	return &ArchiveService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ArchiveMatrix upserts every participant in the matrix and stores their
// day records in batches. Records keep their scan encounter order;
// re-archiving the same files upserts rather than duplicating.
func (s *ArchiveService) ArchiveMatrix(ctx context.Context, matrix models.ActivityMatrix, subjectNumber string, batchSize int) (*ArchiveResult, error) {
	startTime := time.Now()

	if batchSize <= 0 {
		batchSize = defaultArchiveBatchSize
	}

	result := &ArchiveResult{}
	if len(matrix) == 0 {
		return result, nil
	}

	s.logger.Info(ctx, "[ARCHIVE_START] Archiving day records", logging.Fields{
		"subject_number": subjectNumber,
		"participants":   len(matrix),
		"records":        matrix.TotalDays(),
		"batch_size":     batchSize,
	})

	now := time.Now().UTC()
	records := make([]*models.DayRecord, 0, matrix.TotalDays())

	for _, id := range matrix.ParticipantIDs() {
		participant := &models.Participant{
			ParticipantID: id,
			SubjectNumber: subjectNumber,
			FirstSeen:     now,
			LastSeen:      now,
		}
		if err := s.repo.UpsertParticipant(ctx, participant); err != nil {
			return nil, fmt.Errorf("failed to store participant %s: %w", id, err)
		}
		result.Participants++

		records = append(records, matrix[id]...)
	}

	if len(records) > 0 {
		batches := (len(records) + batchSize - 1) / batchSize
		bar := progressbar.Default(int64(batches))

		for start := 0; start < len(records); start += batchSize {
			end := start + batchSize
			if end > len(records) {
				end = len(records)
			}

			if err := s.repo.BatchInsertDayRecords(ctx, records[start:end]); err != nil {
				return nil, fmt.Errorf("failed to store day records: %w", err)
			}

			result.Records += end - start
			result.Batches++
			_ = bar.Add(1)
		}
	}

	result.Duration = time.Since(startTime)
	s.metrics.ArchiveDuration.Observe(result.Duration.Seconds())

	s.logger.Info(ctx, "[ARCHIVE_COMPLETE] Day records archived", logging.Fields{
		"subject_number":   subjectNumber,
		"participants":     result.Participants,
		"records":          result.Records,
		"batches":          result.Batches,
		"duration_seconds": result.Duration.Seconds(),
	})

	return result, nil
}

// ListParticipants retrieves archived participants with day counts
func (s *ArchiveService) ListParticipants(ctx context.Context, limit, offset int) ([]*models.ParticipantDays, int, error) {
	return s.repo.ListParticipants(ctx, limit, offset)
}

// GetDayRecords retrieves archived day records with filtering
func (s *ArchiveService) GetDayRecords(ctx context.Context, filter repository.DayRecordFilter) ([]*models.DayRecord, int, error) {
	return s.repo.GetDayRecords(ctx, filter)
}

// LoadActivityMatrix loads archived day records grouped by participant,
// optionally for a single participant.
func (s *ArchiveService) LoadActivityMatrix(ctx context.Context, participantID *string) (models.ActivityMatrix, error) {
	return s.repo.GetActivityMatrix(ctx, participantID)
}

// HealthCheck reports whether the archive database is reachable
func (s *ArchiveService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}
