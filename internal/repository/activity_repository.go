package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"activity-platform/internal/models"
	"activity-platform/pkg/database"
	"activity-platform/pkg/logging"
	"activity-platform/pkg/metrics"
)

// ActivityRepository provides data access for archived activity data
type ActivityRepository interface {
	// Participant operations
	UpsertParticipant(ctx context.Context, participant *models.Participant) error
	GetParticipant(ctx context.Context, participantID string) (*models.Participant, error)
	ListParticipants(ctx context.Context, limit, offset int) ([]*models.ParticipantDays, int, error)

	// Day record operations
	BatchInsertDayRecords(ctx context.Context, records []*models.DayRecord) error
	GetDayRecords(ctx context.Context, filter DayRecordFilter) ([]*models.DayRecord, int, error)
	GetActivityMatrix(ctx context.Context, participantID *string) (models.ActivityMatrix, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// DayRecordFilter defines filters for querying archived day records
type DayRecordFilter struct {
	ParticipantID *string
	SourceFile    *string
	Limit         int
	Offset        int
}

// activityRepository implements ActivityRepository
type activityRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ActivityRepository {
	return &activityRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// UpsertParticipant creates a participant or refreshes its last-seen
// timestamp. The first-seen timestamp survives conflicts.
func (r *activityRepository) UpsertParticipant(ctx context.Context, participant *models.Participant) error {
	query := `
		INSERT INTO participants (participant_id, subject_number, first_seen, last_seen)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (participant_id) DO UPDATE SET
			subject_number = EXCLUDED.subject_number,
			last_seen = EXCLUDED.last_seen
	`

	_, err := r.db.ExecContext(ctx, "upsert_participant", query,
		participant.ParticipantID,
		participant.SubjectNumber,
		participant.FirstSeen,
		participant.LastSeen,
	)

	if err != nil {
		return fmt.Errorf("failed to upsert participant: %w", err)
	}

	r.logger.Debug(ctx, "[REPO_UPSERT_PARTICIPANT] Participant stored", logging.Fields{
		"participant_id": participant.ParticipantID,
		"subject_number": participant.SubjectNumber,
	})

	return nil
}

// GetParticipant retrieves a participant by ID
func (r *activityRepository) GetParticipant(ctx context.Context, participantID string) (*models.Participant, error) {
	query := `
		SELECT participant_id, subject_number, first_seen, last_seen
		FROM participants
		WHERE participant_id = $1
	`

	var participant models.Participant
	err := r.db.GetContext(ctx, "get_participant", &participant, query, participantID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{
			Resource: "participant",
			ID:       participantID,
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get participant: %w", err)
	}

	return &participant, nil
}

// ListParticipants retrieves participants with their archived day counts
func (r *activityRepository) ListParticipants(ctx context.Context, limit, offset int) ([]*models.ParticipantDays, int, error) {
	var totalCount int
	err := r.db.GetContext(ctx, "count_participants", &totalCount,
		"SELECT COUNT(*) FROM participants")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count participants: %w", err)
	}

	query := `
		SELECT p.participant_id, p.subject_number, p.first_seen, p.last_seen,
		       COUNT(d.id) AS day_count
		FROM participants p
		LEFT JOIN day_records d ON d.participant_id = p.participant_id
		GROUP BY p.participant_id, p.subject_number, p.first_seen, p.last_seen
		ORDER BY p.participant_id
		LIMIT $1 OFFSET $2
	`

	var participants []*models.ParticipantDays
	err = r.db.SelectContext(ctx, "list_participants", &participants, query, limit, offset)

	if err != nil {
		return nil, 0, fmt.Errorf("failed to list participants: %w", err)
	}

	return participants, totalCount, nil
}

// BatchInsertDayRecords stores day records in a single transaction.
// Re-archiving the same file upserts instead of duplicating: rows conflict
// on (participant_id, calendar_date, source_file) and the numeric columns
// are refreshed.
func (r *activityRepository) BatchInsertDayRecords(ctx context.Context, records []*models.DayRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.ArchiveBatchSize.Observe(float64(len(records)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// Begin transaction
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Prepare statement
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO day_records (
			participant_id, calendar_date, weekday_label,
			sleep_min, inactive_min, light_min, moderate_min, vigorous_min,
			source_file
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (participant_id, calendar_date, source_file) DO UPDATE SET
			weekday_label = EXCLUDED.weekday_label,
			sleep_min = EXCLUDED.sleep_min,
			inactive_min = EXCLUDED.inactive_min,
			light_min = EXCLUDED.light_min,
			moderate_min = EXCLUDED.moderate_min,
			vigorous_min = EXCLUDED.vigorous_min
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	// Execute batch
	for _, record := range records {
		_, err := stmt.ExecContext(ctx,
			record.ParticipantID,
			record.CalendarDate,
			record.WeekdayLabel,
			record.SleepMin,
			record.InactiveMin,
			record.LightMin,
			record.ModerateMin,
			record.VigorousMin,
			record.SourceFile,
		)
		if err != nil {
			return fmt.Errorf("failed to insert day record: %w", err)
		}
	}

	// Commit transaction
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.ArchiveRecordsTotal.Add(float64(len(records)))

	return nil
}

// GetDayRecords retrieves archived day records with filtering and pagination
func (r *activityRepository) GetDayRecords(ctx context.Context, filter DayRecordFilter) ([]*models.DayRecord, int, error) {
	// Build query with filters
	query := `
		SELECT id, participant_id, calendar_date, weekday_label,
		       sleep_min, inactive_min, light_min, moderate_min, vigorous_min,
		       source_file, created_at
		FROM day_records
		WHERE 1=1
	`
	args := []interface{}{}
	argNum := 1

	if filter.ParticipantID != nil {
		query += fmt.Sprintf(" AND participant_id = $%d", argNum)
		args = append(args, *filter.ParticipantID)
		argNum++
	}

	if filter.SourceFile != nil {
		query += fmt.Sprintf(" AND source_file = $%d", argNum)
		args = append(args, *filter.SourceFile)
		argNum++
	}

	// Get total count
	countQuery := "SELECT COUNT(*) FROM (" + query + ") AS count_query"
	var totalCount int
	err := r.db.GetContext(ctx, "count_day_records", &totalCount, countQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count day records: %w", err)
	}

	// Add ordering and pagination. Row id preserves the original file/row
	// encounter order within each participant.
	query += " ORDER BY participant_id, id"
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", argNum, argNum+1)
	args = append(args, filter.Limit, filter.Offset)

	// Execute query
	var records []*models.DayRecord
	err = r.db.SelectContext(ctx, "get_day_records", &records, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get day records: %w", err)
	}

	return records, totalCount, nil
}

// GetActivityMatrix loads archived day records grouped by participant,
// keeping the archived encounter order within each group so downstream
// aggregation sees the same sequences the scan produced.
func (r *activityRepository) GetActivityMatrix(ctx context.Context, participantID *string) (models.ActivityMatrix, error) {
	query := `
		SELECT id, participant_id, calendar_date, weekday_label,
		       sleep_min, inactive_min, light_min, moderate_min, vigorous_min,
		       source_file, created_at
		FROM day_records
	`
	args := []interface{}{}

	if participantID != nil {
		query += " WHERE participant_id = $1"
		args = append(args, *participantID)
	}

	query += " ORDER BY participant_id, id"

	var records []*models.DayRecord
	err := r.db.SelectContext(ctx, "get_activity_matrix", &records, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity matrix: %w", err)
	}

	matrix := models.ActivityMatrix{}
	for _, record := range records {
		matrix.Add(record)
	}

	return matrix, nil
}

// HealthCheck performs a repository health check
func (r *activityRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
