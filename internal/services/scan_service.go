package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"activity-platform/internal/models"
	"activity-platform/pkg/logging"
	"activity-platform/pkg/metrics"
)

// durationVariants are the activity intensity classes, in the slot order
// used throughout the pipeline: inactive, light, moderate, vigorous.
var durationVariants = [4]string{"IN", "LIG", "MOD", "VIG"}

// ScanService reads GGIR day-summary files into day records grouped by
// participant. Files are processed strictly sequentially; a file that
// cannot be opened or lacks required columns fails alone and the scan
// continues, while bad rows are skipped with a diagnostic.
type ScanService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// ScanResult contains scan statistics and the extracted day records.
type ScanResult struct {
	SessionID        string
	TotalFiles       int
	FilesScanned     int
	FilesFailed      int
	RowsRead         int
	RecordsExtracted int
	RowsSkipped      int
	Matrix           models.ActivityMatrix
	Duration         time.Duration
	Errors           []string
}

// NewScanService creates a new scan service
func NewScanService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *ScanService {
	return &ScanService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ScanFiles scans the given day-summary files in order. Per-file and
// per-row failures are recovered locally: the row or file is skipped,
// the reason is logged, and the scan moves on.
func (s *ScanService) ScanFiles(ctx context.Context, paths []string) *ScanResult {
	startTime := time.Now()

	result := &ScanResult{
		SessionID:  uuid.New().String(),
		TotalFiles: len(paths),
		Matrix:     models.ActivityMatrix{},
		Errors:     make([]string, 0),
	}

	ctx = context.WithValue(ctx, "session_id", result.SessionID)

	s.logger.Info(ctx, "[SCAN_START] Starting day-summary scan", logging.Fields{
		"file_count": len(paths),
		"stage":      "INITIALIZATION",
	})

	for _, path := range paths {
		fileResult, err := s.scanFile(ctx, path, result.Matrix)

		result.RowsRead += fileResult.RowsRead
		result.RecordsExtracted += fileResult.RecordsExtracted
		result.RowsSkipped += fileResult.RowsSkipped

		if err != nil {
			result.FilesFailed++
			result.Errors = append(result.Errors, err.Error())
			s.logger.Error(ctx, "[SCAN_FILE_ERROR] File scan failed", logging.Fields{
				"file_path": path,
				"stage":     "FILE_PROCESSING",
			}, err)
			continue
		}

		result.FilesScanned++

		s.logger.Info(ctx, "[SCAN_FILE_COMPLETE] File scanned", logging.Fields{
			"file_path":         path,
			"rows_read":         fileResult.RowsRead,
			"records_extracted": fileResult.RecordsExtracted,
			"rows_skipped":      fileResult.RowsSkipped,
			"stage":             "FILE_COMPLETE",
		})
	}

	result.Duration = time.Since(startTime)
	s.metrics.ScanDuration.Observe(result.Duration.Seconds())
	s.metrics.ScanRecordsTotal.Add(float64(result.RecordsExtracted))

	s.logger.Info(ctx, "[SCAN_COMPLETE] Day-summary scan completed", logging.Fields{
		"total_files":       result.TotalFiles,
		"files_scanned":     result.FilesScanned,
		"files_failed":      result.FilesFailed,
		"rows_read":         result.RowsRead,
		"records_extracted": result.RecordsExtracted,
		"rows_skipped":      result.RowsSkipped,
		"participants":      len(result.Matrix),
		"duration_seconds":  result.Duration.Seconds(),
		"stage":             "COMPLETE",
	})

	return result
}

// fileScanResult contains per-file scan statistics
type fileScanResult struct {
	RowsRead         int
	RecordsExtracted int
	RowsSkipped      int
}

// scanFile scans a single day-summary file into the matrix. A non-nil
// error means the whole file was rejected: none of its rows are in the
// matrix, because failures here happen before the row loop starts.
func (s *ScanService) scanFile(ctx context.Context, path string, matrix models.ActivityMatrix) (*fileScanResult, error) {
	result := &fileScanResult{}

	file, err := os.Open(path)
	if err != nil {
		s.metrics.RecordFileError("open_error")
		return result, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		s.metrics.RecordFileError("header_error")
		return result, fmt.Errorf("failed to read headers from %s: %w", path, err)
	}

	columns, missing := locateRequiredColumns(header)
	if len(missing) > 0 {
		s.metrics.RecordFileError("missing_columns")
		return result, fmt.Errorf("file %s is missing required column(s): %s", path, strings.Join(missing, ", "))
	}

	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		result.RowsRead++
		if err != nil {
			result.RowsSkipped++
			s.metrics.RecordRowSkip("read_error")
			s.logger.Warn(ctx, "[SCAN_ROW_SKIP] Skipping row due to read error", logging.Fields{
				"file":   path,
				"reason": "read_error",
				"error":  err.Error(),
			})
			continue
		}

		record, ok := s.extractRecord(ctx, path, row, columns)
		if !ok {
			result.RowsSkipped++
			continue
		}

		matrix.Add(record)
		result.RecordsExtracted++
	}

	return result, nil
}

// columnLookup maps the required semantic fields onto column positions.
type columnLookup struct {
	id           int
	calendarDate int
	weekday      int
	sleep        int
	durations    [4]int
}

// locateRequiredColumns resolves the required fields against a header.
// Names must match exactly (case-sensitive); header cells are trimmed
// and the first cell loses any UTF-8 BOM first. Either every field
// resolves, or the full set of missing names is returned, sorted.
func locateRequiredColumns(header []string) (*columnLookup, []string) {
	cleaned := make([]string, len(header))
	for i, name := range header {
		cleaned[i] = strings.TrimSpace(name)
	}
	if len(cleaned) > 0 {
		cleaned[0] = strings.TrimPrefix(cleaned[0], "\ufeff")
	}

	var missing []string
	lookup := &columnLookup{
		id:           findColumn(cleaned, "ID", &missing),
		calendarDate: findColumn(cleaned, "calendar_date", &missing),
		weekday:      findColumn(cleaned, "weekday", &missing),
		sleep:        findColumn(cleaned, "dur_spt_min", &missing),
	}
	for i, variant := range durationVariants {
		lookup.durations[i] = findColumn(cleaned, "dur_day_total_"+variant+"_min", &missing)
	}

	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, missing
	}
	return lookup, nil
}

func findColumn(header []string, name string, missing *[]string) int {
	for i, column := range header {
		if column == name {
			return i
		}
	}
	*missing = append(*missing, name)
	return 0
}

// extractRecord validates one row against the column map. Extraction is
// all-or-nothing: the first missing or unparseable field skips the whole
// row with a diagnostic naming the file and column. Numeric fields are
// not range-checked; negative durations pass through.
func (s *ScanService) extractRecord(ctx context.Context, path string, row []string, columns *columnLookup) (*models.DayRecord, bool) {
	id, ok := s.requiredField(ctx, path, row, columns.id, "ID")
	if !ok {
		return nil, false
	}
	calendarDate, ok := s.requiredField(ctx, path, row, columns.calendarDate, "calendar_date")
	if !ok {
		return nil, false
	}
	weekday, ok := s.requiredField(ctx, path, row, columns.weekday, "weekday")
	if !ok {
		return nil, false
	}

	var durations [4]float64
	for i, variant := range durationVariants {
		value, ok := s.floatField(ctx, path, row, columns.durations[i], "dur_day_total_"+variant+"_min")
		if !ok {
			return nil, false
		}
		durations[i] = value
	}

	sleep, ok := s.floatField(ctx, path, row, columns.sleep, "dur_spt_min")
	if !ok {
		return nil, false
	}

	return &models.DayRecord{
		ParticipantID: id,
		CalendarDate:  calendarDate,
		WeekdayLabel:  weekday,
		SleepMin:      sleep,
		InactiveMin:   durations[0],
		LightMin:      durations[1],
		ModerateMin:   durations[2],
		VigorousMin:   durations[3],
		SourceFile:    path,
	}, true
}

// requiredField fetches a string field that must be non-blank after
// trimming.
func (s *ScanService) requiredField(ctx context.Context, path string, row []string, index int, column string) (string, bool) {
	value := strings.TrimSpace(fieldAt(row, index))
	if value == "" {
		s.skipRow(ctx, path, column, "missing_value", nil)
		return "", false
	}
	return value, true
}

// floatField fetches a numeric field that must parse as a float after
// trimming.
func (s *ScanService) floatField(ctx context.Context, path string, row []string, index int, column string) (float64, bool) {
	raw := strings.TrimSpace(fieldAt(row, index))
	if raw == "" {
		s.skipRow(ctx, path, column, "missing_value", nil)
		return 0, false
	}

	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		s.skipRow(ctx, path, column, "parse_error", err)
		return 0, false
	}
	return value, true
}

func (s *ScanService) skipRow(ctx context.Context, path, column, reason string, err error) {
	s.metrics.RecordRowSkip(reason)

	fields := logging.Fields{
		"file":   path,
		"column": column,
		"reason": reason,
	}
	if err != nil {
		fields["error"] = err.Error()
		s.logger.Warn(ctx, "[SCAN_ROW_SKIP] Skipping row due to parse error", fields)
		return
	}
	s.logger.Warn(ctx, "[SCAN_ROW_SKIP] Skipping row due to missing value", fields)
}

func fieldAt(row []string, index int) string {
	if index < 0 || index >= len(row) {
		return ""
	}
	return row[index]
}
