package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"activity-platform/internal/models"
	"activity-platform/internal/repository"
	"activity-platform/internal/services"
	"activity-platform/pkg/logging"
	"activity-platform/pkg/metrics"
)

// ActivityHandler handles activity API endpoints
type ActivityHandler struct {
	archiveService *services.ArchiveService
	summaryService *services.SummaryService
	logger         *logging.StructuredLogger
	metrics        *metrics.Collector
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(
	archiveService *services.ArchiveService,
	summaryService *services.SummaryService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *ActivityHandler {
	return &ActivityHandler{
		archiveService: archiveService,
		summaryService: summaryService,
		logger:         logger,
		metrics:        metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// PaginatedResponse represents a paginated API response
type PaginatedResponse struct {
	Data   interface{} `json:"data"`
	Total  int         `json:"total"`
	Limit  int         `json:"limit"`
	Offset int         `json:"offset"`
}

// HourFigures are the five activity metrics with their slot names spelled
// out for API consumers.
type HourFigures struct {
	Sleep    float64 `json:"sleep"`
	Inactive float64 `json:"inactive"`
	Light    float64 `json:"light"`
	Moderate float64 `json:"moderate"`
	Vigorous float64 `json:"vigorous"`
}

// WeekdaySleepEntry is one weekday's average sleep in the summary
// response
type WeekdaySleepEntry struct {
	Weekday      string  `json:"weekday"`
	AverageHours float64 `json:"average_hours"`
}

// SummaryResponse is the API shape of a computed weekly/daily summary
type SummaryResponse struct {
	WeeklyHours         HourFigures         `json:"weekly_hours"`
	WeeklyMVPAMinutes   float64             `json:"weekly_mvpa_minutes"`
	DailyHours          HourFigures         `json:"daily_hours"`
	DailyMVPAMinutes    float64             `json:"daily_mvpa_minutes"`
	DailySedentaryHours float64             `json:"daily_sedentary_hours"`
	SleepByWeekday      []WeekdaySleepEntry `json:"sleep_by_weekday"`
}

func newSummaryResponse(summary *models.WeeklySummary) SummaryResponse {
	response := SummaryResponse{
		WeeklyHours:         hourFiguresFrom(summary.WeeklyHours),
		WeeklyMVPAMinutes:   summary.WeeklyMVPAMinutes,
		DailyHours:          hourFiguresFrom(summary.DailyHours),
		DailyMVPAMinutes:    summary.DailyMVPAMinutes,
		DailySedentaryHours: summary.DailySedentaryHours,
		SleepByWeekday:      make([]WeekdaySleepEntry, 0, len(summary.SleepByWeekday)),
	}

	for _, entry := range summary.SleepByWeekday {
		response.SleepByWeekday = append(response.SleepByWeekday, WeekdaySleepEntry{
			Weekday:      entry.Weekday.String(),
			AverageHours: entry.AverageHours,
		})
	}

	return response
}

func hourFiguresFrom(hours [models.MetricCount]float64) HourFigures {
	return HourFigures{
		Sleep:    hours[models.MetricSleep],
		Inactive: hours[models.MetricInactive],
		Light:    hours[models.MetricLight],
		Moderate: hours[models.MetricModerate],
		Vigorous: hours[models.MetricVigorous],
	}
}

// GetParticipants handles GET /api/v1/participants
func (h *ActivityHandler) GetParticipants(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/v1/participants").Observe(duration.Seconds())
	}()

	limit, offset := h.parsePagination(r)

	participants, total, err := h.archiveService.ListParticipants(ctx, limit, offset)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_PARTICIPANTS_ERROR] Failed to list participants", logging.Fields{
			"limit":  limit,
			"offset": offset,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/v1/participants")
		h.sendError(w, r, "failed to retrieve participants", http.StatusInternalServerError)
		return
	}

	response := PaginatedResponse{
		Data:   participants,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}

	h.metrics.RecordAPIRequest("/api/v1/participants", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetDayRecords handles GET /api/v1/records
func (h *ActivityHandler) GetDayRecords(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/v1/records").Observe(duration.Seconds())
	}()

	participantID := r.URL.Query().Get("participant_id")
	sourceFile := r.URL.Query().Get("source_file")
	limit, offset := h.parsePagination(r)

	filter := repository.DayRecordFilter{
		Limit:  limit,
		Offset: offset,
	}

	if participantID != "" {
		filter.ParticipantID = &participantID
	}

	if sourceFile != "" {
		filter.SourceFile = &sourceFile
	}

	records, total, err := h.archiveService.GetDayRecords(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_RECORDS_ERROR] Failed to get day records", logging.Fields{
			"filter": filter,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/v1/records")
		h.sendError(w, r, "failed to retrieve day records", http.StatusInternalServerError)
		return
	}

	response := PaginatedResponse{
		Data:   records,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}

	h.metrics.RecordAPIRequest("/api/v1/records", "GET", "200")
	h.sendJSON(w, response, http.StatusOK)
}

// GetSummary handles GET /api/v1/summary. The summary is computed on
// demand from the archived day records, never stored.
func (h *ActivityHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		duration := time.Since(startTime)
		h.metrics.APIRequestDuration.WithLabelValues("/api/v1/summary").Observe(duration.Seconds())
	}()

	var participantID *string
	if value := r.URL.Query().Get("participant_id"); value != "" {
		participantID = &value
	}

	matrix, err := h.archiveService.LoadActivityMatrix(ctx, participantID)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SUMMARY_ERROR] Failed to load day records", logging.Fields{
			"participant_id": participantID,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/v1/summary")
		h.sendError(w, r, "failed to load day records", http.StatusInternalServerError)
		return
	}

	summary := h.summaryService.ComputeWeeklySummary(ctx, matrix)
	if summary == nil {
		h.sendError(w, r, "unable to compute weekly or daily averages due to insufficient overlapping data", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/v1/summary", "GET", "200")
	h.sendJSON(w, newSummaryResponse(summary), http.StatusOK)
}

// HealthCheck handles GET /health
func (h *ActivityHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	status := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}

	if err := h.archiveService.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Database unreachable", logging.Fields{}, err)
		status["status"] = "unhealthy"
		h.sendJSON(w, status, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// parsePagination reads limit/offset with the listing defaults: limit 100
// capped at 1000, offset 0. Out-of-range values fall back to the default.
func (h *ActivityHandler) parsePagination(r *http.Request) (int, int) {
	limit := 100
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o > 0 {
			offset = o
		}
	}

	return limit, offset
}

// sendJSON sends a JSON response
func (h *ActivityHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *ActivityHandler) sendError(w http.ResponseWriter, r *http.Request, message string, statusCode int) {
	h.metrics.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))

	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RequestIDMiddleware tags every request with an ID the logger picks up
// from the context.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := uuid.New().String()
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RegisterRoutes registers all activity API routes
func (h *ActivityHandler) RegisterRoutes(router *mux.Router) {
	router.Use(RequestIDMiddleware)

	router.HandleFunc("/api/v1/participants", h.GetParticipants).Methods("GET")
	router.HandleFunc("/api/v1/records", h.GetDayRecords).Methods("GET")
	router.HandleFunc("/api/v1/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
}
