package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Activity Report Platform API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	paginationParameters := []map[string]interface{}{
		{
			"name":        "limit",
			"in":          "query",
			"description": "Records per page (default: 100, max: 1000)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 100},
		},
		{
			"name":        "offset",
			"in":          "query",
			"description": "Records to skip (default: 0)",
			"required":    false,
			"schema":      map[string]interface{}{"type": "integer", "default": 0},
		},
	}

	dayRecordSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":             map[string]string{"type": "integer"},
			"participant_id": map[string]string{"type": "string"},
			"calendar_date":  map[string]string{"type": "string"},
			"weekday_label":  map[string]string{"type": "string"},
			"sleep_min":      map[string]string{"type": "number"},
			"inactive_min":   map[string]string{"type": "number"},
			"light_min":      map[string]string{"type": "number"},
			"moderate_min":   map[string]string{"type": "number"},
			"vigorous_min":   map[string]string{"type": "number"},
			"source_file":    map[string]string{"type": "string"},
			"created_at":     map[string]string{"type": "string", "format": "date-time"},
		},
	}

	hourFiguresSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"sleep":    map[string]string{"type": "number"},
			"inactive": map[string]string{"type": "number"},
			"light":    map[string]string{"type": "number"},
			"moderate": map[string]string{"type": "number"},
			"vigorous": map[string]string{"type": "number"},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Activity Report Platform API",
			"description": "Accelerometer day-summary archive with on-demand weekly and daily activity averages",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Activity Platform Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/v1/participants": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List participants",
					"description": "Retrieve archived participants with their day-record counts",
					"parameters":  paginationParameters,
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"participant_id": map[string]string{"type": "string"},
														"subject_number": map[string]string{"type": "string"},
														"day_count":      map[string]string{"type": "integer"},
														"first_seen":     map[string]string{"type": "string", "format": "date-time"},
														"last_seen":      map[string]string{"type": "string", "format": "date-time"},
													},
												},
											},
											"total":  map[string]string{"type": "integer"},
											"limit":  map[string]string{"type": "integer"},
											"offset": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/records": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List day records",
					"description": "Retrieve archived day records with filtering and pagination",
					"parameters": append([]map[string]interface{}{
						{
							"name":        "participant_id",
							"in":          "query",
							"description": "Filter by participant ID",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
						{
							"name":        "source_file",
							"in":          "query",
							"description": "Filter by source day-summary file",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
					}, paginationParameters...),
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type":  "array",
												"items": dayRecordSchema,
											},
											"total":  map[string]string{"type": "integer"},
											"limit":  map[string]string{"type": "integer"},
											"offset": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/v1/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Compute weekly/daily summary",
					"description": "Aggregate archived day records into weekly and daily activity averages",
					"parameters": []map[string]interface{}{
						{
							"name":        "participant_id",
							"in":          "query",
							"description": "Restrict the summary to one participant",
							"required":    false,
							"schema":      map[string]string{"type": "string"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"weekly_hours":          hourFiguresSchema,
											"weekly_mvpa_minutes":   map[string]string{"type": "number"},
											"daily_hours":           hourFiguresSchema,
											"daily_mvpa_minutes":    map[string]string{"type": "number"},
											"daily_sedentary_hours": map[string]string{"type": "number"},
											"sleep_by_weekday": map[string]interface{}{
												"type": "array",
												"items": map[string]interface{}{
													"type": "object",
													"properties": map[string]interface{}{
														"weekday":       map[string]string{"type": "string"},
														"average_hours": map[string]string{"type": "number"},
													},
												},
											},
										},
									},
								},
							},
						},
						"404": map[string]interface{}{
							"description": "Insufficient overlapping data for a summary",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its database are running",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "API is healthy",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"status": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"503": map[string]interface{}{
							"description": "Database unreachable",
						},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}
