package handlers

import (
	"encoding/json"
	"net/http"
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the Tank Board API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	tankRecordSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":       map[string]string{"type": "string", "description": "Tank identifier, F followed by digits"},
			"show":     map[string]string{"type": "boolean"},
			"beer":     map[string]string{"type": "string"},
			"style":    map[string]string{"type": "string"},
			"abv":      map[string]string{"type": "string"},
			"ibu":      map[string]string{"type": "string"},
			"capacity": map[string]string{"type": "string"},
			"temp":     map[string]string{"type": "string", "description": "Manual setpoint override, blank for derived"},
			"start":    map[string]string{"type": "string", "description": "Fermentation start date (YYYY-MM-DD)"},
			"end":      map[string]string{"type": "string", "description": "Fermentation end date (YYYY-MM-DD)"},
			"status":   map[string]interface{}{"type": "string", "enum": []string{"auto", "fermenting", "cooling", "ready"}},
			"limited":  map[string]string{"type": "boolean"},
		},
	}

	tankViewSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":            map[string]string{"type": "string"},
			"number":        map[string]string{"type": "integer"},
			"name":          map[string]string{"type": "string"},
			"style":         map[string]string{"type": "string"},
			"abv":           map[string]string{"type": "string"},
			"ibu":           map[string]string{"type": "string"},
			"capacity":      map[string]string{"type": "string"},
			"start_display": map[string]string{"type": "string"},
			"end_display":   map[string]string{"type": "string"},
			"phase":         map[string]interface{}{"type": "string", "enum": []string{"fermenting", "cooling", "ready"}},
			"badge":         map[string]string{"type": "string"},
			"progress":      map[string]interface{}{"type": "integer", "minimum": 0, "maximum": 100},
			"day":           map[string]interface{}{"type": "integer", "nullable": true},
			"temperature":   map[string]string{"type": "number"},
			"temperature_display": map[string]string{"type": "string"},
			"limited":       map[string]string{"type": "boolean"},
		},
	}

	errorSchema := map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"ok":    map[string]string{"type": "boolean"},
			"error": map[string]string{"type": "string"},
		},
	}

	adminTokenParam := map[string]interface{}{
		"name":        "X-Admin-Token",
		"in":          "header",
		"description": "Shared admin secret",
		"required":    true,
		"schema":      map[string]string{"type": "string"},
	}

	unauthorized := map[string]interface{}{
		"description": "Missing or invalid admin token",
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": errorSchema},
		},
	}

	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Tank Board API",
			"description": "Brewery fermentation tank dashboard with simulated temperature readings and an admin surface for managing tank records",
			"version":     "1.0.0",
			"contact": map[string]string{
				"name": "Tank Board Team",
			},
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/tanks": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List visible tanks",
					"description": "Retrieve the public dashboard view of all visible tanks, sorted by tank number, with current simulated temperatures",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"ok": map[string]string{"type": "boolean"},
											"items": map[string]interface{}{
												"type":  "array",
												"items": tankViewSchema,
											},
											"server_time": map[string]interface{}{"type": "integer", "description": "Server time in epoch milliseconds"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/admin/tanks": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List raw tank records",
					"description": "Retrieve all stored tank records, including hidden ones",
					"parameters":  []map[string]interface{}{adminTokenParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"ok": map[string]string{"type": "boolean"},
											"records": map[string]interface{}{
												"type":                 "object",
												"additionalProperties": tankRecordSchema,
											},
										},
									},
								},
							},
						},
						"401": unauthorized,
					},
				},
				"put": map[string]interface{}{
					"summary":     "Replace all tank records",
					"description": "Replace the full record set. Invalid tank IDs are dropped and temperature state is re-derived for every saved tank",
					"parameters":  []map[string]interface{}{adminTokenParam},
					"requestBody": map[string]interface{}{
						"required": true,
						"content": map[string]interface{}{
							"application/json": map[string]interface{}{
								"schema": map[string]interface{}{
									"type":                 "object",
									"additionalProperties": tankRecordSchema,
								},
							},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Records saved",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"ok":    map[string]string{"type": "boolean"},
											"saved": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
						"400": map[string]interface{}{
							"description": "Malformed JSON payload",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{"schema": errorSchema},
							},
						},
						"401": unauthorized,
					},
				},
			},
			"/api/admin/auth": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Validate admin token",
					"description": "Check whether the supplied admin token is valid",
					"parameters":  []map[string]interface{}{adminTokenParam},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Token accepted",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"ok": map[string]string{"type": "boolean"},
										},
									},
								},
							},
						},
						"401": unauthorized,
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Check if the API and its backing store are reachable",
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
							"description": "Backing store unreachable",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{"schema": errorSchema},
							},
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
