package handlers

import (
	"net/http"

	"github.com/goccy/go-json"
)

func queryParam(name, description, typ string, required bool) map[string]interface{} {
	return map[string]interface{}{
		"name":        name,
		"in":          "query",
		"description": description,
		"required":    required,
		"schema":      map[string]string{"type": typ},
	}
}

func jsonResponse(description string, schema map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{
		"description": description,
		"content": map[string]interface{}{
			"application/json": map[string]interface{}{"schema": schema},
		},
	}
}

var (
	coordinateParams = []map[string]interface{}{
		queryParam("lat", "Latitude in degrees; defaults to the active city", "number", false),
		queryParam("lon", "Longitude in degrees; defaults to the active city", "number", false),
		queryParam("name", "Display name echoed back in the city field", "string", false),
	}

	citySchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"name":    map[string]string{"type": "string"},
			"country": map[string]string{"type": "string"},
			"state":   map[string]string{"type": "string"},
			"lat":     map[string]string{"type": "number"},
			"lon":     map[string]string{"type": "number"},
		},
	}

	errorSchema = map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"error":   map[string]string{"type": "string"},
			"message": map[string]string{"type": "string"},
			"code":    map[string]string{"type": "integer"},
		},
	}
)

// OpenAPISpec returns the OpenAPI 3.0 specification for the dashboard JSON API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Weather Dashboard API",
			"description": "Current conditions, forecasts and city search proxied from OpenWeatherMap",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/weather/current": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":    "Current conditions",
					"parameters": coordinateParams,
					"responses": map[string]interface{}{
						"200": jsonResponse("Current conditions for the city", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"city": citySchema,
								"weather": map[string]interface{}{
									"type": "object",
									"properties": map[string]interface{}{
										"city_name":      map[string]string{"type": "string"},
										"temperature":    map[string]string{"type": "number"},
										"feels_like":     map[string]string{"type": "number"},
										"humidity":       map[string]string{"type": "integer"},
										"pressure":       map[string]string{"type": "integer"},
										"wind_speed":     map[string]string{"type": "number"},
										"visibility":     map[string]string{"type": "integer"},
										"uv_index":       map[string]string{"type": "number"},
										"condition_code": map[string]string{"type": "string"},
										"description":    map[string]string{"type": "string"},
										"sunrise":        map[string]string{"type": "string", "format": "date-time"},
										"sunset":         map[string]string{"type": "string", "format": "date-time"},
									},
								},
							},
						}),
						"400": jsonResponse("Invalid coordinates", errorSchema),
						"502": jsonResponse("Weather provider returned no data", errorSchema),
					},
				},
			},
			"/api/weather/forecast": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "5-day forecast",
					"description": "3-hourly entries, or daily min/max aggregates when daily=true",
					"parameters": append(append([]map[string]interface{}{}, coordinateParams...),
						queryParam("daily", "Aggregate by calendar day", "boolean", false)),
					"responses": map[string]interface{}{
						"200": jsonResponse("Forecast for the city", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"city":    citySchema,
								"entries": map[string]interface{}{"type": "array", "items": map[string]string{"type": "object"}},
								"daily": map[string]interface{}{
									"type": "array",
									"items": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"date": map[string]string{"type": "string", "format": "date"},
											"min":  map[string]string{"type": "number"},
											"max":  map[string]string{"type": "number"},
										},
									},
								},
							},
						}),
						"400": jsonResponse("Invalid parameters", errorSchema),
						"502": jsonResponse("Weather provider returned no data", errorSchema),
					},
				},
			},
			"/api/cities": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "City suggestions",
					"description": "Up to five geocoding matches; queries shorter than two characters return none",
					"parameters": []map[string]interface{}{
						queryParam("q", "City name fragment", "string", true),
					},
					"responses": map[string]interface{}{
						"200": jsonResponse("Matching cities", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"data":  map[string]interface{}{"type": "array", "items": citySchema},
								"total": map[string]string{"type": "integer"},
							},
						}),
					},
				},
			},
			"/api/globe/scene": map[string]interface{}{
				"get": map[string]interface{}{
					"summary": "Globe scene snapshot",
					"responses": map[string]interface{}{
						"200": jsonResponse("Rotation, camera and markers", map[string]interface{}{"type": "object"}),
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Reports whether the preference store is reachable",
					"responses": map[string]interface{}{
						"200": jsonResponse("Service is healthy", map[string]interface{}{
							"type": "object",
							"properties": map[string]interface{}{
								"status": map[string]string{"type": "string"},
							},
						}),
						"503": jsonResponse("Preference store unavailable", map[string]interface{}{"type": "object"}),
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
