package handlers

import (
	_ "embed"
	"html/template"
	"net/http"
)

const swaggerAssets = "https://unpkg.com/swagger-ui-dist@5.10.0"

//go:embed templates/docs/swagger.html
var swaggerHTML string

var swaggerPage = template.Must(template.New("swagger").Parse(swaggerHTML))

type swaggerData struct {
	Title     string
	SpecURL   string
	AssetBase string
}

// SwaggerUI serves the interactive documentation for the JSON API.
func SwaggerUI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	data := swaggerData{
		Title:     "Weather Dashboard API",
		SpecURL:   "/api/docs/openapi.json",
		AssetBase: swaggerAssets,
	}
	if err := swaggerPage.Execute(w, data); err != nil {
		http.Error(w, "failed to render documentation", http.StatusInternalServerError)
	}
}
