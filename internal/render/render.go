package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"

	"storefront/internal/models"
)

//go:embed templates/index.html
var templateFS embed.FS

var page = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Page renders the summary as a complete HTML document
func Page(rows []models.CategorySummary) (string, error) {
	return execute("index.html", rows)
}

// SummaryTable renders only the summary <table> element
func SummaryTable(rows []models.CategorySummary) (string, error) {
	return execute("table", rows)
}

func execute(name string, rows []models.CategorySummary) (string, error) {
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, name, rows); err != nil {
		return "", fmt.Errorf("failed to render %s: %w", name, err)
	}
	return buf.String(), nil
}
