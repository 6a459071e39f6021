package export

import (
	"fmt"
	"time"

	"github.com/go-analyze/charts"

	"github.com/owenfield/taxledger/internal/models"
	"github.com/owenfield/taxledger/internal/taxonomy"
)

// GenerateCategoryChart creates a pie chart of expense totals by category.
// Returns PNG image bytes. Categories are rendered in taxonomy order so the
// same ledger always produces the same chart.
func GenerateCategoryChart(records []models.ExpenseRecord, title string) ([]byte, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("no records to chart")
	}

	totals := CategoryTotals(records, taxonomy.Names())

	var values []float64
	var labels []string
	for _, t := range totals {
		if t.Total.IsZero() {
			continue
		}
		labels = append(labels, t.Category)
		values = append(values, t.Total.InexactFloat64())
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("no recorded amounts to chart")
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: title,
		}),
		charts.LegendLabelsOptionFunc(labels),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}

// GenerateChartFilename creates a descriptive filename for the chart.
func GenerateChartFilename(now time.Time) string {
	return fmt.Sprintf("spending_by_category_%s.png", now.Format(dateFormat))
}
