package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/owenfield/taxledger/internal/models"
)

// GenerateRecordsCSV generates a CSV export of the given records with the
// deterministic column order in Columns.
func GenerateRecordsCSV(records []models.ExpenseRecord) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write(Columns); err != nil {
		return nil, fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range BuildTable(records) {
		if err := writer.Write(row); err != nil {
			return nil, fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// GenerateCSVFilename creates a descriptive filename for the CSV export.
func GenerateCSVFilename(now time.Time) string {
	return fmt.Sprintf("tax_records_%s.csv", now.Format(dateFormat))
}
