package export

import (
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/owenfield/taxledger/internal/models"
)

func testRecord(id int64, category string, amount string) models.ExpenseRecord {
	rec := models.ExpenseRecord{
		RecordID: id,
		Input: models.ExpenseInput{
			RawText:     "expense " + category,
			Source:      models.SourceManualEntry,
			Merchant:    "Acme",
			SubmittedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		Decision: models.ClassificationDecision{
			Category:      category,
			Justification: "Purchased for business use.",
			Confidence:    0.9,
			DecidedAt:     time.Date(2026, 3, 10, 9, 0, 1, 0, time.UTC),
			ModelVersion:  "gemini-2.5-flash",
		},
		CreatedAt: time.Date(2026, 3, 10, 9, 0, 1, 0, time.UTC),
	}
	if amount != "" {
		rec.Input.Amount = decimal.NewNullDecimal(decimal.RequireFromString(amount))
	}
	return rec
}

func TestGenerateRecordsCSV(t *testing.T) {
	t.Parallel()

	t.Run("generates CSV with header and rows", func(t *testing.T) {
		records := []models.ExpenseRecord{
			testRecord(1, "Office Expense", "12.50"),
			testRecord(2, "Supplies", "7.25"),
		}
		records[0].Input.RawText = "Staples printer paper"
		records[1].Input.Merchant = "Home Depot"

		csvData, err := GenerateRecordsCSV(records)
		require.NoError(t, err)
		require.NotEmpty(t, csvData)

		reader := csv.NewReader(strings.NewReader(string(csvData)))
		rows, err := reader.ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 3) // Header + 2 rows

		require.Equal(t, Columns, rows[0])

		row1 := rows[1]
		require.Equal(t, "1", row1[0])
		require.Equal(t, "2026-03-10", row1[1])
		require.Equal(t, "Staples printer paper", row1[2])
		require.Equal(t, "Acme", row1[3])
		require.Equal(t, "Office Expense", row1[4])
		require.Equal(t, "Purchased for business use.", row1[5])
		require.Equal(t, "0.90", row1[6])
		require.Equal(t, "12.50", row1[7])

		row2 := rows[2]
		require.Equal(t, "2", row2[0])
		require.Equal(t, "Home Depot", row2[3])
		require.Equal(t, "Supplies", row2[4])
		require.Equal(t, "7.25", row2[7])
	})

	t.Run("record without amount gets empty amount cell", func(t *testing.T) {
		records := []models.ExpenseRecord{testRecord(1, "Travel", "")}

		csvData, err := GenerateRecordsCSV(records)
		require.NoError(t, err)

		reader := csv.NewReader(strings.NewReader(string(csvData)))
		rows, err := reader.ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.Equal(t, "", rows[1][7])
	})

	t.Run("empty records produce header only", func(t *testing.T) {
		csvData, err := GenerateRecordsCSV(nil)
		require.NoError(t, err)

		reader := csv.NewReader(strings.NewReader(string(csvData)))
		rows, err := reader.ReadAll()
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, Columns, rows[0])
	})

	t.Run("descriptions with commas and quotes survive round-trip", func(t *testing.T) {
		rec := testRecord(1, "Meals", "42.00")
		rec.Input.RawText = `Lunch, client "kickoff" meeting`

		csvData, err := GenerateRecordsCSV([]models.ExpenseRecord{rec})
		require.NoError(t, err)

		reader := csv.NewReader(strings.NewReader(string(csvData)))
		rows, err := reader.ReadAll()
		require.NoError(t, err)
		require.Equal(t, `Lunch, client "kickoff" meeting`, rows[1][2])
	})
}

func TestGenerateCSVFilename(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	require.Equal(t, "tax_records_2026-04-15.csv", GenerateCSVFilename(now))
}
