// Package export computes aggregates and produces tabular and chart output
// from expense records. Everything here is purely derived and read-only: it
// operates on record slices fetched from the store and never mutates them.
package export

import (
	"strconv"

	"github.com/owenfield/taxledger/internal/models"
)

// Columns is the deterministic column order shared by CSV and XLSX exports.
var Columns = []string{
	"record_id",
	"date",
	"description",
	"merchant",
	"category",
	"justification",
	"confidence",
	"amount",
}

// dateFormat is the export date layout.
const dateFormat = "2006-01-02"

// BuildTable flattens records into export rows in record order. Records
// without an amount get an empty amount cell; they still appear in the table.
func BuildTable(records []models.ExpenseRecord) [][]string {
	rows := make([][]string, 0, len(records))
	for i := range records {
		rows = append(rows, buildRow(&records[i]))
	}
	return rows
}

func buildRow(rec *models.ExpenseRecord) []string {
	amount := ""
	if rec.Input.Amount.Valid {
		amount = rec.Input.Amount.Decimal.StringFixed(2)
	}

	return []string{
		strconv.FormatInt(rec.RecordID, 10),
		rec.Input.SubmittedAt.Format(dateFormat),
		rec.Input.RawText,
		rec.Input.Merchant,
		rec.Decision.Category,
		rec.Decision.Justification,
		strconv.FormatFloat(rec.Decision.Confidence, 'f', 2, 64),
		amount,
	}
}
