package export

import (
	"github.com/shopspring/decimal"

	"github.com/owenfield/taxledger/internal/models"
)

// CategoryTotal is one category's aggregate for reporting.
type CategoryTotal struct {
	Category string
	Total    decimal.Decimal
	Count    int
}

// TotalsByCategory sums expense amounts per current category. A record
// without an amount contributes zero to its category's total but is still
// counted.
func TotalsByCategory(records []models.ExpenseRecord) map[string]decimal.Decimal {
	totals := make(map[string]decimal.Decimal)

	for i := range records {
		category := records[i].Decision.Category
		amount := decimal.Zero
		if records[i].Input.Amount.Valid {
			amount = records[i].Input.Amount.Decimal
		}
		totals[category] = totals[category].Add(amount)
	}

	return totals
}

// CategoryTotals returns per-category totals and record counts ordered by
// the given category sequence, skipping categories with no records. Using
// taxonomy order keeps report output deterministic.
func CategoryTotals(records []models.ExpenseRecord, categoryOrder []string) []CategoryTotal {
	totals := TotalsByCategory(records)

	counts := make(map[string]int)
	for i := range records {
		counts[records[i].Decision.Category]++
	}

	out := make([]CategoryTotal, 0, len(totals))
	for _, category := range categoryOrder {
		if count, ok := counts[category]; ok {
			out = append(out, CategoryTotal{
				Category: category,
				Total:    totals[category],
				Count:    count,
			})
		}
	}
	return out
}

// GrandTotal sums all recorded amounts.
func GrandTotal(records []models.ExpenseRecord) decimal.Decimal {
	total := decimal.Zero
	for i := range records {
		if records[i].Input.Amount.Valid {
			total = total.Add(records[i].Input.Amount.Decimal)
		}
	}
	return total
}
