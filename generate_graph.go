//go:build ignore
// +build ignore

package main

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"github.com/owenfield/taxledger/internal/export"
	"github.com/owenfield/taxledger/internal/models"
)

func main() {
	now := time.Now()
	sample := func(id int64, category, amount string) models.ExpenseRecord {
		return models.ExpenseRecord{
			RecordID: id,
			Input: models.ExpenseInput{
				RawText:     "sample expense",
				Source:      models.SourceManualEntry,
				Amount:      decimal.NewNullDecimal(decimal.RequireFromString(amount)),
				SubmittedAt: now,
			},
			Decision: models.ClassificationDecision{Category: category},
		}
	}

	records := []models.ExpenseRecord{
		sample(1, "Office Expense", "150.50"),
		sample(2, "Supplies", "130.50"),
		sample(3, "Travel", "60.00"),
		sample(4, "Meals", "25.00"),
		sample(5, "Utilities", "120.00"),
	}

	chartData, err := export.GenerateCategoryChart(records, "Spending by Category")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile("graph.png", chartData, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✓ Created graph.png - Example category breakdown chart")
}
