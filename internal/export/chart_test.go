package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/owenfield/taxledger/internal/models"
)

func TestGenerateCategoryChart(t *testing.T) {
	tests := []struct {
		name        string
		records     []models.ExpenseRecord
		expectError bool
	}{
		{
			name: "generates chart with multiple categories",
			records: []models.ExpenseRecord{
				testRecord(1, "Office Expense", "50.00"),
				testRecord(2, "Travel", "30.00"),
				testRecord(3, "Travel", "20.00"),
			},
			expectError: false,
		},
		{
			name: "handles single category",
			records: []models.ExpenseRecord{
				testRecord(1, "Meals", "100.00"),
			},
			expectError: false,
		},
		{
			name:        "errors on empty records",
			records:     nil,
			expectError: true,
		},
		{
			name: "errors when no record has an amount",
			records: []models.ExpenseRecord{
				testRecord(1, "Supplies", ""),
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := GenerateCategoryChart(tt.records, "Spending by Category")
			if tt.expectError {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(data) == 0 {
				t.Fatal("expected chart bytes, got empty slice")
			}
			// PNG magic bytes
			if !bytes.HasPrefix(data, []byte("\x89PNG")) {
				t.Error("chart data is not a PNG")
			}
		})
	}
}

func TestGenerateChartFilename(t *testing.T) {
	now := time.Date(2026, 4, 15, 12, 0, 0, 0, time.UTC)
	want := "spending_by_category_2026-04-15.png"
	if got := GenerateChartFilename(now); got != want {
		t.Errorf("GenerateChartFilename() = %q, want %q", got, want)
	}
}
