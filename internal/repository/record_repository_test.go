package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/owenfield/taxledger/internal/database"
	"github.com/owenfield/taxledger/internal/models"
)

func setupRecordTest(t *testing.T) (*RecordRepository, context.Context) {
	t.Helper()
	tx := database.TestTx(t)
	return NewRecordRepository(tx), context.Background()
}

func sampleInput(text, merchant string, amount string) models.ExpenseInput {
	input := models.ExpenseInput{
		RawText:     text,
		Source:      models.SourceManualEntry,
		Merchant:    merchant,
		SubmittedAt: time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	}
	if amount != "" {
		d, err := decimal.NewFromString(amount)
		if err != nil {
			panic("invalid decimal in test: " + amount)
		}
		input.Amount = decimal.NewNullDecimal(d)
	}
	return input
}

func sampleDecision(category string) models.ClassificationDecision {
	return models.ClassificationDecision{
		Category:      category,
		Justification: "test justification for " + category,
		Confidence:    0.9,
		DecidedAt:     time.Date(2026, 3, 14, 9, 0, 1, 0, time.UTC),
		ModelVersion:  "gemini-test-1",
	}
}

func TestRecordRepository_Append(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	t.Run("ids are strictly increasing with no gaps", func(t *testing.T) {
		first, err := repo.Append(ctx, sampleInput("printer paper", "Staples", "12.50"), sampleDecision("Office Expense"))
		require.NoError(t, err)

		second, err := repo.Append(ctx, sampleInput("client lunch", "Deli", "30.00"), sampleDecision("Meals"))
		require.NoError(t, err)

		third, err := repo.Append(ctx, sampleInput("airfare", "Delta", ""), sampleDecision("Travel"))
		require.NoError(t, err)

		require.Equal(t, first+1, second)
		require.Equal(t, second+1, third)
	})
}

func TestRecordRepository_AppendNeverDeduplicates(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	input := sampleInput("printer paper", "Staples", "12.50")
	decision := sampleDecision("Office Expense")

	before, err := repo.ListAll(ctx)
	require.NoError(t, err)

	id1, err := repo.Append(ctx, input, decision)
	require.NoError(t, err)
	id2, err := repo.Append(ctx, input, decision)
	require.NoError(t, err)

	require.NotEqual(t, id1, id2)

	after, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, after, len(before)+2)
}

func TestRecordRepository_ListAll(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	id1, err := repo.Append(ctx, sampleInput("paper", "Staples", "12.50"), sampleDecision("Office Expense"))
	require.NoError(t, err)
	id2, err := repo.Append(ctx, sampleInput("lumber", "Home Depot", "80.00"), sampleDecision("Supplies"))
	require.NoError(t, err)

	records, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)

	require.Equal(t, id1, records[0].RecordID)
	require.Equal(t, id2, records[1].RecordID)
	require.Equal(t, "paper", records[0].Input.RawText)
	require.Equal(t, "Staples", records[0].Input.Merchant)
	require.True(t, records[0].Input.Amount.Valid)
	require.True(t, records[0].Input.Amount.Decimal.Equal(decimal.RequireFromString("12.50")))
	require.Equal(t, "Office Expense", records[0].Decision.Category)
	require.Equal(t, "gemini-test-1", records[0].Decision.ModelVersion)
}

func TestRecordRepository_GetByID(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	id, err := repo.Append(ctx, sampleInput("paper", "Staples", "12.50"), sampleDecision("Office Expense"))
	require.NoError(t, err)

	t.Run("existing record", func(t *testing.T) {
		rec, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, id, rec.RecordID)
		require.Equal(t, "Office Expense", rec.Decision.Category)
	})

	t.Run("missing record", func(t *testing.T) {
		_, err := repo.GetByID(ctx, 99999)
		require.ErrorIs(t, err, ErrUnknownRecord)
	})
}

func TestRecordRepository_Correct(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	id, err := repo.Append(ctx, sampleInput("toner cartridge", "Staples", "45.00"), sampleDecision("Supplies"))
	require.NoError(t, err)

	t.Run("correction becomes current, history retained oldest first", func(t *testing.T) {
		correction := sampleDecision("Office Expense")
		correction.DecidedAt = correction.DecidedAt.Add(time.Hour)

		require.NoError(t, repo.Correct(ctx, id, correction))

		rec, err := repo.GetByID(ctx, id)
		require.NoError(t, err)
		require.Equal(t, "Office Expense", rec.Decision.Category)

		history, err := repo.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, "Supplies", history[0].Category)
		require.Equal(t, "Office Expense", history[1].Category)
	})

	t.Run("unknown record", func(t *testing.T) {
		err := repo.Correct(ctx, 99999, sampleDecision("Meals"))
		require.ErrorIs(t, err, ErrUnknownRecord)
	})
}

func TestRecordRepository_History(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	t.Run("single decision", func(t *testing.T) {
		id, err := repo.Append(ctx, sampleInput("paper", "Staples", "12.50"), sampleDecision("Office Expense"))
		require.NoError(t, err)

		history, err := repo.History(ctx, id)
		require.NoError(t, err)
		require.Len(t, history, 1)
		require.Equal(t, "Office Expense", history[0].Category)
	})

	t.Run("unknown record", func(t *testing.T) {
		_, err := repo.History(ctx, 99999)
		require.ErrorIs(t, err, ErrUnknownRecord)
	})
}

func TestRecordRepository_Search(t *testing.T) {
	t.Parallel()
	repo, ctx := setupRecordTest(t)

	_, err := repo.Append(ctx, sampleInput("paper", "Staples", "12.50"), sampleDecision("Office Expense"))
	require.NoError(t, err)
	_, err = repo.Append(ctx, sampleInput("lunch", "Corner Deli", "18.00"), sampleDecision("Meals"))
	require.NoError(t, err)

	t.Run("matches merchant case-insensitively", func(t *testing.T) {
		records, err := repo.Search(ctx, "staples")
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "Staples", records[0].Input.Merchant)
	})

	t.Run("matches current category", func(t *testing.T) {
		records, err := repo.Search(ctx, "meals")
		require.NoError(t, err)
		require.Len(t, records, 1)
		require.Equal(t, "Meals", records[0].Decision.Category)
	})

	t.Run("no matches", func(t *testing.T) {
		records, err := repo.Search(ctx, "yacht")
		require.NoError(t, err)
		require.Empty(t, records)
	})
}
