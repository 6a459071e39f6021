// Package intake normalizes raw expense submissions before classification.
// It extracts dollar amounts embedded in free text so the ledger can keep a
// structured amount alongside the original description.
package intake

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/owenfield/taxledger/internal/models"
)

// dollarAmountRegex matches amounts like "$12.50", "$ 1,200" or "$5".
var dollarAmountRegex = regexp.MustCompile(`\$\s?(\d{1,3}(?:,\d{3})*(?:\.\d{1,2})?|\d+(?:\.\d{1,2})?)`)

// trailingAmountRegex matches a bare trailing amount like "lunch 12.50".
var trailingAmountRegex = regexp.MustCompile(`(\d+(?:\.\d{1,2})?)\s*$`)

// ExtractAmount pulls a dollar amount out of free-text expense input.
// A "$"-prefixed amount anywhere in the text wins; otherwise a bare decimal
// number at the end of the text is accepted. Returns false if no positive
// amount is present.
func ExtractAmount(text string) (decimal.Decimal, bool) {
	if m := dollarAmountRegex.FindStringSubmatch(text); m != nil {
		raw := strings.ReplaceAll(m[1], ",", "")
		amount, err := decimal.NewFromString(raw)
		if err == nil && amount.GreaterThan(decimal.Zero) {
			return amount, true
		}
	}

	if m := trailingAmountRegex.FindStringSubmatch(strings.TrimSpace(text)); m != nil {
		amount, err := decimal.NewFromString(m[1])
		if err == nil && amount.GreaterThan(decimal.Zero) {
			return amount, true
		}
	}

	return decimal.Decimal{}, false
}

// NewExpenseInput builds a validated ExpenseInput from a raw submission.
// The raw text is preserved verbatim; only the amount is parsed out of it.
func NewExpenseInput(rawText, source, merchant string, submittedAt time.Time) (models.ExpenseInput, error) {
	rawText = strings.TrimSpace(rawText)
	if rawText == "" {
		return models.ExpenseInput{}, fmt.Errorf("expense text is empty")
	}
	if len(rawText) > models.MaxRawTextLength {
		return models.ExpenseInput{}, fmt.Errorf("expense text exceeds %d characters", models.MaxRawTextLength)
	}
	if !models.ValidSource(source) {
		return models.ExpenseInput{}, fmt.Errorf("unknown source %q", source)
	}

	input := models.ExpenseInput{
		RawText:     rawText,
		Source:      source,
		Merchant:    strings.TrimSpace(merchant),
		SubmittedAt: submittedAt,
	}
	if amount, ok := ExtractAmount(rawText); ok {
		input.Amount = decimal.NewNullDecimal(amount)
	}
	return input, nil
}
