// Package models defines the domain entities for the tax ledger.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Source identifies how an expense entered the system.
const (
	SourceManualEntry  = "manual_entry"
	SourceReceiptImage = "receipt_image"
)

// ValidSource reports whether s is a known expense source.
func ValidSource(s string) bool {
	return s == SourceManualEntry || s == SourceReceiptImage
}

// MaxRawTextLength is the maximum allowed length for raw expense text.
const MaxRawTextLength = 2000

// ExpenseInput is a raw expense as submitted, before classification.
// Immutable once created; consumed exactly once by the classification engine.
type ExpenseInput struct {
	RawText     string
	Source      string
	Merchant    string
	Amount      decimal.NullDecimal
	SubmittedAt time.Time
}

// ConfidenceTier is the discrete confidence band derived from the raw score.
type ConfidenceTier string

// Confidence tiers, derived from the model's [0,1] score.
const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

// Tier thresholds follow the prompt guidance given to the model: obvious
// categorizations score 0.8-1.0, ambiguous ones 0.5-0.7.
const (
	highConfidenceFloor   = 0.8
	mediumConfidenceFloor = 0.5
)

// TierForScore maps a [0,1] confidence score to its discrete tier.
func TierForScore(score float64) ConfidenceTier {
	switch {
	case score >= highConfidenceFloor:
		return TierHigh
	case score >= mediumConfidenceFloor:
		return TierMedium
	default:
		return TierLow
	}
}

// ClassificationDecision is one classification of an expense input.
// Decisions are immutable; corrections append a new decision, they never
// mutate an existing one, so the audit history stays reconstructable.
type ClassificationDecision struct {
	Category      string
	Justification string
	Confidence    float64
	DecidedAt     time.Time
	ModelVersion  string
}

// Tier returns the discrete confidence tier for this decision.
func (d ClassificationDecision) Tier() ConfidenceTier {
	return TierForScore(d.Confidence)
}

// ExpenseRecord is the durable unit: an expense input together with its
// current classification decision. Record IDs are unique, strictly
// increasing, and gapless in insertion order.
type ExpenseRecord struct {
	RecordID  int64
	Input     ExpenseInput
	Decision  ClassificationDecision
	CreatedAt time.Time
}
