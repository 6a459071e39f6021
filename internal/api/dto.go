package api

import (
	"time"

	"github.com/owenfield/taxledger/internal/models"
)

type categoryResponse struct {
	ID          string `json:"id"`
	Description string `json:"description"`
}

type decisionResponse struct {
	Category       string    `json:"category"`
	Justification  string    `json:"justification"`
	Confidence     float64   `json:"confidence"`
	ConfidenceTier string    `json:"confidence_tier"`
	DecidedAt      time.Time `json:"decided_at"`
	ModelVersion   string    `json:"model_version"`
}

type recordResponse struct {
	RecordID    int64            `json:"record_id"`
	RawText     string           `json:"raw_text"`
	Source      string           `json:"source"`
	Merchant    string           `json:"merchant,omitempty"`
	Amount      *string          `json:"amount"`
	SubmittedAt time.Time        `json:"submitted_at"`
	Decision    decisionResponse `json:"decision"`
	CreatedAt   time.Time        `json:"created_at"`
}

type totalResponse struct {
	Category string `json:"category"`
	Total    string `json:"total"`
	Count    int    `json:"count"`
}

func toDecisionResponse(d models.ClassificationDecision) decisionResponse {
	return decisionResponse{
		Category:       d.Category,
		Justification:  d.Justification,
		Confidence:     d.Confidence,
		ConfidenceTier: string(d.Tier()),
		DecidedAt:      d.DecidedAt,
		ModelVersion:   d.ModelVersion,
	}
}

func toRecordResponse(rec *models.ExpenseRecord) recordResponse {
	var amount *string
	if rec.Input.Amount.Valid {
		s := rec.Input.Amount.Decimal.StringFixed(2)
		amount = &s
	}
	return recordResponse{
		RecordID:    rec.RecordID,
		RawText:     rec.Input.RawText,
		Source:      rec.Input.Source,
		Merchant:    rec.Input.Merchant,
		Amount:      amount,
		SubmittedAt: rec.Input.SubmittedAt,
		Decision:    toDecisionResponse(rec.Decision),
		CreatedAt:   rec.CreatedAt,
	}
}

func toRecordResponses(records []models.ExpenseRecord) []recordResponse {
	out := make([]recordResponse, 0, len(records))
	for i := range records {
		out = append(out, toRecordResponse(&records[i]))
	}
	return out
}
