// Package engine turns raw expense inputs into validated classification
// decisions. The engine is stateless: it never persists anything, so a caller
// that abandons a submission mid-flight leaves no partial state behind.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/owenfield/taxledger/internal/gemini"
	"github.com/owenfield/taxledger/internal/logger"
	"github.com/owenfield/taxledger/internal/models"
	"github.com/owenfield/taxledger/internal/taxonomy"
)

// ErrEmptyInput indicates an expense with no usable text; rejected before any
// external call is made.
var ErrEmptyInput = errors.New("expense text is empty")

// ErrInvalidSource indicates an unknown expense source.
var ErrInvalidSource = errors.New("invalid expense source")

// Adapter is the classification capability the engine runs against. The
// production implementation is *gemini.Client; tests substitute a
// deterministic stub.
type Adapter interface {
	ClassifyExpense(ctx context.Context, description string, categories []taxonomy.Category, strict bool) (*gemini.Suggestion, error)
	ModelVersion() string
}

// Engine classifies expense inputs against the Schedule C taxonomy.
type Engine struct {
	adapter Adapter
	now     func() time.Time
}

// New creates an Engine backed by the given classification adapter.
func New(adapter Adapter) *Engine {
	return &Engine{
		adapter: adapter,
		now:     time.Now,
	}
}

// Classify produces a classification decision for one expense input.
//
// The adapter is called once; if it returns a malformed response, or a
// category outside the taxonomy, the call is retried once with a stricter
// reformulated prompt before the failure surfaces. An out-of-taxonomy
// category is never coerced to a default: a wrong classification carries
// audit liability.
//
// On any failure a typed error propagates to the caller; the engine never
// returns a partially-filled decision.
func (e *Engine) Classify(ctx context.Context, input models.ExpenseInput) (*models.ClassificationDecision, error) {
	if strings.TrimSpace(input.RawText) == "" {
		return nil, ErrEmptyInput
	}
	if !models.ValidSource(input.Source) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSource, input.Source)
	}

	ctx, span := otel.Tracer("taxledger/engine").Start(ctx, "engine.Classify",
		trace.WithAttributes(attribute.String("expense.source", input.Source)))
	defer span.End()

	textHash := logger.HashExpenseText(input.RawText)
	categories := taxonomy.All()

	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		strict := attempt > 0

		suggestion, err := e.adapter.ClassifyExpense(ctx, input.RawText, categories, strict)
		if err != nil {
			if errors.Is(err, gemini.ErrMalformedResponse) && !strict {
				logger.Log.Warn().
					Str("text_hash", textHash).
					Msg("malformed response, retrying with strict prompt")
				lastErr = err
				continue
			}
			return nil, err
		}

		category, ok := taxonomy.Normalize(suggestion.Category)
		if !ok {
			lastErr = fmt.Errorf("%w: category %q not in taxonomy %s",
				gemini.ErrMalformedResponse, suggestion.Category, taxonomy.Version)
			if !strict {
				logger.Log.Warn().
					Str("text_hash", textHash).
					Str("suggested", suggestion.Category).
					Msg("out-of-taxonomy category, retrying with strict prompt")
				continue
			}
			return nil, lastErr
		}

		decision := &models.ClassificationDecision{
			Category:      category.ID,
			Justification: suggestion.Justification,
			Confidence:    clampConfidence(suggestion.Confidence),
			DecidedAt:     e.decidedAt(input.SubmittedAt),
			ModelVersion:  e.adapter.ModelVersion(),
		}

		logger.Log.Info().
			Str("text_hash", textHash).
			Str("category", decision.Category).
			Float64("confidence", decision.Confidence).
			Str("tier", string(decision.Tier())).
			Msg("expense classified")
		return decision, nil
	}

	return nil, lastErr
}

// decidedAt stamps the decision time, holding the decided_at >= submitted_at
// invariant even under clock skew between intake and classification.
func (e *Engine) decidedAt(submittedAt time.Time) time.Time {
	now := e.now()
	if now.Before(submittedAt) {
		return submittedAt
	}
	return now
}

func clampConfidence(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}
