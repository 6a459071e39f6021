package models

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidSource(t *testing.T) {
	t.Parallel()

	require.True(t, ValidSource(SourceManualEntry))
	require.True(t, ValidSource(SourceReceiptImage))
	require.False(t, ValidSource(""))
	require.False(t, ValidSource("email"))
}

func TestTierForScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		score float64
		want  ConfidenceTier
	}{
		{name: "certain", score: 1.0, want: TierHigh},
		{name: "high boundary", score: 0.8, want: TierHigh},
		{name: "just below high", score: 0.79, want: TierMedium},
		{name: "medium boundary", score: 0.5, want: TierMedium},
		{name: "just below medium", score: 0.49, want: TierLow},
		{name: "zero", score: 0, want: TierLow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, TierForScore(tt.score))
		})
	}
}

func TestDecisionTier(t *testing.T) {
	t.Parallel()

	d := ClassificationDecision{Category: "Office Expense", Confidence: 0.92}
	require.Equal(t, TierHigh, d.Tier())
}
