package taxonomy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllStableOrder(t *testing.T) {
	t.Parallel()

	first := All()
	second := All()
	require.Equal(t, first, second)
	require.NotEmpty(t, first)

	// Mutating a returned slice must not affect the taxonomy.
	first[0].ID = "Yacht Expenses"
	require.NotEqual(t, first[0], All()[0])
}

func TestNamesMatchAll(t *testing.T) {
	t.Parallel()

	all := All()
	names := Names()
	require.Len(t, names, len(all))
	for i, c := range all {
		require.Equal(t, c.ID, names[i])
	}
}

func TestLookup(t *testing.T) {
	t.Parallel()

	t.Run("known category", func(t *testing.T) {
		t.Parallel()
		c, err := Lookup("Office Expense")
		require.NoError(t, err)
		require.Equal(t, "Office Expense", c.ID)
		require.NotEmpty(t, c.Description)
	})

	t.Run("unknown category", func(t *testing.T) {
		t.Parallel()
		_, err := Lookup("Yacht Expenses")
		require.ErrorIs(t, err, ErrUnknownCategory)
	})

	t.Run("lookup is case-sensitive", func(t *testing.T) {
		t.Parallel()
		_, err := Lookup("office expense")
		require.ErrorIs(t, err, ErrUnknownCategory)
	})
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		suggested string
		wantID    string
		wantOK    bool
	}{
		{name: "exact", suggested: "Supplies", wantID: "Supplies", wantOK: true},
		{name: "case-insensitive", suggested: "office expense", wantID: "Office Expense", wantOK: true},
		{name: "surrounding whitespace", suggested: "  Travel  ", wantID: "Travel", wantOK: true},
		{name: "unknown never coerced", suggested: "Yacht Expenses", wantOK: false},
		{name: "empty", suggested: "", wantOK: false},
		{name: "near-miss not matched", suggested: "Office", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c, ok := Normalize(tt.suggested)
			require.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				require.Equal(t, tt.wantID, c.ID)
			}
		})
	}
}
