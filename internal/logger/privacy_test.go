package logger

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashExpenseText(t *testing.T) {
	t.Parallel()

	h1 := HashExpenseText("Staples printer paper $12.50")
	h2 := HashExpenseText("Staples printer paper $12.50")
	h3 := HashExpenseText("lunch with client")

	require.Len(t, h1, 8)
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
	require.NotContains(t, h1, "Staples")
}

func TestSanitizeDescription(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "<empty>", SanitizeDescription(""))
	})

	t.Run("redacts content", func(t *testing.T) {
		t.Parallel()
		out := SanitizeDescription("printer paper from Staples")
		require.NotContains(t, out, "Staples")
		require.Contains(t, out, "4 words")
	})
}
