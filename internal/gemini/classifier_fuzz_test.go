package gemini

import (
	"strings"
	"testing"
)

func FuzzExtractJSON(f *testing.F) {
	// Valid JSON objects.
	f.Add(`{"category": "Supplies", "confidence": 0.95}`)
	f.Add(`{"nested": {"a": 1, "b": 2}}`)
	f.Add(`{"a": 1}`)

	// JSON with preamble (common LLM output).
	f.Add(`Here is the JSON: {"a": 1}`)
	f.Add("```json\n{\"a\": 1}\n```")
	f.Add(`Sure! {"result": "ok"}`)

	// Invalid/edge cases.
	f.Add(`{incomplete`)
	f.Add(`no json here`)
	f.Add(`}backwards{`)
	f.Add(``)
	f.Add(`{`)
	f.Add(`}`)
	f.Add(`{ } { }`)

	// Braces inside strings.
	f.Add(`{"a": "}{"}`)
	f.Add(`{"text": "contains { and } chars"}`)

	f.Fuzz(func(t *testing.T, input string) {
		result := extractJSON(input)

		if result != "" {
			if !strings.HasPrefix(result, "{") {
				t.Errorf("extractJSON(%q) result doesn't start with '{': %q", input, result)
			}
			if !strings.HasSuffix(result, "}") {
				t.Errorf("extractJSON(%q) result doesn't end with '}': %q", input, result)
			}
			if len(result) < 2 {
				t.Errorf("extractJSON(%q) result too short: %q", input, result)
			}
		}
	})
}

func FuzzSanitizeForPrompt(f *testing.F) {
	f.Add("plain description", 100)
	f.Add("quotes \" and ` ticks", 50)
	f.Add("null\x00byte", 20)
	f.Add("", 10)
	f.Add("long text that should get truncated somewhere", 8)

	f.Fuzz(func(t *testing.T, input string, maxLength int) {
		if maxLength < 0 || maxLength > 10000 {
			t.Skip()
		}
		out := SanitizeForPrompt(input, maxLength)

		if len(out) > maxLength {
			t.Errorf("SanitizeForPrompt(%q, %d) exceeded max length: %d", input, maxLength, len(out))
		}
		if strings.ContainsAny(out, "\"`\x00\n\t") {
			t.Errorf("SanitizeForPrompt(%q) left unsafe characters: %q", input, out)
		}
	})
}
