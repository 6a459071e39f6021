package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

var hashSalt string

// InitHashSalt loads the log hash salt from the environment. Raw expense text
// never appears in logs verbatim; it is referenced by salted hash so log lines
// from the same expense correlate without leaking purchase details.
func InitHashSalt() {
	hashSalt = os.Getenv("LOG_HASH_SALT")
	if hashSalt == "" {
		hashSalt = "default-salt-change-in-production"
	}
}

func init() {
	InitHashSalt()
}

// HashExpenseText creates a privacy-preserving hash of raw expense text.
func HashExpenseText(text string) string {
	data := fmt.Sprintf("%s:%s", text, hashSalt)
	hash := sha256.Sum256([]byte(data))
	return hex.EncodeToString(hash[:])[:8]
}

// SanitizeDescription redacts an expense description while preserving length
// information for debugging.
func SanitizeDescription(desc string) string {
	if desc == "" {
		return "<empty>"
	}

	words := strings.Fields(desc)
	return fmt.Sprintf("<redacted: %d words, %d chars>", len(words), len(desc))
}
