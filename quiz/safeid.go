package quiz

import (
	"strings"

	"github.com/google/uuid"
)

// MaxSafeIDLength bounds safe ids so that "<action>:<id>" fits into a
// Telegram callback payload.
const MaxSafeIDLength = 40

// SafeID derives a stable control identifier from the first candidate that
// survives sanitizing. Only [A-Za-z0-9_-] is kept and the suffix is bounded.
func SafeID(candidates ...string) string {
	for _, c := range candidates {
		if id := sanitizeID(c); id != "" {
			return id
		}
	}
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

func sanitizeID(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			b.WriteRune(r)
		}
	}
	id := b.String()
	if len(id) > MaxSafeIDLength {
		id = id[len(id)-MaxSafeIDLength:]
	}
	return id
}
