package quiz

import (
	"math"
	"strings"
	"unicode"

	"github.com/korjavin/quizbot/models"
)

// ResolveCorrectIndex determines which option is correct. Each answer value is
// tried in order against, in priority: a numeric in-range index, a single
// letter, an exact case-insensitive option match and a substring match in
// either direction. ok is false when nothing resolves; callers that grade must
// treat that as a blocking condition.
func ResolveCorrectIndex(q models.Question) (index int, ok bool) {
	if len(q.Options) == 0 {
		return 0, false
	}
	for _, answer := range q.Answers {
		if i, ok := resolveAnswer(answer, q.Options); ok {
			return i, true
		}
	}
	return 0, false
}

// LegacyCorrectIndex resolves like ResolveCorrectIndex but falls back to the
// first option. Only for illustrative text, never for grading.
func LegacyCorrectIndex(q models.Question) int {
	if i, ok := ResolveCorrectIndex(q); ok {
		return i
	}
	return 0
}

func resolveAnswer(answer models.AnswerValue, options []string) (int, bool) {
	if answer.IsNumber {
		n := answer.Number
		if n == math.Trunc(n) && n >= 0 && int(n) < len(options) {
			return int(n), true
		}
		return 0, false
	}

	text := strings.TrimSpace(answer.Text)
	if i, ok := letterIndex(text); ok && i < len(options) {
		return i, true
	}

	lower := strings.ToLower(text)
	if lower == "" {
		return 0, false
	}
	for i, opt := range options {
		if strings.ToLower(strings.TrimSpace(opt)) == lower {
			return i, true
		}
	}
	for i, opt := range options {
		o := strings.ToLower(strings.TrimSpace(opt))
		if o == "" {
			continue
		}
		if strings.Contains(o, lower) || strings.Contains(lower, o) {
			return i, true
		}
	}
	return 0, false
}

// letterIndex maps a single ASCII letter to its zero-based position.
func letterIndex(s string) (int, bool) {
	if len(s) != 1 {
		return 0, false
	}
	r := unicode.ToUpper(rune(s[0]))
	if r < 'A' || r > 'Z' {
		return 0, false
	}
	return int(r - 'A'), true
}

// OptionLetter returns the display letter for an option index.
func OptionLetter(i int) string {
	if i < 0 || i >= 26 {
		return "?"
	}
	return string(rune('A' + i))
}
