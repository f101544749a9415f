// Package quiz holds the pure question logic: payload normalization, correct
// answer resolution and answer checking.
package quiz

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/korjavin/quizbot/models"
	"github.com/samber/lo"
)

// ErrMissingQuestionText is returned when a payload has neither a question nor a prompt.
var ErrMissingQuestionText = errors.New("question payload has no question text")

var consumedKeys = map[string]bool{
	models.KeyID:         true,
	models.KeyShortCode:  true,
	models.KeyQuestion:   true,
	models.KeyPrompt:     true,
	models.KeyEvent:      true,
	models.KeyDivision:   true,
	models.KeySubtopics:  true,
	models.KeyOptions:    true,
	models.KeyAnswers:    true,
	models.KeyDifficulty: true,
	models.KeyImageURL:   true,
	models.KeyImageData:  true,
	models.KeyCreatedAt:  true,
	models.KeyUpdatedAt:  true,
}

// Normalize validates a raw payload and canonicalizes it into a Question.
// It has no side effects and never touches the network.
func Normalize(raw models.RawQuestion) (models.Question, error) {
	text := firstText(raw[models.KeyQuestion], raw[models.KeyPrompt])
	if text == "" {
		return models.Question{}, ErrMissingQuestionText
	}

	q := models.Question{
		ID:        identifier(raw[models.KeyID]),
		ShortCode: stringField(raw[models.KeyShortCode]),
		Text:      text,
		Event:     stringField(raw[models.KeyEvent]),
		Division:  stringField(raw[models.KeyDivision]),
		Subtopics: sanitizeList(raw[models.KeySubtopics]),
		Options:   sanitizeList(raw[models.KeyOptions]),
		Answers:   sanitizeAnswers(raw[models.KeyAnswers]),
		ImageURL:  stringField(raw[models.KeyImageURL]),
		ImageData: stringField(raw[models.KeyImageData]),
		CreatedAt: stringField(raw[models.KeyCreatedAt]),
		UpdatedAt: stringField(raw[models.KeyUpdatedAt]),
	}
	if d, ok := toFloat(raw[models.KeyDifficulty]); ok && d >= 0 && d <= 1 {
		q.Difficulty = &d
	}

	for k, v := range raw {
		if consumedKeys[k] {
			continue
		}
		if q.Extra == nil {
			q.Extra = make(map[string]any)
		}
		q.Extra[k] = v
	}
	return q, nil
}

// SanitizeText strips zero-width and other format characters and trims whitespace.
func SanitizeText(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.Is(unicode.Cf, r) {
			return -1
		}
		return r
	}, s)
	return strings.TrimSpace(s)
}

func firstText(values ...any) string {
	for _, v := range values {
		if s, ok := v.(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

func stringField(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

func identifier(v any) string {
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	if n, ok := toFloat(v); ok {
		return strconv.FormatFloat(n, 'f', -1, 64)
	}
	return ""
}

// sanitizeList keeps the order of the surviving entries; dropped entries shift
// the positions of later ones.
func sanitizeList(v any) []string {
	out := lo.FilterMap(flatten(v), func(item any, _ int) (string, bool) {
		var s string
		switch t := item.(type) {
		case string:
			s = t
		default:
			n, ok := toFloat(t)
			if !ok {
				return "", false
			}
			s = strconv.FormatFloat(n, 'f', -1, 64)
		}
		s = SanitizeText(s)
		return s, s != ""
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

func sanitizeAnswers(v any) []models.AnswerValue {
	out := lo.FilterMap(flatten(v), func(item any, _ int) (models.AnswerValue, bool) {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			return models.TextAnswer(s), s != ""
		}
		if n, ok := toFloat(item); ok {
			return models.NumberAnswer(n), true
		}
		return models.AnswerValue{}, false
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

func flatten(v any) []any {
	switch t := v.(type) {
	case nil:
		return nil
	case []any:
		return t
	case []string:
		return lo.Map(t, func(s string, _ int) any { return s })
	default:
		return []any{t}
	}
}

func toFloat(v any) (float64, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case float32:
		n = float64(t)
	case int:
		n = float64(t)
	case int64:
		n = float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
