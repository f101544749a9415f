package quiz

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"

	"github.com/korjavin/quizbot/models"
)

func TestNormalizeRequiresQuestionText(t *testing.T) {
	if _, err := Normalize(models.RawQuestion{}); !errors.Is(err, ErrMissingQuestionText) {
		t.Fatalf("expected ErrMissingQuestionText, got %v", err)
	}
	if _, err := Normalize(models.RawQuestion{"question": "   ", "prompt": ""}); !errors.Is(err, ErrMissingQuestionText) {
		t.Fatalf("expected ErrMissingQuestionText for blank text, got %v", err)
	}
}

func TestNormalizeFallsBackToPrompt(t *testing.T) {
	q, err := Normalize(models.RawQuestion{"prompt": " Name the bone "})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if q.Text != "Name the bone" {
		t.Fatalf("expected prompt text, got %q", q.Text)
	}
}

func TestNormalizeSanitizesOptions(t *testing.T) {
	q, err := Normalize(models.RawQuestion{
		"question": "Pick one",
		"options":  []any{" Alpha ", nil, "\u200b", "Be\u200bta", "", "Gamma\ufeff"},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []string{"Alpha", "Beta", "Gamma"}
	if !reflect.DeepEqual(q.Options, want) {
		t.Fatalf("expected %v, got %v", want, q.Options)
	}
}

func TestNormalizeCollapsesEmptyLists(t *testing.T) {
	q, err := Normalize(models.RawQuestion{
		"question": "Anything",
		"options":  []any{nil, " ", "\u200b"},
		"answers":  []any{nil, "", map[string]any{"x": 1}},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if q.Options != nil {
		t.Fatalf("expected options unset, got %#v", q.Options)
	}
	if q.Answers != nil {
		t.Fatalf("expected answers unset, got %#v", q.Answers)
	}
}

func TestNormalizeAnswers(t *testing.T) {
	q, err := Normalize(models.RawQuestion{
		"question": "Pick",
		"answers":  []any{" B ", json.Number("2"), 1.0, nil, "  "},
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []models.AnswerValue{
		models.TextAnswer("B"),
		models.NumberAnswer(2),
		models.NumberAnswer(1),
	}
	if !reflect.DeepEqual(q.Answers, want) {
		t.Fatalf("expected %#v, got %#v", want, q.Answers)
	}

	single, err := Normalize(models.RawQuestion{"question": "Pick", "answers": "C"})
	if err != nil {
		t.Fatalf("normalize scalar: %v", err)
	}
	if len(single.Answers) != 1 || single.Answers[0].Text != "C" {
		t.Fatalf("expected scalar answer flattened, got %#v", single.Answers)
	}
}

func TestNormalizeKeepsUnknownFields(t *testing.T) {
	q, err := Normalize(models.RawQuestion{
		"question": "Pick",
		"id":       json.Number("42"),
		"source":   "regionals",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if q.ID != "42" {
		t.Fatalf("expected numeric id rendered as 42, got %q", q.ID)
	}
	if q.Extra["source"] != "regionals" {
		t.Fatalf("expected passthrough field, got %#v", q.Extra)
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	first, err := Normalize(models.RawQuestion{
		"id":         7,
		"base52":     "AbC",
		"question":   "  Which gas?  ",
		"event":      "Chemistry Lab",
		"division":   "C",
		"subtopics":  []any{"gases", "", " stoichiometry "},
		"options":    []any{" Oxygen", nil, "Nitrogen\u200d", "Argon"},
		"answers":    []any{" b ", 1},
		"difficulty": 0.4,
		"imageUrl":   "https://example.com/x.png",
		"created_at": "2024-01-01",
		"tournament": "state",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	second, err := Normalize(first.Raw())
	if err != nil {
		t.Fatalf("normalize again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("normalization is not idempotent:\nfirst:  %#v\nsecond: %#v", first, second)
	}
}

func TestNormalizeDropsOutOfRangeDifficulty(t *testing.T) {
	q, err := Normalize(models.RawQuestion{"question": "x", "difficulty": 3.5})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if q.Difficulty != nil {
		t.Fatalf("expected difficulty unset, got %v", *q.Difficulty)
	}
}
