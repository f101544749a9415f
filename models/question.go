package models

import (
	"strconv"
)

// QuestionType selects how an answer to a question is graded.
type QuestionType string

const (
	TypeMCQ QuestionType = "mcq"
	TypeFRQ QuestionType = "frq"
	TypeID  QuestionType = "id"
)

// Raw payload keys understood by the normalizer. Anything else is passed through.
const (
	KeyID         = "id"
	KeyShortCode  = "base52"
	KeyQuestion   = "question"
	KeyPrompt     = "prompt"
	KeyEvent      = "event"
	KeyDivision   = "division"
	KeySubtopics  = "subtopics"
	KeyOptions    = "options"
	KeyAnswers    = "answers"
	KeyDifficulty = "difficulty"
	KeyImageURL   = "imageUrl"
	KeyImageData  = "imageData"
	KeyCreatedAt  = "created_at"
	KeyUpdatedAt  = "updated_at"
)

// RawQuestion is an untrusted question payload as decoded from the question API.
type RawQuestion map[string]any

// AnswerValue is one encoded representation of a correct choice: either a
// string or a number.
type AnswerValue struct {
	Text     string
	Number   float64
	IsNumber bool
}

// TextAnswer wraps a string answer.
func TextAnswer(s string) AnswerValue {
	return AnswerValue{Text: s}
}

// NumberAnswer wraps a numeric answer.
func NumberAnswer(n float64) AnswerValue {
	return AnswerValue{Number: n, IsNumber: true}
}

// String renders the answer the way it would be shown to a grader.
func (a AnswerValue) String() string {
	if a.IsNumber {
		return strconv.FormatFloat(a.Number, 'f', -1, 64)
	}
	return a.Text
}

// Raw returns the JSON-compatible value of the answer.
func (a AnswerValue) Raw() any {
	if a.IsNumber {
		return a.Number
	}
	return a.Text
}

// Question is a normalized question. Text is never empty; Options and Answers
// are either nil or non-empty.
type Question struct {
	ID         string
	ShortCode  string
	Text       string
	Event      string
	Division   string
	Subtopics  []string
	Options    []string
	Answers    []AnswerValue
	Difficulty *float64
	ImageURL   string
	ImageData  string
	CreatedAt  string
	UpdatedAt  string

	// Identification is set by the gateway for questions served from the
	// identification endpoint. It is not part of the payload.
	Identification bool

	// Extra holds unknown payload fields untouched.
	Extra map[string]any
}

// Type reports whether the question is graded as multiple choice or free response.
func (q Question) Type() QuestionType {
	if len(q.Options) > 0 {
		return TypeMCQ
	}
	return TypeFRQ
}

// HasImage reports whether the question carries an image reference or inline data.
func (q Question) HasImage() bool {
	return q.ImageURL != "" || q.ImageData != ""
}

// AnswerStrings returns every known correct-answer representation as text.
func (q Question) AnswerStrings() []string {
	out := make([]string, 0, len(q.Answers))
	for _, a := range q.Answers {
		out = append(out, a.String())
	}
	return out
}

// Raw converts the question back into payload form. Normalizing the result
// yields the same question.
func (q Question) Raw() RawQuestion {
	raw := make(RawQuestion, len(q.Extra)+12)
	for k, v := range q.Extra {
		raw[k] = v
	}
	raw[KeyQuestion] = q.Text
	setIfNotEmpty(raw, KeyID, q.ID)
	setIfNotEmpty(raw, KeyShortCode, q.ShortCode)
	setIfNotEmpty(raw, KeyEvent, q.Event)
	setIfNotEmpty(raw, KeyDivision, q.Division)
	setIfNotEmpty(raw, KeyImageURL, q.ImageURL)
	setIfNotEmpty(raw, KeyImageData, q.ImageData)
	setIfNotEmpty(raw, KeyCreatedAt, q.CreatedAt)
	setIfNotEmpty(raw, KeyUpdatedAt, q.UpdatedAt)
	if len(q.Subtopics) > 0 {
		raw[KeySubtopics] = toAnySlice(q.Subtopics)
	}
	if len(q.Options) > 0 {
		raw[KeyOptions] = toAnySlice(q.Options)
	}
	if len(q.Answers) > 0 {
		answers := make([]any, 0, len(q.Answers))
		for _, a := range q.Answers {
			answers = append(answers, a.Raw())
		}
		raw[KeyAnswers] = answers
	}
	if q.Difficulty != nil {
		raw[KeyDifficulty] = *q.Difficulty
	}
	return raw
}

func setIfNotEmpty(raw RawQuestion, key, value string) {
	if value != "" {
		raw[key] = value
	}
}

func toAnySlice(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
