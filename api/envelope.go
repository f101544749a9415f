package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/korjavin/quizbot/models"
	"github.com/xeipuuv/gojsonschema"
)

const questionsSchemaJSON = `{
  "type": "object",
  "properties": {
    "success": {"type": "boolean"},
    "message": {"type": ["string", "null"]},
    "data": {"type": ["array", "object", "null"]}
  }
}`

const gradeSchemaJSON = `{
  "type": "object",
  "definitions": {
    "grades": {
      "type": "object",
      "properties": {
        "grades": {"type": "array", "items": {"type": "object"}},
        "scores": {"type": "array"}
      }
    }
  },
  "allOf": [{"$ref": "#/definitions/grades"}],
  "properties": {
    "success": {"type": "boolean"},
    "data": {"anyOf": [{"$ref": "#/definitions/grades"}, {"type": "null"}]}
  }
}`

const explainSchemaJSON = `{
  "type": ["object", "string"],
  "properties": {
    "success": {"type": "boolean"},
    "data": {"type": ["object", "string", "null"]}
  }
}`

const reportSchemaJSON = `{
  "type": "object",
  "properties": {
    "success": {"type": "boolean"},
    "decision": {"type": ["string", "null"]},
    "data": {"type": ["object", "null"]}
  }
}`

var (
	questionsSchema = mustSchema(questionsSchemaJSON)
	gradeSchema     = mustSchema(gradeSchemaJSON)
	explainSchema   = mustSchema(explainSchemaJSON)
	reportSchema    = mustSchema(reportSchemaJSON)
)

func mustSchema(s string) *gojsonschema.Schema {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(s))
	if err != nil {
		panic(fmt.Sprintf("api: invalid schema: %v", err))
	}
	return schema
}

func validate(schema *gojsonschema.Schema, body []byte) error {
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", ErrInvalidResponse, strings.Join(msgs, "; "))
	}
	return nil
}

func decodeJSON(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	return dec.Decode(v)
}

type questionsEnvelope struct {
	Success *bool           `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// decodeQuestions accepts data as a list, an object with a nested "questions"
// list, or a single question object. An invalid envelope yields no questions.
func decodeQuestions(body []byte) ([]models.RawQuestion, error) {
	if err := validate(questionsSchema, body); err != nil {
		return nil, err
	}
	var env questionsEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	if env.Success != nil && !*env.Success {
		return nil, nil
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}

	var items []any
	if data[0] == '[' {
		if err := decodeJSON(data, &items); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
	} else {
		var obj map[string]any
		if err := decodeJSON(data, &obj); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
		}
		if nested, ok := obj["questions"].([]any); ok {
			items = nested
		} else {
			items = []any{obj}
		}
	}

	out := make([]models.RawQuestion, 0, len(items))
	for _, item := range items {
		if obj, ok := item.(map[string]any); ok {
			out = append(out, models.RawQuestion(obj))
		}
	}
	return out, nil
}

type gradeEntry struct {
	Score      *json.Number `json:"score"`
	Percentage *json.Number `json:"percentage"`
}

type gradeBody struct {
	Grades []gradeEntry  `json:"grades"`
	Scores []json.Number `json:"scores"`
}

type gradeEnvelope struct {
	gradeBody
	Data *gradeBody `json:"data"`
}

// decodeGrade extracts the first score from grades[0].score,
// grades[0].percentage (as a percentage) or scores[0].
func decodeGrade(body []byte) (float64, error) {
	if err := validate(gradeSchema, body); err != nil {
		return 0, err
	}
	var env gradeEnvelope
	if err := decodeJSON(body, &env); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	candidates := []gradeBody{env.gradeBody}
	if env.Data != nil {
		candidates = append([]gradeBody{*env.Data}, candidates...)
	}
	for _, c := range candidates {
		if score, ok := firstScore(c); ok {
			return score, nil
		}
	}
	return 0, ErrNoScore
}

func firstScore(b gradeBody) (float64, bool) {
	if len(b.Grades) > 0 {
		g := b.Grades[0]
		if g.Score != nil {
			if f, err := g.Score.Float64(); err == nil {
				return f, true
			}
		}
		if g.Percentage != nil {
			if f, err := g.Percentage.Float64(); err == nil {
				return f / 100, true
			}
		}
	}
	if len(b.Scores) > 0 {
		if f, err := b.Scores[0].Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// decodeExplanation returns the first non-empty text in priority order:
// a string body, data.explanation, data.text, then the top-level explanation,
// text, message, content, response and result fields.
func decodeExplanation(body []byte) string {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return ""
	}
	if trimmed[0] != '{' && trimmed[0] != '"' {
		return string(trimmed)
	}
	if err := validate(explainSchema, trimmed); err != nil {
		return ""
	}

	var asString string
	if err := json.Unmarshal(trimmed, &asString); err == nil {
		return strings.TrimSpace(asString)
	}

	var obj map[string]any
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return ""
	}
	if data, ok := obj["data"].(map[string]any); ok {
		for _, key := range []string{"explanation", "text"} {
			if s := stringAt(data, key); s != "" {
				return s
			}
		}
	}
	for _, key := range []string{"explanation", "text", "message", "content", "response", "result"} {
		if s := stringAt(obj, key); s != "" {
			return s
		}
	}
	return ""
}

// ReportResult is the moderation decision for a removal request.
type ReportResult struct {
	Success   bool
	Decision  string
	Reasoning string
}

func decodeReport(body []byte) (ReportResult, error) {
	if err := validate(reportSchema, body); err != nil {
		return ReportResult{}, err
	}
	var obj map[string]any
	if err := json.Unmarshal(body, &obj); err != nil {
		return ReportResult{}, fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	data, _ := obj["data"].(map[string]any)

	res := ReportResult{}
	res.Success, _ = obj["success"].(bool)
	res.Decision = firstNonEmpty(stringAt(data, "decision"), stringAt(obj, "decision"))
	res.Reasoning = firstNonEmpty(
		stringAt(data, "reasoning"),
		stringAt(data, "ai_reasoning"),
		stringAt(obj, "reason"),
		stringAt(obj, "message"),
	)
	return res, nil
}

func stringAt(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
