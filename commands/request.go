package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/models"
	"github.com/samber/lo"
)

// Difficulty is a named range of question difficulty.
type Difficulty struct {
	Name string
	Min  float64
	Max  float64
}

// Difficulties are the five selectable buckets, each spanning 20 points.
var Difficulties = []Difficulty{
	{Name: "very_easy", Min: 0, Max: 0.2},
	{Name: "easy", Min: 0.2, Max: 0.4},
	{Name: "medium", Min: 0.4, Max: 0.6},
	{Name: "hard", Min: 0.6, Max: 0.8},
	{Name: "very_hard", Min: 0.8, Max: 1},
}

// ArgumentError is a malformed command argument. Its message is meant for the user.
type ArgumentError struct {
	Msg string
}

func (e *ArgumentError) Error() string { return e.Msg }

func argError(format string, v ...any) error {
	return &ArgumentError{Msg: fmt.Sprintf(format, v...)}
}

// Request is a parsed command invocation.
type Request struct {
	Event      string
	Division   string
	Subtopic   string
	Type       models.QuestionType
	Difficulty *Difficulty
}

// SearchParams converts the request into gateway search filters.
func (r Request) SearchParams() api.SearchParams {
	p := api.SearchParams{
		Event:    r.Event,
		Division: r.Division,
		Subtopic: r.Subtopic,
		Type:     r.Type,
	}
	if r.Difficulty != nil {
		min, max := r.Difficulty.Min, r.Difficulty.Max
		p.DifficultyMin, p.DifficultyMax = &min, &max
	}
	return p
}

// Parse reads "key:value" arguments. Words without a key continue the
// previous value, so "subtopic:Stellar Evolution" works unquoted.
func (d Definition) Parse(args string) (Request, error) {
	values, err := splitArgs(args)
	if err != nil {
		return Request{}, err
	}

	req := Request{Event: d.Name}
	for _, kv := range values {
		switch kv.key {
		case "division", "div":
			if req.Division, err = d.division(kv.value); err != nil {
				return Request{}, err
			}
		case "subtopic", "topic":
			if req.Subtopic, err = d.subtopic(kv.value); err != nil {
				return Request{}, err
			}
		case "type":
			if req.Type, err = questionType(kv.value); err != nil {
				return Request{}, err
			}
		case "difficulty", "diff":
			if req.Difficulty, err = difficulty(kv.value); err != nil {
				return Request{}, err
			}
		default:
			return Request{}, argError("Unknown option %q. Use division, subtopic, type or difficulty.", kv.key)
		}
	}
	return req, nil
}

// Usage describes the arguments the command accepts.
func (d Definition) Usage() string {
	var b strings.Builder
	fmt.Fprintf(&b, "/%s [division:%s] [subtopic:<name or number>] [type:mcq|frq|id] [difficulty:%s]",
		d.Command,
		strings.Join(d.Divisions, "|"),
		strings.Join(lo.Map(Difficulties, func(x Difficulty, _ int) string { return x.Name }), "|"))
	if len(d.Subtopics) > 0 {
		b.WriteString("\nSubtopics: ")
		b.WriteString(strings.Join(lo.Map(d.Subtopics, func(s string, i int) string {
			return strconv.Itoa(i+1) + ". " + s
		}), ", "))
	}
	return b.String()
}

type keyValue struct {
	key   string
	value string
}

func splitArgs(args string) ([]keyValue, error) {
	var out []keyValue
	for _, word := range strings.Fields(args) {
		key, value, ok := strings.Cut(word, ":")
		if !ok {
			if len(out) == 0 {
				return nil, argError("Arguments look like key:value, got %q.", word)
			}
			out[len(out)-1].value += " " + word
			continue
		}
		out = append(out, keyValue{key: strings.ToLower(key), value: value})
	}
	for _, kv := range out {
		if strings.TrimSpace(kv.value) == "" {
			return nil, argError("Option %q needs a value.", kv.key)
		}
	}
	return out, nil
}

func (d Definition) division(v string) (string, error) {
	v = strings.ToUpper(strings.TrimSpace(v))
	if len(d.Divisions) == 0 || lo.Contains(d.Divisions, v) {
		return v, nil
	}
	return "", argError("%s is offered in division %s only.", d.Name, strings.Join(d.Divisions, " or "))
}

// subtopic accepts a configured name or its 1-based position in the list.
func (d Definition) subtopic(v string) (string, error) {
	v = strings.TrimSpace(v)
	if len(d.Subtopics) == 0 {
		return v, nil
	}
	if n, err := strconv.Atoi(v); err == nil {
		if n < 1 || n > len(d.Subtopics) {
			return "", argError("Subtopic number must be between 1 and %d.", len(d.Subtopics))
		}
		return d.Subtopics[n-1], nil
	}
	if match, ok := lo.Find(d.Subtopics, func(s string) bool { return strings.EqualFold(s, v) }); ok {
		return match, nil
	}
	return "", argError("Unknown subtopic %q. Choose one of: %s.", v, strings.Join(d.Subtopics, ", "))
}

func questionType(v string) (models.QuestionType, error) {
	switch t := models.QuestionType(strings.ToLower(strings.TrimSpace(v))); t {
	case models.TypeMCQ, models.TypeFRQ, models.TypeID:
		return t, nil
	}
	return "", argError("Question type must be mcq, frq or id.")
}

func difficulty(v string) (*Difficulty, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(v)), "-", "_")
	for i := range Difficulties {
		if Difficulties[i].Name == name {
			d := Difficulties[i]
			return &d, nil
		}
	}
	return nil, argError("Difficulty must be one of: %s.",
		strings.Join(lo.Map(Difficulties, func(x Difficulty, _ int) string { return x.Name }), ", "))
}
