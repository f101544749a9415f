package render

import (
	"encoding/base64"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/quiz"
	"github.com/samber/lo"
)

// Field names on the question view.
const (
	FieldDivision   = "Division"
	FieldDifficulty = "Difficulty"
	FieldSubtopics  = "Subtopics"
)

// QuestionView draws a question with its elapsed time. It depends only on its
// arguments, so repeated renders differ only in the footer. Controls are
// omitted when target is empty.
func QuestionView(q models.Question, elapsed time.Duration, target string) View {
	v := View{
		Title:       questionTitle(q),
		Description: Truncate(questionBody(q), bodyLimit),
		Fields:      QuestionFields(q),
		Footer:      "⏱ Elapsed: " + FormatElapsed(elapsed),
	}
	if target != "" {
		v.Buttons = []Button{
			{Label: "✅ Check answer", Action: ActionCheck, Target: target},
			{Label: "💡 Explain", Action: ActionExplain, Target: target},
			{Label: "🗑 Delete", Action: ActionDelete, Target: target},
		}
	}
	return v
}

// ExpiredView is the final, control-free render after a session times out.
func ExpiredView(q models.Question, elapsed time.Duration) View {
	v := QuestionView(q, elapsed, "")
	v.Footer = "⌛ Session expired after " + FormatElapsed(elapsed)
	return v
}

// ClosedView is the control-free render after a question was removed.
func ClosedView(q models.Question, elapsed time.Duration) View {
	v := QuestionView(q, elapsed, "")
	v.Footer = "🗑 Question removed"
	return v
}

// QuestionFields returns the division, difficulty and subtopics fields.
func QuestionFields(q models.Question) []Field {
	return []Field{
		{Name: FieldDivision, Value: DivisionText(q)},
		{Name: FieldDifficulty, Value: DifficultyText(q)},
		{Name: FieldSubtopics, Value: SubtopicsText(q)},
	}
}

// DivisionText is the display form of the question's division.
func DivisionText(q models.Question) string {
	if q.Division == "" {
		return "N/A"
	}
	return q.Division
}

// DifficultyText shows difficulty as a whole percentage.
func DifficultyText(q models.Question) string {
	if q.Difficulty == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(*q.Difficulty*100)))
}

// SubtopicsText joins the subtopics for display.
func SubtopicsText(q models.Question) string {
	if len(q.Subtopics) == 0 {
		return "None"
	}
	return strings.Join(q.Subtopics, ", ")
}

// FormatElapsed renders d as m:ss, or h:mm:ss past the hour.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func questionTitle(q models.Question) string {
	event := q.Event
	if event == "" {
		event = "Question"
	}
	switch {
	case q.Identification:
		return event + " · Identification"
	case q.Type() == models.TypeMCQ:
		return event + " · Multiple choice"
	default:
		return event + " · Free response"
	}
}

func questionBody(q models.Question) string {
	if len(q.Options) == 0 {
		return q.Text
	}
	lines := lo.Map(q.Options, func(opt string, i int) string {
		return quiz.OptionLetter(i) + ") " + opt
	})
	return q.Text + "\n\n" + strings.Join(lines, "\n")
}

// QuestionImage returns the picture attached to q, if any. Inline data may be
// plain base64 or a data URL.
func QuestionImage(q models.Question) (*Image, error) {
	if q.ImageURL != "" {
		return &Image{URL: q.ImageURL}, nil
	}
	if q.ImageData == "" {
		return nil, nil
	}
	data, err := decodeImageData(q.ImageData)
	if err != nil {
		return nil, err
	}
	return &Image{Data: data, Name: "question.png"}, nil
}

func decodeImageData(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, errors.New("malformed data URL")
		}
		s = payload
	}
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	data, err := base64.RawStdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	return data, nil
}
