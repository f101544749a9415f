package render

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/quiz"
)

const maxEchoedAnswer = 1000

// MCQResultView shows whether the chosen option was the correct one.
func MCQResultView(q models.Question, res quiz.MCQResult) View {
	title := "❌ Incorrect"
	if res.IsCorrect {
		title = "✅ Correct!"
	}
	return View{
		Title: title,
		Fields: []Field{
			{Name: "Your answer", Value: optionText(q, res.Chosen)},
			{Name: "Correct answer", Value: optionText(q, res.Correct)},
		},
	}
}

// FRQResultView shows the graded score of a free response.
func FRQResultView(q models.Question, answer string, res quiz.FRQResult) View {
	title := "❌ Likely incorrect"
	if res.LikelyCorrect {
		title = "✅ Likely correct"
	}
	return View{
		Title: title,
		Fields: []Field{
			{Name: "Your answer", Value: Truncate(answer, maxEchoedAnswer)},
			{Name: "Score", Value: fmt.Sprintf("%d%%", int(math.Round(res.Score*100)))},
			{Name: "Expected answer", Value: expectedAnswers(q)},
		},
	}
}

// ExplainView shows an explanation along with the answer it explains. The
// answer shown for multiple choice questions falls back to the first option
// when the data does not identify one.
func ExplainView(q models.Question, text string) View {
	return View{
		Title:       "💡 Explanation",
		Description: Truncate(text, bodyLimit),
		Fields: []Field{
			{Name: "Answer", Value: illustrativeAnswer(q)},
		},
	}
}

// AnswerPrompt is the request for an answer shown when Check is pressed.
type AnswerPrompt struct {
	Text        string
	Placeholder string
}

// PromptFor builds the answer prompt for q.
func PromptFor(q models.Question, wait time.Duration) AnswerPrompt {
	minutes := int(wait / time.Minute)
	if len(q.Options) > 0 {
		last := quiz.OptionLetter(len(q.Options) - 1)
		return AnswerPrompt{
			Text:        fmt.Sprintf("Reply to this message with the letter of your answer (A-%s). You have %d minutes.", last, minutes),
			Placeholder: "A-" + last,
		}
	}
	return AnswerPrompt{
		Text:        fmt.Sprintf("Reply to this message with your answer. You have %d minutes.", minutes),
		Placeholder: "Your answer",
	}
}

func optionText(q models.Question, i int) string {
	if i < 0 || i >= len(q.Options) {
		return quiz.OptionLetter(i)
	}
	return quiz.OptionLetter(i) + ") " + q.Options[i]
}

func expectedAnswers(q models.Question) string {
	answers := q.AnswerStrings()
	if len(answers) == 0 {
		return "Not provided"
	}
	return strings.Join(answers, "; ")
}

func illustrativeAnswer(q models.Question) string {
	if len(q.Options) > 0 {
		return optionText(q, quiz.LegacyCorrectIndex(q))
	}
	return expectedAnswers(q)
}
