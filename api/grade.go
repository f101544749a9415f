package api

import (
	"context"
	"net/http"

	"github.com/korjavin/quizbot/models"
)

const gradingInstructions = "Grade leniently. Award partial credit for partially correct answers, " +
	"accept synonyms, paraphrases and equivalent wording, and ignore minor spelling mistakes. " +
	"Return a score between 0 and 1 for each response."

type gradeResponse struct {
	Question       string   `json:"question"`
	CorrectAnswers []string `json:"correctAnswers"`
	StudentAnswer  string   `json:"studentAnswer"`
}

type gradeRequest struct {
	Responses           []gradeResponse `json:"responses"`
	GradingInstructions string          `json:"gradingInstructions"`
}

// Grade asks the grading service to score a free-response answer. The score
// is returned as reported; a response without any score is ErrNoScore.
func (c *Client) Grade(ctx context.Context, q models.Question, answer string) (float64, error) {
	req := gradeRequest{
		Responses: []gradeResponse{{
			Question:       q.Text,
			CorrectAnswers: q.AnswerStrings(),
			StudentAnswer:  answer,
		}},
		GradingInstructions: gradingInstructions,
	}
	body, err := c.withRetry(ctx, "grade", func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodPost, "/gemini/grade-free-responses", nil, req)
	})
	if err != nil {
		return 0, err
	}
	return decodeGrade(body)
}
