package api

import (
	"context"
	"net/http"

	"github.com/korjavin/quizbot/models"
)

type reportRequest struct {
	Question models.RawQuestion `json:"question"`
	Event    string             `json:"event"`
}

// Report asks the moderation service to remove a question and returns its decision.
func (c *Client) Report(ctx context.Context, q models.Question) (ReportResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/report/remove", nil, reportRequest{
		Question: q.Raw(),
		Event:    q.Event,
	})
	if err != nil {
		return ReportResult{}, err
	}
	return decodeReport(body)
}
