package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/korjavin/quizbot/models"
	"github.com/korjavin/quizbot/quiz"
)

const defaultSearchLimit = 50

// SearchParams are the optional question search filters. Empty values are
// left out of the query.
type SearchParams struct {
	Event         string
	Division      string
	Subtopic      string
	Type          models.QuestionType
	DifficultyMin *float64
	DifficultyMax *float64
	Limit         int
}

func (p SearchParams) query() url.Values {
	q := url.Values{}
	set := func(key, value string) {
		if value != "" {
			q.Set(key, value)
		}
	}
	set("event", p.Event)
	set("division", p.Division)
	set("subtopic", p.Subtopic)
	set("question_type", string(p.Type))
	if p.DifficultyMin != nil {
		q.Set("difficulty_min", strconv.FormatFloat(*p.DifficultyMin, 'f', -1, 64))
	}
	if p.DifficultyMax != nil {
		q.Set("difficulty_max", strconv.FormatFloat(*p.DifficultyMax, 'f', -1, 64))
	}
	if p.Limit > 0 {
		q.Set("limit", strconv.Itoa(p.Limit))
	}
	return q
}

// Search returns the raw questions matching params, retrying transient failures.
func (c *Client) Search(ctx context.Context, params SearchParams) ([]models.RawQuestion, error) {
	body, err := c.withRetry(ctx, "search", func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, "/questions", params.query(), nil)
	})
	if err != nil {
		return nil, err
	}
	questions, err := decodeQuestions(body)
	if err != nil {
		log.Printf("api: search response rejected: %v", err)
		return nil, nil
	}
	return questions, nil
}

// FetchQuestion picks one random valid question. A search with a subtopic that
// finds nothing is repeated once without the subtopic.
func (c *Client) FetchQuestion(ctx context.Context, params SearchParams) (models.Question, error) {
	if params.Limit <= 0 {
		params.Limit = defaultSearchLimit
	}
	raws, err := c.Search(ctx, params)
	if err != nil {
		return models.Question{}, err
	}
	if len(raws) == 0 && params.Subtopic != "" {
		log.Printf("api: no questions for %s/%s, retrying without subtopic", params.Event, params.Subtopic)
		params.Subtopic = ""
		if raws, err = c.Search(ctx, params); err != nil {
			return models.Question{}, err
		}
	}
	if len(raws) == 0 {
		return models.Question{}, ErrNoQuestions
	}

	q, err := c.pickValid(raws)
	if err != nil {
		return models.Question{}, err
	}
	if q.ShortCode == "" && q.ID != "" {
		q = c.enrich(ctx, q)
	}
	return q, nil
}

// QuestionDetail fetches the full question by identifier.
func (c *Client) QuestionDetail(ctx context.Context, id string) (models.Question, error) {
	body, err := c.withRetry(ctx, "detail", func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, "/questions/"+url.PathEscape(id), nil, nil)
	})
	if err != nil {
		return models.Question{}, err
	}
	raws, err := decodeQuestions(body)
	if err != nil {
		return models.Question{}, err
	}
	if len(raws) == 0 {
		return models.Question{}, ErrNoQuestions
	}
	return quiz.Normalize(raws[0])
}

// enrich swaps in the detailed question when it can be fetched; any failure keeps the original.
func (c *Client) enrich(ctx context.Context, q models.Question) models.Question {
	detail, err := c.QuestionDetail(ctx, q.ID)
	if err != nil {
		log.Printf("api: detail fetch for question %s failed, keeping search result: %v", q.ID, err)
		return q
	}
	detail.Identification = q.Identification
	return detail
}

func (c *Client) pickValid(raws []models.RawQuestion) (models.Question, error) {
	start := c.intn(len(raws))
	for i := range raws {
		raw := raws[(start+i)%len(raws)]
		q, err := quiz.Normalize(raw)
		if err == nil {
			return q, nil
		}
		log.Printf("api: dropping invalid question id=%v base52=%v: %v", raw[models.KeyID], raw[models.KeyShortCode], err)
	}
	return models.Question{}, fmt.Errorf("%w: %d candidates failed validation", ErrNoQuestions, len(raws))
}
