package api

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/korjavin/quizbot/models"
	"github.com/samber/lo"
)

// identificationDivisions lists, per event, the divisions that have
// identification (picture) questions.
var identificationDivisions = map[string][]string{
	"Rocks and Minerals":         {"B", "C"},
	"Entomology":                 {"B", "C"},
	"Forensics":                  {"C"},
	"Water Quality - Freshwater": {"B", "C"},
	"Astronomy":                  {"C"},
	"Invasive Species":           {"B", "C"},
	"Fossils":                    {"B", "C"},
}

// IdentificationDivisions reports the divisions with identification questions for event.
func IdentificationDivisions(event string) ([]string, bool) {
	divs, ok := identificationDivisions[event]
	return divs, ok
}

// FetchIDQuestion fetches one identification question. Events outside the
// capability table fail with ErrIDUnsupported; falling back to other question
// types is left to the caller.
func (c *Client) FetchIDQuestion(ctx context.Context, event, division string) (models.Question, error) {
	divs, ok := IdentificationDivisions(event)
	if !ok {
		return models.Question{}, ErrIDUnsupported
	}
	if division == "" {
		division = divs[0]
	} else if !lo.ContainsBy(divs, func(d string) bool { return strings.EqualFold(d, division) }) {
		return models.Question{}, fmt.Errorf("%w in division %s", ErrIDUnsupported, division)
	}

	query := url.Values{}
	query.Set("event", event)
	query.Set("division", strings.ToUpper(division))
	query.Set("limit", strconv.Itoa(defaultSearchLimit))

	body, err := c.withRetry(ctx, "id-search", func(ctx context.Context) ([]byte, error) {
		return c.do(ctx, http.MethodGet, "/id-questions", query, nil)
	})
	if err != nil {
		return models.Question{}, err
	}
	raws, err := decodeQuestions(body)
	if err != nil {
		log.Printf("api: id-search response rejected: %v", err)
		raws = nil
	}
	if len(raws) == 0 {
		return models.Question{}, ErrNoQuestions
	}
	q, err := c.pickValid(raws)
	if err != nil {
		return models.Question{}, err
	}
	q.Identification = true
	return q, nil
}
