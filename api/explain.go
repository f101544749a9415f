package api

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"
	"unicode"

	"github.com/korjavin/quizbot/models"
)

// FallbackExplanation is shown when no acceptable explanation could be obtained.
const FallbackExplanation = "Sorry, I couldn't generate an explanation for this question right now. Please try again later."

const (
	explainRetries       = 3
	minExplanationLength = 40
	minKeywordOverlap    = 0.05
)

var rejectionPhrases = []string{
	"no question provided",
	"no question was provided",
	"please provide a question",
	"please provide the question",
	"i don't see a question",
	"question is missing",
}

var stopwords = map[string]bool{
	"about": true, "above": true, "after": true, "again": true, "also": true, "because": true,
	"been": true, "before": true, "being": true, "between": true, "both": true, "does": true,
	"each": true, "following": true, "from": true, "have": true, "into": true, "more": true,
	"most": true, "only": true, "other": true, "same": true, "should": true, "some": true,
	"such": true, "than": true, "that": true, "their": true, "them": true, "then": true,
	"there": true, "these": true, "they": true, "this": true, "those": true, "through": true,
	"under": true, "very": true, "what": true, "when": true, "where": true, "which": true,
	"while": true, "with": true, "would": true, "your": true,
}

type explainRequest struct {
	Question   models.RawQuestion `json:"question"`
	Event      string             `json:"event"`
	UserAnswer string             `json:"userAnswer,omitempty"`
}

// Explanation is the outcome of an explain call. Fallback marks the fixed
// fallback text, which must not be cached.
type Explanation struct {
	Text     string
	Fallback bool
}

// Explain requests an explanation, retrying with linear backoff until the
// text passes ValidExplanation. It never fails: exhausting retries yields
// FallbackExplanation.
func (c *Client) Explain(ctx context.Context, q models.Question, userAnswer string) Explanation {
	req := explainRequest{Question: q.Raw(), Event: q.Event, UserAnswer: userAnswer}
	for attempt := 0; attempt <= explainRetries; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, time.Duration(attempt)*c.explainBackoff); err != nil {
				break
			}
		}
		body, err := c.do(ctx, http.MethodPost, "/gemini/explain", nil, req)
		if err != nil {
			log.Printf("api: explain attempt %d for question %s failed: %v", attempt+1, questionRef(q), err)
			continue
		}
		text := decodeExplanation(body)
		if ValidExplanation(q.Text, text) {
			return Explanation{Text: text}
		}
		log.Printf("api: explain attempt %d for question %s returned an unusable explanation (%d chars)", attempt+1, questionRef(q), len(text))
	}
	return Explanation{Text: FallbackExplanation, Fallback: true}
}

// ValidExplanation rejects empty, too short, "no question" and off-topic explanations.
func ValidExplanation(question, text string) bool {
	text = strings.TrimSpace(text)
	if text == "" || len(text) <= minExplanationLength {
		return false
	}
	lower := strings.ToLower(text)
	for _, phrase := range rejectionPhrases {
		if strings.Contains(lower, phrase) {
			return false
		}
	}
	questionWords := keywords(question)
	if len(questionWords) == 0 {
		return true
	}
	textWords := keywords(text)
	shared := 0
	for w := range questionWords {
		if textWords[w] {
			shared++
		}
	}
	return float64(shared)/float64(len(questionWords)) >= minKeywordOverlap
}

func keywords(s string) map[string]bool {
	words := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]bool, len(words))
	for _, w := range words {
		if len(w) >= 4 && !stopwords[w] {
			out[w] = true
		}
	}
	return out
}

func questionRef(q models.Question) string {
	switch {
	case q.ShortCode != "":
		return q.ShortCode
	case q.ID != "":
		return q.ID
	default:
		return "<unidentified>"
	}
}
