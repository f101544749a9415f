package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log"

	"github.com/korjavin/quizbot/api"
	"github.com/korjavin/quizbot/models"
	"golang.org/x/sync/singleflight"
)

// Store persists explanation text by key.
type Store interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, text string) error
}

// Source produces explanations, typically *api.Client.
type Source interface {
	Explain(ctx context.Context, q models.Question, userAnswer string) api.Explanation
}

// Explainer serves explanations from a Store and falls back to a Source on
// a miss. Concurrent misses for one question share a single Source call.
// Fallback explanations and explanations of a user's answer are not stored.
type Explainer struct {
	source Source
	store  Store
	sf     singleflight.Group
}

// NewExplainer wraps source. A nil store disables caching.
func NewExplainer(source Source, store Store) *Explainer {
	return &Explainer{source: source, store: store}
}

// Explain returns an explanation of q.
func (e *Explainer) Explain(ctx context.Context, q models.Question, userAnswer string) api.Explanation {
	if e.store == nil || userAnswer != "" {
		return e.source.Explain(ctx, q, userAnswer)
	}

	key := Key(q)
	if exp, ok := e.cached(ctx, key); ok {
		return exp
	}

	result, _, _ := e.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if exp, ok := e.cached(ctx, key); ok {
			return exp, nil
		}
		exp := e.source.Explain(ctx, q, "")
		if !exp.Fallback {
			if err := e.store.Set(ctx, key, exp.Text); err != nil {
				log.Printf("cache: storing explanation %s failed: %v", key, err)
			}
		}
		return exp, nil
	})
	return result.(api.Explanation)
}

func (e *Explainer) cached(ctx context.Context, key string) (api.Explanation, bool) {
	text, ok, err := e.store.Get(ctx, key)
	if err != nil {
		log.Printf("cache: reading explanation %s failed: %v", key, err)
		return api.Explanation{}, false
	}
	if !ok || text == "" {
		return api.Explanation{}, false
	}
	return api.Explanation{Text: text}, true
}

// Key identifies a question for caching: its short code, else its id, else
// a hash of its text.
func Key(q models.Question) string {
	switch {
	case q.ShortCode != "":
		return "b52:" + q.ShortCode
	case q.ID != "":
		return "id:" + q.ID
	default:
		sum := sha256.Sum256([]byte(q.Text))
		return "txt:" + hex.EncodeToString(sum[:12])
	}
}
