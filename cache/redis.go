// Package cache keeps good explanations around so repeated Explain presses
// do not hit the question service again.
package cache

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "quizbot:explanation:"

// RedisStore caches explanations as plain string keys with a TTL:
// SET quizbot:explanation:{key} {text} EX {ttl}
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewRedisStore wraps client. A non-positive ttl keeps entries forever.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Get returns the cached explanation for key.
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	text, err := s.client.Get(ctx, redisKeyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return text, true, nil
}

// Set stores an explanation under key.
func (s *RedisStore) Set(ctx context.Context, key, text string) error {
	return s.client.Set(ctx, redisKeyPrefix+key, text, s.ttlWithJitter()).Err()
}

// ttlWithJitter spreads expiry by up to a tenth of the TTL.
func (s *RedisStore) ttlWithJitter() time.Duration {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	jitterMax := int64(s.ttl) / 10
	return s.ttl + time.Duration(s.rnd.Int63n(jitterMax+1))
}
