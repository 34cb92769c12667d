package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/RobertYoung/quizmaster/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SetLoader fetches question set content from a backing store (files, Postgres).
type SetLoader interface {
	LoadSets(ctx context.Context) ([]domain.QuestionSet, error)
}

// SetCatalog caches the full catalog as one JSON value in Redis and falls
// back to the loader on cache miss. The catalog is small and its order
// matters (the first set is the default), so it is cached whole:
// SET quizmaster:sets {json} EX ttl
type SetCatalog struct {
	client *redis.Client
	loader SetLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewSetCatalog(client *redis.Client, loader SetLoader, ttl time.Duration) *SetCatalog {
	return &SetCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SetCatalog) ListSets(ctx context.Context) ([]domain.QuestionSet, error) {
	return c.load(ctx)
}

func (c *SetCatalog) GetSet(ctx context.Context, id string) (domain.QuestionSet, error) {
	sets, err := c.load(ctx)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	for _, set := range sets {
		if set.ID == id {
			return set, nil
		}
	}
	return domain.QuestionSet{}, domain.ErrSetNotFound
}

func (c *SetCatalog) DefaultSet(ctx context.Context) (domain.QuestionSet, error) {
	sets, err := c.load(ctx)
	if err != nil {
		return domain.QuestionSet{}, err
	}
	if len(sets) == 0 {
		return domain.QuestionSet{}, domain.ErrEmptyCatalog
	}
	return sets[0], nil
}

func (c *SetCatalog) load(ctx context.Context) ([]domain.QuestionSet, error) {
	if sets, ok := c.cached(ctx); ok {
		return sets, nil
	}

	result, err, _ := c.sf.Do(c.key(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if sets, ok := c.cached(ctx); ok {
			return sets, nil
		}

		sets, err := c.loader.LoadSets(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(sets); err == nil {
			_ = c.client.Set(ctx, c.key(), data, c.ttlWithJitter()).Err()
		}
		return sets, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionSet), nil
}

func (c *SetCatalog) cached(ctx context.Context) ([]domain.QuestionSet, bool) {
	data, err := c.client.Get(ctx, c.key()).Bytes()
	if err != nil {
		return nil, false
	}
	var sets []domain.QuestionSet
	if err := json.Unmarshal(data, &sets); err != nil {
		// Corrupt cache entry: drop it and reload from the source.
		_ = c.client.Del(ctx, c.key()).Err()
		return nil, false
	}
	return sets, len(sets) > 0
}

func (c *SetCatalog) key() string {
	return "quizmaster:sets"
}

func (c *SetCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
