package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/RobertYoung/quizmaster/internal/domain"
	"golang.org/x/sync/singleflight"
)

// SetCatalog caches the loaded question sets with a TTL so repeated lookups
// do not hammer the backing loader. Implements app.SetCatalog.
type SetCatalog struct {
	loader SetLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	sets      []domain.QuestionSet
	expiresAt time.Time
}

func NewSetCatalog(loader SetLoader, ttl time.Duration) *SetCatalog {
	return &SetCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// ListSets returns all sets in registration order.
func (c *SetCatalog) ListSets(ctx context.Context) ([]domain.QuestionSet, error) {
	sets, err := c.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.QuestionSet, len(sets))
	copy(out, sets)
	return out, nil
}

// GetSet looks a set up by ID.
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

// DefaultSet is the first-registered set.
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
	now := c.clock()

	c.mu.RLock()
	if c.sets != nil && c.expiresAt.After(now) {
		sets := c.sets
		c.mu.RUnlock()
		return sets, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do("sets", func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.sets != nil && c.expiresAt.After(now) {
			sets := c.sets
			c.mu.RUnlock()
			return sets, nil
		}
		c.mu.RUnlock()

		sets, err := c.loader.LoadSets(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.sets = sets
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return sets, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.QuestionSet), nil
}

func (c *SetCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
