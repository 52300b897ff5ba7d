package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"androbot/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the question ids of a specialty from a backing store.
type QuestionLoader interface {
	QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error)
}

// QuestionCatalog caches specialty question pools with TTL to avoid repeated DB hits.
type QuestionCatalog struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand

	mu    sync.RWMutex
	cache map[domain.Specialty]cachedPool
	// gens is bumped by Invalidate; a fill started under an older generation is discarded.
	gens map[domain.Specialty]uint64
}

type cachedPool struct {
	ids       []int64
	expiresAt time.Time
}

func NewQuestionCatalog(loader QuestionLoader, ttl time.Duration) *QuestionCatalog {
	return &QuestionCatalog{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[domain.Specialty]cachedPool),
		gens:   make(map[domain.Specialty]uint64),
	}
}

func (c *QuestionCatalog) QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error) {
	if ids, ok := c.cached(specialty); ok {
		return ids, nil
	}

	result, err, _ := c.sf.Do(string(specialty), func() (interface{}, error) {
		if ids, ok := c.cached(specialty); ok {
			return ids, nil
		}
		c.mu.RLock()
		gen := c.gens[specialty]
		c.mu.RUnlock()

		ids, err := c.loader.QuestionIDs(ctx, specialty)
		if err != nil {
			return nil, err
		}
		expiresAt := c.clock().Add(c.ttlWithJitter())
		c.mu.Lock()
		if c.gens[specialty] == gen {
			c.cache[specialty] = cachedPool{ids: ids, expiresAt: expiresAt}
		}
		c.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return clone(result.([]int64)), nil
}

// Invalidate drops the cached pool so the next lookup reloads it.
func (c *QuestionCatalog) Invalidate(_ context.Context, specialty domain.Specialty) error {
	c.mu.Lock()
	delete(c.cache, specialty)
	c.gens[specialty]++
	c.mu.Unlock()
	c.sf.Forget(string(specialty))
	return nil
}

func (c *QuestionCatalog) cached(specialty domain.Specialty) ([]int64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.cache[specialty]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return nil, false
	}
	return clone(entry.ids), true
}

func (c *QuestionCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

func clone(ids []int64) []int64 {
	return append([]int64(nil), ids...)
}
