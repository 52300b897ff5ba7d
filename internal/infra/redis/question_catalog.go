package redis

import (
	"context"
	"fmt"
	"math/rand"
	"sort"
	"strconv"
	"sync"
	"time"

	"androbot/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches the question ids of a specialty from the relational store.
type QuestionLoader interface {
	QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error)
}

// emptyMarker keeps an empty pool distinguishable from a cache miss.
const emptyMarker = "-"

// QuestionCatalog caches specialty question pools in Redis (a set per specialty) and falls back
// to a loader on cache miss:
//
//	SADD androbot:questions:{specialty} {id}...
type QuestionCatalog struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewQuestionCatalog(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionCatalog {
	return &QuestionCatalog{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCatalog) QuestionIDs(ctx context.Context, specialty domain.Specialty) ([]int64, error) {
	key := c.key(specialty)
	if ids, ok := c.cached(ctx, key); ok {
		return ids, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another caller filled it.
		if ids, ok := c.cached(ctx, key); ok {
			return ids, nil
		}

		genKey := c.genKey(specialty)
		gen, err := c.client.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			gen = -1
		}

		ids, err := c.loader.QuestionIDs(ctx, specialty)
		if err != nil {
			return nil, err
		}
		if gen >= 0 {
			// A failed or outdated fill only costs a reload next time.
			_ = c.store(ctx, key, genKey, gen, ids)
		}
		return ids, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]int64(nil), result.([]int64)...), nil
}

// store writes ids unless the pool was invalidated since gen was read.
func (c *QuestionCatalog) store(ctx context.Context, key, genKey string, gen int64, ids []int64) error {
	members := make([]interface{}, 0, len(ids)+1)
	members = append(members, emptyMarker)
	for _, id := range ids {
		members = append(members, strconv.FormatInt(id, 10))
	}
	ttl := c.ttlWithJitter()
	return c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redis.Nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key)
			pipe.SAdd(ctx, key, members...)
			if ttl > 0 {
				pipe.Expire(ctx, key, ttl)
			}
			return nil
		})
		return err
	}, genKey)
}

// Invalidate removes the cached pool of a specialty and bumps its generation so fills already in
// flight are not written back.
func (c *QuestionCatalog) Invalidate(ctx context.Context, specialty domain.Specialty) error {
	key := c.key(specialty)
	c.sf.Forget(key)
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.genKey(specialty))
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("invalidate %s: %w", key, err)
	}
	return nil
}

func (c *QuestionCatalog) cached(ctx context.Context, key string) ([]int64, bool) {
	members, err := c.client.SMembers(ctx, key).Result()
	if err != nil || len(members) == 0 {
		return nil, false
	}
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		if m == emptyMarker {
			continue
		}
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, false
		}
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, true
}

func (c *QuestionCatalog) key(specialty domain.Specialty) string {
	return "androbot:questions:" + string(specialty)
}

func (c *QuestionCatalog) genKey(specialty domain.Specialty) string {
	return c.key(specialty) + ":gen"
}

func (c *QuestionCatalog) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
