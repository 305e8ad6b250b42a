// Package cache holds the rendered course structure between mutations.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// StructureCache stores the rendered public structure JSON of a course.
//
// Every Invalidate bumps a per-course generation. Readers take the generation
// before building and pass it to Set, which stores nothing if an invalidation
// happened in between. A tree read before a mutation is never written back after it.
type StructureCache interface {
	Get(ctx context.Context, courseID string) ([]byte, bool, error)
	Generation(ctx context.Context, courseID string) (int64, error)
	Set(ctx context.Context, courseID string, gen int64, body []byte) error
	Invalidate(ctx context.Context, courseID string) error
}

func structureKey(courseID string) string {
	return "structure:" + courseID
}

func generationKey(courseID string) string {
	return "structure-gen:" + courseID
}

type redisCache struct {
	rdb *goredis.Client
	ttl time.Duration
}

// NewRedis connects to url (redis://...) and pings it before returning.
func NewRedis(url string, ttl time.Duration) (StructureCache, error) {
	opts, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	opts.DialTimeout = 5 * time.Second
	rdb := goredis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &redisCache{rdb: rdb, ttl: ttl}, nil
}

func (c *redisCache) Get(ctx context.Context, courseID string) ([]byte, bool, error) {
	raw, err := c.rdb.Get(ctx, structureKey(courseID)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

func (c *redisCache) Generation(ctx context.Context, courseID string) (int64, error) {
	gen, err := c.rdb.Get(ctx, generationKey(courseID)).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	return gen, err
}

// Set writes body only while the generation key still holds gen. A concurrent
// Invalidate aborts the WATCH transaction, which is not an error.
func (c *redisCache) Set(ctx context.Context, courseID string, gen int64, body []byte) error {
	genKey := generationKey(courseID)
	err := c.rdb.Watch(ctx, func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, structureKey(courseID), body, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, goredis.TxFailedErr) {
		return nil
	}
	return err
}

// Invalidate bumps the generation before deleting, so an in-flight Set either
// lands before the delete or is rejected.
func (c *redisCache) Invalidate(ctx context.Context, courseID string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Incr(ctx, generationKey(courseID))
		pipe.Del(ctx, structureKey(courseID))
		return nil
	})
	return err
}

// Noop never stores anything. Used when REDIS_URL is unset.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Noop) Generation(context.Context, string) (int64, error) { return 0, nil }
func (Noop) Set(context.Context, string, int64, []byte) error  { return nil }
func (Noop) Invalidate(context.Context, string) error          { return nil }

// Memory is a process-local cache without expiry, for tests and single-node setups.
type Memory struct {
	mu          sync.Mutex
	entries     map[string][]byte
	generations map[string]int64
}

func NewMemory() *Memory {
	return &Memory{entries: map[string][]byte{}, generations: map[string]int64{}}
}

func (m *Memory) Get(_ context.Context, courseID string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.entries[structureKey(courseID)]
	return body, ok, nil
}

func (m *Memory) Generation(_ context.Context, courseID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.generations[courseID], nil
}

func (m *Memory) Set(_ context.Context, courseID string, gen int64, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generations[courseID] != gen {
		return nil
	}
	m.entries[structureKey(courseID)] = append([]byte(nil), body...)
	return nil
}

func (m *Memory) Invalidate(_ context.Context, courseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.generations[courseID]++
	delete(m.entries, structureKey(courseID))
	return nil
}
