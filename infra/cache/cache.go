// Package cache stores routing solutions between runs, in process or in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	redis "github.com/redis/go-redis/v9"

	"github.com/kilianp07/fleetsizer/core/model"
	"github.com/kilianp07/fleetsizer/core/solver"
)

// Cache types.
const (
	TypeNone   = "none"
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Config selects the solution cache.
type Config struct {
	Type string        `json:"type"`
	URL  string        `json:"url"`
	TTL  time.Duration `json:"ttl"`
	// Prefix namespaces Redis keys.
	Prefix string `json:"prefix"`
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	if c.Type == "" {
		c.Type = TypeNone
	}
	if c.Prefix == "" {
		c.Prefix = "fleetsizer:solution:"
	}
}

// Validate checks the type and its settings.
func (c Config) Validate() error {
	switch c.Type {
	case TypeNone, TypeMemory:
	case TypeRedis:
		if c.URL == "" {
			return errors.New("redis cache needs a url")
		}
	default:
		return fmt.Errorf("unknown cache type %q", c.Type)
	}
	if c.TTL < 0 {
		return errors.New("negative cache ttl")
	}
	return nil
}

// New returns the configured cache, or nil for TypeNone.
func New(cfg Config) (solver.SolutionCache, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	switch cfg.Type {
	case TypeMemory:
		return NewMemory(), nil
	case TypeRedis:
		opt, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("redis url: %w", err)
		}
		return NewRedis(redis.NewClient(opt), cfg.Prefix, cfg.TTL), nil
	default:
		return nil, nil
	}
}

// Memory keeps solutions in process.
type Memory struct {
	mu sync.RWMutex
	m  map[string]*model.VrpSolution
}

// NewMemory creates an empty Memory cache.
func NewMemory() *Memory { return &Memory{m: make(map[string]*model.VrpSolution)} }

func (c *Memory) Get(_ context.Context, key string) (*model.VrpSolution, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	sol, ok := c.m[key]
	return sol, ok, nil
}

func (c *Memory) Put(_ context.Context, key string, sol *model.VrpSolution) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = sol
	return nil
}

// Len returns the number of stored solutions.
func (c *Memory) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

// Redis stores JSON encoded solutions under prefix+key.
type Redis struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedis wraps rdb. A zero ttl keeps entries until evicted.
func NewRedis(rdb *redis.Client, prefix string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, ttl: ttl}
}

func (c *Redis) Get(ctx context.Context, key string) (*model.VrpSolution, bool, error) {
	data, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var sol model.VrpSolution
	if err := json.Unmarshal(data, &sol); err != nil {
		return nil, false, fmt.Errorf("decode cached solution: %w", err)
	}
	return &sol, true, nil
}

func (c *Redis) Put(ctx context.Context, key string, sol *model.VrpSolution) error {
	data, err := json.Marshal(sol)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

// Close closes the client.
func (c *Redis) Close() error { return c.rdb.Close() }
