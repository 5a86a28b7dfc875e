package cache

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	cmap "github.com/orcaman/concurrent-map/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/yatube/config"
	"github.com/d60-Lab/yatube/pkg/logger"
)

// Store 页面缓存后端
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// DeletePrefix 删除以 prefix 开头的所有键
	DeletePrefix(ctx context.Context, prefix string) error
}

// Open addr 为空时使用进程内缓存
func Open(ctx context.Context, cfg config.RedisConfig) (Store, *redis.Client, error) {
	if cfg.Addr == "" {
		return NewMemoryStore(), nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("ping redis %s: %w", cfg.Addr, err)
	}
	return NewRedisStore(client), client, nil
}

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return data, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

func (s *RedisStore) DeletePrefix(ctx context.Context, prefix string) error {
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, prefix+"*", 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			pipe := s.client.Pipeline()
			pipe.Del(ctx, keys...)
			if _, err := pipe.Exec(ctx); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}

type memoryEntry struct {
	value     []byte
	expiresAt time.Time
}

// sweepEvery 每写入这么多次顺带清理一次过期项
const sweepEvery = 256

// MemoryStore 单进程部署或未配置 redis 时使用
type MemoryStore struct {
	items cmap.ConcurrentMap[string, memoryEntry]
	now   func() time.Time
	sets  atomic.Uint64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: cmap.New[memoryEntry](), now: time.Now}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	e, ok := s.items.Get(key)
	if !ok {
		return nil, false, nil
	}
	if e.expired(s.now()) {
		s.items.RemoveCb(key, func(_ string, v memoryEntry, exists bool) bool {
			return exists && v.expiresAt.Equal(e.expiresAt)
		})
		return nil, false, nil
	}
	return e.value, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.items.Set(key, e)
	if s.sets.Add(1)%sweepEvery == 0 {
		s.Sweep()
	}
	return nil
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Sweep 删除所有已过期的项，返回删除数量
func (s *MemoryStore) Sweep() int {
	now := s.now()
	var stale []string
	s.items.IterCb(func(key string, e memoryEntry) {
		if e.expired(now) {
			stale = append(stale, key)
		}
	})
	for _, key := range stale {
		s.items.RemoveCb(key, func(_ string, e memoryEntry, exists bool) bool {
			return exists && e.expired(now)
		})
	}
	return len(stale)
}

func (s *MemoryStore) Len() int { return s.items.Count() }

// Run 定期清理，ctx 取消后返回
func (s *MemoryStore) Run(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				logger.Debug("page cache sweep", zap.Int("removed", n))
			}
		}
	}
}

func (s *MemoryStore) DeletePrefix(_ context.Context, prefix string) error {
	for _, key := range s.items.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.items.Remove(key)
		}
	}
	return nil
}
