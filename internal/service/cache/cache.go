// Package cache 分析结果缓存：进程内存 + 可选 Redis
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ashwinyue/next-qbank/internal/pkg/logger"
)

const (
	// Redis key 前缀
	keyPrefix = "qbank:analysis:"
	// 内存条目上限，超过时先清理过期条目
	maxMemoryEntries = 10000
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// AnalysisCache 按内容哈希缓存分析结果
// redis 为 nil 时只使用内存；ttl <= 0 时不缓存
type AnalysisCache struct {
	mu     sync.RWMutex
	memory map[string]memoryEntry
	redis  *redis.Client
	ttl    time.Duration
	log    *logger.Logger
	now    func() time.Time
}

// New 创建分析缓存
func New(redisClient *redis.Client, ttl time.Duration, log *logger.Logger) *AnalysisCache {
	if log == nil {
		log = logger.NewNop()
	}
	return &AnalysisCache{
		memory: make(map[string]memoryEntry),
		redis:  redisClient,
		ttl:    ttl,
		log:    log,
		now:    time.Now,
	}
}

// Enabled 是否启用缓存
func (c *AnalysisCache) Enabled() bool {
	return c != nil && c.ttl > 0
}

// Key 生成缓存键: {kind}:{sha256(json(input))}
// input 按原样编码，空白和字段边界都参与哈希
func Key(kind string, input interface{}) string {
	data, err := json.Marshal(input)
	if err != nil {
		data = []byte(fmt.Sprintf("%#v", input))
	}
	sum := sha256.Sum256(data)
	return kind + ":" + hex.EncodeToString(sum[:])
}

// Get 读取缓存到 dst，未命中返回 false
func (c *AnalysisCache) Get(ctx context.Context, key string, dst interface{}) bool {
	if !c.Enabled() {
		return false
	}

	c.mu.RLock()
	entry, ok := c.memory[key]
	c.mu.RUnlock()
	if ok && c.now().Before(entry.expiresAt) {
		return json.Unmarshal(entry.data, dst) == nil
	}

	if c.redis == nil {
		return false
	}
	data, err := c.redis.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("analysis cache: redis get failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.log.Warn("analysis cache: corrupt entry", "key", key, "error", err)
		return false
	}
	c.store(key, data)
	return true
}

// Set 写入缓存，失败只记录日志
func (c *AnalysisCache) Set(ctx context.Context, key string, value interface{}) {
	if !c.Enabled() {
		return
	}

	data, err := json.Marshal(value)
	if err != nil {
		c.log.Warn("analysis cache: marshal failed", "key", key, "error", err)
		return
	}
	c.store(key, data)

	if c.redis != nil {
		if err := c.redis.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
			c.log.Warn("analysis cache: redis set failed", "key", key, "error", err)
		}
	}
}

// Invalidate 删除缓存条目
func (c *AnalysisCache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.memory, key)
	c.mu.Unlock()

	if c.redis != nil {
		if err := c.redis.Del(ctx, keyPrefix+key).Err(); err != nil {
			c.log.Warn("analysis cache: redis del failed", "key", key, "error", err)
		}
	}
}

func (c *AnalysisCache) store(key string, data []byte) {
	now := c.now()
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.memory) >= maxMemoryEntries {
		for k, e := range c.memory {
			if !now.Before(e.expiresAt) {
				delete(c.memory, k)
			}
		}
		if len(c.memory) >= maxMemoryEntries {
			c.memory = make(map[string]memoryEntry)
		}
	}
	c.memory[key] = memoryEntry{data: data, expiresAt: now.Add(c.ttl)}
}

// NewRedisClient 创建并检查 Redis 连接
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return client, nil
}
