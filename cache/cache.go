package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/chaos-io/cutout/config"
	"github.com/chaos-io/cutout/util"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "cutout:"

// Entry 缓存的合成结果
type Entry struct {
	ContentType     string  `json:"content_type"`
	Data            []byte  `json:"data"`
	Width           int     `json:"width"`
	Height          int     `json:"height"`
	ForegroundRatio float64 `json:"foreground_ratio"`
	Reference       string  `json:"reference"`
	Timestamp       int64   `json:"timestamp"`
}

// ResultCache 结果缓存，未命中时返回 (nil, nil)
type ResultCache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Close() error
}

// Key 由输入图片与参数的摘要组成缓存键
func Key(imageMD5, optionsMD5 string) string {
	return imageMD5 + "-" + optionsMD5
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(cfg *config.RedisConfig) *RedisCache {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{
		client: client,
		ttl:    cfg.TTL,
	}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get 从缓存获取结果
func (c *RedisCache) Get(ctx context.Context, key string) (*Entry, error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		util.Logger.Error("failed to unmarshal cached result",
			zap.String("key", key), zap.Error(err))
		return nil, err
	}

	return &entry, nil
}

// Set 写入缓存
func (c *RedisCache) Set(ctx context.Context, key string, entry *Entry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Nop 不缓存任何内容
type Nop struct{}

func (Nop) Get(context.Context, string) (*Entry, error) { return nil, nil }
func (Nop) Set(context.Context, string, *Entry) error { return nil }
func (Nop) Close() error { return nil }

// New 按配置创建缓存；未启用或连接失败时退化为 Nop
func New(ctx context.Context, cfg *config.RedisConfig) ResultCache {
	if !cfg.Enabled {
		util.Logger.Info("redis disabled, result cache off")
		return Nop{}
	}

	rc := NewRedisCache(cfg)
	if err := rc.Ping(ctx); err != nil {
		util.Logger.Warn("redis connection failed, cache disabled", zap.Error(err))
		_ = rc.Close()
		return Nop{}
	}
	util.Logger.Info("redis connected successfully", zap.String("addr", cfg.Addr))
	return rc
}
