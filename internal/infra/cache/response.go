package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const responseKeyPrefix = "contentcraft_cache_"

// ResponseCache 缓存后端成功响应，client 为 nil 时所有操作为空操作。
type ResponseCache struct {
	client *redis.Client
}

// NewResponseCache 创建响应缓存。
func NewResponseCache(client *redis.Client) *ResponseCache {
	return &ResponseCache{client: client}
}

// Enabled 表示是否连接了 Redis。
func (c *ResponseCache) Enabled() bool {
	return c != nil && c.client != nil
}

// ResponseKey 由端点与请求体生成缓存键。
func ResponseKey(endpoint string, body map[string]any) (string, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("encode cache key: %w", err)
	}
	sum := md5.Sum(append([]byte(endpoint), payload...))
	return responseKeyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get 读取缓存，未命中时返回 false。
func (c *ResponseCache) Get(ctx context.Context, key string) (map[string]any, bool, error) {
	if !c.Enabled() {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var value map[string]any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, false, fmt.Errorf("decode cached response: %w", err)
	}
	return value, true, nil
}

// Set 写入缓存，ttl 非正时不写入。
func (c *ResponseCache) Set(ctx context.Context, key string, value map[string]any, ttl time.Duration) error {
	if !c.Enabled() || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode cached response: %w", err)
	}
	return c.client.Set(ctx, key, raw, ttl).Err()
}
