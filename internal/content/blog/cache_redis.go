// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package blog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowimmersive/flowsite/internal/platform/constants"
)

// RedisCache implements [Cache] with versioned keys.
//
// Entries live under blog:v<version>:<key>. Invalidate bumps blog:version,
// which orphans every earlier entry until its TTL expires.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache creates a cache whose entries expire after ttl.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (cache *RedisCache) versionedKey(ctx context.Context, key string) (string, error) {
	version, err := cache.client.Get(ctx, constants.RedisKeyBlogVersion).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("redis_blog_version_failed: %w", err)
	}
	return fmt.Sprintf("%sv%d:%s", constants.RedisPrefixBlog, version, key), nil
}

/*
Get decodes the cached value of key into target.

Returns:
  - bool: false on a miss
  - error: Redis or decoding failures
*/
func (cache *RedisCache) Get(ctx context.Context, key string, target any) (bool, error) {
	fullKey, err := cache.versionedKey(ctx, key)
	if err != nil {
		return false, err
	}

	payload, err := cache.client.Get(ctx, fullKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("redis_blog_get_failed: %w", err)
	}

	if err := json.Unmarshal(payload, target); err != nil {
		return false, fmt.Errorf("redis_blog_decode_failed: %w", err)
	}
	return true, nil
}

// Set stores value under key for the configured TTL.
func (cache *RedisCache) Set(ctx context.Context, key string, value any) error {
	fullKey, err := cache.versionedKey(ctx, key)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("redis_blog_encode_failed: %w", err)
	}

	if err := cache.client.Set(ctx, fullKey, payload, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_blog_set_failed: %w", err)
	}
	return nil
}

// Invalidate drops every cached entry.
func (cache *RedisCache) Invalidate(ctx context.Context) error {
	if err := cache.client.Incr(ctx, constants.RedisKeyBlogVersion).Err(); err != nil {
		return fmt.Errorf("redis_blog_invalidate_failed: %w", err)
	}
	return nil
}
