// Copyright (c) 2026 Flow Immersive. All rights reserved.
// Author: Flow Immersive Engineering

package identity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/flowimmersive/flowsite/internal/platform/constants"
)

// RedisSessionRepository implements [SessionRepository] using Redis.
//
// Each session is a JSON value under auth:session:<id> with its own TTL.
// A per-user set (auth:user_sessions:<user id>) indexes the session ids so
// that a global sign-out can revoke all of them.
type RedisSessionRepository struct {
	client redis.UniversalClient
}

// NewSessionRepository creates a new Redis-backed SessionRepository.
func NewSessionRepository(client redis.UniversalClient) *RedisSessionRepository {
	return &RedisSessionRepository{client: client}
}

func sessionKey(sessionID string) string {
	return constants.RedisPrefixSession + sessionID
}

func userSessionsKey(userID string) string {
	return constants.RedisPrefixUserSessions + userID
}

/*
Save stores the session and indexes it under its user.

Parameters:
  - ctx: context.Context
  - session: *Session
  - ttl: time.Duration

Returns:
  - error: Execution errors
*/
func (repository *RedisSessionRepository) Save(ctx context.Context, session *Session, ttl time.Duration) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis_session_marshal_failed: %w", err)
	}

	_, err = repository.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sessionKey(session.ID), payload, ttl)
		pipe.SAdd(ctx, userSessionsKey(session.UserID), session.ID)
		pipe.Expire(ctx, userSessionsKey(session.UserID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_save_failed: %w", err)
	}

	return nil
}

/*
Find retrieves a live session by id.

Returns:
  - *Session: The stored session (without access token)
  - error: ErrSessionNotFound if absent or expired
*/
func (repository *RedisSessionRepository) Find(ctx context.Context, sessionID string) (*Session, error) {
	payload, err := repository.client.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis_session_get_failed: %w", err)
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("redis_session_corrupt: %w", err)
	}

	return &session, nil
}

// Delete revokes a single session.
func (repository *RedisSessionRepository) Delete(ctx context.Context, userID, sessionID string) error {
	_, err := repository.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(sessionID))
		pipe.SRem(ctx, userSessionsKey(userID), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_delete_failed: %w", err)
	}
	return nil
}

// DeleteAllForUser revokes every indexed session of the user except keepSessionID.
func (repository *RedisSessionRepository) DeleteAllForUser(ctx context.Context, userID, keepSessionID string) error {
	sessionIDs, err := repository.client.SMembers(ctx, userSessionsKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis_session_list_failed: %w", err)
	}
	if len(sessionIDs) == 0 {
		return nil
	}

	_, err = repository.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, sessionID := range sessionIDs {
			if sessionID == keepSessionID {
				continue
			}
			pipe.Del(ctx, sessionKey(sessionID))
			pipe.SRem(ctx, userSessionsKey(userID), sessionID)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_delete_all_failed: %w", err)
	}

	return nil
}
