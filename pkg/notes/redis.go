// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package notes

import (
	"context"
	"fmt"

	"github.com/jllopis/agentcore/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "agentcore:notes:"

// Redis stores notes as Redis lists, one key per proposal.
// RPUSH is atomic per key, so concurrent appends keep arrival order.
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithKeyPrefix overrides the key prefix (default "agentcore:notes:").
func WithKeyPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis wraps an existing client.
func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{rdb: rdb, prefix: defaultKeyPrefix}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OpenRedis parses url (redis://host:port/db) and returns a store.
func OpenRedis(url string, opts ...RedisOption) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, "parse redis url", err)
	}
	return NewRedis(redis.NewClient(opt), opts...), nil
}

func (r *Redis) key(proposalID string) string {
	return r.prefix + proposalID
}

// AddNote appends note with RPUSH.
func (r *Redis) AddNote(ctx context.Context, proposalID, note string) (int, error) {
	if err := validate(proposalID, note); err != nil {
		return 0, err
	}
	total, err := r.rdb.RPush(ctx, r.key(proposalID), note).Result()
	if err != nil {
		return 0, errors.New(errors.CodeStoreError, fmt.Sprintf("append note to %s", proposalID), err).
			WithRecoverable(true)
	}
	return int(total), nil
}

// Notes reads the full list with LRANGE.
func (r *Redis) Notes(ctx context.Context, proposalID string) ([]string, error) {
	list, err := r.rdb.LRange(ctx, r.key(proposalID), 0, -1).Result()
	if err != nil {
		return nil, errors.New(errors.CodeStoreError, fmt.Sprintf("read notes of %s", proposalID), err)
	}
	if list == nil {
		list = []string{}
	}
	return list, nil
}

// Clear deletes every key under the prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return errors.New(errors.CodeStoreError, "scan note keys", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return errors.New(errors.CodeStoreError, "delete note keys", err)
	}
	return nil
}

// Ping checks connectivity; used by readiness checks.
func (r *Redis) Ping(ctx context.Context) error {
	return r.rdb.Ping(ctx).Err()
}

// Close releases the underlying client.
func (r *Redis) Close() error {
	return r.rdb.Close()
}

var _ Store = (*Redis)(nil)
