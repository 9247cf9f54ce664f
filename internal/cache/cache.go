// Package cache provides Redis-backed caching for profile aggregates and
// leaderboard ranks. Entries are a read shortcut only; every profile mutation
// invalidates before the authoritative re-read from Postgres.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/creatorhub/creator-hub-api/internal/model"
)

// ErrMiss is returned when a key is absent or unreadable.
var ErrMiss = errors.New("cache miss")

// ProfileCache stores serialized profile aggregates keyed by uid.
type ProfileCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewProfileCache creates a ProfileCache with the given TTL.
func NewProfileCache(client *redis.Client, ttl time.Duration) *ProfileCache {
	return &ProfileCache{client: client, ttl: ttl}
}

func profileKey(userID string) string { return fmt.Sprintf("profile:uid:%s", userID) }

// Set stores the aggregate.
func (c *ProfileCache) Set(ctx context.Context, profile *model.Profile) error {
	b, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, profileKey(profile.ID), b, c.ttl).Err()
}

// Get returns the cached aggregate, or ErrMiss.
func (c *ProfileCache) Get(ctx context.Context, userID string) (*model.Profile, error) {
	v, err := c.client.Get(ctx, profileKey(userID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var profile model.Profile
	if err := json.Unmarshal(v, &profile); err != nil {
		return nil, ErrMiss
	}

	return &profile, nil
}

// Invalidate removes the cached aggregate for the user.
func (c *ProfileCache) Invalidate(ctx context.Context, userID string) error {
	return c.client.Del(ctx, profileKey(userID)).Err()
}

// RankCache stores leaderboard ranks keyed by uid. Ranks shift whenever any
// user earns points, so the TTL is kept short.
type RankCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRankCache creates a RankCache with the given TTL.
func NewRankCache(client *redis.Client, ttl time.Duration) *RankCache {
	return &RankCache{client: client, ttl: ttl}
}

func rankKey(userID string) string { return fmt.Sprintf("rank:uid:%s", userID) }

// Set stores the rank.
func (c *RankCache) Set(ctx context.Context, userID string, rank int64) error {
	return c.client.Set(ctx, rankKey(userID), rank, c.ttl).Err()
}

// Get returns the cached rank, or ErrMiss.
func (c *RankCache) Get(ctx context.Context, userID string) (int64, error) {
	v, err := c.client.Get(ctx, rankKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, ErrMiss
		}
		return 0, err
	}

	rank, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, ErrMiss
	}

	return rank, nil
}
