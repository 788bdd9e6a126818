package server

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RevisionChannel is the Redis channel that carries "<userID>:<revision>"
// after every project mutation.
const RevisionChannel = "vibetrack:revisions"

// Feed tracks a per-user change counter that clients poll
type Feed interface {
	Bump(ctx context.Context, userID string) (int64, error)
	Revision(ctx context.Context, userID string) (int64, error)
	Close() error
}

// MemoryFeed keeps revisions in process memory
type MemoryFeed struct {
	mu        sync.Mutex
	revisions map[string]int64
}

// NewMemoryFeed creates an empty in-process feed
func NewMemoryFeed() *MemoryFeed {
	return &MemoryFeed{revisions: make(map[string]int64)}
}

// Bump implements Feed
func (f *MemoryFeed) Bump(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.revisions[userID]++
	return f.revisions[userID], nil
}

// Revision implements Feed
func (f *MemoryFeed) Revision(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.revisions[userID], nil
}

// Close implements Feed
func (f *MemoryFeed) Close() error { return nil }

// RedisFeed shares revisions between server replicas
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed connects to the Redis server at url (redis://...)
func NewRedisFeed(ctx context.Context, url string) (*RedisFeed, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	return &RedisFeed{client: client}, nil
}

// NewRedisFeedFromClient wraps an existing client
func NewRedisFeedFromClient(client *redis.Client) *RedisFeed {
	return &RedisFeed{client: client}
}

func revisionKey(userID string) string {
	return "vibetrack:revision:" + userID
}

// Bump implements Feed
func (f *RedisFeed) Bump(ctx context.Context, userID string) (int64, error) {
	rev, err := f.client.Incr(ctx, revisionKey(userID)).Result()
	if err != nil {
		return 0, err
	}
	if err := f.client.Publish(ctx, RevisionChannel, userID+":"+strconv.FormatInt(rev, 10)).Err(); err != nil {
		return rev, err
	}
	return rev, nil
}

// Revision implements Feed
func (f *RedisFeed) Revision(ctx context.Context, userID string) (int64, error) {
	rev, err := f.client.Get(ctx, revisionKey(userID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return rev, err
}

// Close implements Feed
func (f *RedisFeed) Close() error {
	return f.client.Close()
}
