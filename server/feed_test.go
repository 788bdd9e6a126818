package server

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
	require.NoError(t, client.Ping(context.Background()).Err())

	return client, mr
}

func TestRedisFeed(t *testing.T) {
	client, mr := setupTestRedis(t)
	defer mr.Close()

	feed := NewRedisFeedFromClient(client)
	defer feed.Close()
	ctx := context.Background()

	t.Run("unknown user starts at zero", func(t *testing.T) {
		rev, err := feed.Revision(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(0), rev)
	})

	t.Run("bump increments per user and publishes", func(t *testing.T) {
		sub := client.Subscribe(ctx, RevisionChannel)
		defer sub.Close()
		_, err := sub.Receive(ctx)
		require.NoError(t, err)

		rev, err := feed.Bump(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(1), rev)

		rev, err = feed.Bump(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), rev)

		other, err := feed.Revision(ctx, "u2")
		require.NoError(t, err)
		assert.Equal(t, int64(0), other)

		select {
		case msg := <-sub.Channel():
			assert.Equal(t, "u1:1", msg.Payload)
		case <-time.After(2 * time.Second):
			t.Fatal("no revision published")
		}
	})

	t.Run("revision survives reconnect", func(t *testing.T) {
		fresh := redis.NewClient(&redis.Options{Addr: mr.Addr()})
		defer fresh.Close()

		rev, err := NewRedisFeedFromClient(fresh).Revision(ctx, "u1")
		require.NoError(t, err)
		assert.Equal(t, int64(2), rev)
	})
}

func TestMemoryFeed(t *testing.T) {
	feed := NewMemoryFeed()
	ctx := context.Background()

	rev, err := feed.Bump(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	rev, err = feed.Revision(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), rev)

	rev, err = feed.Revision(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), rev)
}
