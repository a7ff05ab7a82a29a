//go:build integration

package session

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/heartline-ai/heartline/internal/cache"
	"github.com/heartline-ai/heartline/internal/chat"
)

func TestCacheStore_Redis(t *testing.T) {
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"redis:7.4-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379")
	require.NoError(t, err)

	client, err := cache.NewRedisClient(cache.RedisConfig{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Ping(ctx))

	store := NewCacheStore(client, time.Minute)

	var h chat.History
	for i := 1; i <= 11; i++ {
		h = h.Append(chat.Turn{UserInput: fmt.Sprintf("q%d", i), BotResponse: "a"}, chat.DefaultMaxHistory)
	}
	require.NoError(t, store.Put(ctx, "s1", h))

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, "q2", got[0].UserInput)

	require.NoError(t, client.DeleteByPrefix(ctx, "session:"))
	got, err = store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
