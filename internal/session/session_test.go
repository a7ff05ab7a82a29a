package session

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartline-ai/heartline/internal/cache"
	"github.com/heartline-ai/heartline/internal/chat"
)

func testStores(t *testing.T) map[string]Store {
	client := cache.NewMemoryClient(0)
	t.Cleanup(func() { _ = client.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"cache":  NewCacheStore(client, time.Hour),
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			h, err := store.Get(ctx, "unknown")
			require.NoError(t, err)
			assert.Empty(t, h)

			want := chat.History{{UserInput: "hi", BotResponse: chat.GreetingReply}}
			require.NoError(t, store.Put(ctx, "s1", want))

			got, err := store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Equal(t, want, got)

			other, err := store.Get(ctx, "s2")
			require.NoError(t, err)
			assert.Empty(t, other)

			require.NoError(t, store.Delete(ctx, "s1"))
			got, err = store.Get(ctx, "s1")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestCacheStore_Expires(t *testing.T) {
	client := cache.NewMemoryClient(0)
	defer client.Close()

	store := NewCacheStore(client, 10*time.Millisecond)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "s1", chat.History{{UserInput: "q"}}))
	time.Sleep(30 * time.Millisecond)

	got, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLocker_SerializesSameSession(t *testing.T) {
	locker := NewLocker()
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("s1")
			defer unlock()

			h, _ := store.Get(ctx, "s1")
			h = h.Append(chat.Turn{UserInput: fmt.Sprintf("q%d", i)}, 100)
			_ = store.Put(ctx, "s1", h)
		}()
	}
	wg.Wait()

	h, err := store.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Len(t, h, 50, "no update may be lost")
	assert.Equal(t, 0, locker.Len())
}

func TestLocker_IndependentSessions(t *testing.T) {
	locker := NewLocker()

	unlockA := locker.Lock("a")
	done := make(chan struct{})
	go func() {
		unlock := locker.Lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock on b blocked behind a")
	}
	unlockA()
	assert.Equal(t, 0, locker.Len())
}
