package session

import (
	"context"
	"testing"
	"time"

	"commust/internal/model"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	empty, err := store.Load(ctx, "unknown")
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Count())

	state := &model.CartState{}
	state.Add(uuid.New(), 2, "k1")
	state.AddError("Not enough stock")
	require.NoError(t, store.Save(ctx, "s1", state))

	got, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, state.Items, got.Items)
	assert.Equal(t, []string{"Not enough stock"}, got.Errors)
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	store := NewRedisStore(client, time.Hour)
	roundTrip(t, store)

	assert.True(t, mr.Exists(keyPrefix+"s1"))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"s1"))

	mr.FastForward(2 * time.Hour)
	got, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestRedisStoreCorruptValue(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, mr.Set(keyPrefix+"bad", "{"))

	_, err := NewRedisStore(client, time.Hour).Load(context.Background(), "bad")
	assert.Error(t, err)
}

func TestRedisStoreUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { client.Close() })
	mr.Close()

	err := NewRedisStore(client, time.Hour).Save(context.Background(), "s", &model.CartState{})
	assert.Error(t, err)
}

func TestConnect(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := Connect(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	client.Close()

	_, err = Connect(context.Background(), "not a url")
	assert.Error(t, err)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	roundTrip(t, store)

	ms := store.(*memoryStore)
	ms.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	got, err := store.Load(context.Background(), "s1")
	require.NoError(t, err)
	assert.Empty(t, got.Items)
}

func TestMemoryStoreSweepsExpiredSessions(t *testing.T) {
	store := NewMemoryStore(time.Minute)
	ms := store.(*memoryStore)
	ctx := context.Background()
	start := time.Now()
	ms.now = func() time.Time { return start }

	require.NoError(t, store.Save(ctx, "abandoned", &model.CartState{}))
	require.NoError(t, store.Save(ctx, "active", &model.CartState{}))

	ms.now = func() time.Time { return start.Add(2 * time.Minute) }
	require.NoError(t, store.Save(ctx, "active", &model.CartState{}))

	ms.mu.Lock()
	defer ms.mu.Unlock()
	assert.Len(t, ms.entries, 1)
	assert.Contains(t, ms.entries, "active")
}

func TestNewContext(t *testing.T) {
	a, b := NewContext(), NewContext()
	assert.NotEqual(t, a.StoreKey, a.VisitorID)
	assert.NotEqual(t, a.StoreKey, b.StoreKey)
}
