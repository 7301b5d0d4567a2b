package persist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplyhub/cart-service/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisStore instance
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	store := NewRedisStore(client, 15*time.Minute)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return store, mr, cleanup
}

func sampleState() *domain.CartState {
	return &domain.CartState{
		Items: []domain.CartItem{
			{ID: "p1", Name: "Copy paper", Price: decimal.NewFromInt(500), Quantity: 2},
			{ID: "p2", Name: "Stapler", Price: decimal.NewFromInt(1200), Quantity: 1},
		},
		Selected: []string{"p1"},
	}
}

func TestRedisLoad_Success(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"

	data, err := encode(sampleState())
	require.NoError(t, err)
	mr.Set(snapshotKey(ownerID), string(data))

	state, err := store.Load(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, state.Items, 2)
	assert.Equal(t, "p1", state.Items[0].ID)
	assert.True(t, state.Items[0].Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, []string{"p1"}, state.Selected)
}

func TestRedisLoad_NotFound(t *testing.T) {
	store, _, cleanup := setupTestRedis(t)
	defer cleanup()

	state, err := store.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, state)
}

func TestRedisLoad_InvalidJSON(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ownerID := "user123"
	data, err := encode(sampleState())
	require.NoError(t, err)
	e2 := mr.Set(snapshotKey(ownerID), string(data[0:10]))
	require.NoError(t, e2)

	_, loadErr := store.Load(context.Background(), ownerID)
	require.ErrorContains(t, loadErr, "unmarshal cart snapshot failed")
}

func TestRedisLoad_SchemaVersionMismatch(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ownerID := "user123"
	stale, err := json.Marshal(map[string]interface{}{
		"schema_version": 99,
		"state":          sampleState(),
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set(snapshotKey(ownerID), string(stale)))

	_, loadErr := store.Load(context.Background(), ownerID)
	require.ErrorIs(t, loadErr, ErrSchemaVersion)
}

func TestRedisSave_RoundTrip(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user456"
	state := sampleState()

	err := store.Save(ctx, ownerID, state)
	require.NoError(t, err)

	stored, e2 := mr.Get(snapshotKey(ownerID))
	require.NoError(t, e2)
	assert.NotEmpty(t, stored)

	loaded, err := store.Load(ctx, ownerID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 2)
	assert.Equal(t, state.Selected, loaded.Selected)
}

func TestRedisSave_WritesVersionedEnvelope(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ownerID := "user456"
	require.NoError(t, store.Save(context.Background(), ownerID, sampleState()))

	stored, err := mr.Get(snapshotKey(ownerID))
	require.NoError(t, err)

	var env map[string]json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(stored), &env))
	assert.Contains(t, env, "schema_version")
	assert.Contains(t, env, "state")
}

func TestRedisSave_WithTTL(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ownerID := "user789"
	require.NoError(t, store.Save(context.Background(), ownerID, sampleState()))

	ttl := mr.TTL(snapshotKey(ownerID))
	assert.True(t, ttl >= 15*time.Minute, "TTL should be at least base TTL")
	assert.True(t, ttl <= 20*time.Minute, "TTL should be base + max jitter")
}

func TestRedisDelete(t *testing.T) {
	store, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user999"
	require.NoError(t, store.Save(ctx, ownerID, sampleState()))
	assert.True(t, mr.Exists(snapshotKey(ownerID)))

	require.NoError(t, store.Delete(ctx, ownerID))
	assert.False(t, mr.Exists(snapshotKey(ownerID)))

	// Deleting a non-existent key should not error
	assert.NoError(t, store.Delete(ctx, "nonexistent"))
}

func TestSnapshotKey_Format(t *testing.T) {
	assert.Equal(t, "cart:test123", snapshotKey("test123"))
}
