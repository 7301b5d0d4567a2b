package persist

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/supplyhub/cart-service/internal/domain"
)

func setupTestMongo(t *testing.T) (*MongoStore, func()) {
	ctx := context.Background()

	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	db, err := ConnectMongo(ctx, uri, "testdb")
	require.NoError(t, err)

	store := NewMongoStore(db)
	require.NoError(t, store.CreateIndexes(ctx))

	cleanup := func() {
		if err := mongoContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}

	return store, cleanup
}

func TestMongoLoad_NotFound(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()

	state, err := store.Load(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Nil(t, state)
}

func TestMongoSave_RoundTrip(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"
	state := sampleState()

	require.NoError(t, store.Save(ctx, ownerID, state))

	loaded, err := store.Load(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 2)
	assert.Equal(t, "p1", loaded.Items[0].ID)
	assert.True(t, loaded.Items[0].Price.Equal(decimal.NewFromInt(500)))
	assert.Equal(t, []string{"p1"}, loaded.Selected)
}

func TestMongoSave_UpsertsExistingSnapshot(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"

	require.NoError(t, store.Save(ctx, ownerID, sampleState()))

	updated := &domain.CartState{
		Items: []domain.CartItem{
			{ID: "p9", Name: "Toner", Price: decimal.NewFromInt(4500), Quantity: 1},
		},
		Selected: []string{"p9"},
	}
	require.NoError(t, store.Save(ctx, ownerID, updated))

	loaded, err := store.Load(ctx, ownerID)
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "p9", loaded.Items[0].ID)
}

func TestMongoDelete(t *testing.T) {
	store, cleanup := setupTestMongo(t)
	defer cleanup()

	ctx := context.Background()
	ownerID := "user123"
	require.NoError(t, store.Save(ctx, ownerID, sampleState()))

	require.NoError(t, store.Delete(ctx, ownerID))

	_, err := store.Load(ctx, ownerID)
	assert.ErrorIs(t, err, ErrNotFound)

	// Deleting an absent snapshot is not an error
	assert.NoError(t, store.Delete(ctx, "nonexistent"))
}
