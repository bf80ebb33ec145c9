package cartstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go/modules/mongodb"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/cart"
	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

func setupTestDB(t *testing.T) (*MongoStore, func()) {
	ctx := context.Background()

	// Start MongoDB container
	mongoContainer, err := mongodb.Run(ctx, "mongo:7")
	require.NoError(t, err)

	// Get connection string
	uri, err := mongoContainer.ConnectionString(ctx)
	require.NoError(t, err)

	// Connect to MongoDB
	db, err := ConnectMongoDB(ctx, uri, "testdb")
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

func TestLoad_NotFound(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	state, err := store.Load(ctx, "nonexistent")

	assert.ErrorIs(t, err, cart.ErrStateNotFound)
	assert.Nil(t, state)
}

func TestSaveAndLoad_RoundTrip(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	state := &domain.CartState{
		SessionID:  "table-12-abc",
		BoundVenue: "v-pano",
		Note:       "no onions please",
		Items: []domain.LineItem{
			{
				BaseID:   "X1",
				Name:     "Whisky",
				Price:    5000,
				Quantity: 2,
				Variant:  &domain.ItemVariant{Name: "Bottle", Price: 45000},
				VenueID:  "v-pano",
			},
		},
	}

	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "table-12-abc")
	require.NoError(t, err)
	assert.Equal(t, "v-pano", loaded.BoundVenue)
	assert.Equal(t, "no onions please", loaded.Note)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, "X1", loaded.Items[0].BaseID)
	assert.Equal(t, 2, loaded.Items[0].Quantity)
	require.NotNil(t, loaded.Items[0].Variant)
	assert.Equal(t, int64(45000), loaded.Items[0].Variant.Price)
}

func TestSave_UpsertsSameSession(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	state := &domain.CartState{
		SessionID:  "table-3-xyz",
		BoundVenue: "v-lobby",
		Items:      []domain.LineItem{{BaseID: "A1", Name: "Juice", Price: 1500, Quantity: 1, VenueID: "v-lobby"}},
	}
	require.NoError(t, store.Save(ctx, state))

	state.Items[0].Quantity = 4
	state.Note = "extra ice"
	require.NoError(t, store.Save(ctx, state))

	loaded, err := store.Load(ctx, "table-3-xyz")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 4, loaded.Items[0].Quantity)
	assert.Equal(t, "extra ice", loaded.Note)
}

func TestDelete(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	state := &domain.CartState{
		SessionID:  "table-7-del",
		BoundVenue: "v-pool",
		Items:      []domain.LineItem{{BaseID: "B2", Name: "Pizza", Price: 8000, Quantity: 1, VenueID: "v-pool"}},
	}
	require.NoError(t, store.Save(ctx, state))

	require.NoError(t, store.Delete(ctx, "table-7-del"))

	_, err := store.Load(ctx, "table-7-del")
	assert.ErrorIs(t, err, cart.ErrStateNotFound)

	assert.ErrorIs(t, store.Delete(ctx, "table-7-del"), cart.ErrStateNotFound)
}

func TestContextCancellation(t *testing.T) {
	store, cleanup := setupTestDB(t)
	defer cleanup()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Nanosecond)
	defer cancel()

	time.Sleep(10 * time.Millisecond) // Ensure context is cancelled

	_, err := store.Load(ctx, "table-1")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "context")
}
