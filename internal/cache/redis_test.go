package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thefrankalbert/radisson-menu-app-sub001/internal/domain"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	// Create an in-memory Redis server
	mr := miniredis.RunT(t)

	// Create Redis client pointing to miniredis
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func sampleOrder() *domain.Order {
	return &domain.Order{
		ID:          uuid.New(),
		SessionID:   "table-12-abc",
		TableNumber: "12",
		VenueID:     "v-pano",
		Status:      domain.OrderStatusPending,
		TotalPrice:  45000,
		Items: []domain.OrderItem{
			{BaseID: "X1", Name: "Whisky", Quantity: 1, UnitPrice: 45000},
		},
		CreatedAt: time.Now().Truncate(time.Second),
		UpdatedAt: time.Now().Truncate(time.Second),
	}
}

func TestGet_Miss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	_, err := cache.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSetAndGet(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	order := sampleOrder()
	require.NoError(t, cache.Set(context.Background(), order))

	got, err := cache.Get(context.Background(), order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
	assert.Equal(t, domain.OrderStatusPending, got.Status)
	require.Len(t, got.Items, 1)
	assert.Equal(t, int64(45000), got.Items[0].UnitPrice)
}

func TestGet_CorruptPayload(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	id := uuid.New()
	require.NoError(t, mr.Set("order:"+id.String(), "{not json"))

	_, err := cache.Get(context.Background(), id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestDelete(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	order := sampleOrder()
	require.NoError(t, cache.Set(context.Background(), order))
	require.NoError(t, cache.Delete(context.Background(), order.ID))

	_, err := cache.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSet_EntryExpires(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	order := sampleOrder()
	require.NoError(t, cache.Set(context.Background(), order))

	// TTL is base plus jitter; jump far past both
	mr.FastForward(30 * time.Minute)

	_, err := cache.Get(context.Background(), order.ID)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestSet_StoredShapeIsJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	order := sampleOrder()
	require.NoError(t, cache.Set(context.Background(), order))

	raw, err := mr.Get("order:" + order.ID.String())
	require.NoError(t, err)

	var decoded domain.Order
	require.NoError(t, json.Unmarshal([]byte(raw), &decoded))
	assert.Equal(t, order.TotalPrice, decoded.TotalPrice)
}
