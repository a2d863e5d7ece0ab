package cache_test

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"eventbook/config"
	"eventbook/internal/cache"
	"eventbook/internal/database"
	"eventbook/internal/model"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRdb *redis.Client

func TestMain(m *testing.M) {
	cfg := config.LoadTestConfig()
	rdb, err := database.InitRedis(context.Background(), &cfg.Redis)
	if err != nil {
		log.Printf("Test redis unavailable, skipping redis cache tests: %v", err)
	} else {
		testRdb = rdb
	}

	code := m.Run()

	if testRdb != nil {
		testRdb.Close()
	}
	os.Exit(code)
}

func getTestRdb(t *testing.T) *redis.Client {
	t.Helper()
	if testRdb == nil {
		t.Skip("test redis is not available")
	}
	return testRdb
}

func TestRedisEventAvailabilityCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NewRedisEventAvailabilityCache(getTestRdb(t), time.Minute)
	eventID := uuid.New()

	t.Run("Miss", func(t *testing.T) {
		_, err := c.Get(ctx, eventID)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})

	t.Run("SetThenGet", func(t *testing.T) {
		snapshot := model.EventAvailability{EventID: eventID, TotalSeats: 100, AvailableSeats: 37, Price: 1200}
		require.NoError(t, c.Set(ctx, snapshot))

		got, err := c.Get(ctx, eventID)
		require.NoError(t, err)
		assert.Equal(t, snapshot, got)

		ttl, err := testRdb.TTL(ctx, "event:"+eventID.String()+":availability").Result()
		require.NoError(t, err)
		assert.Greater(t, ttl, time.Duration(0))
	})

	t.Run("Invalidate", func(t *testing.T) {
		require.NoError(t, c.Invalidate(ctx, eventID))
		_, err := c.Get(ctx, eventID)
		assert.ErrorIs(t, err, cache.ErrCacheMiss)
	})
}

func TestNoopEventAvailabilityCache(t *testing.T) {
	ctx := context.Background()
	c := cache.NoopEventAvailabilityCache{}
	eventID := uuid.New()

	require.NoError(t, c.Set(ctx, model.EventAvailability{EventID: eventID}))
	_, err := c.Get(ctx, eventID)
	assert.ErrorIs(t, err, cache.ErrCacheMiss)
	assert.NoError(t, c.Invalidate(ctx, eventID))
}
