package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/gradx-api/internal/models"
)

func TestGormKeyValueStoreRoundTrip(t *testing.T) {
	store := NewGormKeyValueStore(setupTestDB(t))
	ctx := context.Background()

	_, err := store.Get(ctx, "gradx_history")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, "gradx_history", []byte(`[{"id":"1"}]`)))
	value, err := store.Get(ctx, "gradx_history")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"1"}]`, string(value))

	require.NoError(t, store.Put(ctx, "gradx_history", []byte(`[{"id":"2"},{"id":"1"}]`)))
	value, err = store.Get(ctx, "gradx_history")
	require.NoError(t, err)
	require.JSONEq(t, `[{"id":"2"},{"id":"1"}]`, string(value))
}

func TestRedisKeyValueStoreRoundTrip(t *testing.T) {
	mini, err := miniredis.Run()
	require.NoError(t, err)
	defer mini.Close()

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	defer client.Close()

	store := NewRedisKeyValueStore(client, "gradx")
	ctx := context.Background()

	_, err = store.Get(ctx, "gradx_history")
	require.ErrorIs(t, err, ErrKeyNotFound)

	require.NoError(t, store.Put(ctx, "gradx_history", []byte(`[]`)))
	require.True(t, mini.Exists("gradx:gradx_history"))
	require.Zero(t, mini.TTL("gradx:gradx_history"))

	value, err := store.Get(ctx, "gradx_history")
	require.NoError(t, err)
	require.Equal(t, `[]`, string(value))
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.KeyValueEntry{}))
	return db
}
