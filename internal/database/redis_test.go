package database

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestConnectRedisAppliesOptions(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := ConnectRedis(context.Background(), RedisOptions{URL: "redis://" + mr.Addr() + "/0", PoolSize: 3})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	require.Equal(t, 3, client.Options().PoolSize)
	require.NoError(t, client.Set(context.Background(), "gradx:ping", "ok", 0).Err())
}

func TestConnectRedisRejectsBadTargets(t *testing.T) {
	_, err := ConnectRedis(context.Background(), RedisOptions{})
	require.Error(t, err)

	_, err = ConnectRedis(context.Background(), RedisOptions{URL: "not a url"})
	require.ErrorContains(t, err, "parse redis url")

	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err = ConnectRedis(context.Background(), RedisOptions{URL: "redis://" + addr, PingTimeout: 200 * time.Millisecond})
	require.ErrorContains(t, err, "unable to reach redis history store")
}
