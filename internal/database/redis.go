package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPingTimeout = 5 * time.Second

// RedisOptions configures the Redis history backend.
type RedisOptions struct {
	URL         string
	ClientName  string
	PoolSize    int
	PingTimeout time.Duration
}

// ConnectRedis opens the Redis key-value backend used for the history ledger instead of SQLite.
// Values set in opts override those carried by the URL.
func ConnectRedis(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	if opts.URL == "" {
		return nil, fmt.Errorf("redis url must not be empty")
	}

	options, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	if opts.ClientName != "" {
		options.ClientName = opts.ClientName
	}
	if opts.PoolSize > 0 {
		options.PoolSize = opts.PoolSize
	}
	timeout := opts.PingTimeout
	if timeout <= 0 {
		timeout = defaultRedisPingTimeout
	}

	client := redis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("unable to reach redis history store: %w", err)
	}

	return client, nil
}
