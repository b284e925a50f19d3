package redis

import (
	"context"
	"fmt"

	"github.com/pscheid92/nlsentiment/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
)

// NewClient parses a redis:// URL, installs the given hooks and verifies the
// connection. A malformed URL is reported as a permanent error.
func NewClient(ctx context.Context, redisURL string, hooks ...goredis.Hook) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, retry.Permanent(fmt.Errorf("failed to parse redis URL: %w", err))
	}

	rdb := goredis.NewClient(opts)
	for _, h := range hooks {
		rdb.AddHook(h)
	}

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return rdb, nil
}
