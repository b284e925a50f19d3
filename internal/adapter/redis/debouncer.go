package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const submitDebounceInterval = 2 * time.Second

// SubmissionDebouncer rejects repeated settings submissions by the same
// administrator within a short interval, across all instances.
type SubmissionDebouncer struct {
	rdb goredis.Cmdable
}

func NewSubmissionDebouncer(rdb goredis.Cmdable) *SubmissionDebouncer {
	return &SubmissionDebouncer{rdb: rdb}
}

// IsDebounced returns true if the user submitted within the interval,
// false if the submission may proceed (and starts a new interval).
func (d *SubmissionDebouncer) IsDebounced(ctx context.Context, username string) (bool, error) {
	args := goredis.SetArgs{TTL: submitDebounceInterval, Mode: "NX"}
	_, err := d.rdb.SetArgs(ctx, debounceKey(username), "1", args).Result()
	if errors.Is(err, goredis.Nil) {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to set debounce: %w", err)
	}
	return false, nil
}

// Release clears the user's interval so the next submission may proceed.
func (d *SubmissionDebouncer) Release(ctx context.Context, username string) error {
	if err := d.rdb.Del(ctx, debounceKey(username)).Err(); err != nil {
		return fmt.Errorf("failed to release debounce: %w", err)
	}
	return nil
}

func debounceKey(username string) string {
	return "debounce:settings_submit:" + username
}
