package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pscheid92/nlsentiment/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const settingsInvalidationChannel = "settings:invalidate"

// SettingsInvalidator implements domain.SettingsCacheInvalidator. It clears
// the shared Redis entry and tells every instance to drop its in-memory copy.
type SettingsInvalidator struct {
	rdb   *goredis.Client
	cache *SettingsCacheRepo
}

func NewSettingsInvalidator(rdb *goredis.Client, cache *SettingsCacheRepo) *SettingsInvalidator {
	return &SettingsInvalidator{rdb: rdb, cache: cache}
}

func (s *SettingsInvalidator) InvalidateSettings(ctx context.Context) error {
	if err := s.cache.InvalidateCache(ctx); err != nil {
		return err
	}
	if err := s.rdb.Publish(ctx, settingsInvalidationChannel, domain.SettingsName).Err(); err != nil {
		return fmt.Errorf("failed to publish settings invalidation: %w", err)
	}
	return nil
}

// Start listens for invalidations from other instances until ctx is done.
func (s *SettingsInvalidator) Start(ctx context.Context) {
	pubsub := s.rdb.Subscribe(ctx, settingsInvalidationChannel)
	defer func() { _ = pubsub.Close() }()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handleInvalidation(ctx, msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (s *SettingsInvalidator) handleInvalidation(ctx context.Context, payload string) {
	if payload != domain.SettingsName {
		slog.WarnContext(ctx, "Ignoring unexpected settings invalidation message", "payload", payload)
		return
	}

	s.cache.invalidateLocal()
	slog.DebugContext(ctx, "Settings cache invalidated via pub/sub")
}
