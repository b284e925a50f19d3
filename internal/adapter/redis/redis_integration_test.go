package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pscheid92/nlsentiment/internal/domain"
	"github.com/pscheid92/nlsentiment/internal/platform/retry"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testRedisURL string

func TestMain(m *testing.M) {
	flag.Parse()

	if testing.Short() {
		os.Exit(m.Run())
	}

	os.Exit(runWithRedis(m))
}

func runWithRedis(m *testing.M) int {
	ctx := context.Background()

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to start redis container: %v\n", err)
		return 1
	}
	defer func() {
		if err := container.Terminate(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "failed to terminate redis container: %v\n", err)
		}
	}()

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to get redis endpoint: %v\n", err)
		return 1
	}
	testRedisURL = "redis://" + endpoint

	return m.Run()
}

func setupTestClient(t *testing.T) *goredis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()
	client, err := NewClient(ctx, testRedisURL, NewCircuitBreakerHook(nil))
	require.NoError(t, err)
	require.NoError(t, client.FlushAll(ctx).Err())

	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := NewClient(context.Background(), "://nope")

	var permErr *retry.PermanentError
	assert.ErrorAs(t, err, &permErr)
}

func TestSettingsCacheRepo_PopulatesRedis(t *testing.T) {
	client := setupTestClient(t)
	stored := &domain.Settings{MagnitudeThreshold: 2, ContentTypes: map[string][]string{"article": {}}}
	repo := &mockSettingsRepository{getFn: func(context.Context) (*domain.Settings, error) { return stored, nil }}
	ctx := context.Background()

	first := NewSettingsCacheRepo(client, repo, 10*time.Second, nil)
	_, err := first.GetSettings(ctx)
	require.NoError(t, err)

	ttl, err := client.TTL(ctx, settingsCacheKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)

	// A second instance reads from Redis instead of the repository.
	second := NewSettingsCacheRepo(client, repo, 10*time.Second, nil)
	got, err := second.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, *stored, got)
	assert.Equal(t, int32(1), repo.calls.Load())
}

func TestSettingsInvalidator_ClearsAllInstances(t *testing.T) {
	client := setupTestClient(t)
	threshold := 1.0
	repo := &mockSettingsRepository{getFn: func(context.Context) (*domain.Settings, error) {
		return &domain.Settings{MagnitudeThreshold: threshold, ContentTypes: map[string][]string{}}, nil
	}}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	local := NewSettingsCacheRepo(client, repo, time.Hour, nil)
	remote := NewSettingsCacheRepo(client, repo, time.Hour, nil)
	remoteSub := NewSettingsInvalidator(client, remote)
	go remoteSub.Start(ctx)

	_, err := local.GetSettings(ctx)
	require.NoError(t, err)
	_, err = remote.GetSettings(ctx)
	require.NoError(t, err)

	// Give the subscriber time to register.
	time.Sleep(100 * time.Millisecond)

	threshold = 3
	require.NoError(t, NewSettingsInvalidator(client, local).InvalidateSettings(ctx))

	exists, err := client.Exists(ctx, settingsCacheKey).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)

	assert.Eventually(t, func() bool {
		_, hit := remote.mem.get(domain.SettingsName)
		return !hit
	}, 2*time.Second, 20*time.Millisecond)

	got, err := remote.GetSettings(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.MagnitudeThreshold)
}
