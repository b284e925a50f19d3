package redis

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/pscheid92/nlsentiment/internal/adapter/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

func newTestMetricsHook() (*MetricsHook, *metrics.RedisMetrics) {
	m := metrics.NewRedisMetrics(prometheus.NewRegistry())
	return NewMetricsHook(m), m
}

func TestMetricsHook_Process(t *testing.T) {
	hook, m := newTestMetricsHook()
	ctx := context.Background()

	ok := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return nil })
	miss := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return goredis.Nil })
	fail := hook.ProcessHook(func(context.Context, goredis.Cmder) error { return errors.New("READONLY") })

	_ = ok(ctx, goredis.NewStringCmd(ctx, "get", "k"))
	_ = miss(ctx, goredis.NewStringCmd(ctx, "get", "k"))
	assert.Error(t, fail(ctx, goredis.NewIntCmd(ctx, "del", "k")))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.OpsTotal.WithLabelValues("get", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpsTotal.WithLabelValues("del", "error")))
	assert.Equal(t, 2, testutil.CollectAndCount(m.OpDuration))
}

func TestMetricsHook_Pipeline(t *testing.T) {
	hook, m := newTestMetricsHook()

	pipe := hook.ProcessPipelineHook(func(context.Context, []goredis.Cmder) error { return nil })
	_ = pipe(context.Background(), nil)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.OpsTotal.WithLabelValues(pipelineOperation, "success")))
}

func TestMetricsHook_DialError(t *testing.T) {
	hook, m := newTestMetricsHook()

	dial := hook.DialHook(func(context.Context, string, string) (net.Conn, error) {
		return nil, errors.New("connection refused")
	})
	_, err := dial(context.Background(), "tcp", "127.0.0.1:1")

	assert.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ConnectionErrors))
}
