package kv

import (
	"context"
	"os"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Set IDCARD_TEST_REDIS_ADDR to run against a live server
func TestRedisBackend_RoundTrip(t *testing.T) {
	addr := os.Getenv("IDCARD_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("IDCARD_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	b := NewRedisBackend(redis.NewClient(&redis.Options{Addr: addr}))
	defer func() { _ = b.Close() }()

	key := "idcard-test." + t.Name()
	_, ok, err := b.Get(ctx, key+".missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, b.Set(ctx, key, []byte(`[{"id":7}]`)))
	got, ok, err := b.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":7}]`, string(got))
}
