package kv

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryBackend_GetMissingKey(t *testing.T) {
	b := NewMemoryBackend()

	value, ok, err := b.Get(context.Background(), "requests")

	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, value)
}

func TestMemoryBackend_SetCopiesValue(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	value := []byte(`[{"id":1}]`)
	require.NoError(t, b.Set(ctx, "requests", value))
	value[0] = 'X'

	got, ok, err := b.Get(ctx, "requests")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `[{"id":1}]`, string(got))
}

func TestMemoryBackend_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	b := NewMemoryBackend()

	require.NoError(t, b.Set(ctx, "requests", []byte("first")))
	require.NoError(t, b.Set(ctx, "requests", []byte("second")))

	got, _, err := b.Get(ctx, "requests")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func TestWithQuota(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryBackend()
	b := WithQuota(inner, 4)

	require.NoError(t, b.Set(ctx, "k", []byte("1234")))

	err := b.Set(ctx, "k", []byte("12345"))
	assert.True(t, errors.Is(err, ErrQuotaExceeded))

	got, _, _ := b.Get(ctx, "k")
	assert.Equal(t, "1234", string(got), "rejected write must leave the old value")
}

func TestWithQuota_DisabledReturnsBackend(t *testing.T) {
	inner := NewMemoryBackend()
	assert.Same(t, inner, WithQuota(inner, 0))
}
