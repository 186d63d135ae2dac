package cache

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseKeyIsStable(t *testing.T) {
	a, err := ResponseKey("/api/content/generate", map[string]any{"topic": "go", "tone": "casual"})
	require.NoError(t, err)
	b, err := ResponseKey("/api/content/generate", map[string]any{"tone": "casual", "topic": "go"})
	require.NoError(t, err)
	c, err := ResponseKey("/api/seo/optimize", map[string]any{"topic": "go", "tone": "casual"})
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.True(t, strings.HasPrefix(a, "contentcraft_cache_"))
	assert.Len(t, strings.TrimPrefix(a, "contentcraft_cache_"), 32)
}

func TestResponseCacheDisabledWithoutClient(t *testing.T) {
	c := NewResponseCache(nil)
	ctx := context.Background()

	assert.False(t, c.Enabled())
	require.NoError(t, c.Set(ctx, "k", map[string]any{"success": true}, time.Minute))
	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewRateLimiterMemoryStore(t *testing.T) {
	l, err := NewRateLimiter("2-M", nil)
	require.NoError(t, err)

	ctx := context.Background()
	first, err := l.Get(ctx, "client")
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Limit)
	assert.False(t, first.Reached)

	_, err = l.Get(ctx, "client")
	require.NoError(t, err)
	third, err := l.Get(ctx, "client")
	require.NoError(t, err)
	assert.True(t, third.Reached)

	_, err = NewRateLimiter("lots", nil)
	assert.Error(t, err)
}

func TestHealthRejectsNilClient(t *testing.T) {
	assert.Error(t, Health(context.Background(), nil))
}
