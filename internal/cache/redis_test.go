package cache

import (
	"context"
	"testing"
	"time"

	"codegen-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHelpersDegradeWithoutClient(t *testing.T) {
	Close()
	ctx := context.Background()

	SetCached(ctx, "k", []byte("v"), time.Minute)
	_, ok := GetCached(ctx, "k")
	assert.False(t, ok)

	CacheSuperConfig(ctx, &models.SuperConfig{ID: "cfg"}, time.Minute)
	_, ok = GetCachedSuperConfig(ctx)
	assert.False(t, ok)

	InvalidateSuperConfig(ctx)
	assert.False(t, IsHealthy())
	assert.Nil(t, GetClient())
}

func TestRedisLockRequiresClient(t *testing.T) {
	Close()
	assert.Nil(t, NewRedisLock(time.Minute))

	var l *RedisLock
	_, err := l.Acquire(context.Background(), "pool")
	require.ErrorIs(t, err, ErrNoClient)
	require.ErrorIs(t, l.Release(context.Background(), "pool"), ErrNoClient)
}

func TestNewTokenIsRandom(t *testing.T) {
	a, err := newToken()
	require.NoError(t, err)
	b, err := newToken()
	require.NoError(t, err)
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
