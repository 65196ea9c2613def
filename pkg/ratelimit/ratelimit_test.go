package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimiter_WithoutRedisAllowsEverything(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	for _, l := range []*Limiter{nil, New(nil)} {
		ok, err := l.Allow(ctx, uuid.New(), "award", time.Second)
		require.NoError(t, err)
		assert.True(t, ok)

		ttl, err := l.TTL(ctx, uuid.New(), "award")
		require.NoError(t, err)
		assert.Zero(t, ttl)
		assert.NoError(t, l.Clear(ctx, uuid.New(), "award"))
	}
}

func TestKey(t *testing.T) {
	t.Parallel()
	id := uuid.MustParse("7b0c4c0e-8a4e-4c38-9f64-1f2a3b4c5d6e")
	assert.Equal(t, "rate_limit:user:7b0c4c0e-8a4e-4c38-9f64-1f2a3b4c5d6e:content:career", key(id, "content:career"))
}
