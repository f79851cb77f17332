package idempotency_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ledger/internal/infrastructure/idempotency"
)

func TestMemoryStore_ClaimUnaVez(t *testing.T) {
	ctx := context.Background()
	s := idempotency.NewMemoryStore(10, time.Minute)

	ok, err := s.Claim(ctx, "7:abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, "7:abc")
	require.NoError(t, err)
	assert.False(t, ok, "la segunda vez la clave ya está tomada")

	require.NoError(t, s.Forget(ctx, "7:abc"))
	ok, err = s.Claim(ctx, "7:abc")
	require.NoError(t, err)
	assert.True(t, ok, "después de Forget se puede reintentar")
}

func TestMemoryStore_Expira(t *testing.T) {
	ctx := context.Background()
	s := idempotency.NewMemoryStore(10, 20*time.Millisecond)
	ok, _ := s.Claim(ctx, "k")
	require.True(t, ok)

	require.Eventually(t, func() bool {
		ok, _ := s.Claim(ctx, "k")
		return ok
	}, time.Second, 10*time.Millisecond)
}

func TestMemoryStore_Acotado(t *testing.T) {
	ctx := context.Background()
	s := idempotency.NewMemoryStore(2, time.Minute)
	for _, k := range []string{"a", "b", "c"} {
		ok, err := s.Claim(ctx, k)
		require.NoError(t, err)
		require.True(t, ok)
	}
	assert.Equal(t, 2, s.Len())
}

func getRedisClient(t *testing.T) *redis.Client {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR no definido")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("Redis no disponible: %v", err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisStore_ClaimYForget(t *testing.T) {
	ctx := context.Background()
	s := idempotency.NewRedisStore(getRedisClient(t), time.Minute)
	key := "test:" + uuid.NewString()

	ok, err := s.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Claim(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Forget(ctx, key))
	ok, err = s.Claim(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, s.Forget(ctx, key))
}
