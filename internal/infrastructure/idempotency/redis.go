// Package idempotency guarda claves Idempotency-Key ya vistas para no aplicar dos veces
// la misma operación del ledger.
package idempotency

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ledger:idem:"

// RedisStore claves compartidas entre réplicas con SETNX + TTL.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore construye el store. ttl <= 0 usa 24h.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisStore{client: client, ttl: ttl}
}

// Claim reserva la clave. Devuelve false si ya estaba tomada.
func (s *RedisStore) Claim(ctx context.Context, key string) (bool, error) {
	ok, err := s.client.SetNX(ctx, keyPrefix+key, 1, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("idempotency claim: %w", err)
	}
	return ok, nil
}

// Forget libera la clave (la operación falló y puede reintentarse).
func (s *RedisStore) Forget(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("idempotency forget: %w", err)
	}
	return nil
}
