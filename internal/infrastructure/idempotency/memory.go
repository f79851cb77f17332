package idempotency

import (
	"context"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryStore claves en proceso, acotadas en tamaño y con expiración. Sirve para una
// sola réplica o cuando no hay Redis configurado.
type MemoryStore struct {
	mu    sync.Mutex
	cache *expirable.LRU[string, struct{}]
}

// NewMemoryStore construye el store con capacidad size y expiración ttl.
func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	if size <= 0 {
		size = 10000
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemoryStore{cache: expirable.NewLRU[string, struct{}](size, nil, ttl)}
}

// Claim reserva la clave. Devuelve false si ya estaba tomada y no expiró.
func (s *MemoryStore) Claim(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// Peek descarta entradas vencidas; Contains no.
	if _, ok := s.cache.Peek(keyPrefix + key); ok {
		return false, nil
	}
	s.cache.Add(keyPrefix+key, struct{}{})
	return true, nil
}

// Forget libera la clave.
func (s *MemoryStore) Forget(_ context.Context, key string) error {
	s.cache.Remove(keyPrefix + key)
	return nil
}

// Len claves vigentes.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}
