package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

// session estado de una llamada a Apply dentro de su transacción.
type session struct {
	records     repository.InventoryRecordRepository
	movements   repository.InventoryMovementRepository
	operationID string
	now         time.Time

	appended []*entity.InventoryMovement
	touched  map[entity.LocationKey]*entity.InventoryRecord // nil = eliminado por quedar en (0,0)
}

func newSession(
	records repository.InventoryRecordRepository,
	movements repository.InventoryMovementRepository,
	operationID string,
	now time.Time,
) *session {
	return &session{
		records:     records,
		movements:   movements,
		operationID: operationID,
		now:         now,
		touched:     make(map[entity.LocationKey]*entity.InventoryRecord),
	}
}

func (s *session) get(ctx context.Context, key entity.LocationKey) (*entity.InventoryRecord, error) {
	return s.records.Get(ctx, key)
}

// write aplica el parche y elimina el registro si quedó vacío.
func (s *session) write(ctx context.Context, key entity.LocationKey, delta entity.RecordDelta) error {
	rec, err := s.records.Upsert(ctx, key, delta)
	if err != nil {
		return err
	}
	if rec.Empty() {
		if _, err := s.records.DeleteIfEmpty(ctx, key); err != nil {
			return err
		}
		s.touched[key] = nil
		return nil
	}
	s.touched[key] = rec
	return nil
}

func (s *session) appendMovement(ctx context.Context, m *entity.InventoryMovement) error {
	m.OperationID = s.operationID
	m.CreatedAt = s.now
	if err := s.movements.Append(ctx, m); err != nil {
		return err
	}
	s.appended = append(s.appended, m)
	return nil
}

// result estado final de las ubicaciones tocadas, ordenado por clave.
func (s *session) result() (records []*entity.InventoryRecord, collected []entity.LocationKey) {
	keys := make([]entity.LocationKey, 0, len(s.touched))
	for k := range s.touched {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	for _, k := range keys {
		if rec := s.touched[k]; rec != nil {
			records = append(records, rec)
		} else {
			collected = append(collected, k)
		}
	}
	return records, collected
}

// lockOrder devuelve las claves del lote sin duplicados y en orden total,
// para que dos lotes concurrentes nunca se bloqueen en sentidos opuestos.
func lockOrder(ops []Operation) []entity.LocationKey {
	seen := make(map[entity.LocationKey]struct{})
	var keys []entity.LocationKey
	for _, op := range ops {
		for _, k := range op.keys() {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}
