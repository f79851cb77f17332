// Package memory implementa los puertos del ledger en memoria, para tests y entornos efímeros.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	rules "github.com/jhoicas/almacen-ledger/internal/domain/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var (
	_ inventory.TxRunner                     = (*Store)(nil)
	_ repository.InventorySummaryRepository  = (*Store)(nil)
	_ repository.MovementReader              = (*Store)(nil)
	_ repository.ProductRepository           = (*Store)(nil)
	_ repository.InventoryRecordRepository   = (*recordTx)(nil)
	_ repository.InventoryMovementRepository = (*movementTx)(nil)
)

// ErrCommitFailed lo devuelve un CommitHook de prueba para simular un fallo al confirmar.
var ErrCommitFailed = errors.New("memory: commit simulado fallido")

type state struct {
	records        map[entity.LocationKey]entity.InventoryRecord
	movements      []entity.InventoryMovement
	products       map[int64]entity.Product
	nextMovementID int64
}

func newState() state {
	return state{
		records:  make(map[entity.LocationKey]entity.InventoryRecord),
		products: make(map[int64]entity.Product),
	}
}

// pending escrituras de una transacción sin confirmar. Solo guarda lo que la transacción toca,
// así que el costo de Run no depende del tamaño del ledger.
type pending struct {
	base      *state
	records   map[entity.LocationKey]*entity.InventoryRecord // nil = eliminado
	movements []entity.InventoryMovement
}

func newPending(base *state) *pending {
	return &pending{base: base, records: make(map[entity.LocationKey]*entity.InventoryRecord)}
}

func (p *pending) record(key entity.LocationKey) (entity.InventoryRecord, bool) {
	if rec, ok := p.records[key]; ok {
		if rec == nil {
			return entity.InventoryRecord{}, false
		}
		return *rec, true
	}
	rec, ok := p.base.records[key]
	return rec, ok
}

// commit vuelca las escrituras sobre el estado confirmado.
func (p *pending) commit() {
	for k, rec := range p.records {
		if rec == nil {
			delete(p.base.records, k)
			continue
		}
		p.base.records[k] = *rec
	}
	p.base.movements = append(p.base.movements, p.movements...)
	p.base.nextMovementID += int64(len(p.movements))
}

// Store mantiene registros, movimientos y productos bajo un único mutex.
// Run acumula las escrituras en un buffer propio y las vuelca solo si fn y el hook de commit
// terminan sin error, por lo que las transacciones quedan serializadas y un fallo no deja
// escrituras parciales. Pensado para tests y entornos efímeros: nada sobrevive al proceso.
type Store struct {
	mu         sync.RWMutex
	state      state
	now        func() time.Time
	commitHook func() error
}

// New crea un store vacío.
func New() *Store {
	return &Store{
		state: newState(),
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// SetCommitHook instala una función que se ejecuta justo antes de publicar el estado.
// Si devuelve error la transacción se descarta (tests de rollback).
func (s *Store) SetCommitHook(hook func() error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.commitHook = hook
}

// PutProduct registra (o reemplaza) un producto del catálogo.
func (s *Store) PutProduct(p entity.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = s.now()
	}
	s.state.products[p.ID] = p
}

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	records repository.InventoryRecordRepository,
	movements repository.InventoryMovementRepository,
) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := newPending(&s.state)
	if err := fn(&recordTx{tx: tx, now: s.now}, &movementTx{tx: tx}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.commitHook != nil {
		if err := s.commitHook(); err != nil {
			return err
		}
	}
	tx.commit()
	return nil
}

// view ejecuta fn con lectura compartida del estado confirmado.
func (s *Store) view(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.state)
}

// ─── Lecturas (read committed) ─────────────────────────────────────────────────

// Record devuelve el registro confirmado de una ubicación o nil.
func (s *Store) Record(key entity.LocationKey) *entity.InventoryRecord {
	var out *entity.InventoryRecord
	s.view(func(st *state) {
		if rec, ok := st.records[key]; ok {
			out = &rec
		}
	})
	return out
}

// MovementCount total de movimientos confirmados.
func (s *Store) MovementCount() int {
	n := 0
	s.view(func(st *state) { n = len(st.movements) })
	return n
}

// ListRecordsByProduct implementa repository.InventorySummaryRepository.
func (s *Store) ListRecordsByProduct(ctx context.Context, productID int64) ([]*entity.InventoryRecord, error) {
	var out []*entity.InventoryRecord
	s.view(func(st *state) {
		for k, rec := range st.records {
			if k.ProductID != productID {
				continue
			}
			r := rec
			out = append(out, &r)
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Key.Less(out[j].Key) })
	return out, nil
}

// GetProductsBelowMinimum implementa repository.InventorySummaryRepository.
func (s *Store) GetProductsBelowMinimum(ctx context.Context, enterpriseID int64) ([]repository.LowStockItem, error) {
	var out []repository.LowStockItem
	s.view(func(st *state) {
		for _, p := range st.products {
			if p.EnterpriseID != enterpriseID || p.MinQuantity <= 0 {
				continue
			}
			item := repository.LowStockItem{
				ProductID:   p.ID,
				SKU:         p.SKU,
				ProductName: p.Name,
				MinQuantity: p.MinQuantity,
			}
			for k, rec := range st.records {
				if k.ProductID == p.ID {
					item.TotalQuantity += rec.Quantity
					item.TotalReserved += rec.ReservedQuantity
				}
			}
			if item.Available() < item.MinQuantity {
				item.CoveragePct = rules.CoveragePct(item.Available(), item.MinQuantity)
				out = append(out, item)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deficit() != out[j].Deficit() {
			return out[i].Deficit() > out[j].Deficit()
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// ListByProduct implementa repository.MovementReader sobre el estado confirmado.
func (s *Store) ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	s.view(func(st *state) {
		out = listByProduct(st.movements, productID, from, to, limit, offset)
	})
	return out, nil
}

// ListByProductBefore implementa repository.MovementReader.
func (s *Store) ListByProductBefore(ctx context.Context, productID, beforeID int64, limit int) ([]*entity.InventoryMovement, error) {
	var out []*entity.InventoryMovement
	s.view(func(st *state) {
		out = listBefore(st.movements, productID, beforeID, limit)
	})
	return out, nil
}

// GetByID implementa repository.ProductRepository.
func (s *Store) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	s.view(func(st *state) {
		if p, ok := st.products[id]; ok {
			out = &p
		}
	})
	return out, nil
}

// Save implementa repository.ProductRepository.
func (s *Store) Save(ctx context.Context, p *entity.Product) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, other := range s.state.products {
		if other.ID != p.ID && other.EnterpriseID == p.EnterpriseID && other.SKU == p.SKU {
			return domain.ErrDuplicate
		}
	}
	p.UpdatedAt = s.now()
	s.state.products[p.ID] = *p
	return nil
}

// UpdateMinQuantity implementa repository.ProductRepository.
func (s *Store) UpdateMinQuantity(ctx context.Context, id int64, minQuantity int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.state.products[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.MinQuantity = minQuantity
	p.UpdatedAt = s.now()
	s.state.products[id] = p
	return nil
}

func listByProduct(movements []entity.InventoryMovement, productID int64, from, to *time.Time, limit, offset int) []*entity.InventoryMovement {
	var matched []*entity.InventoryMovement
	// Recorre del más reciente al más antiguo (IDs crecientes en orden de inserción).
	for i := len(movements) - 1; i >= 0; i-- {
		m := movements[i]
		if m.ProductID != productID {
			continue
		}
		if from != nil && m.CreatedAt.Before(*from) {
			continue
		}
		if to != nil && m.CreatedAt.After(*to) {
			continue
		}
		matched = append(matched, &m)
	}
	if offset >= len(matched) {
		return nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched
}

func listBefore(movements []entity.InventoryMovement, productID, beforeID int64, limit int) []*entity.InventoryMovement {
	var out []*entity.InventoryMovement
	for i := len(movements) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		m := movements[i]
		if m.ProductID != productID || (beforeID > 0 && m.ID >= beforeID) {
			continue
		}
		out = append(out, &m)
	}
	return out
}

// ─── Repositorios atados a la transacción ───────────────────────────────────────

type recordTx struct {
	tx  *pending
	now func() time.Time
}

// Lock no hace nada: Run ya tiene el store en exclusiva.
func (r *recordTx) Lock(ctx context.Context, keys []entity.LocationKey) error {
	return ctx.Err()
}

func (r *recordTx) Get(ctx context.Context, key entity.LocationKey) (*entity.InventoryRecord, error) {
	rec, ok := r.tx.record(key)
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (r *recordTx) Upsert(ctx context.Context, key entity.LocationKey, delta entity.RecordDelta) (*entity.InventoryRecord, error) {
	var current *entity.InventoryRecord
	if rec, ok := r.tx.record(key); ok {
		current = &rec
	}
	next, err := rules.Next(key, current, delta)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = r.now()
	stored := next
	r.tx.records[key] = &stored
	return &next, nil
}

func (r *recordTx) DeleteIfEmpty(ctx context.Context, key entity.LocationKey) (bool, error) {
	rec, ok := r.tx.record(key)
	if !ok || !rec.Empty() {
		return false, nil
	}
	r.tx.records[key] = nil
	return true, nil
}

type movementTx struct {
	tx *pending
}

func (r *movementTx) Append(ctx context.Context, m *entity.InventoryMovement) error {
	if !m.Type.Valid() {
		return domain.Invalid("tipo de movimiento desconocido %q", m.Type)
	}
	m.ID = r.tx.base.nextMovementID + int64(len(r.tx.movements)) + 1
	r.tx.movements = append(r.tx.movements, *m)
	return nil
}

// visible movimientos confirmados más los de esta transacción.
func (r *movementTx) visible() []entity.InventoryMovement {
	if len(r.tx.movements) == 0 {
		return r.tx.base.movements
	}
	all := make([]entity.InventoryMovement, 0, len(r.tx.base.movements)+len(r.tx.movements))
	all = append(all, r.tx.base.movements...)
	return append(all, r.tx.movements...)
}

func (r *movementTx) ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	return listByProduct(r.visible(), productID, from, to, limit, offset), nil
}

func (r *movementTx) ListByProductBefore(ctx context.Context, productID, beforeID int64, limit int) ([]*entity.InventoryMovement, error) {
	return listBefore(r.visible(), productID, beforeID, limit), nil
}
