package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	rules "github.com/jhoicas/almacen-ledger/internal/domain/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var _ repository.InventoryRecordRepository = (*InventoryRecordRepo)(nil)

// InventoryRecordRepo Record Store sobre PostgreSQL. Solo tiene sentido atado a una tx:
// los bloqueos duran hasta el fin de la transacción.
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador. Pasar la tx del TxRunner.
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// Lock toma un advisory lock de transacción por ubicación, en el orden recibido.
// Cubre también ubicaciones sin fila, donde SELECT FOR UPDATE no bloquearía nada.
func (r *InventoryRecordRepo) Lock(ctx context.Context, keys []entity.LocationKey) error {
	for _, k := range keys {
		if _, err := r.q.Exec(ctx,
			`SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockName(k)); err != nil {
			return classify("lock "+k.String(), err)
		}
	}
	return nil
}

// Get obtiene el registro de la ubicación con SELECT FOR UPDATE, o nil si no existe.
func (r *InventoryRecordRepo) Get(ctx context.Context, key entity.LocationKey) (*entity.InventoryRecord, error) {
	query := `
		SELECT quantity, reserved_quantity, updated_at
		FROM inventory_records
		WHERE product_id = $1 AND warehouse_id = $2 AND zone_id = $3 AND cell_id = $4
		FOR UPDATE`
	rec := entity.InventoryRecord{Key: key}
	err := r.q.QueryRow(ctx, query, key.ProductID, key.WarehouseID, key.ZoneID, key.CellID).
		Scan(&rec.Quantity, &rec.ReservedQuantity, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get inventory record", err)
	}
	return &rec, nil
}

// Upsert aplica el parche sobre el estado actual y escribe el resultado absoluto.
// El cálculo pasa por rules.Next; el CHECK de la tabla es la última barrera.
func (r *InventoryRecordRepo) Upsert(ctx context.Context, key entity.LocationKey, delta entity.RecordDelta) (*entity.InventoryRecord, error) {
	current, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	next, err := rules.Next(key, current, delta)
	if err != nil {
		return nil, err
	}
	query := `
		INSERT INTO inventory_records (product_id, warehouse_id, zone_id, cell_id, quantity, reserved_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (product_id, warehouse_id, zone_id, cell_id) DO UPDATE
		SET quantity = EXCLUDED.quantity,
		    reserved_quantity = EXCLUDED.reserved_quantity,
		    updated_at = EXCLUDED.updated_at
		RETURNING updated_at`
	err = r.q.QueryRow(ctx, query,
		key.ProductID, key.WarehouseID, key.ZoneID, key.CellID, next.Quantity, next.ReservedQuantity,
	).Scan(&next.UpdatedAt)
	if err != nil {
		return nil, classify("upsert inventory record", err)
	}
	return &next, nil
}

// DeleteIfEmpty elimina el registro solo si quedó en (0,0).
func (r *InventoryRecordRepo) DeleteIfEmpty(ctx context.Context, key entity.LocationKey) (bool, error) {
	tag, err := r.q.Exec(ctx, `
		DELETE FROM inventory_records
		WHERE product_id = $1 AND warehouse_id = $2 AND zone_id = $3 AND cell_id = $4
		  AND quantity = 0 AND reserved_quantity = 0`,
		key.ProductID, key.WarehouseID, key.ZoneID, key.CellID)
	if err != nil {
		return false, classify("delete empty inventory record", err)
	}
	return tag.RowsAffected() > 0, nil
}

func lockName(k entity.LocationKey) string {
	return "inventory_record:" + k.String()
}
