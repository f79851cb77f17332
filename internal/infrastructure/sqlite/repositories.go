package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	rules "github.com/jhoicas/almacen-ledger/internal/domain/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var (
	_ repository.InventoryRecordRepository   = (*InventoryRecordRepo)(nil)
	_ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)
	_ repository.InventorySummaryRepository  = (*InventorySummaryRepo)(nil)
	_ repository.ProductRepository           = (*ProductRepo)(nil)
)

// ─── Registros ─────────────────────────────────────────────────────────────────

// InventoryRecordRepo Record Store sobre SQLite (atado a la tx de Store.Run).
type InventoryRecordRepo struct {
	q Querier
}

// NewInventoryRecordRepository construye el adaptador.
func NewInventoryRecordRepository(q Querier) *InventoryRecordRepo {
	return &InventoryRecordRepo{q: q}
}

// Lock no hace nada: BEGIN IMMEDIATE ya tomó el bloqueo de escritura de la base.
func (r *InventoryRecordRepo) Lock(ctx context.Context, keys []entity.LocationKey) error {
	return ctx.Err()
}

func (r *InventoryRecordRepo) Get(ctx context.Context, key entity.LocationKey) (*entity.InventoryRecord, error) {
	rec := entity.InventoryRecord{Key: key}
	var updated int64
	err := r.q.QueryRowContext(ctx, `
		SELECT quantity, reserved_quantity, updated_at FROM inventory_records
		WHERE product_id = ? AND warehouse_id = ? AND zone_id = ? AND cell_id = ?`,
		key.ProductID, key.WarehouseID, key.ZoneID, key.CellID,
	).Scan(&rec.Quantity, &rec.ReservedQuantity, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get inventory record", err)
	}
	rec.UpdatedAt = fromMicros(updated)
	return &rec, nil
}

func (r *InventoryRecordRepo) Upsert(ctx context.Context, key entity.LocationKey, delta entity.RecordDelta) (*entity.InventoryRecord, error) {
	current, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	next, err := rules.Next(key, current, delta)
	if err != nil {
		return nil, err
	}
	next.UpdatedAt = time.Now().UTC()
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO inventory_records (product_id, warehouse_id, zone_id, cell_id, quantity, reserved_quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (product_id, warehouse_id, zone_id, cell_id) DO UPDATE
		SET quantity = excluded.quantity, reserved_quantity = excluded.reserved_quantity, updated_at = excluded.updated_at`,
		key.ProductID, key.WarehouseID, key.ZoneID, key.CellID, next.Quantity, next.ReservedQuantity, toMicros(next.UpdatedAt))
	if err != nil {
		return nil, classify("upsert inventory record", err)
	}
	return &next, nil
}

func (r *InventoryRecordRepo) DeleteIfEmpty(ctx context.Context, key entity.LocationKey) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		DELETE FROM inventory_records
		WHERE product_id = ? AND warehouse_id = ? AND zone_id = ? AND cell_id = ?
		  AND quantity = 0 AND reserved_quantity = 0`,
		key.ProductID, key.WarehouseID, key.ZoneID, key.CellID)
	if err != nil {
		return false, classify("delete empty inventory record", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, classify("delete empty inventory record", err)
	}
	return n > 0, nil
}

// ─── Movimientos ───────────────────────────────────────────────────────────────

// InventoryMovementRepo ledger de movimientos sobre SQLite.
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador (DB o tx).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

func (r *InventoryMovementRepo) Append(ctx context.Context, m *entity.InventoryMovement) error {
	if !m.Type.Valid() {
		return domain.Invalid("tipo de movimiento desconocido %q", m.Type)
	}
	srcZone, srcCell := slotColumns(m.Source)
	dstZone, dstCell := slotColumns(m.Destination)
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO inventory_movements (operation_id, enterprise_id, product_id, warehouse_id,
			source_zone_id, source_cell_id, dest_zone_id, dest_cell_id,
			quantity, type, reference_id, comment, actor, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.OperationID, m.EnterpriseID, m.ProductID, m.WarehouseID,
		srcZone, srcCell, dstZone, dstCell,
		m.Quantity, string(m.Type), nullString(m.ReferenceID), nullString(m.Comment), m.Actor, toMicros(m.CreatedAt))
	if err != nil {
		return classify("create inventory movement", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return classify("create inventory movement", err)
	}
	m.ID = id
	return nil
}

const movementColumns = `id, operation_id, enterprise_id, product_id, warehouse_id,
	source_zone_id, source_cell_id, dest_zone_id, dest_cell_id,
	quantity, type, reference_id, comment, actor, created_at`

func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE product_id = ?`
	args := []any{productID}
	if from != nil {
		query += " AND created_at >= ?"
		args = append(args, toMicros(*from))
	}
	if to != nil {
		query += " AND created_at <= ?"
		args = append(args, toMicros(*to))
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)
	return r.list(ctx, query, args...)
}

// ListByProductBefore página por clave (id DESC) usada por la auditoría.
func (r *InventoryMovementRepo) ListByProductBefore(ctx context.Context, productID, beforeID int64, limit int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE product_id = ? AND (? = 0 OR id < ?)
		ORDER BY id DESC LIMIT ?`
	return r.list(ctx, query, productID, beforeID, beforeID, limit)
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("list movements by product", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		var (
			m                  entity.InventoryMovement
			srcZone, srcCell   sql.NullInt64
			dstZone, dstCell   sql.NullInt64
			typ                string
			reference, comment sql.NullString
			created            int64
		)
		if err := rows.Scan(&m.ID, &m.OperationID, &m.EnterpriseID, &m.ProductID, &m.WarehouseID,
			&srcZone, &srcCell, &dstZone, &dstCell,
			&m.Quantity, &typ, &reference, &comment, &m.Actor, &created); err != nil {
			return nil, classify("scan movement", err)
		}
		m.Type = entity.MovementType(typ)
		m.Source = slotFromColumns(srcZone, srcCell)
		m.Destination = slotFromColumns(dstZone, dstCell)
		m.ReferenceID = reference.String
		m.Comment = comment.String
		m.CreatedAt = fromMicros(created)
		list = append(list, &m)
	}
	return list, classify("list movements by product", rows.Err())
}

// ─── Lecturas agregadas ────────────────────────────────────────────────────────

// InventorySummaryRepo proyecciones de lectura sobre SQLite.
type InventorySummaryRepo struct {
	q Querier
}

// NewInventorySummaryRepository construye el adaptador de lectura.
func NewInventorySummaryRepository(q Querier) *InventorySummaryRepo {
	return &InventorySummaryRepo{q: q}
}

func (r *InventorySummaryRepo) ListRecordsByProduct(ctx context.Context, productID int64) ([]*entity.InventoryRecord, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT product_id, warehouse_id, zone_id, cell_id, quantity, reserved_quantity, updated_at
		FROM inventory_records WHERE product_id = ?
		ORDER BY warehouse_id, zone_id, cell_id`, productID)
	if err != nil {
		return nil, classify("list records by product", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		var rec entity.InventoryRecord
		var updated int64
		if err := rows.Scan(&rec.Key.ProductID, &rec.Key.WarehouseID, &rec.Key.ZoneID, &rec.Key.CellID,
			&rec.Quantity, &rec.ReservedQuantity, &updated); err != nil {
			return nil, classify("scan inventory record", err)
		}
		rec.UpdatedAt = fromMicros(updated)
		list = append(list, &rec)
	}
	return list, classify("list records by product", rows.Err())
}

// GetProductsBelowMinimum agrega el disponible por producto; el porcentaje de cobertura se
// calcula en Go (SQLite no tiene NUMERIC exacto).
func (r *InventorySummaryRepo) GetProductsBelowMinimum(ctx context.Context, enterpriseID int64) ([]repository.LowStockItem, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT p.id, p.sku, p.name, p.min_quantity,
		       COALESCE(SUM(ir.quantity), 0), COALESCE(SUM(ir.reserved_quantity), 0)
		FROM products p
		LEFT JOIN inventory_records ir ON ir.product_id = p.id
		WHERE p.enterprise_id = ? AND p.min_quantity > 0
		GROUP BY p.id, p.sku, p.name, p.min_quantity`, enterpriseID)
	if err != nil {
		return nil, classify("products below minimum", err)
	}
	defer rows.Close()
	var list []repository.LowStockItem
	for rows.Next() {
		var it repository.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.ProductName, &it.MinQuantity,
			&it.TotalQuantity, &it.TotalReserved); err != nil {
			return nil, classify("scan low stock item", err)
		}
		if it.Available() >= it.MinQuantity {
			continue
		}
		it.CoveragePct = rules.CoveragePct(it.Available(), it.MinQuantity)
		list = append(list, it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify("products below minimum", err)
	}
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Deficit() != list[j].Deficit() {
			return list[i].Deficit() > list[j].Deficit()
		}
		return list[i].ProductID < list[j].ProductID
	})
	return list, nil
}

// ─── Productos ─────────────────────────────────────────────────────────────────

// ProductRepo catálogo de productos sobre SQLite.
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador.
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Save inserta o actualiza un producto.
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product) error {
	p.UpdatedAt = time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO products (id, enterprise_id, sku, name, min_quantity, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE
		SET enterprise_id = excluded.enterprise_id, sku = excluded.sku, name = excluded.name,
		    min_quantity = excluded.min_quantity, updated_at = excluded.updated_at`,
		p.ID, p.EnterpriseID, p.SKU, p.Name, p.MinQuantity, toMicros(p.UpdatedAt))
	if err != nil {
		return classify("save product", err)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	var p entity.Product
	var updated int64
	err := r.q.QueryRowContext(ctx,
		`SELECT id, enterprise_id, sku, name, min_quantity, updated_at FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.EnterpriseID, &p.SKU, &p.Name, &p.MinQuantity, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product", err)
	}
	p.UpdatedAt = fromMicros(updated)
	return &p, nil
}

func (r *ProductRepo) UpdateMinQuantity(ctx context.Context, id int64, minQuantity int64) error {
	res, err := r.q.ExecContext(ctx,
		`UPDATE products SET min_quantity = ?, updated_at = ? WHERE id = ?`,
		minQuantity, toMicros(time.Now()), id)
	if err != nil {
		return classify("update min quantity", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return classify("update min quantity", err)
	}
	if n == 0 {
		return fmt.Errorf("producto %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

func slotColumns(s *entity.Slot) (zone, cell sql.NullInt64) {
	if s == nil {
		return zone, cell
	}
	return sql.NullInt64{Int64: s.ZoneID, Valid: true}, sql.NullInt64{Int64: s.CellID, Valid: true}
}

func slotFromColumns(zone, cell sql.NullInt64) *entity.Slot {
	if !zone.Valid && !cell.Valid {
		return nil
	}
	return &entity.Slot{ZoneID: zone.Int64, CellID: cell.Int64}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
