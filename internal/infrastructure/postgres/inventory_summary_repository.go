package postgres

import (
	"context"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var _ repository.InventorySummaryRepository = (*InventorySummaryRepo)(nil)

// InventorySummaryRepo lecturas agregadas sobre el pool (read committed, sin bloqueos).
type InventorySummaryRepo struct {
	q Querier
}

// NewInventorySummaryRepository construye el adaptador de lectura.
func NewInventorySummaryRepository(q Querier) *InventorySummaryRepo {
	return &InventorySummaryRepo{q: q}
}

// ListRecordsByProduct lista los registros de un producto en todas sus ubicaciones.
func (r *InventorySummaryRepo) ListRecordsByProduct(ctx context.Context, productID int64) ([]*entity.InventoryRecord, error) {
	query := `
		SELECT product_id, warehouse_id, zone_id, cell_id, quantity, reserved_quantity, updated_at
		FROM inventory_records
		WHERE product_id = $1
		ORDER BY warehouse_id, zone_id, cell_id`
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, classify("list records by product", err)
	}
	defer rows.Close()
	var list []*entity.InventoryRecord
	for rows.Next() {
		var rec entity.InventoryRecord
		if err := rows.Scan(&rec.Key.ProductID, &rec.Key.WarehouseID, &rec.Key.ZoneID, &rec.Key.CellID,
			&rec.Quantity, &rec.ReservedQuantity, &rec.UpdatedAt); err != nil {
			return nil, classify("scan inventory record", err)
		}
		list = append(list, &rec)
	}
	return list, classify("list records by product", rows.Err())
}

// GetProductsBelowMinimum agrega el disponible por producto (LEFT JOIN: un producto sin registros
// tiene disponible 0) y devuelve los que están bajo su mínimo, mayor déficit primero.
// coverage_pct llega como NUMERIC y se escanea a decimal.Decimal (pgx-shopspring-decimal).
func (r *InventorySummaryRepo) GetProductsBelowMinimum(ctx context.Context, enterpriseID int64) ([]repository.LowStockItem, error) {
	query := `
		WITH totals AS (
			SELECT p.id, p.sku, p.name, p.min_quantity,
			       COALESCE(SUM(ir.quantity), 0)::bigint          AS total_qty,
			       COALESCE(SUM(ir.reserved_quantity), 0)::bigint AS total_reserved
			FROM products p
			LEFT JOIN inventory_records ir ON ir.product_id = p.id
			WHERE p.enterprise_id = $1 AND p.min_quantity > 0
			GROUP BY p.id, p.sku, p.name, p.min_quantity
		)
		SELECT id, sku, name, min_quantity, total_qty, total_reserved,
		       CASE WHEN total_qty - total_reserved <= 0 THEN 0::numeric
		            ELSE ROUND((total_qty - total_reserved)::numeric * 100 / min_quantity, 2)
		       END AS coverage_pct
		FROM totals
		WHERE total_qty - total_reserved < min_quantity
		ORDER BY min_quantity - (total_qty - total_reserved) DESC, id ASC`
	rows, err := r.q.Query(ctx, query, enterpriseID)
	if err != nil {
		return nil, classify("products below minimum", err)
	}
	defer rows.Close()
	var list []repository.LowStockItem
	for rows.Next() {
		var it repository.LowStockItem
		if err := rows.Scan(&it.ProductID, &it.SKU, &it.ProductName, &it.MinQuantity,
			&it.TotalQuantity, &it.TotalReserved, &it.CoveragePct); err != nil {
			return nil, classify("scan low stock item", err)
		}
		list = append(list, it)
	}
	return list, classify("products below minimum", rows.Err())
}
