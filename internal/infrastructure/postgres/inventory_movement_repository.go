package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var _ repository.InventoryMovementRepository = (*InventoryMovementRepo)(nil)

// InventoryMovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type InventoryMovementRepo struct {
	q Querier
}

// NewInventoryMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewInventoryMovementRepository(q Querier) *InventoryMovementRepo {
	return &InventoryMovementRepo{q: q}
}

const movementColumns = `id, operation_id::text, enterprise_id, product_id, warehouse_id,
	source_zone_id, source_cell_id, dest_zone_id, dest_cell_id,
	quantity, type, reference_id, comment, actor, created_at`

// Append persiste un movimiento y le asigna su id.
func (r *InventoryMovementRepo) Append(ctx context.Context, m *entity.InventoryMovement) error {
	if !m.Type.Valid() {
		return domain.Invalid("tipo de movimiento desconocido %q", m.Type)
	}
	srcZone, srcCell := slotColumns(m.Source)
	dstZone, dstCell := slotColumns(m.Destination)
	query := `
		INSERT INTO inventory_movements (operation_id, enterprise_id, product_id, warehouse_id,
			source_zone_id, source_cell_id, dest_zone_id, dest_cell_id,
			quantity, type, reference_id, comment, actor, created_at)
		VALUES ($1::uuid, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`
	err := r.q.QueryRow(ctx, query,
		m.OperationID, m.EnterpriseID, m.ProductID, m.WarehouseID,
		srcZone, srcCell, dstZone, dstCell,
		m.Quantity, string(m.Type), nullString(m.ReferenceID), nullString(m.Comment), m.Actor, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return classify("create inventory movement", err)
	}
	return nil
}

// ListByProduct lista movimientos de un producto en un rango de fechas, más recientes primero.
func (r *InventoryMovementRepo) ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements WHERE product_id = $1`
	args := []any{productID}
	pos := 2
	if from != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", pos)
		args = append(args, *from)
		pos++
	}
	if to != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", pos)
		args = append(args, *to)
		pos++
	}
	query += fmt.Sprintf(" ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", pos, pos+1)
	args = append(args, limit, offset)

	return r.list(ctx, query, args...)
}

// ListByProductBefore página por clave (id DESC) usada por la auditoría.
func (r *InventoryMovementRepo) ListByProductBefore(ctx context.Context, productID, beforeID int64, limit int) ([]*entity.InventoryMovement, error) {
	query := `SELECT ` + movementColumns + ` FROM inventory_movements
		WHERE product_id = $1 AND ($2::bigint = 0 OR id < $2::bigint)
		ORDER BY id DESC LIMIT $3`
	return r.list(ctx, query, productID, beforeID, limit)
}

func (r *InventoryMovementRepo) list(ctx context.Context, query string, args ...any) ([]*entity.InventoryMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, classify("list movements by product", err)
	}
	defer rows.Close()
	var list []*entity.InventoryMovement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, classify("scan movement", err)
		}
		list = append(list, m)
	}
	return list, classify("list movements by product", rows.Err())
}

func scanMovement(rows pgx.Rows) (*entity.InventoryMovement, error) {
	var (
		m                  entity.InventoryMovement
		srcZone, srcCell   *int64
		dstZone, dstCell   *int64
		typ                string
		reference, comment *string
	)
	if err := rows.Scan(&m.ID, &m.OperationID, &m.EnterpriseID, &m.ProductID, &m.WarehouseID,
		&srcZone, &srcCell, &dstZone, &dstCell,
		&m.Quantity, &typ, &reference, &comment, &m.Actor, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = entity.MovementType(typ)
	m.Source = slotFromColumns(srcZone, srcCell)
	m.Destination = slotFromColumns(dstZone, dstCell)
	if reference != nil {
		m.ReferenceID = *reference
	}
	if comment != nil {
		m.Comment = *comment
	}
	return &m, nil
}

// slotColumns: lado involucrado = (zona, celda) con 0 si faltan; lado ausente = NULL.
func slotColumns(s *entity.Slot) (zone, cell *int64) {
	if s == nil {
		return nil, nil
	}
	z, c := s.ZoneID, s.CellID
	return &z, &c
}

func slotFromColumns(zone, cell *int64) *entity.Slot {
	if zone == nil && cell == nil {
		return nil
	}
	var s entity.Slot
	if zone != nil {
		s.ZoneID = *zone
	}
	if cell != nil {
		s.CellID = *cell
	}
	return &s
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
