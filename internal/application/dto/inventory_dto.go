package dto

import (
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LocationRequest ubicación dentro de una bodega (zona/celda opcionales, 0 = sin zona/celda).
type LocationRequest struct {
	ZoneID int64 `json:"zone_id,omitempty"`
	CellID int64 `json:"cell_id,omitempty"`
}

// MovementRequest body para POST /api/inventory/receipts y /api/inventory/issues.
type MovementRequest struct {
	ProductID   int64  `json:"product_id"`
	WarehouseID int64  `json:"warehouse_id"`
	ZoneID      int64  `json:"zone_id,omitempty"`
	CellID      int64  `json:"cell_id,omitempty"`
	Quantity    int64  `json:"quantity"`
	ReferenceID string `json:"reference_id,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// TransferRequest body para POST /api/inventory/transfers.
type TransferRequest struct {
	ProductID   int64           `json:"product_id"`
	WarehouseID int64           `json:"warehouse_id"`
	From        LocationRequest `json:"from"`
	To          LocationRequest `json:"to"`
	Quantity    int64           `json:"quantity"`
	ReferenceID string          `json:"reference_id,omitempty"`
	Comment     string          `json:"comment,omitempty"`
}

// AdjustRequest body para POST /api/inventory/adjustments (conteo absoluto).
type AdjustRequest struct {
	ProductID   int64  `json:"product_id"`
	WarehouseID int64  `json:"warehouse_id"`
	ZoneID      int64  `json:"zone_id,omitempty"`
	CellID      int64  `json:"cell_id,omitempty"`
	NewQuantity int64  `json:"new_quantity"`
	ReferenceID string `json:"reference_id,omitempty"`
	Comment     string `json:"comment,omitempty"`
}

// ReservationRequest body para POST /api/inventory/reservations y /api/inventory/releases.
type ReservationRequest struct {
	ProductID   int64 `json:"product_id"`
	WarehouseID int64 `json:"warehouse_id"`
	ZoneID      int64 `json:"zone_id,omitempty"`
	CellID      int64 `json:"cell_id,omitempty"`
	Quantity    int64 `json:"quantity"`
}

// MinimumQuantityRequest body para PUT /api/inventory/products/:id/minimum.
type MinimumQuantityRequest struct {
	MinQuantity int64 `json:"min_quantity"`
}

// CompleteRequestBody body para POST /api/inventory/requests: completa una solicitud
// (SUPPLY, TRANSFER, INVENTORY_COUNT, WRITE_OFF). Los campos de cada ítem dependen del tipo.
type CompleteRequestBody struct {
	ID          string           `json:"id"`
	Kind        string           `json:"kind"`
	WarehouseID int64            `json:"warehouse_id"`
	Reason      string           `json:"reason,omitempty"`
	Items       []RequestItemDTO `json:"items"`
}

// RequestItemDTO línea de una solicitud.
type RequestItemDTO struct {
	ProductID       int64            `json:"product_id"`
	ZoneID          int64            `json:"zone_id,omitempty"`
	CellID          int64            `json:"cell_id,omitempty"`
	From            *LocationRequest `json:"from,omitempty"`
	To              *LocationRequest `json:"to,omitempty"`
	Quantity        int64            `json:"quantity,omitempty"`
	CountedQuantity *int64           `json:"counted_quantity,omitempty"`
}

// MovementDTO movimiento del ledger en respuestas.
type MovementDTO struct {
	ID           int64            `json:"id"`
	OperationID  string           `json:"operation_id"`
	EnterpriseID int64            `json:"enterprise_id"`
	ProductID    int64            `json:"product_id"`
	WarehouseID  int64            `json:"warehouse_id"`
	Source       *LocationRequest `json:"source,omitempty"`
	Destination  *LocationRequest `json:"destination,omitempty"`
	Quantity     int64            `json:"quantity"`
	Type         string           `json:"type"`
	ReferenceID  string           `json:"reference_id,omitempty"`
	Comment      string           `json:"comment,omitempty"`
	Actor        int64            `json:"actor"`
	CreatedAt    time.Time        `json:"created_at"`
}

// RecordDTO saldo de una ubicación en respuestas.
type RecordDTO struct {
	ProductID         int64     `json:"product_id"`
	WarehouseID       int64     `json:"warehouse_id"`
	ZoneID            int64     `json:"zone_id,omitempty"`
	CellID            int64     `json:"cell_id,omitempty"`
	Quantity          int64     `json:"quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// OperationResultDTO respuesta de una operación confirmada del ledger.
type OperationResultDTO struct {
	OperationID string        `json:"operation_id"`
	Movements   []MovementDTO `json:"movements"`
	Records     []RecordDTO   `json:"records"`
}

// LocationBalanceDTO detalle por ubicación del resumen de un producto.
type LocationBalanceDTO struct {
	WarehouseID       int64     `json:"warehouse_id"`
	ZoneID            int64     `json:"zone_id,omitempty"`
	CellID            int64     `json:"cell_id,omitempty"`
	Quantity          int64     `json:"quantity"`
	ReservedQuantity  int64     `json:"reserved_quantity"`
	AvailableQuantity int64     `json:"available_quantity"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// ProductSummaryDTO totales agregados de un producto en todas sus ubicaciones.
type ProductSummaryDTO struct {
	ProductID         int64                `json:"product_id"`
	TotalQuantity     int64                `json:"total_quantity"`
	TotalReserved     int64                `json:"total_reserved"`
	AvailableQuantity int64                `json:"available_quantity"`
	Locations         []LocationBalanceDTO `json:"locations"`
}

// LowStockProductDTO producto con disponible por debajo de su mínimo configurado.
type LowStockProductDTO struct {
	ProductID         int64           `json:"product_id"`
	SKU               string          `json:"sku"`
	ProductName       string          `json:"product_name"`
	TotalQuantity     int64           `json:"total_quantity"`
	TotalReserved     int64           `json:"total_reserved"`
	AvailableQuantity int64           `json:"available_quantity"`
	MinQuantity       int64           `json:"min_quantity"`
	Deficit           int64           `json:"deficit"`      // MinQuantity - AvailableQuantity
	CoveragePct       decimal.Decimal `json:"coverage_pct"` // % del mínimo cubierto
}

// AuditDiscrepancyDTO ubicación cuya cantidad reconstruida del ledger no coincide con el registro.
type AuditDiscrepancyDTO struct {
	WarehouseID    int64 `json:"warehouse_id"`
	ZoneID         int64 `json:"zone_id,omitempty"`
	CellID         int64 `json:"cell_id,omitempty"`
	LedgerQuantity int64 `json:"ledger_quantity"`
	RecordQuantity int64 `json:"record_quantity"`
}

// AuditReportDTO resultado de reconstruir el stock de un producto desde el ledger.
type AuditReportDTO struct {
	ProductID     int64                 `json:"product_id"`
	Consistent    bool                  `json:"consistent"`
	MovementsRead int                   `json:"movements_read"`
	LocationsRead int                   `json:"locations_read"`
	Discrepancies []AuditDiscrepancyDTO `json:"discrepancies"`
}

// MovementFromEntity convierte un movimiento del dominio a su DTO.
func MovementFromEntity(m *entity.InventoryMovement) MovementDTO {
	out := MovementDTO{
		ID:           m.ID,
		OperationID:  m.OperationID,
		EnterpriseID: m.EnterpriseID,
		ProductID:    m.ProductID,
		WarehouseID:  m.WarehouseID,
		Quantity:     m.Quantity,
		Type:         string(m.Type),
		ReferenceID:  m.ReferenceID,
		Comment:      m.Comment,
		Actor:        m.Actor,
		CreatedAt:    m.CreatedAt,
	}
	if m.Source != nil {
		out.Source = &LocationRequest{ZoneID: m.Source.ZoneID, CellID: m.Source.CellID}
	}
	if m.Destination != nil {
		out.Destination = &LocationRequest{ZoneID: m.Destination.ZoneID, CellID: m.Destination.CellID}
	}
	return out
}

// MovementsFromEntities convierte una lista de movimientos (nunca devuelve nil).
func MovementsFromEntities(list []*entity.InventoryMovement) []MovementDTO {
	out := make([]MovementDTO, 0, len(list))
	for _, m := range list {
		out = append(out, MovementFromEntity(m))
	}
	return out
}

// RecordFromEntity convierte un registro de inventario a su DTO.
func RecordFromEntity(r *entity.InventoryRecord) RecordDTO {
	return RecordDTO{
		ProductID:         r.Key.ProductID,
		WarehouseID:       r.Key.WarehouseID,
		ZoneID:            r.Key.ZoneID,
		CellID:            r.Key.CellID,
		Quantity:          r.Quantity,
		ReservedQuantity:  r.ReservedQuantity,
		AvailableQuantity: r.Available(),
		UpdatedAt:         r.UpdatedAt,
	}
}

// RecordsFromEntities convierte una lista de registros (nunca devuelve nil).
func RecordsFromEntities(list []*entity.InventoryRecord) []RecordDTO {
	out := make([]RecordDTO, 0, len(list))
	for _, r := range list {
		out = append(out, RecordFromEntity(r))
	}
	return out
}
