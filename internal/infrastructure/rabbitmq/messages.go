package rabbitmq

import (
	"strings"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// Estados publicados en la cola de resultados de reserva.
const (
	StateReserved = "RESERVED"
	StateReleased = "RELEASED"
	StateFailed   = "FAILED"
)

// MovementEvent payload de un movimiento confirmado.
type MovementEvent struct {
	ID           int64        `json:"id"`
	OperationID  string       `json:"operation_id"`
	EnterpriseID int64        `json:"enterprise_id"`
	ProductID    int64        `json:"product_id"`
	WarehouseID  int64        `json:"warehouse_id"`
	Source       *entity.Slot `json:"source,omitempty"`
	Destination  *entity.Slot `json:"destination,omitempty"`
	Quantity     int64        `json:"quantity"`
	Type         string       `json:"type"`
	ReferenceID  string       `json:"reference_id,omitempty"`
	Comment      string       `json:"comment,omitempty"`
	Actor        int64        `json:"actor"`
	CreatedAt    time.Time    `json:"created_at"`
}

func movementEvent(m *entity.InventoryMovement) MovementEvent {
	return MovementEvent{
		ID:           m.ID,
		OperationID:  m.OperationID,
		EnterpriseID: m.EnterpriseID,
		ProductID:    m.ProductID,
		WarehouseID:  m.WarehouseID,
		Source:       m.Source,
		Destination:  m.Destination,
		Quantity:     m.Quantity,
		Type:         string(m.Type),
		ReferenceID:  m.ReferenceID,
		Comment:      m.Comment,
		Actor:        m.Actor,
		CreatedAt:    m.CreatedAt,
	}
}

// RoutingKey clave de ruteo del movimiento en el exchange topic, ej. movement.receipt.
func RoutingKey(t entity.MovementType) string {
	return "movement." + strings.ToLower(string(t))
}

// ReservationItem línea de una solicitud de reserva o liberación.
type ReservationItem struct {
	ProductID   int64 `json:"product_id"`
	WarehouseID int64 `json:"warehouse_id"`
	ZoneID      int64 `json:"zone_id,omitempty"`
	CellID      int64 `json:"cell_id,omitempty"`
	Quantity    int64 `json:"quantity"`
}

func (it ReservationItem) key() entity.LocationKey {
	return entity.LocationKey{
		ProductID:   it.ProductID,
		WarehouseID: it.WarehouseID,
		ZoneID:      it.ZoneID,
		CellID:      it.CellID,
	}
}

// ReservationRequest pedido de una empresa que solicita reservar (o liberar) sus líneas.
type ReservationRequest struct {
	OrderID      int64             `json:"order_id"`
	EnterpriseID int64             `json:"enterprise_id"`
	Items        []ReservationItem `json:"items"`
}

// ReservationResult respuesta a una solicitud de reserva o liberación.
type ReservationResult struct {
	OrderID int64  `json:"order_id"`
	Action  string `json:"action"`
	State   string `json:"state"`
	Reason  string `json:"reason,omitempty"`
}

// Acciones informadas en ReservationResult.
const (
	ActionReserve = "reserve"
	ActionRelease = "release"
)
