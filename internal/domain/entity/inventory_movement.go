package entity

import "time"

// MovementType tipo de movimiento registrado en el ledger.
type MovementType string

// Tipos de movimiento de inventario.
const (
	MovementTypeReceipt    MovementType = "RECEIPT"    // entrada
	MovementTypeIssue      MovementType = "ISSUE"      // salida
	MovementTypeTransfer   MovementType = "TRANSFER"   // traslado entre zonas/celdas
	MovementTypeAdjustment MovementType = "ADJUSTMENT" // ajuste por conteo físico
)

// Valid indica si el tipo pertenece al conjunto cerrado de movimientos.
func (t MovementType) Valid() bool {
	switch t {
	case MovementTypeReceipt, MovementTypeIssue, MovementTypeTransfer, MovementTypeAdjustment:
		return true
	}
	return false
}

// InventoryMovement es un hecho inmutable del ledger. Quantity siempre es positivo;
// la dirección la indica qué lado está presente: Source (sale de) y/o Destination (entra a).
// Un ajuste a la baja lleva Source; un ajuste al alza lleva Destination.
type InventoryMovement struct {
	ID           int64
	OperationID  string // agrupa los movimientos de una misma transacción del ledger
	EnterpriseID int64
	ProductID    int64
	WarehouseID  int64
	Source       *Slot
	Destination  *Slot
	Quantity     int64
	Type         MovementType
	ReferenceID  string
	Comment      string
	Actor        int64 // 0 = sistema
	CreatedAt    time.Time
}

// SignedQuantity devuelve el efecto neto del movimiento sobre la ubicación indicada.
func (m *InventoryMovement) SignedQuantity(key LocationKey) int64 {
	if key.ProductID != m.ProductID || key.WarehouseID != m.WarehouseID {
		return 0
	}
	var delta int64
	if m.Source != nil && *m.Source == key.Slot() {
		delta -= m.Quantity
	}
	if m.Destination != nil && *m.Destination == key.Slot() {
		delta += m.Quantity
	}
	return delta
}
