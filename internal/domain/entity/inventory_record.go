package entity

import "time"

// InventoryRecord representa el stock físico y reservado de un producto en una ubicación.
// Invariantes: Quantity >= 0 y 0 <= ReservedQuantity <= Quantity.
// Un registro en (0,0) no aporta información y se elimina.
type InventoryRecord struct {
	Key              LocationKey
	Quantity         int64
	ReservedQuantity int64
	UpdatedAt        time.Time
}

// Available devuelve el stock no comprometido por reservas.
func (r *InventoryRecord) Available() int64 {
	if r == nil {
		return 0
	}
	return r.Quantity - r.ReservedQuantity
}

// Empty indica si el registro quedó en (0,0) y puede eliminarse.
func (r *InventoryRecord) Empty() bool {
	return r == nil || (r.Quantity == 0 && r.ReservedQuantity == 0)
}

// RecordDelta es el parche tipado que acepta el Record Store: variaciones de cantidad
// física y reservada aplicadas en una sola escritura.
type RecordDelta struct {
	Quantity int64
	Reserved int64
}

// IsZero indica si el parche no modifica nada.
func (d RecordDelta) IsZero() bool {
	return d.Quantity == 0 && d.Reserved == 0
}
