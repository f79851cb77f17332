package entity

import "fmt"

// LocationKey identifica un "bucket" de stock: producto + bodega + zona + celda.
// ZoneID y CellID en cero significan "sin zona" / "sin celda" (nivel bodega).
// Es comparable, por lo que sirve como clave de mapa y como unidad de bloqueo.
type LocationKey struct {
	ProductID   int64
	WarehouseID int64
	ZoneID      int64
	CellID      int64
}

// Slot es la parte zona/celda de una ubicación dentro de una bodega.
type Slot struct {
	ZoneID int64 `json:"zone_id,omitempty"`
	CellID int64 `json:"cell_id,omitempty"`
}

// Key construye la clave de ubicación para un producto y bodega en el slot indicado.
func (s Slot) Key(productID, warehouseID int64) LocationKey {
	return LocationKey{ProductID: productID, WarehouseID: warehouseID, ZoneID: s.ZoneID, CellID: s.CellID}
}

// Slot devuelve la parte zona/celda de la clave.
func (k LocationKey) Slot() Slot {
	return Slot{ZoneID: k.ZoneID, CellID: k.CellID}
}

// Less define el orden total (producto, bodega, zona, celda) usado para bloquear
// varias ubicaciones siempre en la misma secuencia.
func (k LocationKey) Less(o LocationKey) bool {
	if k.ProductID != o.ProductID {
		return k.ProductID < o.ProductID
	}
	if k.WarehouseID != o.WarehouseID {
		return k.WarehouseID < o.WarehouseID
	}
	if k.ZoneID != o.ZoneID {
		return k.ZoneID < o.ZoneID
	}
	return k.CellID < o.CellID
}

// String forma canónica p:w:z:c.
func (k LocationKey) String() string {
	return fmt.Sprintf("%d:%d:%d:%d", k.ProductID, k.WarehouseID, k.ZoneID, k.CellID)
}

// Valid indica si la clave tiene producto y bodega y no contiene ids negativos.
func (k LocationKey) Valid() bool {
	return k.ProductID > 0 && k.WarehouseID > 0 && k.ZoneID >= 0 && k.CellID >= 0
}
