package inventory

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// Reglas de saldo del ledger (servicio de dominio, sin I/O).
// rec puede ser nil: una ubicación sin registro equivale a (0,0).

// CheckAvailable verifica que qty no supere el disponible (cantidad - reservado) de la ubicación.
// Aplica a salidas, traslados (origen) y reservas.
func CheckAvailable(key entity.LocationKey, rec *entity.InventoryRecord, qty int64) error {
	if available := rec.Available(); qty > available {
		return &domain.StockError{Location: key.String(), Requested: qty, Available: available}
	}
	return nil
}

// CheckRelease verifica que exista el registro y que no se libere más de lo reservado.
func CheckRelease(key entity.LocationKey, rec *entity.InventoryRecord, qty int64) error {
	if rec == nil {
		return fmt.Errorf("%w: sin registro de inventario en %s", domain.ErrNotFound, key)
	}
	if qty > rec.ReservedQuantity {
		return domain.Invalid("no se puede liberar %d en %s: reservado %d", qty, key, rec.ReservedQuantity)
	}
	return nil
}

// AdjustDelta calcula el parche para llevar la cantidad al conteo absoluto newQty.
// Falla si el conteo queda por debajo de lo ya reservado.
func AdjustDelta(key entity.LocationKey, rec *entity.InventoryRecord, newQty int64) (entity.RecordDelta, error) {
	var current, reserved int64
	if rec != nil {
		current, reserved = rec.Quantity, rec.ReservedQuantity
	}
	if newQty < reserved {
		return entity.RecordDelta{}, domain.Invalid("conteo %d en %s por debajo de lo reservado %d", newQty, key, reserved)
	}
	return entity.RecordDelta{Quantity: newQty - current}, nil
}

// Next aplica el parche sobre el registro y verifica las invariantes del resultado.
// Lo usan los adaptadores como última barrera antes de escribir.
func Next(key entity.LocationKey, rec *entity.InventoryRecord, d entity.RecordDelta) (entity.InventoryRecord, error) {
	next := entity.InventoryRecord{Key: key}
	if rec != nil {
		next = *rec
	}
	next.Quantity += d.Quantity
	next.ReservedQuantity += d.Reserved
	if next.Quantity < 0 || next.ReservedQuantity < 0 || next.ReservedQuantity > next.Quantity {
		return entity.InventoryRecord{}, domain.Invalid("saldo inválido en %s: cantidad %d, reservado %d",
			key, next.Quantity, next.ReservedQuantity)
	}
	return next, nil
}

// CoveragePct porcentaje del mínimo cubierto por el disponible, redondeado a 2 decimales.
// Un disponible negativo o un mínimo no configurado devuelven cero.
func CoveragePct(available, minQuantity int64) decimal.Decimal {
	if minQuantity <= 0 || available <= 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(available).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(minQuantity)).
		Round(2)
}
