package repository

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// MovementReader lecturas del ledger de movimientos, fuera de las transacciones del coordinador.
type MovementReader interface {
	// ListByProduct lista movimientos de un producto en orden cronológico inverso.
	ListByProduct(ctx context.Context, productID int64, from, to *time.Time, limit, offset int) ([]*entity.InventoryMovement, error)
	// ListByProductBefore pagina por clave: movimientos con ID < beforeID (0 = sin cota),
	// de mayor a menor ID. Las inserciones concurrentes no desplazan las páginas ya leídas.
	ListByProductBefore(ctx context.Context, productID, beforeID int64, limit int) ([]*entity.InventoryMovement, error)
}

// InventoryMovementRepository define el puerto de persistencia del ledger de movimientos.
// Solo admite inserciones y lecturas: un movimiento nunca se actualiza ni se elimina.
// Append solo se obtiene atado a la transacción de TxRunner.Run.
type InventoryMovementRepository interface {
	MovementReader
	// Append inserta el movimiento y le asigna su ID creciente.
	Append(ctx context.Context, movement *entity.InventoryMovement) error
}
