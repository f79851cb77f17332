package repository

import (
	"context"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// InventoryRecordRepository define el puerto del Record Store. Solo se usa atado a una
// transacción abierta por el coordinador del ledger (TxRunner).
type InventoryRecordRepository interface {
	// Lock toma un bloqueo exclusivo por clave, en el orden recibido, hasta el fin de la transacción.
	// Bloquea también claves sin registro para que dos altas concurrentes no se pisen.
	Lock(ctx context.Context, keys []entity.LocationKey) error
	// Get devuelve el registro o nil si la ubicación no tiene stock.
	Get(ctx context.Context, key entity.LocationKey) (*entity.InventoryRecord, error)
	// Upsert aplica el parche sobre el registro (creándolo si no existe) y devuelve el estado nuevo.
	Upsert(ctx context.Context, key entity.LocationKey, delta entity.RecordDelta) (*entity.InventoryRecord, error)
	// DeleteIfEmpty elimina el registro si quedó en (0,0). Devuelve true si lo eliminó.
	DeleteIfEmpty(ctx context.Context, key entity.LocationKey) (bool, error)
}
