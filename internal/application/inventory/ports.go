package inventory

import (
	"context"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Garantiza atomicidad para el ledger: si fn devuelve error nada de lo escrito queda visible.
// Los conflictos de concurrencia se devuelven como domain.ErrConflict, sin reintentos.
type TxRunner interface {
	Run(ctx context.Context, fn func(
		records repository.InventoryRecordRepository,
		movements repository.InventoryMovementRepository,
	) error) error
}

// MovementPublisher notifica movimientos ya confirmados a otros sistemas.
type MovementPublisher interface {
	PublishMovements(ctx context.Context, movements []*entity.InventoryMovement) error
}

// Metrics registra el resultado de cada llamada al ledger.
type Metrics interface {
	ObserveOperation(kind string, outcome string, elapsed time.Duration)
}

type noopPublisher struct{}

func (noopPublisher) PublishMovements(context.Context, []*entity.InventoryMovement) error { return nil }

type noopMetrics struct{}

func (noopMetrics) ObserveOperation(string, string, time.Duration) {}
