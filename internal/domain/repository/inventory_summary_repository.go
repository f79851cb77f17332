package repository

import (
	"context"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// LowStockItem resultado crudo del repositorio para un producto bajo su mínimo.
type LowStockItem struct {
	ProductID     int64
	SKU           string
	ProductName   string
	TotalQuantity int64
	TotalReserved int64
	MinQuantity   int64
	// CoveragePct porcentaje del mínimo cubierto por el stock disponible (puede venir vacío
	// si el adaptador no lo calcula; el caso de uso lo completa).
	CoveragePct decimal.Decimal
}

// Available stock disponible agregado.
func (i LowStockItem) Available() int64 {
	return i.TotalQuantity - i.TotalReserved
}

// Deficit cuánto falta para llegar al mínimo.
func (i LowStockItem) Deficit() int64 {
	return i.MinQuantity - i.Available()
}

// InventorySummaryRepository puerto de lectura (read committed) para proyecciones agregadas.
// No participa de las transacciones del ledger.
type InventorySummaryRepository interface {
	ListRecordsByProduct(ctx context.Context, productID int64) ([]*entity.InventoryRecord, error)
	// GetProductsBelowMinimum devuelve los productos del tenant cuyo disponible agregado es
	// inferior a su mínimo configurado, ordenados por mayor déficit primero.
	GetProductsBelowMinimum(ctx context.Context, enterpriseID int64) ([]LowStockItem, error)
}
