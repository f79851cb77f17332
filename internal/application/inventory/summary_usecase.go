package inventory

import (
	"context"
	"sort"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	rules "github.com/jhoicas/almacen-ledger/internal/domain/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

// SummaryUseCase proyecciones de solo lectura sobre los registros de inventario.
// Lee en read committed: son consultas orientativas, no hacen cumplir invariantes.
type SummaryUseCase struct {
	summaryRepo repository.InventorySummaryRepository
	productRepo repository.ProductRepository
}

// NewSummaryUseCase construye el agregador.
func NewSummaryUseCase(
	summaryRepo repository.InventorySummaryRepository,
	productRepo repository.ProductRepository,
) *SummaryUseCase {
	return &SummaryUseCase{summaryRepo: summaryRepo, productRepo: productRepo}
}

// SummaryForProduct totales de cantidad, reservado y disponible de un producto de la empresa
// con el detalle por ubicación. Un producto sin registros devuelve totales en cero y un detalle vacío.
func (uc *SummaryUseCase) SummaryForProduct(ctx context.Context, enterpriseID, productID int64) (*dto.ProductSummaryDTO, error) {
	if _, err := ownedProduct(ctx, uc.productRepo, enterpriseID, productID); err != nil {
		return nil, err
	}
	records, err := uc.summaryRepo.ListRecordsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	out := &dto.ProductSummaryDTO{
		ProductID: productID,
		Locations: make([]dto.LocationBalanceDTO, 0, len(records)),
	}
	for _, r := range records {
		out.TotalQuantity += r.Quantity
		out.TotalReserved += r.ReservedQuantity
		out.Locations = append(out.Locations, dto.LocationBalanceDTO{
			WarehouseID:       r.Key.WarehouseID,
			ZoneID:            r.Key.ZoneID,
			CellID:            r.Key.CellID,
			Quantity:          r.Quantity,
			ReservedQuantity:  r.ReservedQuantity,
			AvailableQuantity: r.Available(),
			UpdatedAt:         r.UpdatedAt,
		})
	}
	out.AvailableQuantity = out.TotalQuantity - out.TotalReserved
	sort.SliceStable(out.Locations, func(i, j int) bool {
		a, b := out.Locations[i], out.Locations[j]
		if a.WarehouseID != b.WarehouseID {
			return a.WarehouseID < b.WarehouseID
		}
		if a.ZoneID != b.ZoneID {
			return a.ZoneID < b.ZoneID
		}
		return a.CellID < b.CellID
	})
	return out, nil
}

// LowStockProducts productos del tenant cuyo disponible agregado está bajo su mínimo,
// ordenados por mayor déficit primero (empate: product_id ascendente).
func (uc *SummaryUseCase) LowStockProducts(ctx context.Context, enterpriseID int64) ([]dto.LowStockProductDTO, error) {
	if enterpriseID <= 0 {
		return nil, domain.Invalid("enterprise_id inválido")
	}
	items, err := uc.summaryRepo.GetProductsBelowMinimum(ctx, enterpriseID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.LowStockProductDTO, 0, len(items))
	for _, it := range items {
		if it.Available() >= it.MinQuantity {
			continue
		}
		coverage := it.CoveragePct
		if coverage.IsZero() {
			coverage = rules.CoveragePct(it.Available(), it.MinQuantity)
		}
		out = append(out, dto.LowStockProductDTO{
			ProductID:         it.ProductID,
			SKU:               it.SKU,
			ProductName:       it.ProductName,
			TotalQuantity:     it.TotalQuantity,
			TotalReserved:     it.TotalReserved,
			AvailableQuantity: it.Available(),
			MinQuantity:       it.MinQuantity,
			Deficit:           it.Deficit(),
			CoveragePct:       coverage,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Deficit != out[j].Deficit {
			return out[i].Deficit > out[j].Deficit
		}
		return out[i].ProductID < out[j].ProductID
	})
	return out, nil
}

// SetMinimumQuantity configura el umbral mínimo de un producto del tenant (0 = sin umbral).
func (uc *SummaryUseCase) SetMinimumQuantity(ctx context.Context, enterpriseID, productID, minQuantity int64) error {
	if minQuantity < 0 {
		return domain.Invalid("el mínimo no puede ser negativo")
	}
	if _, err := ownedProduct(ctx, uc.productRepo, enterpriseID, productID); err != nil {
		return err
	}
	return uc.productRepo.UpdateMinQuantity(ctx, productID, minQuantity)
}
