package inventory

import (
	"context"
	"sort"
	"time"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

const (
	defaultHistoryLimit = 20
	auditPageSize       = 500
)

// HistoryUseCase lecturas del ledger de movimientos: historial paginado y verificación de auditoría.
// Solo lee: los movimientos los escribe únicamente el coordinador dentro de su transacción.
type HistoryUseCase struct {
	movementRepo repository.MovementReader
	summaryRepo  repository.InventorySummaryRepository
	productRepo  repository.ProductRepository
	maxLimit     int
}

// NewHistoryUseCase construye el caso de uso. maxLimit acota el tamaño de página (<= 0 usa 200).
func NewHistoryUseCase(
	movementRepo repository.MovementReader,
	summaryRepo repository.InventorySummaryRepository,
	productRepo repository.ProductRepository,
	maxLimit int,
) *HistoryUseCase {
	if maxLimit <= 0 {
		maxLimit = 200
	}
	return &HistoryUseCase{
		movementRepo: movementRepo,
		summaryRepo:  summaryRepo,
		productRepo:  productRepo,
		maxLimit:     maxLimit,
	}
}

// HistoryFor movimientos de un producto de la empresa en orden cronológico inverso,
// filtrados por rango de fechas.
func (uc *HistoryUseCase) HistoryFor(
	ctx context.Context,
	enterpriseID, productID int64,
	from, to *time.Time,
	limit, offset int,
) ([]*entity.InventoryMovement, error) {
	if from != nil && to != nil && from.After(*to) {
		return nil, domain.Invalid("rango de fechas invertido")
	}
	if offset < 0 {
		return nil, domain.Invalid("offset negativo")
	}
	if _, err := ownedProduct(ctx, uc.productRepo, enterpriseID, productID); err != nil {
		return nil, err
	}
	list, err := uc.movementRepo.ListByProduct(ctx, productID, from, to, uc.PageLimit(limit), offset)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []*entity.InventoryMovement{}
	}
	return list, nil
}

// PageLimit tamaño de página efectivo: 20 por defecto, acotado por maxLimit.
func (uc *HistoryUseCase) PageLimit(limit int) int {
	if limit <= 0 {
		return defaultHistoryLimit
	}
	if limit > uc.maxLimit {
		return uc.maxLimit
	}
	return limit
}

// Verify reconstruye la cantidad de cada ubicación del producto a partir del ledger
// (RECEIPT + ADJUSTMENT(+) + TRANSFER(in) - ISSUE - ADJUSTMENT(-) - TRANSFER(out)) y la compara
// con el registro actual. Pagina por ID, así que cada movimiento se cuenta una sola vez aunque
// haya inserciones concurrentes; aun así es una lectura orientativa y puede reportar diferencias
// transitorias si el registro cambia entre ambas lecturas.
func (uc *HistoryUseCase) Verify(ctx context.Context, enterpriseID, productID int64) (*dto.AuditReportDTO, error) {
	if _, err := ownedProduct(ctx, uc.productRepo, enterpriseID, productID); err != nil {
		return nil, err
	}
	ledger := make(map[entity.LocationKey]int64)
	movements := 0
	var before int64
	for {
		page, err := uc.movementRepo.ListByProductBefore(ctx, productID, before, auditPageSize)
		if err != nil {
			return nil, err
		}
		for _, m := range page {
			before = m.ID
			movements++
			if m.Source != nil {
				ledger[m.Source.Key(m.ProductID, m.WarehouseID)] -= m.Quantity
			}
			if m.Destination != nil {
				ledger[m.Destination.Key(m.ProductID, m.WarehouseID)] += m.Quantity
			}
		}
		if len(page) < auditPageSize {
			break
		}
	}

	records, err := uc.summaryRepo.ListRecordsByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	current := make(map[entity.LocationKey]int64, len(records))
	for _, r := range records {
		current[r.Key] = r.Quantity
	}

	keys := make([]entity.LocationKey, 0, len(ledger)+len(current))
	seen := make(map[entity.LocationKey]struct{})
	for k := range ledger {
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	for k := range current {
		if _, ok := seen[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })

	report := &dto.AuditReportDTO{
		ProductID:     productID,
		MovementsRead: movements,
		LocationsRead: len(keys),
		Discrepancies: []dto.AuditDiscrepancyDTO{},
	}
	for _, k := range keys {
		if ledger[k] == current[k] {
			continue
		}
		report.Discrepancies = append(report.Discrepancies, dto.AuditDiscrepancyDTO{
			WarehouseID:    k.WarehouseID,
			ZoneID:         k.ZoneID,
			CellID:         k.CellID,
			LedgerQuantity: ledger[k],
			RecordQuantity: current[k],
		})
	}
	report.Consistent = len(report.Discrepancies) == 0
	return report, nil
}
