package requests

import (
	"strings"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// FromDTO construye la solicitud tipada a partir del body HTTP.
func FromDTO(in dto.CompleteRequestBody) (Request, error) {
	switch Kind(strings.ToUpper(strings.TrimSpace(in.Kind))) {
	case KindSupply:
		req := SupplyRequest{ID: in.ID, WarehouseID: in.WarehouseID}
		for _, it := range in.Items {
			req.Lines = append(req.Lines, Line{ProductID: it.ProductID, Slot: itemSlot(it), Quantity: it.Quantity})
		}
		return req, nil
	case KindWriteOff:
		req := WriteOffRequest{ID: in.ID, WarehouseID: in.WarehouseID, Reason: in.Reason}
		for _, it := range in.Items {
			req.Lines = append(req.Lines, Line{ProductID: it.ProductID, Slot: itemSlot(it), Quantity: it.Quantity})
		}
		return req, nil
	case KindTransfer:
		req := TransferRequest{ID: in.ID, WarehouseID: in.WarehouseID}
		for i, it := range in.Items {
			if it.From == nil || it.To == nil {
				return nil, domain.Invalid("ítem %d: traslado requiere from y to", i)
			}
			req.Lines = append(req.Lines, TransferLine{
				ProductID: it.ProductID,
				From:      entity.Slot{ZoneID: it.From.ZoneID, CellID: it.From.CellID},
				To:        entity.Slot{ZoneID: it.To.ZoneID, CellID: it.To.CellID},
				Quantity:  it.Quantity,
			})
		}
		return req, nil
	case KindInventoryCount:
		req := InventoryCountRequest{ID: in.ID, WarehouseID: in.WarehouseID}
		for i, it := range in.Items {
			if it.CountedQuantity == nil {
				return nil, domain.Invalid("ítem %d: conteo requiere counted_quantity", i)
			}
			req.Lines = append(req.Lines, CountLine{ProductID: it.ProductID, Slot: itemSlot(it), CountedQuantity: *it.CountedQuantity})
		}
		return req, nil
	default:
		return nil, domain.Invalid("tipo de solicitud desconocido %q", in.Kind)
	}
}

func itemSlot(it dto.RequestItemDTO) entity.Slot {
	return entity.Slot{ZoneID: it.ZoneID, CellID: it.CellID}
}
