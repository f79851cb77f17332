package inventory

import (
	"context"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// ReceiveFromRequest adapta el request HTTP a la operación Receive.
func ReceiveFromRequest(enterpriseID, userID int64, in dto.MovementRequest) Receive {
	return Receive{
		EnterpriseID: enterpriseID,
		Location:     movementKey(in),
		Quantity:     in.Quantity,
		Actor:        userID,
		ReferenceID:  in.ReferenceID,
		Comment:      in.Comment,
	}
}

// IssueFromRequest adapta el request HTTP a la operación Issue.
func IssueFromRequest(enterpriseID, userID int64, in dto.MovementRequest) Issue {
	return Issue{
		EnterpriseID: enterpriseID,
		Location:     movementKey(in),
		Quantity:     in.Quantity,
		Actor:        userID,
		ReferenceID:  in.ReferenceID,
		Comment:      in.Comment,
	}
}

// TransferFromRequest adapta el request HTTP a la operación Transfer.
func TransferFromRequest(enterpriseID, userID int64, in dto.TransferRequest) Transfer {
	return Transfer{
		EnterpriseID: enterpriseID,
		ProductID:    in.ProductID,
		WarehouseID:  in.WarehouseID,
		From:         entity.Slot{ZoneID: in.From.ZoneID, CellID: in.From.CellID},
		To:           entity.Slot{ZoneID: in.To.ZoneID, CellID: in.To.CellID},
		Quantity:     in.Quantity,
		Actor:        userID,
		ReferenceID:  in.ReferenceID,
		Comment:      in.Comment,
	}
}

// AdjustFromRequest adapta el request HTTP a la operación Adjust.
func AdjustFromRequest(enterpriseID, userID int64, in dto.AdjustRequest) Adjust {
	return Adjust{
		EnterpriseID: enterpriseID,
		Location: entity.LocationKey{
			ProductID:   in.ProductID,
			WarehouseID: in.WarehouseID,
			ZoneID:      in.ZoneID,
			CellID:      in.CellID,
		},
		NewQuantity: in.NewQuantity,
		Actor:       userID,
		ReferenceID: in.ReferenceID,
		Comment:     in.Comment,
	}
}

// ReserveFromRequest adapta el request HTTP a la operación Reserve.
func ReserveFromRequest(enterpriseID int64, in dto.ReservationRequest) Reserve {
	return Reserve{EnterpriseID: enterpriseID, Location: reservationKey(in), Quantity: in.Quantity}
}

// ReleaseFromRequest adapta el request HTTP a la operación Release.
func ReleaseFromRequest(enterpriseID int64, in dto.ReservationRequest) Release {
	return Release{EnterpriseID: enterpriseID, Location: reservationKey(in), Quantity: in.Quantity}
}

// Execute aplica las operaciones y devuelve el resultado listo para la respuesta HTTP.
func (uc *LedgerUseCase) Execute(ctx context.Context, ops ...Operation) (*dto.OperationResultDTO, error) {
	res, err := uc.Apply(ctx, ops...)
	if err != nil {
		return nil, err
	}
	return ResultDTO(res), nil
}

// ResultDTO convierte el resultado confirmado en la respuesta HTTP.
func ResultDTO(res *Result) *dto.OperationResultDTO {
	return &dto.OperationResultDTO{
		OperationID: res.OperationID,
		Movements:   dto.MovementsFromEntities(res.Movements),
		Records:     dto.RecordsFromEntities(res.Records),
	}
}

func movementKey(in dto.MovementRequest) entity.LocationKey {
	return entity.LocationKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID, ZoneID: in.ZoneID, CellID: in.CellID}
}

func reservationKey(in dto.ReservationRequest) entity.LocationKey {
	return entity.LocationKey{ProductID: in.ProductID, WarehouseID: in.WarehouseID, ZoneID: in.ZoneID, CellID: in.CellID}
}
