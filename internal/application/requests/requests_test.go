package requests_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/application/requests"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/memory"
)

const enterprise int64 = 3

func setup(t *testing.T) (*requests.Completer, *memory.Store) {
	t.Helper()
	store := memory.New()
	for _, id := range []int64{1, 10, 11} {
		store.PutProduct(entity.Product{ID: id, EnterpriseID: enterprise, SKU: fmt.Sprintf("P-%d", id)})
	}
	return requests.NewCompleter(inventory.NewLedgerUseCase(store, store)), store
}

func TestComplete_AbastecimientoYBaja(t *testing.T) {
	ctx := context.Background()
	completer, store := setup(t)
	zoneA := entity.Slot{ZoneID: 1}

	res, err := completer.Complete(ctx, enterprise, 9, requests.SupplyRequest{
		ID: "SUP-1", WarehouseID: 2,
		Lines: []requests.Line{
			{ProductID: 10, Slot: zoneA, Quantity: 40},
			{ProductID: 11, Quantity: 5},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 2)
	for _, m := range res.Movements {
		assert.Equal(t, "SUP-1", m.ReferenceID)
		assert.Equal(t, entity.MovementTypeReceipt, m.Type)
		assert.Equal(t, int64(9), m.Actor)
	}

	res, err = completer.Complete(ctx, enterprise, 9, requests.WriteOffRequest{
		ID: "WO-1", WarehouseID: 2, Reason: "vencido",
		Lines: []requests.Line{{ProductID: 10, Slot: zoneA, Quantity: 15}},
	})
	require.NoError(t, err)
	assert.Equal(t, "vencido", res.Movements[0].Comment)
	assert.Equal(t, int64(25), store.Record(zoneA.Key(10, 2)).Quantity)
}

func TestComplete_FallaUnaLineaNoAplicaNinguna(t *testing.T) {
	ctx := context.Background()
	completer, store := setup(t)
	_, err := completer.Complete(ctx, enterprise, 1, requests.SupplyRequest{
		ID: "SUP-1", WarehouseID: 1, Lines: []requests.Line{{ProductID: 10, Quantity: 10}},
	})
	require.NoError(t, err)

	_, err = completer.Complete(ctx, enterprise, 1, requests.TransferRequest{
		ID: "TR-1", WarehouseID: 1,
		Lines: []requests.TransferLine{
			{ProductID: 10, To: entity.Slot{ZoneID: 2}, Quantity: 6},
			{ProductID: 10, To: entity.Slot{ZoneID: 3}, Quantity: 6},
		},
	})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Contains(t, err.Error(), "TR-1")
	assert.Equal(t, int64(10), store.Record(entity.LocationKey{ProductID: 10, WarehouseID: 1}).Quantity)
	assert.Nil(t, store.Record(entity.LocationKey{ProductID: 10, WarehouseID: 1, ZoneID: 2}))
	assert.Equal(t, 1, store.MovementCount())
}

func TestComplete_ConteoFisico(t *testing.T) {
	ctx := context.Background()
	completer, store := setup(t)
	_, err := completer.Complete(ctx, enterprise, 1, requests.SupplyRequest{
		ID: "SUP-1", WarehouseID: 1,
		Lines: []requests.Line{{ProductID: 10, Quantity: 10}, {ProductID: 11, Quantity: 4}},
	})
	require.NoError(t, err)

	res, err := completer.Complete(ctx, enterprise, 1, requests.InventoryCountRequest{
		ID: "CNT-1", WarehouseID: 1,
		Lines: []requests.CountLine{
			{ProductID: 10, CountedQuantity: 7},
			{ProductID: 11, CountedQuantity: 4}, // sin diferencia: sin movimiento
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Movements, 1)
	assert.Equal(t, entity.MovementTypeAdjustment, res.Movements[0].Type)
	assert.Equal(t, int64(3), res.Movements[0].Quantity)
	assert.Equal(t, int64(7), store.Record(entity.LocationKey{ProductID: 10, WarehouseID: 1}).Quantity)
}

func TestComplete_SolicitudInvalida(t *testing.T) {
	ctx := context.Background()
	completer, _ := setup(t)

	_, err := completer.Complete(ctx, enterprise, 1, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = completer.Complete(ctx, enterprise, 1, requests.SupplyRequest{WarehouseID: 1, Lines: []requests.Line{{ProductID: 1, Quantity: 1}}})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = completer.Complete(ctx, enterprise, 1, requests.SupplyRequest{ID: "X"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestFromDTO(t *testing.T) {
	counted := int64(5)
	cases := []struct {
		name string
		in   dto.CompleteRequestBody
		kind requests.Kind
		err  bool
	}{
		{"supply", dto.CompleteRequestBody{ID: "1", Kind: "supply", Items: []dto.RequestItemDTO{{ProductID: 1, Quantity: 2}}}, requests.KindSupply, false},
		{"write off", dto.CompleteRequestBody{ID: "1", Kind: "WRITE_OFF", Items: []dto.RequestItemDTO{{ProductID: 1, Quantity: 2}}}, requests.KindWriteOff, false},
		{"transfer", dto.CompleteRequestBody{ID: "1", Kind: "TRANSFER", Items: []dto.RequestItemDTO{{ProductID: 1, From: &dto.LocationRequest{}, To: &dto.LocationRequest{ZoneID: 2}, Quantity: 2}}}, requests.KindTransfer, false},
		{"transfer sin destino", dto.CompleteRequestBody{ID: "1", Kind: "TRANSFER", Items: []dto.RequestItemDTO{{ProductID: 1, Quantity: 2}}}, "", true},
		{"conteo", dto.CompleteRequestBody{ID: "1", Kind: "INVENTORY_COUNT", Items: []dto.RequestItemDTO{{ProductID: 1, CountedQuantity: &counted}}}, requests.KindInventoryCount, false},
		{"conteo sin cantidad", dto.CompleteRequestBody{ID: "1", Kind: "INVENTORY_COUNT", Items: []dto.RequestItemDTO{{ProductID: 1}}}, "", true},
		{"desconocido", dto.CompleteRequestBody{ID: "1", Kind: "RETURN"}, "", true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := requests.FromDTO(tc.in)
			if tc.err {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind, req.Kind())
			assert.Equal(t, "1", req.RequestID())
		})
	}
}
