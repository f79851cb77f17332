package inventory_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/inventory"
)

var key = entity.LocationKey{ProductID: 10, WarehouseID: 1}

func TestCheckAvailable_RespetaReservas(t *testing.T) {
	rec := &entity.InventoryRecord{Key: key, Quantity: 50, ReservedQuantity: 20}

	require.NoError(t, inventory.CheckAvailable(key, rec, 30))

	err := inventory.CheckAvailable(key, rec, 31)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)
	var se *domain.StockError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, int64(30), se.Available)
	assert.Equal(t, int64(31), se.Requested)
}

func TestCheckAvailable_SinRegistroEsCero(t *testing.T) {
	err := inventory.CheckAvailable(key, nil, 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestCheckRelease(t *testing.T) {
	assert.ErrorIs(t, inventory.CheckRelease(key, nil, 1), domain.ErrNotFound)

	rec := &entity.InventoryRecord{Key: key, Quantity: 10, ReservedQuantity: 4}
	assert.NoError(t, inventory.CheckRelease(key, rec, 4))
	assert.ErrorIs(t, inventory.CheckRelease(key, rec, 5), domain.ErrInvalidInput)
}

func TestAdjustDelta(t *testing.T) {
	rec := &entity.InventoryRecord{Key: key, Quantity: 20, ReservedQuantity: 5}

	d, err := inventory.AdjustDelta(key, rec, 12)
	require.NoError(t, err)
	assert.Equal(t, entity.RecordDelta{Quantity: -8}, d)

	d, err = inventory.AdjustDelta(key, nil, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.Quantity)

	_, err = inventory.AdjustDelta(key, rec, 4)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestNext_RechazaSaldosInvalidos(t *testing.T) {
	rec := &entity.InventoryRecord{Key: key, Quantity: 5, ReservedQuantity: 5}

	_, err := inventory.Next(key, rec, entity.RecordDelta{Quantity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "reservado no puede superar la cantidad")

	_, err = inventory.Next(key, rec, entity.RecordDelta{Reserved: -6})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	next, err := inventory.Next(key, nil, entity.RecordDelta{Quantity: 3})
	require.NoError(t, err)
	assert.Equal(t, int64(3), next.Quantity)
	assert.Equal(t, key, next.Key)
}

func TestCoveragePct(t *testing.T) {
	assert.Equal(t, "25", inventory.CoveragePct(5, 20).String())
	assert.Equal(t, "33.33", inventory.CoveragePct(1, 3).String())
	assert.True(t, inventory.CoveragePct(0, 10).IsZero())
	assert.True(t, inventory.CoveragePct(5, 0).IsZero())
}
