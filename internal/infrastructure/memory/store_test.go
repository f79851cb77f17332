package memory_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/memory"
)

var key = entity.LocationKey{ProductID: 10, WarehouseID: 1}

func receipt(qty int64) *entity.InventoryMovement {
	dest := key.Slot()
	return &entity.InventoryMovement{
		EnterpriseID: 1, ProductID: key.ProductID, WarehouseID: key.WarehouseID,
		Destination: &dest, Quantity: qty, Type: entity.MovementTypeReceipt,
	}
}

// write agrega qty al registro y un RECEIPT dentro de una misma transacción.
func write(ctx context.Context, store *memory.Store, qty int64) error {
	return store.Run(ctx, func(records repository.InventoryRecordRepository, movements repository.InventoryMovementRepository) error {
		if _, err := records.Upsert(ctx, key, entity.RecordDelta{Quantity: qty}); err != nil {
			return err
		}
		return movements.Append(ctx, receipt(qty))
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Transacciones
// ──────────────────────────────────────────────────────────────────────────────

func TestRun_LaTransaccionVeSusPropiasEscrituras(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, write(ctx, store, 5))

	err := store.Run(ctx, func(records repository.InventoryRecordRepository, movements repository.InventoryMovementRepository) error {
		_, err := records.Upsert(ctx, key, entity.RecordDelta{Quantity: 3})
		require.NoError(t, err)
		require.NoError(t, movements.Append(ctx, receipt(3)))

		rec, err := records.Get(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, int64(8), rec.Quantity)
		list, err := movements.ListByProduct(ctx, key.ProductID, nil, nil, 10, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, int64(2), list[0].ID)

		// Aún no confirmado
		assert.Equal(t, int64(5), store.Record(key).Quantity)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(8), store.Record(key).Quantity)
	assert.Equal(t, 2, store.MovementCount())
}

func TestRun_ErrorDescartaLasEscrituras(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, write(ctx, store, 5))

	boom := errors.New("falla")
	err := store.Run(ctx, func(records repository.InventoryRecordRepository, movements repository.InventoryMovementRepository) error {
		_, err := records.Upsert(ctx, key, entity.RecordDelta{Quantity: 7})
		require.NoError(t, err)
		require.NoError(t, movements.Append(ctx, receipt(7)))
		return boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, int64(5), store.Record(key).Quantity)
	assert.Equal(t, 1, store.MovementCount())

	// Los IDs siguen la secuencia confirmada
	require.NoError(t, write(ctx, store, 1))
	list, err := store.ListByProduct(ctx, key.ProductID, nil, nil, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), list[0].ID)
}

func TestRun_CommitFallidoNoPublica(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	store.SetCommitHook(func() error { return memory.ErrCommitFailed })

	require.ErrorIs(t, write(ctx, store, 5), memory.ErrCommitFailed)
	assert.Nil(t, store.Record(key))
	assert.Equal(t, 0, store.MovementCount())
}

func TestRun_EliminaRegistroVacio(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, write(ctx, store, 5))

	err := store.Run(ctx, func(records repository.InventoryRecordRepository, _ repository.InventoryMovementRepository) error {
		_, err := records.Upsert(ctx, key, entity.RecordDelta{Quantity: -5})
		require.NoError(t, err)
		deleted, err := records.DeleteIfEmpty(ctx, key)
		require.NoError(t, err)
		assert.True(t, deleted)
		rec, err := records.Get(ctx, key)
		require.NoError(t, err)
		assert.Nil(t, rec)
		return nil
	})
	require.NoError(t, err)
	assert.Nil(t, store.Record(key))
}

// ──────────────────────────────────────────────────────────────────────────────
// Lecturas por keyset
// ──────────────────────────────────────────────────────────────────────────────

func TestListByProductBefore(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	for i := int64(1); i <= 5; i++ {
		require.NoError(t, write(ctx, store, i))
	}

	page, err := store.ListByProductBefore(ctx, key.ProductID, 0, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, []int64{5, 4}, []int64{page[0].ID, page[1].ID})

	page, err = store.ListByProductBefore(ctx, key.ProductID, page[1].ID, 10)
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, int64(3), page[0].ID)
	assert.Equal(t, int64(1), page[2].ID)

	page, err = store.ListByProductBefore(ctx, 99, 0, 10)
	require.NoError(t, err)
	assert.Empty(t, page)
}
