package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/almacen-ledger/pkg/config"
)

// newTestPool conecta a TEST_DATABASE_URL y deja las tablas del ledger vacías.
// Sin la variable el test se omite.
func newTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL no definido")
	}
	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, config.DBConfig{DatabaseURL: url})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, postgres.Migrate(ctx, pool))
	_, err = pool.Exec(ctx, `TRUNCATE inventory_records, inventory_movements, products`)
	require.NoError(t, err)
	return pool
}

var (
	pgKey  = entity.LocationKey{ProductID: 10, WarehouseID: 1}
	pgCell = entity.LocationKey{ProductID: 10, WarehouseID: 1, CellID: 2}
)

// newLedger registra el producto 10 para la empresa 1 y construye el ledger sobre el pool.
func newLedger(t *testing.T, pool *pgxpool.Pool, lockTimeout time.Duration) (*inventory.LedgerUseCase, *postgres.ProductRepo) {
	t.Helper()
	products := postgres.NewProductRepository(pool)
	require.NoError(t, products.Save(context.Background(), &entity.Product{ID: 10, EnterpriseID: 1, SKU: "A-10", Name: "Tornillo"}))
	return inventory.NewLedgerUseCase(postgres.NewTxRunner(pool, lockTimeout), products), products
}

func TestPostgres_EscenarioCompleto(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	uc, products := newLedger(t, pool, time.Second)
	summary := postgres.NewInventorySummaryRepository(pool)

	_, err := uc.Receive(ctx, inventory.Receive{EnterpriseID: 1, Location: pgKey, Quantity: 50})
	require.NoError(t, err)
	_, err = uc.Reserve(ctx, inventory.Reserve{EnterpriseID: 1, Location: pgKey, Quantity: 20})
	require.NoError(t, err)

	_, err = uc.Issue(ctx, inventory.Issue{EnterpriseID: 1, Location: pgKey, Quantity: 40})
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = uc.Issue(ctx, inventory.Issue{EnterpriseID: 1, Location: pgKey, Quantity: 30})
	require.NoError(t, err)
	_, err = uc.Release(ctx, inventory.Release{EnterpriseID: 1, Location: pgKey, Quantity: 20})
	require.NoError(t, err)

	mov, err := uc.Transfer(ctx, inventory.Transfer{
		EnterpriseID: 1, ProductID: 10, WarehouseID: 1, To: pgCell.Slot(), Quantity: 20, ReferenceID: "REQ-1",
	})
	require.NoError(t, err)
	assert.NotZero(t, mov.ID)

	records, err := summary.ListRecordsByProduct(ctx, 10)
	require.NoError(t, err)
	require.Len(t, records, 1, "el origen en (0,0) debe eliminarse")
	assert.Equal(t, pgCell, records[0].Key)
	assert.Equal(t, int64(20), records[0].Quantity)

	movements := postgres.NewInventoryMovementRepository(pool)
	list, err := movements.ListByProduct(ctx, 10, nil, nil, 10, 0)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, entity.MovementTypeTransfer, list[0].Type)
	assert.Equal(t, "REQ-1", list[0].ReferenceID)
	require.NotNil(t, list[0].Source)
	require.NotNil(t, list[0].Destination)
	assert.Equal(t, entity.Slot{}, *list[0].Source)
	assert.Equal(t, pgCell.Slot(), *list[0].Destination)
	assert.Nil(t, list[2].Source, "un RECEIPT no tiene origen")

	older, err := movements.ListByProductBefore(ctx, 10, list[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, older, 2)
	assert.Equal(t, list[1].ID, older[0].ID)

	history := inventory.NewHistoryUseCase(movements, summary, products, 0)
	report, err := history.Verify(ctx, 1, 10)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	assert.Equal(t, 3, report.MovementsRead)
	_, err = history.Verify(ctx, 2, 10)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestPostgres_ProductoAjenoNoSeMueve(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	uc, _ := newLedger(t, pool, time.Second)

	_, err := uc.Receive(ctx, inventory.Receive{EnterpriseID: 2, Location: pgKey, Quantity: 5})
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = uc.Receive(ctx, inventory.Receive{EnterpriseID: 1, Location: entity.LocationKey{ProductID: 999, WarehouseID: 1}, Quantity: 5})
	require.ErrorIs(t, err, domain.ErrNotFound)

	records, err := postgres.NewInventorySummaryRepository(pool).ListRecordsByProduct(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPostgres_SalidasConcurrentesNoSobregiran(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	uc, _ := newLedger(t, pool, 10*time.Second)
	_, err := uc.Receive(ctx, inventory.Receive{EnterpriseID: 1, Location: pgKey, Quantity: 20})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok := 0
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.Issue(ctx, inventory.Issue{EnterpriseID: 1, Location: pgKey, Quantity: 2})
			if err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	records, err := postgres.NewInventorySummaryRepository(pool).ListRecordsByProduct(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestPostgres_LockTimeoutEsConflicto(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()

	// Una tx externa retiene el bloqueo de la ubicación
	holder, err := pool.Begin(ctx)
	require.NoError(t, err)
	defer func() { _ = holder.Rollback(ctx) }()
	require.NoError(t, postgres.NewInventoryRecordRepository(holder).Lock(ctx, []entity.LocationKey{pgKey}))

	uc, _ := newLedger(t, pool, 100*time.Millisecond)
	_, err = uc.Receive(ctx, inventory.Receive{EnterpriseID: 1, Location: pgKey, Quantity: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestPostgres_ProductosBajoMinimo(t *testing.T) {
	pool := newTestPool(t)
	ctx := context.Background()
	products := postgres.NewProductRepository(pool)
	require.NoError(t, products.Save(ctx, &entity.Product{ID: 10, EnterpriseID: 1, SKU: "A-10", Name: "Tornillo", MinQuantity: 40}))
	require.NoError(t, products.Save(ctx, &entity.Product{ID: 11, EnterpriseID: 1, SKU: "A-11", Name: "Tuerca", MinQuantity: 3}))
	require.NoError(t, products.UpdateMinQuantity(ctx, 11, 100))
	assert.ErrorIs(t, products.UpdateMinQuantity(ctx, 404, 1), domain.ErrNotFound)

	uc := inventory.NewLedgerUseCase(postgres.NewTxRunner(pool, time.Second), products)
	_, err := uc.Receive(ctx, inventory.Receive{EnterpriseID: 1, Location: pgKey, Quantity: 10})
	require.NoError(t, err)

	items, err := postgres.NewInventorySummaryRepository(pool).GetProductsBelowMinimum(ctx, 1)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, int64(11), items[0].ProductID)
	assert.True(t, items[0].CoveragePct.IsZero())
	assert.Equal(t, int64(10), items[1].ProductID)
	assert.Equal(t, "25", items[1].CoveragePct.String())
}
