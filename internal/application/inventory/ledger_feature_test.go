package inventory_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/cucumber/godog"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/memory"
)

type ledgerTestContext struct {
	store *memory.Store
	uc    *inventory.LedgerUseCase
	last  *entity.InventoryMovement
	err   error
}

// reset catálogo fijo: el producto 10 es de testEnterprise y el 20 de otra empresa.
func (c *ledgerTestContext) reset() {
	c.store = memory.New()
	c.store.PutProduct(entity.Product{ID: 10, EnterpriseID: testEnterprise, SKU: "A-10", Name: "Tornillo"})
	c.store.PutProduct(entity.Product{ID: 20, EnterpriseID: testEnterprise + 1, SKU: "B-20", Name: "Ajeno"})
	c.uc = inventory.NewLedgerUseCase(c.store, c.store)
	c.last = nil
	c.err = nil
}

func loc(product, warehouse int64) entity.LocationKey {
	return entity.LocationKey{ProductID: product, WarehouseID: warehouse}
}

func cellLoc(product, warehouse, cell int64) entity.LocationKey {
	return entity.LocationKey{ProductID: product, WarehouseID: warehouse, CellID: cell}
}

func (c *ledgerTestContext) anEmptyLedger() error {
	c.reset()
	return nil
}

func (c *ledgerTestContext) wereReceived(qty, product, warehouse int64) error {
	_, err := c.uc.Receive(context.Background(), inventory.Receive{EnterpriseID: testEnterprise, Location: loc(product, warehouse), Quantity: qty})
	return err
}

func (c *ledgerTestContext) wereReserved(qty, product, warehouse int64) error {
	_, err := c.uc.Reserve(context.Background(), inventory.Reserve{EnterpriseID: testEnterprise, Location: loc(product, warehouse), Quantity: qty})
	return err
}

func (c *ledgerTestContext) iReceive(qty, product, warehouse int64) error {
	c.last, c.err = c.uc.Receive(context.Background(), inventory.Receive{EnterpriseID: testEnterprise, Location: loc(product, warehouse), Quantity: qty})
	return nil
}

func (c *ledgerTestContext) iIssue(qty, product, warehouse int64) error {
	c.last, c.err = c.uc.Issue(context.Background(), inventory.Issue{EnterpriseID: testEnterprise, Location: loc(product, warehouse), Quantity: qty})
	return nil
}

func (c *ledgerTestContext) iReserve(qty, product, warehouse int64) error {
	_, c.err = c.uc.Reserve(context.Background(), inventory.Reserve{EnterpriseID: testEnterprise, Location: loc(product, warehouse), Quantity: qty})
	return nil
}

func (c *ledgerTestContext) iRelease(qty, product, warehouse int64) error {
	_, c.err = c.uc.Release(context.Background(), inventory.Release{EnterpriseID: testEnterprise, Location: loc(product, warehouse), Quantity: qty})
	return nil
}

func (c *ledgerTestContext) iTransferToCell(qty, product, warehouse, cell int64) error {
	if c.err != nil {
		return nil
	}
	c.last, c.err = c.uc.Transfer(context.Background(), inventory.Transfer{
		EnterpriseID: testEnterprise,
		ProductID:    product,
		WarehouseID:  warehouse,
		To:           entity.Slot{CellID: cell},
		Quantity:     qty,
	})
	return nil
}

func (c *ledgerTestContext) theOperationSucceeds() error {
	if c.err != nil {
		return fmt.Errorf("se esperaba éxito, error: %w", c.err)
	}
	return nil
}

func (c *ledgerTestContext) failsWithInsufficientStock(available int64) error {
	var se *domain.StockError
	if !errors.As(c.err, &se) {
		return fmt.Errorf("se esperaba StockError, obtenido %v", c.err)
	}
	if se.Available != available {
		return fmt.Errorf("disponible esperado %d, obtenido %d", available, se.Available)
	}
	return nil
}

func (c *ledgerTestContext) failsAsForbidden() error {
	if !errors.Is(c.err, domain.ErrForbidden) {
		return fmt.Errorf("se esperaba ErrForbidden, obtenido %v", c.err)
	}
	return nil
}

func (c *ledgerTestContext) checkRecord(key entity.LocationKey, qty, reserved int64) error {
	rec := c.store.Record(key)
	if rec == nil {
		return fmt.Errorf("no existe registro en %s", key)
	}
	if rec.Quantity != qty || rec.ReservedQuantity != reserved {
		return fmt.Errorf("registro %s: esperado (%d,%d), obtenido (%d,%d)", key, qty, reserved, rec.Quantity, rec.ReservedQuantity)
	}
	return nil
}

func (c *ledgerTestContext) theRecordIs(product, warehouse, qty, reserved int64) error {
	return c.checkRecord(loc(product, warehouse), qty, reserved)
}

func (c *ledgerTestContext) theCellRecordIs(product, warehouse, cell, qty, reserved int64) error {
	return c.checkRecord(cellLoc(product, warehouse, cell), qty, reserved)
}

func (c *ledgerTestContext) checkNoRecord(key entity.LocationKey) error {
	if rec := c.store.Record(key); rec != nil {
		return fmt.Errorf("registro inesperado en %s: (%d,%d)", key, rec.Quantity, rec.ReservedQuantity)
	}
	return nil
}

func (c *ledgerTestContext) noRecord(product, warehouse int64) error {
	return c.checkNoRecord(loc(product, warehouse))
}

func (c *ledgerTestContext) noCellRecord(product, warehouse, cell int64) error {
	return c.checkNoRecord(cellLoc(product, warehouse, cell))
}

func (c *ledgerTestContext) theLedgerHolds(n int) error {
	if got := c.store.MovementCount(); got != n {
		return fmt.Errorf("movimientos esperados %d, obtenidos %d", n, got)
	}
	return nil
}

func (c *ledgerTestContext) theLastMovementIs(kind string, qty int64) error {
	if c.last == nil {
		return errors.New("no hay movimiento")
	}
	if string(c.last.Type) != kind || c.last.Quantity != qty {
		return fmt.Errorf("esperado %s de %d, obtenido %s de %d", kind, qty, c.last.Type, c.last.Quantity)
	}
	return nil
}

func InitializeLedgerScenario(ctx *godog.ScenarioContext) {
	tc := &ledgerTestContext{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tc.reset()
		return ctx, nil
	})

	// Dado
	ctx.Step(`^un ledger vacío$`, tc.anEmptyLedger)
	ctx.Step(`^que se recibieron (\d+) unidades del producto (\d+) en la bodega (\d+)$`, tc.wereReceived)
	ctx.Step(`^que se reservaron (\d+) unidades del producto (\d+) en la bodega (\d+)$`, tc.wereReserved)

	// Cuando
	ctx.Step(`^recibo (\d+) unidades del producto (\d+) en la bodega (\d+)$`, tc.iReceive)
	ctx.Step(`^despacho (\d+) unidades del producto (\d+) en la bodega (\d+)$`, tc.iIssue)
	ctx.Step(`^reservo (\d+) unidades del producto (\d+) en la bodega (\d+)$`, tc.iReserve)
	ctx.Step(`^libero (\d+) unidades del producto (\d+) en la bodega (\d+)$`, tc.iRelease)
	ctx.Step(`^traslado (\d+) unidades del producto (\d+) en la bodega (\d+) a la celda (\d+)$`, tc.iTransferToCell)

	// Entonces
	ctx.Step(`^la operación es exitosa$`, tc.theOperationSucceeds)
	ctx.Step(`^la operación falla por stock insuficiente con (\d+) disponibles$`, tc.failsWithInsufficientStock)
	ctx.Step(`^la operación es rechazada por pertenecer a otra empresa$`, tc.failsAsForbidden)
	ctx.Step(`^el registro del producto (\d+) en la bodega (\d+) tiene cantidad (\d+) reservada (\d+)$`, tc.theRecordIs)
	ctx.Step(`^el registro del producto (\d+) en la bodega (\d+) celda (\d+) tiene cantidad (\d+) reservada (\d+)$`, tc.theCellRecordIs)
	ctx.Step(`^no hay registro del producto (\d+) en la bodega (\d+)$`, tc.noRecord)
	ctx.Step(`^no hay registro del producto (\d+) en la bodega (\d+) celda (\d+)$`, tc.noCellRecord)
	ctx.Step(`^el ledger contiene (\d+) movimientos$`, tc.theLedgerHolds)
	ctx.Step(`^el último movimiento es (\w+) de (\d+)$`, tc.theLastMovementIs)
}

func TestLedgerFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeLedgerScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features/ledger.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
