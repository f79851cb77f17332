package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/application/requests"
	"github.com/jhoicas/almacen-ledger/internal/application/usecase"
	"github.com/jhoicas/almacen-ledger/pkg/jwt"
	"github.com/jhoicas/almacen-ledger/pkg/logger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger      *inventory.LedgerUseCase
	Summary     *inventory.SummaryUseCase
	History     *inventory.HistoryUseCase
	Requests    *requests.Completer
	Products    *usecase.ProductUseCase
	Idempotency IdempotencyStore
	Logger      *logger.Logger
	JWTSecret   string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Rutas protegidas (requieren Bearer Token)
	inv := api.Group("/inventory", AuthMiddleware(deps.JWTSecret))
	h := NewInventoryHandler(deps.Ledger, deps.Summary, deps.History, deps.Requests)

	writers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero)
	sellers := RequireRole(jwt.RoleAdmin, jwt.RoleBodeguero, jwt.RoleVendedor)
	readers := RequireRole()

	idem := func(c *fiber.Ctx) error { return c.Next() }
	if deps.Idempotency != nil {
		idem = Idempotency(deps.Idempotency, deps.Logger)
	}

	inv.Post("/receipts", writers, idem, h.Receive)
	inv.Post("/issues", writers, idem, h.Issue)
	inv.Post("/transfers", writers, idem, h.Transfer)
	inv.Post("/adjustments", writers, idem, h.Adjust)
	inv.Post("/requests", writers, idem, h.CompleteRequest)
	inv.Post("/reservations", sellers, idem, h.Reserve)
	inv.Post("/releases", sellers, idem, h.Release)

	inv.Get("/products/:id/summary", readers, h.Summary)
	inv.Get("/products/:id/movements", readers, h.History)
	inv.Get("/products/:id/audit", readers, h.Audit)
	inv.Get("/low-stock", readers, h.LowStock)
	inv.Put("/products/:id/minimum", RequireRole(jwt.RoleAdmin), h.SetMinimum)

	// Catálogo local (SKU, nombre, mínimo)
	if deps.Products != nil {
		ph := NewProductHandler(deps.Products)
		inv.Put("/products/:id", RequireRole(jwt.RoleAdmin), ph.Register)
		inv.Get("/products/:id", readers, ph.GetByID)
	}
}
