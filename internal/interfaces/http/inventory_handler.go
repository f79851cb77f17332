package http

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/application/inventory"
	"github.com/jhoicas/almacen-ledger/internal/application/requests"
	"github.com/jhoicas/almacen-ledger/internal/domain"
)

// InventoryHandler maneja las peticiones HTTP del ledger de inventario (protegido).
type InventoryHandler struct {
	ledger    *inventory.LedgerUseCase
	summary   *inventory.SummaryUseCase
	history   *inventory.HistoryUseCase
	completer *requests.Completer
}

// NewInventoryHandler construye el handler.
func NewInventoryHandler(
	ledger *inventory.LedgerUseCase,
	summary *inventory.SummaryUseCase,
	history *inventory.HistoryUseCase,
	completer *requests.Completer,
) *InventoryHandler {
	return &InventoryHandler{ledger: ledger, summary: summary, history: history, completer: completer}
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}

func invalidBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}

func (h *InventoryHandler) execute(c *fiber.Ctx, ops ...inventory.Operation) error {
	out, err := h.ledger.Execute(c.UserContext(), ops...)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Receive godoc
// @Summary      Registrar entrada de stock (RECEIPT)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "clave de idempotencia"
// @Param        body             body    dto.MovementRequest  true   "product_id, warehouse_id, zone_id, cell_id, quantity"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Failure      503  {object}  dto.ErrorResponse
// @Router       /api/inventory/receipts [post]
func (h *InventoryHandler) Receive(c *fiber.Ctx) error {
	enterpriseID, userID := GetEnterpriseID(c), GetUserID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.execute(c, inventory.ReceiveFromRequest(enterpriseID, userID, in))
}

// Issue godoc
// @Summary      Registrar salida de stock (ISSUE)
// @Description  Acotada por el disponible (cantidad - reservado) de la ubicación.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "clave de idempotencia"
// @Param        body             body    dto.MovementRequest  true   "product_id, warehouse_id, zone_id, cell_id, quantity"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.StockErrorResponse
// @Router       /api/inventory/issues [post]
func (h *InventoryHandler) Issue(c *fiber.Ctx) error {
	enterpriseID, userID := GetEnterpriseID(c), GetUserID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.MovementRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.execute(c, inventory.IssueFromRequest(enterpriseID, userID, in))
}

// Transfer godoc
// @Summary      Trasladar stock entre zonas/celdas de una bodega (TRANSFER)
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        Idempotency-Key  header  string               false  "clave de idempotencia"
// @Param        body             body    dto.TransferRequest  true   "product_id, warehouse_id, from, to, quantity"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.StockErrorResponse
// @Router       /api/inventory/transfers [post]
func (h *InventoryHandler) Transfer(c *fiber.Ctx) error {
	enterpriseID, userID := GetEnterpriseID(c), GetUserID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.TransferRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.execute(c, inventory.TransferFromRequest(enterpriseID, userID, in))
}

// Adjust godoc
// @Summary      Ajustar por conteo físico (ADJUSTMENT)
// @Description  Fija la cantidad al conteo absoluto. Si no hay diferencia no se registra movimiento.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.AdjustRequest  true  "product_id, warehouse_id, zone_id, cell_id, new_quantity"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *fiber.Ctx) error {
	enterpriseID, userID := GetEnterpriseID(c), GetUserID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.AdjustRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.execute(c, inventory.AdjustFromRequest(enterpriseID, userID, in))
}

// Reserve godoc
// @Summary      Reservar stock disponible
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "product_id, warehouse_id, zone_id, cell_id, quantity"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      409  {object}  dto.StockErrorResponse
// @Router       /api/inventory/reservations [post]
func (h *InventoryHandler) Reserve(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.execute(c, inventory.ReserveFromRequest(enterpriseID, in))
}

// Release godoc
// @Summary      Liberar stock reservado
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReservationRequest  true  "product_id, warehouse_id, zone_id, cell_id, quantity"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/releases [post]
func (h *InventoryHandler) Release(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.ReservationRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	return h.execute(c, inventory.ReleaseFromRequest(enterpriseID, in))
}

// CompleteRequest godoc
// @Summary      Completar una solicitud (abastecimiento, traslado, conteo o baja)
// @Description  Todas las líneas se aplican en una única transacción.
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CompleteRequestBody  true  "id, kind, warehouse_id, items"
// @Success      201  {object}  dto.OperationResultDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.StockErrorResponse
// @Router       /api/inventory/requests [post]
func (h *InventoryHandler) CompleteRequest(c *fiber.Ctx) error {
	enterpriseID, userID := GetEnterpriseID(c), GetUserID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	var in dto.CompleteRequestBody
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	req, err := requests.FromDTO(in)
	if err != nil {
		return writeError(c, err)
	}
	res, err := h.completer.Complete(c.UserContext(), enterpriseID, userID, req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(inventory.ResultDTO(res))
}

// Summary godoc
// @Summary      Resumen de stock de un producto
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "product_id"
// @Success      200  {object}  dto.ProductSummaryDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/summary [get]
func (h *InventoryHandler) Summary(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	productID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.summary.SummaryForProduct(c.UserContext(), enterpriseID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// History godoc
// @Summary      Historial de movimientos de un producto
// @Description  Orden cronológico inverso. from/to en RFC3339.
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id      path   int     true   "product_id"
// @Param        from    query  string  false  "desde (RFC3339)"
// @Param        to      query  string  false  "hasta (RFC3339)"
// @Param        limit   query  int     false  "tamaño de página"
// @Param        offset  query  int     false  "desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/movements [get]
func (h *InventoryHandler) History(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	productID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	from, err := queryTime(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := queryTime(c, "to")
	if err != nil {
		return writeError(c, err)
	}
	page := dto.PageRequest{Limit: c.QueryInt("limit"), Offset: c.QueryInt("offset")}
	list, err := h.history.HistoryFor(c.UserContext(), enterpriseID, productID, from, to, page.Limit, page.Offset)
	if err != nil {
		return writeError(c, err)
	}
	page.Limit = h.history.PageLimit(page.Limit)
	return c.JSON(fiber.Map{
		"movements": dto.MovementsFromEntities(list),
		"page":      dto.PageResponse{Limit: page.Limit, Offset: page.Offset},
	})
}

// Audit godoc
// @Summary      Verificar el ledger de un producto contra sus registros
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Param        id   path  int  true  "product_id"
// @Success      200  {object}  dto.AuditReportDTO
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/audit [get]
func (h *InventoryHandler) Audit(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	productID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	out, err := h.history.Verify(c.UserContext(), enterpriseID, productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// LowStock godoc
// @Summary      Productos por debajo de su mínimo
// @Tags         inventory
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/inventory/low-stock [get]
func (h *InventoryHandler) LowStock(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	list, err := h.summary.LowStockProducts(c.UserContext(), enterpriseID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":    len(list),
		"products": list,
	})
}

// SetMinimum godoc
// @Summary      Configurar el mínimo de un producto
// @Tags         inventory
// @Security     Bearer
// @Accept       json
// @Param        id    path  int                         true  "product_id"
// @Param        body  body  dto.MinimumQuantityRequest  true  "min_quantity"
// @Success      204
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/inventory/products/{id}/minimum [put]
func (h *InventoryHandler) SetMinimum(c *fiber.Ctx) error {
	enterpriseID := GetEnterpriseID(c)
	if enterpriseID == 0 {
		return unauthorized(c)
	}
	productID, err := pathID(c)
	if err != nil {
		return writeError(c, err)
	}
	var in dto.MinimumQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return invalidBody(c)
	}
	if err := h.summary.SetMinimumQuantity(c.UserContext(), enterpriseID, productID, in.MinQuantity); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func pathID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("id de producto inválido")
	}
	return id, nil
}

func queryTime(c *fiber.Ctx, name string) (*time.Time, error) {
	raw := c.Query(name)
	if raw == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, domain.Invalid("%s debe ser RFC3339", name)
	}
	return &t, nil
}
