package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/domain"
)

// writeError traduce errores de dominio a status HTTP y código estable.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrConflict):
		status, code = fiber.StatusConflict, "TRANSACTION_CONFLICT"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE_REQUEST"
	case errors.Is(err, domain.ErrStoreUnavailable):
		status, code = fiber.StatusServiceUnavailable, "STORE_UNAVAILABLE"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = fiber.StatusUnauthorized, "UNAUTHORIZED"
	}
	resp := dto.ErrorResponse{Code: code, Message: err.Error()}
	var stockErr *domain.StockError
	if errors.As(err, &stockErr) {
		return c.Status(status).JSON(dto.StockErrorResponse{
			ErrorResponse: resp,
			Location:      stockErr.Location,
			Requested:     stockErr.Requested,
			Available:     stockErr.Available,
		})
	}
	return c.Status(status).JSON(resp)
}
