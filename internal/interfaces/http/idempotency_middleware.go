package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/pkg/logger"
)

// HeaderIdempotencyKey header con el que el cliente marca una operación para no aplicarla dos veces.
const HeaderIdempotencyKey = "Idempotency-Key"

// IdempotencyStore reserva claves ya usadas. Lo implementan los stores de
// internal/infrastructure/idempotency (Redis o LRU en memoria).
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Forget(ctx context.Context, key string) error
}

// Idempotency rechaza con 409 DUPLICATE_REQUEST una segunda petición con la misma
// Idempotency-Key de la misma empresa. Si la operación falla la clave se libera para
// permitir el reintento. Sin header no hace nada. Debe ir DESPUÉS de AuthMiddleware.
func Idempotency(store IdempotencyStore, log *logger.Logger) fiber.Handler {
	if log == nil {
		log = logger.Nop()
	}
	return func(c *fiber.Ctx) error {
		raw := c.Get(HeaderIdempotencyKey)
		if raw == "" {
			return c.Next()
		}
		if len(raw) > 128 {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "Idempotency-Key demasiado larga"})
		}
		key := strconv.FormatInt(GetEnterpriseID(c), 10) + ":" + raw
		ctx := c.UserContext()

		ok, err := store.Claim(ctx, key)
		if err != nil {
			log.Error().Err(err).Str("key", key).Msg("idempotencia no disponible")
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "no se pudo verificar la idempotencia"})
		}
		if !ok {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE_REQUEST", Message: "la operación ya fue recibida"})
		}

		err = c.Next()
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			if ferr := store.Forget(ctx, key); ferr != nil {
				log.Warn().Err(ferr).Str("key", key).Msg("no se pudo liberar la clave de idempotencia")
			}
		}
		return err
	}
}
