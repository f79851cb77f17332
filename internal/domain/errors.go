package domain

import (
	"errors"
	"fmt"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrDuplicate         = errors.New("recurso duplicado")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrConflict          = errors.New("conflicto de concurrencia, reintente la operación")
	ErrInsufficientStock = errors.New("stock disponible insuficiente")
	ErrStoreUnavailable  = errors.New("almacenamiento no disponible")
)

// StockError detalla un rechazo por stock disponible insuficiente en una ubicación.
// errors.Is(err, ErrInsufficientStock) es true para cualquier *StockError.
type StockError struct {
	Location  string // forma canónica de la clave de ubicación (p:w:z:c)
	Requested int64
	Available int64
}

func (e *StockError) Error() string {
	return fmt.Sprintf("%s: ubicación %s, disponible %d, solicitado %d",
		ErrInsufficientStock.Error(), e.Location, e.Available, e.Requested)
}

// Is permite comparar contra ErrInsufficientStock.
func (e *StockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// Invalid envuelve ErrInvalidInput con un motivo legible.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
