package entity

import "time"

// Product es la vista mínima del catálogo que necesita el ledger: el tenant dueño
// y el umbral mínimo de stock disponible para alertas de reposición.
type Product struct {
	ID           int64
	EnterpriseID int64
	SKU          string
	Name         string
	MinQuantity  int64 // 0 = sin umbral configurado
	UpdatedAt    time.Time
}
