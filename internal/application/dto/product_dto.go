package dto

import (
	"time"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// ProductRequest body para PUT /api/inventory/products/:id: vista del catálogo que usa el ledger.
type ProductRequest struct {
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	MinQuantity int64  `json:"min_quantity"`
}

// ProductResponse salida de un producto del catálogo local.
type ProductResponse struct {
	ID           int64     `json:"id"`
	EnterpriseID int64     `json:"enterprise_id"`
	SKU          string    `json:"sku"`
	Name         string    `json:"name"`
	MinQuantity  int64     `json:"min_quantity"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ProductFromEntity convierte el producto del dominio a su DTO.
func ProductFromEntity(p *entity.Product) *ProductResponse {
	return &ProductResponse{
		ID:           p.ID,
		EnterpriseID: p.EnterpriseID,
		SKU:          p.SKU,
		Name:         p.Name,
		MinQuantity:  p.MinQuantity,
		UpdatedAt:    p.UpdatedAt,
	}
}
