package repository

import (
	"context"

	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
)

// ProductRepository acceso mínimo al catálogo (propiedad de otro módulo) para umbrales.
type ProductRepository interface {
	Save(ctx context.Context, p *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	UpdateMinQuantity(ctx context.Context, id int64, minQuantity int64) error
}
