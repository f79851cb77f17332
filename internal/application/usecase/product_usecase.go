package usecase

import (
	"context"
	"strings"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

// ProductUseCase mantiene la copia local del catálogo que necesita el ledger (SKU, nombre y mínimo).
// El stock no se toca aquí: solo cambia vía operaciones del ledger.
type ProductUseCase struct {
	repo repository.ProductRepository
}

// NewProductUseCase construye el caso de uso.
func NewProductUseCase(repo repository.ProductRepository) *ProductUseCase {
	return &ProductUseCase{repo: repo}
}

// Register crea o actualiza el producto id del tenant. Un id que pertenece a otra empresa
// devuelve domain.ErrForbidden; un SKU repetido dentro de la empresa, domain.ErrDuplicate.
func (uc *ProductUseCase) Register(ctx context.Context, enterpriseID, id int64, in dto.ProductRequest) (*dto.ProductResponse, error) {
	in.SKU = strings.TrimSpace(in.SKU)
	in.Name = strings.TrimSpace(in.Name)
	if id <= 0 {
		return nil, domain.Invalid("id de producto inválido")
	}
	if in.SKU == "" || in.Name == "" {
		return nil, domain.Invalid("sku y name son requeridos")
	}
	if in.MinQuantity < 0 {
		return nil, domain.Invalid("el mínimo no puede ser negativo")
	}
	existing, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.EnterpriseID != enterpriseID {
		return nil, domain.ErrForbidden
	}
	product := &entity.Product{
		ID:           id,
		EnterpriseID: enterpriseID,
		SKU:          in.SKU,
		Name:         in.Name,
		MinQuantity:  in.MinQuantity,
	}
	if err := uc.repo.Save(ctx, product); err != nil {
		return nil, err
	}
	return dto.ProductFromEntity(product), nil
}

// GetByID obtiene un producto del tenant. Los de otra empresa se reportan como no encontrados.
func (uc *ProductUseCase) GetByID(ctx context.Context, enterpriseID, id int64) (*dto.ProductResponse, error) {
	product, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if product == nil || product.EnterpriseID != enterpriseID {
		return nil, domain.ErrNotFound
	}
	return dto.ProductFromEntity(product), nil
}
