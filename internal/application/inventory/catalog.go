package inventory

import (
	"context"
	"fmt"
	"sort"

	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

// ownedProduct carga el producto y verifica que pertenezca a la empresa del llamador.
// Inexistente -> domain.ErrNotFound; de otra empresa -> domain.ErrForbidden.
func ownedProduct(ctx context.Context, products repository.ProductRepository, enterpriseID, productID int64) (*entity.Product, error) {
	if enterpriseID <= 0 {
		return nil, domain.Invalid("enterprise_id requerido")
	}
	if productID <= 0 {
		return nil, domain.Invalid("product_id inválido")
	}
	product, err := products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("producto %d: %w", productID, domain.ErrNotFound)
	}
	if product.EnterpriseID != enterpriseID {
		return nil, fmt.Errorf("producto %d: %w", productID, domain.ErrForbidden)
	}
	return product, nil
}

type ownership struct {
	enterpriseID int64
	productID    int64
}

// authorize verifica, antes de abrir la transacción, cada producto distinto del lote.
func (uc *LedgerUseCase) authorize(ctx context.Context, ops []Operation) error {
	seen := make(map[ownership]struct{})
	var pairs []ownership
	for _, op := range ops {
		for _, k := range op.keys() {
			o := ownership{enterpriseID: op.enterprise(), productID: k.ProductID}
			if _, ok := seen[o]; ok {
				continue
			}
			seen[o] = struct{}{}
			pairs = append(pairs, o)
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].productID != pairs[j].productID {
			return pairs[i].productID < pairs[j].productID
		}
		return pairs[i].enterpriseID < pairs[j].enterpriseID
	})
	for _, o := range pairs {
		if _, err := ownedProduct(ctx, uc.productRepo, o.enterpriseID, o.productID); err != nil {
			return err
		}
	}
	return nil
}
