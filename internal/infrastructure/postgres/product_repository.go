package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/domain/entity"
	"github.com/jhoicas/almacen-ledger/internal/domain/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

// ProductRepo acceso al catálogo de productos sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Save inserta o actualiza un producto (carga inicial del catálogo, tests).
func (r *ProductRepo) Save(ctx context.Context, p *entity.Product) error {
	query := `
		INSERT INTO products (id, enterprise_id, sku, name, min_quantity, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT (id) DO UPDATE
		SET enterprise_id = EXCLUDED.enterprise_id, sku = EXCLUDED.sku, name = EXCLUDED.name,
		    min_quantity = EXCLUDED.min_quantity, updated_at = EXCLUDED.updated_at
		RETURNING updated_at`
	err := r.q.QueryRow(ctx, query, p.ID, p.EnterpriseID, p.SKU, p.Name, p.MinQuantity).Scan(&p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return classify("save product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID, o nil si no existe.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	query := `SELECT id, enterprise_id, sku, name, min_quantity, updated_at FROM products WHERE id = $1`
	var p entity.Product
	err := r.q.QueryRow(ctx, query, id).Scan(&p.ID, &p.EnterpriseID, &p.SKU, &p.Name, &p.MinQuantity, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, classify("get product", err)
	}
	return &p, nil
}

// UpdateMinQuantity actualiza el umbral mínimo de stock disponible.
func (r *ProductRepo) UpdateMinQuantity(ctx context.Context, id int64, minQuantity int64) error {
	tag, err := r.q.Exec(ctx,
		`UPDATE products SET min_quantity = $2, updated_at = now() WHERE id = $1`, id, minQuantity)
	if err != nil {
		return classify("update min quantity", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
