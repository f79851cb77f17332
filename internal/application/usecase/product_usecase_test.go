package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/almacen-ledger/internal/application/dto"
	"github.com/jhoicas/almacen-ledger/internal/application/usecase"
	"github.com/jhoicas/almacen-ledger/internal/domain"
	"github.com/jhoicas/almacen-ledger/internal/infrastructure/memory"
)

func TestProductUseCase_Register(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewProductUseCase(memory.New())

	out, err := uc.Register(ctx, 7, 10, dto.ProductRequest{SKU: " SKU-10 ", Name: "Tornillo", MinQuantity: 5})
	require.NoError(t, err)
	assert.Equal(t, "SKU-10", out.SKU)
	assert.Equal(t, int64(7), out.EnterpriseID)
	assert.False(t, out.UpdatedAt.IsZero())

	// Actualizar es idempotente para el mismo tenant.
	out, err = uc.Register(ctx, 7, 10, dto.ProductRequest{SKU: "SKU-10", Name: "Tornillo 3/8", MinQuantity: 8})
	require.NoError(t, err)
	assert.Equal(t, int64(8), out.MinQuantity)

	got, err := uc.GetByID(ctx, 7, 10)
	require.NoError(t, err)
	assert.Equal(t, "Tornillo 3/8", got.Name)
}

func TestProductUseCase_Errores(t *testing.T) {
	ctx := context.Background()
	uc := usecase.NewProductUseCase(memory.New())
	_, err := uc.Register(ctx, 7, 10, dto.ProductRequest{SKU: "A", Name: "A"})
	require.NoError(t, err)

	tests := []struct {
		name       string
		enterprise int64
		id         int64
		in         dto.ProductRequest
		want       error
	}{
		{"sin sku", 7, 11, dto.ProductRequest{Name: "B"}, domain.ErrInvalidInput},
		{"mínimo negativo", 7, 11, dto.ProductRequest{SKU: "B", Name: "B", MinQuantity: -1}, domain.ErrInvalidInput},
		{"id inválido", 7, 0, dto.ProductRequest{SKU: "B", Name: "B"}, domain.ErrInvalidInput},
		{"otra empresa", 8, 10, dto.ProductRequest{SKU: "A", Name: "A"}, domain.ErrForbidden},
		{"sku repetido", 7, 12, dto.ProductRequest{SKU: "A", Name: "Otro"}, domain.ErrDuplicate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := uc.Register(ctx, tt.enterprise, tt.id, tt.in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err = uc.GetByID(ctx, 8, 10)
	assert.ErrorIs(t, err, domain.ErrNotFound, "no se filtran productos de otra empresa")
}
