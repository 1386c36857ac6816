package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

// ProductRepository define el puerto de persistencia para Product (DIP).
// GetByID y GetForUpdate devuelven (nil, nil) si no existe.
type ProductRepository interface {
	// Create asigna el ID. Falla con domain.ErrConflict si otra escritura ya creó la misma clave natural.
	Create(ctx context.Context, product *entity.Product) error
	GetByID(ctx context.Context, id int64) (*entity.Product, error)
	// GetForUpdate bloquea el producto hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, id int64) (*entity.Product, error)
	// FindByNaturalKey devuelve todos los productos cuya clave normalizada coincide con key.
	// Más de uno indica datos heredados duplicados.
	FindByNaturalKey(ctx context.Context, key variant.Key) ([]*entity.Product, error)
	// Update persiste stock y costos del producto.
	Update(ctx context.Context, product *entity.Product) error
	// List lista productos; categoryID nil = todas las categorías.
	List(ctx context.Context, categoryID *int64) ([]*entity.Product, error)
}
