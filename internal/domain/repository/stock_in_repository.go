package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// StockInRepository define el puerto de persistencia para las entradas de mercancía.
type StockInRepository interface {
	Create(ctx context.Context, entry *entity.StockInEntry) error
	GetByID(ctx context.Context, id int64) (*entity.StockInEntry, error)
	Update(ctx context.Context, entry *entity.StockInEntry) error
	Delete(ctx context.Context, id int64) error
	// ListByProduct incluye las entradas heredadas (ProductID 0) cuya clave natural normalizada
	// coincide con la del producto.
	ListByProduct(ctx context.Context, productID int64) ([]*entity.StockInEntry, error)
	// ListOrphanIDs entradas cuyo producto ya no existe.
	ListOrphanIDs(ctx context.Context) ([]int64, error)
}
