package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// SaleRepository define el puerto de persistencia para las ventas.
type SaleRepository interface {
	Create(ctx context.Context, sale *entity.SaleEntry) error
	GetByID(ctx context.Context, id int64) (*entity.SaleEntry, error)
	Delete(ctx context.Context, id int64) error
	ListByProduct(ctx context.Context, productID int64) ([]*entity.SaleEntry, error)
	// UpdateCOGS reescribe el costo de ventas de una venta (recálculo retroactivo).
	UpdateCOGS(ctx context.Context, id int64, cogs decimal.Decimal) error
	// ListOrphanIDs ventas cuyo producto ya no existe.
	ListOrphanIDs(ctx context.Context) ([]int64, error)
}
