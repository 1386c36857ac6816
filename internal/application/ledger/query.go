package ledger

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// DefaultMovementLimit límite de movimientos cuando el llamador no indica uno.
const DefaultMovementLimit = 100

// GetProduct devuelve el producto o ErrNotFound.
func (c *Coordinator) GetProduct(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := c.repos.Products.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// ListProducts lista productos, opcionalmente filtrados por categoría.
func (c *Coordinator) ListProducts(ctx context.Context, categoryID *int64) ([]*entity.Product, error) {
	list, err := c.repos.Products.List(ctx, categoryID)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	return list, nil
}

func (c *Coordinator) GetStockIn(ctx context.Context, id int64) (*entity.StockInEntry, error) {
	e, err := c.repos.StockIns.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	if e == nil {
		return nil, domain.ErrNotFound
	}
	return e, nil
}

// ListStockIns entradas del producto (incluye heredadas que resuelven a él).
func (c *Coordinator) ListStockIns(ctx context.Context, productID int64) ([]*entity.StockInEntry, error) {
	if _, err := c.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	list, err := c.repos.StockIns.ListByProduct(ctx, productID)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	return list, nil
}

func (c *Coordinator) GetSale(ctx context.Context, id int64) (*entity.SaleEntry, error) {
	s, err := c.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	if s == nil {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (c *Coordinator) ListSales(ctx context.Context, productID int64) ([]*entity.SaleEntry, error) {
	if _, err := c.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	list, err := c.repos.Sales.ListByProduct(ctx, productID)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	return list, nil
}

// ListMovements últimos movimientos del producto, más recientes primero.
func (c *Coordinator) ListMovements(ctx context.Context, productID int64, limit int) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = DefaultMovementLimit
	}
	if _, err := c.GetProduct(ctx, productID); err != nil {
		return nil, err
	}
	list, err := c.repos.Movements.ListByProduct(ctx, productID, limit)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	return list, nil
}
