package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/costing"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// CreateSaleInput entrada para registrar una venta. Size nil = producto sin tallas.
type CreateSaleInput struct {
	Date           time.Time
	CustomerType   string
	ProductID      int64
	Size           *string
	Channel        string
	ShippingMethod string
	UnitPrice      decimal.Decimal
	Quantity       int
	Note           string
}

// SaleResult resultado de registrar una venta.
type SaleResult struct {
	SaleID          int64
	ProductID       int64
	CostOfGoodsSold decimal.Decimal
	Product         *entity.Product
}

// DeleteSaleResult resultado de eliminar una venta.
type DeleteSaleResult struct {
	ProductID        int64
	RestoredQuantity int
	RestoredCost     decimal.Decimal
	Product          *entity.Product
}

// CreateSale registra una venta al costo promedio vigente del producto.
// Rechaza la venta si no hay stock suficiente o si el producto no tiene costo promedio.
func (c *Coordinator) CreateSale(ctx context.Context, in CreateSaleInput) (*SaleResult, error) {
	op := c.begin("create_sale")
	if in.ProductID <= 0 {
		return nil, op.fail(fmt.Errorf("%w: product_id es obligatorio", domain.ErrInvalidInput))
	}
	if in.Quantity <= 0 {
		return nil, op.fail(domain.ErrNonPositiveQuantity)
	}
	if in.UnitPrice.IsNegative() {
		return nil, op.fail(fmt.Errorf("%w: precio unitario negativo", domain.ErrInvalidInput))
	}
	var size *string
	if in.Size != nil {
		if s := strings.TrimSpace(*in.Size); s != entity.NoSize {
			size = &s
		}
	}
	op.advance(phaseValidated)

	unlock, err := c.lockProduct(ctx, in.ProductID)
	if err != nil {
		return nil, op.fail(err)
	}
	defer unlock()

	date := in.Date
	if date.IsZero() {
		date = op.at
	}
	price := costing.Money(in.UnitPrice)
	var result SaleResult
	err = c.txRunner.Run(ctx, func(tx repository.Ledger) error {
		product, err := tx.Products.GetForUpdate(ctx, in.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrNotFound
		}
		sale := &entity.SaleEntry{
			ProductID:      product.ID,
			Date:           date,
			CustomerType:   strings.TrimSpace(in.CustomerType),
			Size:           size,
			Channel:        strings.TrimSpace(in.Channel),
			ShippingMethod: strings.TrimSpace(in.ShippingMethod),
			UnitPrice:      price,
			Quantity:       in.Quantity,
			TotalAmount:    costing.Cost(price, in.Quantity),
			Note:           in.Note,
			CreatedAt:      op.at,
			UpdatedAt:      op.at,
		}
		applied, err := costing.ApplySale(product, sale.SizeKey(), in.Quantity)
		if err != nil {
			return err
		}
		sale.CostOfGoodsSold = applied.COGS
		applied.Product.UpdatedAt = op.at
		op.advance(phaseApplied)

		if err := tx.Sales.Create(ctx, sale); err != nil {
			return err
		}
		if err := tx.Products.Update(ctx, applied.Product); err != nil {
			return err
		}
		chain := newMovementChain(op, product.ID, product.TotalStock)
		chain.add(entity.MovementTypeSale, sale.SizeKey(), -in.Quantity, entity.ReferenceSale, sale.ID, "venta")
		if err := chain.persist(ctx, tx.Movements); err != nil {
			return err
		}
		op.advance(phaseLogged)

		result = SaleResult{
			SaleID:          sale.ID,
			ProductID:       product.ID,
			CostOfGoodsSold: sale.CostOfGoodsSold,
			Product:         applied.Product,
		}
		return nil
	})
	if err != nil {
		return nil, op.fail(err)
	}
	op.commit().
		Int64("product_id", result.ProductID).
		Int64("sale_id", result.SaleID).
		Str("cogs", result.CostOfGoodsSold.String()).
		Msg("venta registrada")
	return &result, nil
}

// DeleteSale elimina una venta y devuelve al producto la cantidad y el costo guardado en la venta.
func (c *Coordinator) DeleteSale(ctx context.Context, id int64) (*DeleteSaleResult, error) {
	op := c.begin("delete_sale")
	sale, err := c.repos.Sales.GetByID(ctx, id)
	if err != nil {
		return nil, op.fail(err)
	}
	if sale == nil {
		return nil, op.fail(domain.ErrNotFound)
	}
	op.advance(phaseValidated)

	unlock, err := c.lockProduct(ctx, sale.ProductID)
	if err != nil {
		return nil, op.fail(err)
	}
	defer unlock()

	var result DeleteSaleResult
	err = c.txRunner.Run(ctx, func(tx repository.Ledger) error {
		current, err := tx.Sales.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if current == nil {
			return domain.ErrNotFound
		}
		if current.ProductID != sale.ProductID {
			return domain.ErrConflict
		}
		product, err := tx.Products.GetForUpdate(ctx, current.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrOrphanedReference
		}
		restored, err := costing.RestoreSale(product, current)
		if err != nil {
			return err
		}
		restored.UpdatedAt = op.at
		op.advance(phaseApplied)

		if err := tx.Sales.Delete(ctx, id); err != nil {
			return err
		}
		if err := tx.Products.Update(ctx, restored); err != nil {
			return err
		}
		chain := newMovementChain(op, product.ID, product.TotalStock)
		chain.add(entity.MovementTypeSale, current.SizeKey(), current.Quantity, entity.ReferenceSale, id, "eliminación de venta")
		if err := chain.persist(ctx, tx.Movements); err != nil {
			return err
		}
		op.advance(phaseLogged)

		result = DeleteSaleResult{
			ProductID:        product.ID,
			RestoredQuantity: current.Quantity,
			RestoredCost:     current.CostOfGoodsSold,
			Product:          restored,
		}
		return nil
	})
	if err != nil {
		return nil, op.fail(err)
	}
	op.commit().
		Int64("product_id", result.ProductID).
		Int64("sale_id", id).
		Str("restored_cost", result.RestoredCost.String()).
		Msg("venta eliminada")
	return &result, nil
}
