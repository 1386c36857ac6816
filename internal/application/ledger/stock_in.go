package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/costing"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

// CreateStockInInput entrada para registrar una compra.
// Quantities: talla -> cantidad; para productos sin tallas usar entity.NoSize ("").
type CreateStockInInput struct {
	Date        time.Time
	OrderType   string
	CategoryID  int64
	ProductName string
	VariantAttr *string
	Quantities  map[string]int
	UnitCost    decimal.Decimal
	Note        string
}

// EditStockInInput campos editables de una entrada; nil = sin cambio.
type EditStockInInput struct {
	Date       *time.Time
	OrderType  *string
	Quantities map[string]int
	UnitCost   *decimal.Decimal
	Note       *string
}

// StockInResult resultado de registrar una entrada.
type StockInResult struct {
	StockInID int64
	ProductID int64
	Product   *entity.Product
}

// RevisionOutcome resultado de editar o eliminar una entrada.
type RevisionOutcome struct {
	ProductID            int64
	RecomputedSalesCount int
	Product              *entity.Product // nil en eliminaciones forzadas de huérfanas
}

// CreateStockIn registra una compra: resuelve (o crea) el producto por clave natural,
// fusiona el costo promedio ponderado y deja el movimiento stock_in por talla.
func (c *Coordinator) CreateStockIn(ctx context.Context, in CreateStockInInput) (*StockInResult, error) {
	op := c.begin("create_stock_in")
	key := variant.NewKey(in.CategoryID, in.ProductName, in.VariantAttr)
	if !key.Valid() {
		return nil, op.fail(fmt.Errorf("%w: categoría y nombre son obligatorios", domain.ErrInvalidInput))
	}
	quantities, err := normalizeQuantities(in.Quantities)
	if err != nil {
		return nil, op.fail(err)
	}
	if in.UnitCost.IsNegative() {
		return nil, op.fail(fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput))
	}
	op.advance(phaseValidated)

	// Orden de bloqueo: clave natural → producto.
	unlockKey, err := c.locker.Lock(ctx, key.LockKey())
	if err != nil {
		return nil, op.fail(err)
	}
	defer unlockKey()

	existing, err := c.resolver.Lookup(ctx, c.repos.Products, key)
	if err != nil {
		return nil, op.fail(err)
	}
	if existing != nil {
		unlock, err := c.lockProduct(ctx, existing.ID)
		if err != nil {
			return nil, op.fail(err)
		}
		defer unlock()
	}

	date := in.Date
	if date.IsZero() {
		date = op.at
	}
	var result StockInResult
	err = c.txRunner.Run(ctx, func(tx repository.Ledger) error {
		product, created, err := c.resolver.Resolve(ctx, tx.Products, key, op.at)
		if err != nil {
			return err
		}
		if (existing == nil && !created) || (existing != nil && product.ID != existing.ID) {
			return domain.ErrConflict
		}
		if !created {
			if product, err = tx.Products.GetForUpdate(ctx, product.ID); err != nil {
				return err
			}
			if product == nil {
				return domain.ErrConflict
			}
		}

		entry := &entity.StockInEntry{
			ProductID:   product.ID,
			Date:        date,
			OrderType:   strings.TrimSpace(in.OrderType),
			CategoryID:  key.CategoryID,
			ProductName: key.Name,
			VariantAttr: key.Attr,
			Quantities:  quantities,
			UnitCost:    costing.Money(in.UnitCost),
			Note:        in.Note,
			CreatedAt:   op.at,
			UpdatedAt:   op.at,
		}
		entry.Recompute()
		next, err := costing.ApplyStockIn(product, entry)
		if err != nil {
			return err
		}
		next.UpdatedAt = op.at
		op.advance(phaseApplied)

		if err := tx.StockIns.Create(ctx, entry); err != nil {
			return err
		}
		if err := tx.Products.Update(ctx, next); err != nil {
			return err
		}
		chain := newMovementChain(op, product.ID, product.TotalStock)
		for _, size := range sortedSizes(quantities) {
			chain.add(entity.MovementTypeStockIn, size, quantities[size], entity.ReferenceStockIn, entry.ID, "entrada de mercancía")
		}
		if err := chain.persist(ctx, tx.Movements); err != nil {
			return err
		}
		op.advance(phaseLogged)

		result = StockInResult{StockInID: entry.ID, ProductID: product.ID, Product: next}
		return nil
	})
	if err != nil {
		return nil, op.fail(err)
	}
	op.commit().
		Int64("product_id", result.ProductID).
		Int64("stock_in_id", result.StockInID).
		Str("avg_unit_cost", result.Product.AvgUnitCost.String()).
		Msg("entrada registrada")
	return &result, nil
}

// EditStockIn corrige una entrada y recalcula el producto y, si cambia el promedio,
// el COGS de todas sus ventas, en un único paso atómico.
func (c *Coordinator) EditStockIn(ctx context.Context, id int64, in EditStockInInput) (*RevisionOutcome, error) {
	op := c.begin("edit_stock_in")
	var quantities map[string]int
	if in.Quantities != nil {
		q, err := normalizeQuantities(in.Quantities)
		if err != nil {
			return nil, op.fail(err)
		}
		quantities = q
	}
	if in.UnitCost != nil && in.UnitCost.IsNegative() {
		return nil, op.fail(fmt.Errorf("%w: costo unitario negativo", domain.ErrInvalidInput))
	}
	op.advance(phaseValidated)

	return c.revise(ctx, op, id, false, func(e *entity.StockInEntry) *entity.StockInEntry {
		edited := e.Clone()
		if in.Date != nil {
			edited.Date = *in.Date
		}
		if in.OrderType != nil {
			edited.OrderType = strings.TrimSpace(*in.OrderType)
		}
		if quantities != nil {
			edited.Quantities = quantities
		}
		if in.UnitCost != nil {
			edited.UnitCost = costing.Money(*in.UnitCost)
		}
		if in.Note != nil {
			edited.Note = *in.Note
		}
		edited.UpdatedAt = op.at
		edited.Recompute()
		return edited
	})
}

// DeleteStockIn elimina una entrada y recalcula el producto y sus ventas.
// Si el producto dueño ya no resuelve, falla con ErrOrphanedReference salvo force,
// en cuyo caso borra la entrada sin revertir stock (reparación de datos).
func (c *Coordinator) DeleteStockIn(ctx context.Context, id int64, force bool) (*RevisionOutcome, error) {
	op := c.begin("delete_stock_in")
	op.advance(phaseValidated)
	return c.revise(ctx, op, id, force, nil)
}

// revise implementa edición (edit != nil) y eliminación (edit == nil) de entradas.
func (c *Coordinator) revise(
	ctx context.Context,
	op *operation,
	id int64,
	force bool,
	edit func(*entity.StockInEntry) *entity.StockInEntry,
) (*RevisionOutcome, error) {
	current, err := c.repos.StockIns.GetByID(ctx, id)
	if err != nil {
		return nil, op.fail(err)
	}
	if current == nil {
		return nil, op.fail(domain.ErrNotFound)
	}
	productID, err := c.resolver.ownerOf(ctx, c.repos.Products, current)
	if errors.Is(err, domain.ErrOrphanedReference) {
		if edit == nil && force {
			return c.forceDeleteOrphan(ctx, op, current)
		}
		return nil, op.fail(err)
	}
	if err != nil {
		return nil, op.fail(err)
	}

	unlock, err := c.lockProduct(ctx, productID)
	if err != nil {
		return nil, op.fail(err)
	}
	defer unlock()

	var outcome RevisionOutcome
	err = c.txRunner.Run(ctx, func(tx repository.Ledger) error {
		old, err := tx.StockIns.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if old == nil {
			return domain.ErrNotFound
		}
		if old.ProductID != 0 && old.ProductID != productID {
			return domain.ErrConflict
		}
		product, err := tx.Products.GetForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		if product == nil {
			return domain.ErrOrphanedReference
		}

		entries, err := tx.StockIns.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}
		others := make([]*entity.StockInEntry, 0, len(entries))
		for _, e := range entries {
			if e.ID != id {
				others = append(others, e)
			}
		}
		sales, err := tx.Sales.ListByProduct(ctx, productID)
		if err != nil {
			return err
		}

		var updated *entity.StockInEntry
		if edit != nil {
			updated = edit(old)
			// Entrada heredada: queda adoptada por el producto resuelto.
			updated.ProductID = productID
		}
		res, err := costing.ReviseStockIn(costing.Revision{
			Product: product,
			Old:     old,
			New:     updated,
			Others:  others,
			Sales:   sales,
		})
		if err != nil {
			return err
		}
		res.Product.UpdatedAt = op.at
		op.advance(phaseApplied)

		if updated != nil {
			err = tx.StockIns.Update(ctx, updated)
		} else {
			err = tx.StockIns.Delete(ctx, id)
		}
		if err != nil {
			return err
		}
		if err := tx.Products.Update(ctx, res.Product); err != nil {
			return err
		}
		for _, s := range res.RecomputedSales {
			if err := tx.Sales.UpdateCOGS(ctx, s.ID, s.CostOfGoodsSold); err != nil {
				return err
			}
		}

		note := "edición de entrada"
		if updated == nil {
			note = "eliminación de entrada"
		}
		chain := newMovementChain(op, productID, product.TotalStock)
		for _, size := range sortedSizes(res.SizeDeltas) {
			chain.add(entity.MovementTypeStockIn, size, res.SizeDeltas[size], entity.ReferenceStockIn, id, note)
		}
		if !res.Product.AvgUnitCost.Equal(res.PreviousAvg) {
			chain.add(entity.MovementTypeAdjustment, entity.NoSize, 0, entity.ReferenceStockIn, id,
				fmt.Sprintf("recosteo: promedio %s → %s, %d ventas recalculadas",
					res.PreviousAvg.String(), res.Product.AvgUnitCost.String(), len(res.RecomputedSales)))
		}
		if err := chain.persist(ctx, tx.Movements); err != nil {
			return err
		}
		op.advance(phaseLogged)

		outcome = RevisionOutcome{
			ProductID:            productID,
			RecomputedSalesCount: len(res.RecomputedSales),
			Product:              res.Product,
		}
		return nil
	})
	if err != nil {
		return nil, op.fail(err)
	}
	op.commit().
		Int64("product_id", outcome.ProductID).
		Int64("stock_in_id", id).
		Int("recomputed_sales", outcome.RecomputedSalesCount).
		Msg("entrada revisada")
	return &outcome, nil
}

// forceDeleteOrphan borra una entrada cuyo producto ya no existe, sin tocar stock.
// Deja un movimiento de ajuste con delta 0 como rastro.
func (c *Coordinator) forceDeleteOrphan(ctx context.Context, op *operation, entry *entity.StockInEntry) (*RevisionOutcome, error) {
	err := c.txRunner.Run(ctx, func(tx repository.Ledger) error {
		if err := tx.StockIns.Delete(ctx, entry.ID); err != nil {
			return err
		}
		op.advance(phaseApplied)
		chain := newMovementChain(op, entry.ProductID, 0)
		chain.add(entity.MovementTypeAdjustment, entity.NoSize, 0, entity.ReferenceStockIn, entry.ID,
			fmt.Sprintf("eliminación forzada de entrada huérfana (%s, %d u, costo %s)",
				variant.NewKey(entry.CategoryID, entry.ProductName, &entry.VariantAttr).String(),
				entry.TotalQuantity, entry.TotalCost.String()))
		if err := chain.persist(ctx, tx.Movements); err != nil {
			return err
		}
		op.advance(phaseLogged)
		return nil
	})
	if err != nil {
		return nil, op.fail(err)
	}
	op.commit().Int64("stock_in_id", entry.ID).Bool("forced", true).Msg("entrada huérfana eliminada")
	return &RevisionOutcome{ProductID: entry.ProductID}, nil
}

// normalizeQuantities recorta las tallas y rechaza cantidades no positivas o tallas repetidas tras recortar.
func normalizeQuantities(in map[string]int) (map[string]int, error) {
	if len(in) == 0 {
		return nil, domain.ErrNonPositiveQuantity
	}
	out := make(map[string]int, len(in))
	for size, q := range in {
		if q <= 0 {
			return nil, domain.ErrNonPositiveQuantity
		}
		size = strings.TrimSpace(size)
		if _, dup := out[size]; dup {
			return nil, fmt.Errorf("%w: talla %q repetida", domain.ErrInvalidInput, size)
		}
		out[size] = q
	}
	if _, ok := out[entity.NoSize]; ok && len(out) > 1 {
		return nil, domain.ErrSizeMismatch
	}
	return out, nil
}
