package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

// VariantResolver traduce la clave natural (categoría, nombre, atributo) a un producto.
// Garantiza como máximo un producto por clave normalizada: si encuentra más de uno
// falla con ErrAmbiguousVariant en lugar de elegir.
type VariantResolver struct{}

// NewVariantResolver construye el resolvedor.
func NewVariantResolver() *VariantResolver {
	return &VariantResolver{}
}

// Lookup busca el producto de key sin crearlo. Devuelve (nil, nil) si no existe.
func (r *VariantResolver) Lookup(ctx context.Context, products repository.ProductRepository, key variant.Key) (*entity.Product, error) {
	if !key.Valid() {
		return nil, domain.ErrInvalidInput
	}
	found, err := products.FindByNaturalKey(ctx, key)
	if err != nil {
		return nil, err
	}
	switch len(found) {
	case 0:
		return nil, nil
	case 1:
		return found[0], nil
	default:
		return nil, domain.ErrAmbiguousVariant
	}
}

// Resolve devuelve el producto de key, creándolo con stock y costo en cero si no existe.
// created indica si se creó en esta llamada.
func (r *VariantResolver) Resolve(ctx context.Context, products repository.ProductRepository, key variant.Key, now time.Time) (product *entity.Product, created bool, err error) {
	product, err = r.Lookup(ctx, products, key)
	if err != nil || product != nil {
		return product, false, err
	}
	product = &entity.Product{
		CategoryID:     key.CategoryID,
		Name:           key.Name,
		VariantAttr:    key.Attr,
		SizeStock:      map[string]int{},
		AvgUnitCost:    decimal.Zero,
		TotalCostValue: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := products.Create(ctx, product); err != nil {
		return nil, false, err
	}
	return product, true, nil
}

// ownerOf devuelve el id del producto dueño de una entrada. Las entradas heredadas sin
// ProductID se resuelven por clave natural (solo búsqueda). ErrOrphanedReference si no resuelve.
func (r *VariantResolver) ownerOf(ctx context.Context, products repository.ProductRepository, e *entity.StockInEntry) (int64, error) {
	if e.ProductID != 0 {
		p, err := products.GetByID(ctx, e.ProductID)
		if err != nil {
			return 0, err
		}
		if p == nil {
			return 0, domain.ErrOrphanedReference
		}
		return p.ID, nil
	}
	attr := e.VariantAttr
	p, err := r.Lookup(ctx, products, variant.NewKey(e.CategoryID, e.ProductName, &attr))
	if err != nil {
		if errors.Is(err, domain.ErrInvalidInput) {
			return 0, domain.ErrOrphanedReference
		}
		return 0, err
	}
	if p == nil {
		return 0, domain.ErrOrphanedReference
	}
	return p.ID, nil
}

// ResolveProduct expone el resolvedor: devuelve el id del producto de la clave natural,
// creándolo vacío si no existe. Se serializa por clave natural como la creación de entradas.
func (c *Coordinator) ResolveProduct(ctx context.Context, categoryID int64, name string, variantAttr *string) (int64, error) {
	op := c.begin("resolve_product")
	key := variant.NewKey(categoryID, name, variantAttr)
	if !key.Valid() {
		return 0, op.fail(domain.ErrInvalidInput)
	}
	op.advance(phaseValidated)

	unlock, err := c.locker.Lock(ctx, key.LockKey())
	if err != nil {
		return 0, op.fail(err)
	}
	defer unlock()

	var id int64
	var created bool
	err = c.txRunner.Run(ctx, func(tx repository.Ledger) error {
		p, isNew, err := c.resolver.Resolve(ctx, tx.Products, key, op.at)
		if err != nil {
			return err
		}
		id, created = p.ID, isNew
		op.advance(phaseLogged)
		return nil
	})
	if err != nil {
		return 0, op.fail(err)
	}
	op.commit().Int64("product_id", id).Bool("created", created).Msg("producto resuelto")
	return id, nil
}
