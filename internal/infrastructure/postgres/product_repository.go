package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

const productColumns = `id, category_id, name, variant_attr, size_stock, total_stock, avg_unit_cost, total_cost_value, created_at, updated_at`

// ProductRepo implementación del puerto ProductRepository sobre PostgreSQL (usable con pool o tx).
type ProductRepo struct {
	q Querier
}

// NewProductRepository construye el adaptador de persistencia para productos. Pasar pool o tx (Querier).
func NewProductRepository(q Querier) *ProductRepo {
	return &ProductRepo{q: q}
}

// Create persiste un producto nuevo. Toma un advisory lock de la clave natural hasta el fin
// de la transacción y falla con ErrConflict si otra transacción ya la creó.
func (r *ProductRepo) Create(ctx context.Context, p *entity.Product) error {
	attr := p.VariantAttr
	key := variant.NewKey(p.CategoryID, p.Name, &attr)
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key.LockKey()); err != nil {
		return wrapErr("lock product key", err)
	}
	var exists bool
	err := r.q.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM products
			WHERE category_id = $1 AND ledger_norm(name) = ledger_norm($2) AND ledger_norm(variant_attr) = ledger_norm($3)
		)`, key.CategoryID, key.Name, key.Attr).Scan(&exists)
	if err != nil {
		return wrapErr("check product key", err)
	}
	if exists {
		return domain.ErrConflict
	}

	sizes := p.SizeStock
	if sizes == nil {
		sizes = map[string]int{}
	}
	err = r.q.QueryRow(ctx, `
		INSERT INTO products (category_id, name, variant_attr, size_stock, total_stock, avg_unit_cost, total_cost_value, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`,
		p.CategoryID, p.Name, p.VariantAttr, sizes, p.TotalStock, p.AvgUnitCost, p.TotalCostValue, p.CreatedAt, p.UpdatedAt,
	).Scan(&p.ID)
	if err != nil {
		return wrapErr("insert product", err)
	}
	return nil
}

// GetByID obtiene un producto por ID.
func (r *ProductRepo) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get product", err)
	}
	return p, nil
}

// GetForUpdate obtiene el producto con bloqueo de fila (SELECT FOR UPDATE). Solo dentro de una tx.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := scanProduct(r.q.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get product for update", err)
	}
	return p, nil
}

// FindByNaturalKey compara con la misma normalización que variant (espacios y mayúsculas).
func (r *ProductRepo) FindByNaturalKey(ctx context.Context, key variant.Key) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE category_id = $1 AND ledger_norm(name) = ledger_norm($2) AND ledger_norm(variant_attr) = ledger_norm($3)
		ORDER BY id`, key.CategoryID, key.Name, key.Attr)
	if err != nil {
		return nil, wrapErr("find product by key", err)
	}
	return collectProducts(rows)
}

// Update persiste stock y costos.
func (r *ProductRepo) Update(ctx context.Context, p *entity.Product) error {
	sizes := p.SizeStock
	if sizes == nil {
		sizes = map[string]int{}
	}
	cmd, err := r.q.Exec(ctx, `
		UPDATE products SET size_stock = $2, total_stock = $3, avg_unit_cost = $4, total_cost_value = $5, updated_at = $6
		WHERE id = $1`,
		p.ID, sizes, p.TotalStock, p.AvgUnitCost, p.TotalCostValue, p.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update product", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List lista productos por id; categoryID nil = todos.
func (r *ProductRepo) List(ctx context.Context, categoryID *int64) ([]*entity.Product, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+productColumns+` FROM products
		WHERE $1::bigint IS NULL OR category_id = $1
		ORDER BY id`, categoryID)
	if err != nil {
		return nil, wrapErr("list products", err)
	}
	return collectProducts(rows)
}

func scanProduct(row pgx.Row) (*entity.Product, error) {
	var p entity.Product
	if err := row.Scan(&p.ID, &p.CategoryID, &p.Name, &p.VariantAttr, &p.SizeStock, &p.TotalStock,
		&p.AvgUnitCost, &p.TotalCostValue, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if p.SizeStock == nil {
		p.SizeStock = map[string]int{}
	}
	return &p, nil
}

func collectProducts(rows pgx.Rows) ([]*entity.Product, error) {
	defer rows.Close()
	var list []*entity.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
