package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.StockInRepository = (*StockInRepo)(nil)

const stockInColumns = `s.id, s.product_id, s.entry_date, s.order_type, s.category_id, s.product_name, s.variant_attr,
	s.quantities, s.unit_cost, s.total_quantity, s.total_cost, s.note, s.created_at, s.updated_at`

// ownsLegacy: la entrada sin product_id pertenece a p por clave natural normalizada.
const ownsLegacy = `s.product_id = 0 AND s.category_id = p.category_id
	AND ledger_norm(s.product_name) = ledger_norm(p.name)
	AND ledger_norm(s.variant_attr) = ledger_norm(p.variant_attr)`

// StockInRepo entradas de mercancía sobre PostgreSQL.
type StockInRepo struct {
	q Querier
}

func NewStockInRepository(q Querier) *StockInRepo {
	return &StockInRepo{q: q}
}

func (r *StockInRepo) Create(ctx context.Context, e *entity.StockInEntry) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO stock_in_entries (product_id, entry_date, order_type, category_id, product_name, variant_attr,
			quantities, unit_cost, total_quantity, total_cost, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		e.ProductID, e.Date, e.OrderType, e.CategoryID, e.ProductName, e.VariantAttr,
		e.Quantities, e.UnitCost, e.TotalQuantity, e.TotalCost, e.Note, e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		return wrapErr("insert stock-in", err)
	}
	return nil
}

func (r *StockInRepo) GetByID(ctx context.Context, id int64) (*entity.StockInEntry, error) {
	e, err := scanStockIn(r.q.QueryRow(ctx, `SELECT `+stockInColumns+` FROM stock_in_entries s WHERE s.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get stock-in", err)
	}
	return e, nil
}

func (r *StockInRepo) Update(ctx context.Context, e *entity.StockInEntry) error {
	cmd, err := r.q.Exec(ctx, `
		UPDATE stock_in_entries SET product_id = $2, entry_date = $3, order_type = $4, quantities = $5,
			unit_cost = $6, total_quantity = $7, total_cost = $8, note = $9, updated_at = $10
		WHERE id = $1`,
		e.ID, e.ProductID, e.Date, e.OrderType, e.Quantities, e.UnitCost, e.TotalQuantity, e.TotalCost, e.Note, e.UpdatedAt,
	)
	if err != nil {
		return wrapErr("update stock-in", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *StockInRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM stock_in_entries WHERE id = $1`, id); err != nil {
		return wrapErr("delete stock-in", err)
	}
	return nil
}

// ListByProduct incluye entradas heredadas (product_id = 0) que resuelven al producto.
func (r *StockInRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.StockInEntry, error) {
	rows, err := r.q.Query(ctx, `
		SELECT `+stockInColumns+` FROM stock_in_entries s
		WHERE s.product_id = $1
		   OR EXISTS (SELECT 1 FROM products p WHERE p.id = $1 AND `+ownsLegacy+`)
		ORDER BY s.entry_date, s.id`, productID)
	if err != nil {
		return nil, wrapErr("list stock-ins", err)
	}
	defer rows.Close()
	var list []*entity.StockInEntry
	for rows.Next() {
		e, err := scanStockIn(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock-in: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *StockInRepo) ListOrphanIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.id FROM stock_in_entries s
		WHERE (s.product_id <> 0 AND NOT EXISTS (SELECT 1 FROM products p WHERE p.id = s.product_id))
		   OR (s.product_id = 0 AND NOT EXISTS (SELECT 1 FROM products p WHERE `+ownsLegacy+`))
		ORDER BY s.id`)
	if err != nil {
		return nil, wrapErr("list orphan stock-ins", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, wrapErr("scan orphan stock-ins", err)
	}
	return ids, nil
}

func scanStockIn(row pgx.Row) (*entity.StockInEntry, error) {
	var e entity.StockInEntry
	if err := row.Scan(&e.ID, &e.ProductID, &e.Date, &e.OrderType, &e.CategoryID, &e.ProductName, &e.VariantAttr,
		&e.Quantities, &e.UnitCost, &e.TotalQuantity, &e.TotalCost, &e.Note, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	return &e, nil
}
