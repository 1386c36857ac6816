package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.SaleRepository = (*SaleRepo)(nil)

const saleColumns = `id, product_id, sale_date, customer_type, size, channel, shipping_method,
	unit_price, quantity, total_amount, cost_of_goods_sold, note, created_at, updated_at`

// SaleRepo ventas sobre PostgreSQL.
type SaleRepo struct {
	q Querier
}

func NewSaleRepository(q Querier) *SaleRepo {
	return &SaleRepo{q: q}
}

func (r *SaleRepo) Create(ctx context.Context, s *entity.SaleEntry) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO sale_entries (product_id, sale_date, customer_type, size, channel, shipping_method,
			unit_price, quantity, total_amount, cost_of_goods_sold, note, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`,
		s.ProductID, s.Date, s.CustomerType, s.Size, s.Channel, s.ShippingMethod,
		s.UnitPrice, s.Quantity, s.TotalAmount, s.CostOfGoodsSold, s.Note, s.CreatedAt, s.UpdatedAt,
	).Scan(&s.ID)
	if err != nil {
		return wrapErr("insert sale", err)
	}
	return nil
}

func (r *SaleRepo) GetByID(ctx context.Context, id int64) (*entity.SaleEntry, error) {
	s, err := scanSale(r.q.QueryRow(ctx, `SELECT `+saleColumns+` FROM sale_entries WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrapErr("get sale", err)
	}
	return s, nil
}

func (r *SaleRepo) Delete(ctx context.Context, id int64) error {
	if _, err := r.q.Exec(ctx, `DELETE FROM sale_entries WHERE id = $1`, id); err != nil {
		return wrapErr("delete sale", err)
	}
	return nil
}

func (r *SaleRepo) ListByProduct(ctx context.Context, productID int64) ([]*entity.SaleEntry, error) {
	rows, err := r.q.Query(ctx, `SELECT `+saleColumns+` FROM sale_entries WHERE product_id = $1 ORDER BY sale_date, id`, productID)
	if err != nil {
		return nil, wrapErr("list sales", err)
	}
	defer rows.Close()
	var list []*entity.SaleEntry
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// UpdateCOGS reescribe el costo de ventas (recálculo retroactivo dentro de la tx del coordinador).
func (r *SaleRepo) UpdateCOGS(ctx context.Context, id int64, cogs decimal.Decimal) error {
	cmd, err := r.q.Exec(ctx, `UPDATE sale_entries SET cost_of_goods_sold = $2, updated_at = now() WHERE id = $1`, id, cogs)
	if err != nil {
		return wrapErr("update sale cogs", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SaleRepo) ListOrphanIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `
		SELECT s.id FROM sale_entries s
		WHERE NOT EXISTS (SELECT 1 FROM products p WHERE p.id = s.product_id)
		ORDER BY s.id`)
	if err != nil {
		return nil, wrapErr("list orphan sales", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, wrapErr("scan orphan sales", err)
	}
	return ids, nil
}

func scanSale(row pgx.Row) (*entity.SaleEntry, error) {
	var s entity.SaleEntry
	if err := row.Scan(&s.ID, &s.ProductID, &s.Date, &s.CustomerType, &s.Size, &s.Channel, &s.ShippingMethod,
		&s.UnitPrice, &s.Quantity, &s.TotalAmount, &s.CostOfGoodsSold, &s.Note, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
