package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo log de movimientos (solo INSERT y SELECT).
type MovementRepo struct {
	q Querier
}

func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	err := r.q.QueryRow(ctx, `
		INSERT INTO movements (transaction_id, product_id, movement_type, size, quantity, previous_total, current_total,
			reference_type, reference_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id`,
		m.TransactionID, m.ProductID, m.Type, m.Size, m.Quantity, m.PreviousTotal, m.CurrentTotal,
		m.ReferenceType, m.ReferenceID, m.Note, m.CreatedAt,
	).Scan(&m.ID)
	if err != nil {
		return wrapErr("insert movement", err)
	}
	return nil
}

func (r *MovementRepo) ListByProduct(ctx context.Context, productID int64, limit int) ([]*entity.Movement, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := r.q.Query(ctx, `
		SELECT id, transaction_id, product_id, movement_type, size, quantity, previous_total, current_total,
			reference_type, reference_id, note, created_at
		FROM movements WHERE product_id = $1
		ORDER BY id DESC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, wrapErr("list movements", err)
	}
	defer rows.Close()
	var list []*entity.Movement
	for rows.Next() {
		var m entity.Movement
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.ProductID, &m.Type, &m.Size, &m.Quantity, &m.PreviousTotal,
			&m.CurrentTotal, &m.ReferenceType, &m.ReferenceID, &m.Note, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan movement: %w", err)
		}
		list = append(list, &m)
	}
	return list, rows.Err()
}
