package repository

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// MovementRepository puerto del log de movimientos (append-only: no hay Update ni Delete).
type MovementRepository interface {
	Append(ctx context.Context, movement *entity.Movement) error
	// ListByProduct devuelve los movimientos más recientes primero.
	ListByProduct(ctx context.Context, productID int64, limit int) ([]*entity.Movement, error)
}

// Ledger agrupa los repositorios del libro. Los TxRunner entregan un Ledger atado a la transacción.
type Ledger struct {
	Products  ProductRepository
	StockIns  StockInRepository
	Sales     SaleRepository
	Movements MovementRepository
}
