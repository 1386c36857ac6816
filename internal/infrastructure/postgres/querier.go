package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// Querier es lo común entre *pgxpool.Pool y pgx.Tx: los repositorios funcionan con ambos.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var (
	_ Querier = (*pgxpool.Pool)(nil)
	_ Querier = (pgx.Tx)(nil)
)

// NewLedger arma los repositorios del libro sobre q (pool para lecturas, tx dentro de TxRunner).
func NewLedger(q Querier) repository.Ledger {
	return repository.Ledger{
		Products:  NewProductRepository(q),
		StockIns:  NewStockInRepository(q),
		Sales:     NewSaleRepository(q),
		Movements: NewMovementRepository(q),
	}
}
