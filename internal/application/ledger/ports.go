package ledger

import (
	"context"

	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción del almacén, pasando repositorios atados a esa tx.
// Si fn devuelve error (o el contexto se cancela antes del commit) no queda nada visible.
type TxRunner interface {
	Run(ctx context.Context, fn func(tx repository.Ledger) error) error
}

// Locker serializa las escrituras por clave (un escritor por producto).
// Lock espera hasta obtener la clave o hasta que ctx termine; unlock es idempotente.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
