package ledger

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

// Coordinator envuelve cada operación externa (entradas y ventas) en una unidad atómica:
// valida, resuelve el producto, aplica el motor de costos, persiste producto + entrada/venta +
// movimientos en una sola transacción y hace Commit o Rollback completo.
//
// Las escrituras sobre el mismo producto se serializan con Locker durante todo
// validar → aplicar → persistir; productos distintos avanzan en paralelo.
type Coordinator struct {
	txRunner TxRunner
	repos    repository.Ledger
	locker   Locker
	resolver *VariantResolver
	log      zerolog.Logger
	now      func() time.Time
}

// NewCoordinator construye el coordinador. repos se usa solo para lecturas fuera de transacción.
func NewCoordinator(txRunner TxRunner, repos repository.Ledger, locker Locker, log zerolog.Logger) *Coordinator {
	return &Coordinator{
		txRunner: txRunner,
		repos:    repos,
		locker:   locker,
		resolver: NewVariantResolver(),
		log:      log.With().Str("component", "ledger").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Fases de una operación. Failed es alcanzable desde cualquiera.
type phase string

const (
	phaseStarted   phase = "started"
	phaseValidated phase = "validated"
	phaseApplied   phase = "applied"
	phaseLogged    phase = "logged"
	phaseCommitted phase = "committed"
	phaseFailed    phase = "failed"
)

// operation sigue el estado de una operación del coordinador para logs y errores.
type operation struct {
	name  string
	txID  string
	phase phase
	at    time.Time
	log   zerolog.Logger
}

func (c *Coordinator) begin(name string) *operation {
	txID := uuid.New().String()
	return &operation{
		name:  name,
		txID:  txID,
		phase: phaseStarted,
		at:    c.now(),
		log:   c.log.With().Str("op", name).Str("tx_id", txID).Logger(),
	}
}

func (op *operation) advance(p phase) {
	op.phase = p
}

// fail registra el fallo con la fase alcanzada y devuelve el error clasificado.
// Los errores de infraestructura salen como domain.ErrPersistence.
func (op *operation) fail(err error) error {
	err = domain.Persistence(err)
	op.log.Warn().
		Err(err).
		Str("phase", string(op.phase)).
		Str("error_kind", domain.Kind(err)).
		Msg("operación rechazada, sin cambios")
	op.phase = phaseFailed
	return err
}

func (op *operation) commit() *zerolog.Event {
	op.phase = phaseCommitted
	return op.log.Info().Str("phase", string(op.phase))
}

func (c *Coordinator) lockProduct(ctx context.Context, productID int64) (func(), error) {
	return c.locker.Lock(ctx, productLockKey(productID))
}

func productLockKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

// movementChain construye movimientos encadenados (PreviousTotal/CurrentTotal) a partir de un total inicial.
type movementChain struct {
	op      *operation
	product int64
	total   int
	out     []*entity.Movement
}

func newMovementChain(op *operation, productID int64, startTotal int) *movementChain {
	return &movementChain{op: op, product: productID, total: startTotal}
}

func (m *movementChain) add(movType, size string, delta int, refType string, refID int64, note string) {
	prev := m.total
	m.total += delta
	m.out = append(m.out, &entity.Movement{
		TransactionID: m.op.txID,
		ProductID:     m.product,
		Type:          movType,
		Size:          size,
		Quantity:      delta,
		PreviousTotal: prev,
		CurrentTotal:  m.total,
		ReferenceType: refType,
		ReferenceID:   refID,
		Note:          note,
		CreatedAt:     m.op.at,
	})
}

func (m *movementChain) persist(ctx context.Context, repo repository.MovementRepository) error {
	for _, mv := range m.out {
		if err := repo.Append(ctx, mv); err != nil {
			return err
		}
	}
	return nil
}

func sortedSizes(q map[string]int) []string {
	sizes := make([]string, 0, len(q))
	for s := range q {
		sizes = append(sizes, s)
	}
	sort.Strings(sizes)
	return sizes
}
