package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
)

var _ ledger.Locker = (*RedisLocker)(nil)

// ErrLockTimeout no se obtuvo la clave dentro del tiempo de espera. Es un conflicto reintentable.
var ErrLockTimeout = fmt.Errorf("%w: tiempo de espera agotado obteniendo el candado", domain.ErrConflict)

// RedisLocker candado distribuido por clave (varias réplicas del servicio) sobre bsm/redislock.
// TTL acota cuánto sobrevive un candado si el proceso muere; Wait acota la espera.
type RedisLocker struct {
	client *redislock.Client
	prefix string
	ttl    time.Duration
	wait   time.Duration
	retry  time.Duration
	log    zerolog.Logger
}

// NewRedisLocker construye el candado. prefix separa las claves de otras aplicaciones.
func NewRedisLocker(rdb *redis.Client, prefix string, ttl, wait time.Duration, log zerolog.Logger) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if wait <= 0 {
		wait = 10 * time.Second
	}
	return &RedisLocker{
		client: redislock.New(rdb),
		prefix: prefix,
		ttl:    ttl,
		wait:   wait,
		retry:  50 * time.Millisecond,
		log:    log.With().Str("component", "redis_locker").Logger(),
	}
}

// Lock reintenta con espera lineal hasta obtener la clave, agotar Wait o cancelar ctx.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	full := l.prefix + key
	lk, err := l.client.Obtain(waitCtx, full, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.retry),
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("lock %s: %w", key, ctxErr)
		}
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("lock %s: %w", key, ErrLockTimeout)
		}
		return nil, fmt.Errorf("lock %s: %w", key, err)
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// Liberar con un contexto propio: el del request puede estar cancelado.
		relCtx, relCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer relCancel()
		if err := lk.Release(relCtx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.log.Warn().Err(err).Str("key", full).Msg("no se pudo liberar el candado")
		}
	}, nil
}
