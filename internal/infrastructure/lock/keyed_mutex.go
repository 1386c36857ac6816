// Package lock implementa el puerto ledger.Locker: un escritor por clave (producto o clave natural).
package lock

import (
	"context"
	"fmt"
	"sync"

	"github.com/jhoicas/ledger-api/internal/application/ledger"
)

var _ ledger.Locker = (*KeyedMutex)(nil)

// KeyedMutex candado por clave en proceso. Las claves sin uso se liberan.
type KeyedMutex struct {
	mu   sync.Mutex
	keys map[string]*keyLock
}

type keyLock struct {
	ch   chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{keys: make(map[string]*keyLock)}
}

// Lock espera la clave o el fin de ctx. unlock es idempotente.
func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	kl, ok := m.keys[key]
	if !ok {
		kl = &keyLock{ch: make(chan struct{}, 1)}
		m.keys[key] = kl
	}
	kl.refs++
	m.mu.Unlock()

	select {
	case kl.ch <- struct{}{}:
	case <-ctx.Done():
		m.release(key, kl)
		return nil, fmt.Errorf("lock %s: %w", key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-kl.ch
			m.release(key, kl)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, kl *keyLock) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kl.refs--
	if kl.refs == 0 {
		delete(m.keys, key)
	}
}

// size número de claves vivas (pruebas).
func (m *KeyedMutex) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.keys)
}
