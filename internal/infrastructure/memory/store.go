// Package memory implementa el libro de inventario en memoria: mismo contrato que el
// almacén PostgreSQL, con commit todo-o-nada sobre una copia de trabajo.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

type state struct {
	products     map[int64]*entity.Product
	stockIns     map[int64]*entity.StockInEntry
	sales        map[int64]*entity.SaleEntry
	movements    []*entity.Movement
	nextProduct  int64
	nextStockIn  int64
	nextSale     int64
	nextMovement int64
}

func newState() *state {
	return &state{
		products: map[int64]*entity.Product{},
		stockIns: map[int64]*entity.StockInEntry{},
		sales:    map[int64]*entity.SaleEntry{},
	}
}

func (s *state) clone() *state {
	cp := &state{
		products:     make(map[int64]*entity.Product, len(s.products)),
		stockIns:     make(map[int64]*entity.StockInEntry, len(s.stockIns)),
		sales:        make(map[int64]*entity.SaleEntry, len(s.sales)),
		movements:    append([]*entity.Movement(nil), s.movements...),
		nextProduct:  s.nextProduct,
		nextStockIn:  s.nextStockIn,
		nextSale:     s.nextSale,
		nextMovement: s.nextMovement,
	}
	for id, p := range s.products {
		cp.products[id] = p.Clone()
	}
	for id, e := range s.stockIns {
		cp.stockIns[id] = e.Clone()
	}
	for id, sale := range s.sales {
		cp.sales[id] = cloneSale(sale)
	}
	return cp
}

// FaultFunc se invoca antes de cada escritura con el nombre de la operación
// ("products.create", "movements.append", ...). Un error no nil aborta la escritura.
type FaultFunc func(op string) error

// Store libro de inventario en memoria. Las transacciones se serializan y trabajan sobre
// una copia del estado que solo reemplaza al confirmado si fn termina sin error y el
// contexto sigue vigente.
type Store struct {
	mu      sync.RWMutex // protege st
	writeMu sync.Mutex   // un escritor a la vez
	st      *state
	fault   FaultFunc
}

var _ ledger.TxRunner = (*Store)(nil)

func New() *Store {
	return &Store{st: newState()}
}

// InjectFault instala (o quita, con nil) un hook de fallos para pruebas.
func (s *Store) InjectFault(f FaultFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fault = f
}

// Ledger devuelve repositorios sobre el estado confirmado (lecturas fuera de transacción).
func (s *Store) Ledger() repository.Ledger {
	return s.ledger(&handle{store: s})
}

// Run ejecuta fn en una transacción. Nada de lo escrito por fn es visible si fn falla
// o si ctx se cancela antes del commit.
func (s *Store) Run(ctx context.Context, fn func(tx repository.Ledger) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	s.mu.RLock()
	draft := s.st.clone()
	s.mu.RUnlock()

	if err := fn(s.ledger(&handle{store: s, draft: draft})); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.mu.Lock()
	s.st = draft
	s.mu.Unlock()
	return nil
}

// Seed carga registros tal cual (datos heredados, pruebas). Los ids en 0 se asignan.
// No aplica reglas de costo ni escribe movimientos.
func (s *Store) Seed(products []*entity.Product, stockIns []*entity.StockInEntry, sales []*entity.SaleEntry) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, p := range products {
		cp := p.Clone()
		cp.ID = assignID(cp.ID, &s.st.nextProduct)
		p.ID = cp.ID
		s.st.products[cp.ID] = cp
	}
	for _, e := range stockIns {
		cp := e.Clone()
		cp.ID = assignID(cp.ID, &s.st.nextStockIn)
		e.ID = cp.ID
		s.st.stockIns[cp.ID] = cp
	}
	for _, sale := range sales {
		cp := cloneSale(sale)
		cp.ID = assignID(cp.ID, &s.st.nextSale)
		sale.ID = cp.ID
		s.st.sales[cp.ID] = cp
	}
}

// RemoveProduct borra un producto sin tocar sus entradas ni ventas (simula un borrado externo).
func (s *Store) RemoveProduct(id int64) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.st.products, id)
}

func assignID(id int64, next *int64) int64 {
	if id == 0 {
		*next++
		return *next
	}
	if id > *next {
		*next = id
	}
	return id
}

func (s *Store) ledger(h *handle) repository.Ledger {
	return repository.Ledger{
		Products:  &productRepo{h: h},
		StockIns:  &stockInRepo{h: h},
		Sales:     &saleRepo{h: h},
		Movements: &movementRepo{h: h},
	}
}

// handle resuelve sobre qué estado opera un repositorio: la copia de la transacción
// o el estado confirmado.
type handle struct {
	store *Store
	draft *state
}

func (h *handle) read(fn func(st *state) error) error {
	if h.draft != nil {
		return fn(h.draft)
	}
	h.store.mu.RLock()
	defer h.store.mu.RUnlock()
	return fn(h.store.st)
}

func (h *handle) write(ctx context.Context, op string, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	h.store.mu.RLock()
	fault := h.store.fault
	h.store.mu.RUnlock()
	if fault != nil {
		if err := fault(op); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	if h.draft != nil {
		return fn(h.draft)
	}
	h.store.writeMu.Lock()
	defer h.store.writeMu.Unlock()
	h.store.mu.Lock()
	defer h.store.mu.Unlock()
	return fn(h.store.st)
}

func cloneSale(s *entity.SaleEntry) *entity.SaleEntry {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Size != nil {
		size := *s.Size
		cp.Size = &size
	}
	return &cp
}

// resolves indica si la entrada pertenece a p (por id o, si es heredada, por clave natural).
func resolves(e *entity.StockInEntry, p *entity.Product) bool {
	if e.ProductID != 0 {
		return e.ProductID == p.ID
	}
	attr := p.VariantAttr
	return variant.NewKey(p.CategoryID, p.Name, &attr).Matches(e.CategoryID, e.ProductName, e.VariantAttr)
}

func sortEntries(list []*entity.StockInEntry) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
}

func sortSales(list []*entity.SaleEntry) {
	sort.Slice(list, func(i, j int) bool {
		if !list[i].Date.Equal(list[j].Date) {
			return list[i].Date.Before(list[j].Date)
		}
		return list[i].ID < list[j].ID
	})
}
