package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/domain/variant"
)

var (
	_ repository.ProductRepository  = (*productRepo)(nil)
	_ repository.StockInRepository  = (*stockInRepo)(nil)
	_ repository.SaleRepository     = (*saleRepo)(nil)
	_ repository.MovementRepository = (*movementRepo)(nil)
)

// ── Productos ──

type productRepo struct{ h *handle }

// Create rechaza con ErrConflict si ya existe un producto con la misma clave natural.
func (r *productRepo) Create(ctx context.Context, p *entity.Product) error {
	return r.h.write(ctx, "products.create", func(st *state) error {
		attr := p.VariantAttr
		key := variant.NewKey(p.CategoryID, p.Name, &attr)
		for _, existing := range st.products {
			if key.Matches(existing.CategoryID, existing.Name, existing.VariantAttr) {
				return domain.ErrConflict
			}
		}
		st.nextProduct++
		p.ID = st.nextProduct
		st.products[p.ID] = p.Clone()
		return nil
	})
}

func (r *productRepo) GetByID(_ context.Context, id int64) (*entity.Product, error) {
	var out *entity.Product
	err := r.h.read(func(st *state) error {
		out = st.products[id].Clone()
		return nil
	})
	return out, err
}

// GetForUpdate equivale a GetByID: las transacciones en memoria ya son exclusivas.
func (r *productRepo) GetForUpdate(ctx context.Context, id int64) (*entity.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *productRepo) FindByNaturalKey(_ context.Context, key variant.Key) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.read(func(st *state) error {
		for _, p := range st.products {
			if key.Matches(p.CategoryID, p.Name, p.VariantAttr) {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r *productRepo) Update(ctx context.Context, p *entity.Product) error {
	return r.h.write(ctx, "products.update", func(st *state) error {
		if _, ok := st.products[p.ID]; !ok {
			return domain.ErrNotFound
		}
		st.products[p.ID] = p.Clone()
		return nil
	})
}

func (r *productRepo) List(_ context.Context, categoryID *int64) ([]*entity.Product, error) {
	var out []*entity.Product
	err := r.h.read(func(st *state) error {
		for _, p := range st.products {
			if categoryID == nil || p.CategoryID == *categoryID {
				out = append(out, p.Clone())
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

// ── Entradas ──

type stockInRepo struct{ h *handle }

func (r *stockInRepo) Create(ctx context.Context, e *entity.StockInEntry) error {
	return r.h.write(ctx, "stock_ins.create", func(st *state) error {
		st.nextStockIn++
		e.ID = st.nextStockIn
		st.stockIns[e.ID] = e.Clone()
		return nil
	})
}

func (r *stockInRepo) GetByID(_ context.Context, id int64) (*entity.StockInEntry, error) {
	var out *entity.StockInEntry
	err := r.h.read(func(st *state) error {
		out = st.stockIns[id].Clone()
		return nil
	})
	return out, err
}

func (r *stockInRepo) Update(ctx context.Context, e *entity.StockInEntry) error {
	return r.h.write(ctx, "stock_ins.update", func(st *state) error {
		if _, ok := st.stockIns[e.ID]; !ok {
			return domain.ErrNotFound
		}
		st.stockIns[e.ID] = e.Clone()
		return nil
	})
}

func (r *stockInRepo) Delete(ctx context.Context, id int64) error {
	return r.h.write(ctx, "stock_ins.delete", func(st *state) error {
		delete(st.stockIns, id)
		return nil
	})
}

func (r *stockInRepo) ListByProduct(_ context.Context, productID int64) ([]*entity.StockInEntry, error) {
	var out []*entity.StockInEntry
	err := r.h.read(func(st *state) error {
		p, ok := st.products[productID]
		if !ok {
			for _, e := range st.stockIns {
				if e.ProductID == productID {
					out = append(out, e.Clone())
				}
			}
			return nil
		}
		for _, e := range st.stockIns {
			if resolves(e, p) {
				out = append(out, e.Clone())
			}
		}
		return nil
	})
	sortEntries(out)
	return out, err
}

func (r *stockInRepo) ListOrphanIDs(_ context.Context) ([]int64, error) {
	var out []int64
	err := r.h.read(func(st *state) error {
		for id, e := range st.stockIns {
			if e.ProductID != 0 {
				if _, ok := st.products[e.ProductID]; !ok {
					out = append(out, id)
				}
				continue
			}
			owned := false
			for _, p := range st.products {
				if resolves(e, p) {
					owned = true
					break
				}
			}
			if !owned {
				out = append(out, id)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

// ── Ventas ──

type saleRepo struct{ h *handle }

func (r *saleRepo) Create(ctx context.Context, s *entity.SaleEntry) error {
	return r.h.write(ctx, "sales.create", func(st *state) error {
		st.nextSale++
		s.ID = st.nextSale
		st.sales[s.ID] = cloneSale(s)
		return nil
	})
}

func (r *saleRepo) GetByID(_ context.Context, id int64) (*entity.SaleEntry, error) {
	var out *entity.SaleEntry
	err := r.h.read(func(st *state) error {
		out = cloneSale(st.sales[id])
		return nil
	})
	return out, err
}

func (r *saleRepo) Delete(ctx context.Context, id int64) error {
	return r.h.write(ctx, "sales.delete", func(st *state) error {
		delete(st.sales, id)
		return nil
	})
}

func (r *saleRepo) ListByProduct(_ context.Context, productID int64) ([]*entity.SaleEntry, error) {
	var out []*entity.SaleEntry
	err := r.h.read(func(st *state) error {
		for _, s := range st.sales {
			if s.ProductID == productID {
				out = append(out, cloneSale(s))
			}
		}
		return nil
	})
	sortSales(out)
	return out, err
}

func (r *saleRepo) UpdateCOGS(ctx context.Context, id int64, cogs decimal.Decimal) error {
	return r.h.write(ctx, "sales.update_cogs", func(st *state) error {
		s, ok := st.sales[id]
		if !ok {
			return domain.ErrNotFound
		}
		s.CostOfGoodsSold = cogs
		return nil
	})
}

func (r *saleRepo) ListOrphanIDs(_ context.Context) ([]int64, error) {
	var out []int64
	err := r.h.read(func(st *state) error {
		for id, s := range st.sales {
			if _, ok := st.products[s.ProductID]; !ok {
				out = append(out, id)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, err
}

// ── Movimientos ──

type movementRepo struct{ h *handle }

func (r *movementRepo) Append(ctx context.Context, m *entity.Movement) error {
	return r.h.write(ctx, "movements.append", func(st *state) error {
		st.nextMovement++
		m.ID = st.nextMovement
		cp := *m
		st.movements = append(st.movements, &cp)
		return nil
	})
}

func (r *movementRepo) ListByProduct(_ context.Context, productID int64, limit int) ([]*entity.Movement, error) {
	var out []*entity.Movement
	err := r.h.read(func(st *state) error {
		for i := len(st.movements) - 1; i >= 0; i-- {
			if limit > 0 && len(out) >= limit {
				break
			}
			if m := st.movements[i]; m.ProductID == productID {
				cp := *m
				out = append(out, &cp)
			}
		}
		return nil
	})
	return out, err
}
