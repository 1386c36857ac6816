package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockInEntry representa una compra (entrada de mercancía).
// TotalQuantity y TotalCost son derivados; se recalculan con Recompute en cada edición.
type StockInEntry struct {
	ID            int64
	ProductID     int64 // 0 en datos heredados: se resuelve por clave natural
	Date          time.Time
	OrderType     string
	CategoryID    int64
	ProductName   string
	VariantAttr   string
	Quantities    map[string]int // talla -> cantidad; NoSize para productos sin tallas
	UnitCost      decimal.Decimal
	TotalQuantity int
	TotalCost     decimal.Decimal
	Note          string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Recompute deriva TotalQuantity y TotalCost (redondeado a 4 decimales) desde Quantities y UnitCost.
func (e *StockInEntry) Recompute() {
	total := 0
	for _, q := range e.Quantities {
		total += q
	}
	e.TotalQuantity = total
	e.TotalCost = e.UnitCost.Mul(decimal.NewFromInt(int64(total))).Round(4)
}

// Clone devuelve una copia profunda.
func (e *StockInEntry) Clone() *StockInEntry {
	if e == nil {
		return nil
	}
	cp := *e
	cp.Quantities = make(map[string]int, len(e.Quantities))
	for k, v := range e.Quantities {
		cp.Quantities[k] = v
	}
	return &cp
}
