package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// NoSize es la talla sintética de los productos sin tallas. Nunca se guarda en SizeStock.
const NoSize = ""

// Product representa una variante en stock identificada por (CategoryID, Name, VariantAttr).
// AvgUnitCost es promedio ponderado; no se reinicia en 0 cuando el stock llega a 0.
type Product struct {
	ID             int64
	CategoryID     int64
	Name           string
	VariantAttr    string         // color o categoría IP, normalizado ("" = sin valor)
	SizeStock      map[string]int // vacío = producto sin tallas
	TotalStock     int
	AvgUnitCost    decimal.Decimal
	TotalCostValue decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Sized indica si el producto maneja stock por talla.
func (p *Product) Sized() bool {
	return len(p.SizeStock) > 0
}

// Available devuelve las unidades disponibles en size (o en TotalStock si no maneja tallas).
func (p *Product) Available(size string) int {
	if size == NoSize {
		return p.TotalStock
	}
	return p.SizeStock[size]
}

// Clone devuelve una copia profunda (SizeStock incluido).
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	cp.SizeStock = make(map[string]int, len(p.SizeStock))
	for k, v := range p.SizeStock {
		cp.SizeStock[k] = v
	}
	return &cp
}
