package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleEntry representa una venta. CostOfGoodsSold es una foto del costo promedio
// al momento del último (re)cálculo, no un valor vivo.
type SaleEntry struct {
	ID              int64
	ProductID       int64
	Date            time.Time
	CustomerType    string
	Size            *string
	Channel         string
	ShippingMethod  string
	UnitPrice       decimal.Decimal
	Quantity        int
	TotalAmount     decimal.Decimal
	CostOfGoodsSold decimal.Decimal
	Note            string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SizeKey devuelve la talla de la venta o NoSize.
func (s *SaleEntry) SizeKey() string {
	if s.Size == nil {
		return NoSize
	}
	return *s.Size
}

// GrossProfit = TotalAmount - CostOfGoodsSold.
func (s *SaleEntry) GrossProfit() decimal.Decimal {
	return s.TotalAmount.Sub(s.CostOfGoodsSold)
}
