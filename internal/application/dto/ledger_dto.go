package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// DateLayout formato de fechas en requests y responses.
const DateLayout = "2006-01-02"

// ── Entradas de mercancía ──

// CreateStockInRequest body para POST /api/stock-ins.
// Quantities usa la clave "" para productos sin tallas.
type CreateStockInRequest struct {
	Date        string          `json:"date" validate:"required,datetime=2006-01-02"`
	OrderType   string          `json:"order_type" validate:"max=50"`
	CategoryID  int64           `json:"category_id" validate:"required,gt=0"`
	ProductName string          `json:"product_name" validate:"required,max=200"`
	VariantAttr *string         `json:"variant_attr,omitempty" validate:"omitempty,max=100"`
	Quantities  map[string]int  `json:"quantities" validate:"required,min=1,sizes"`
	UnitCost    decimal.Decimal `json:"unit_cost" validate:"decimal_gte0"`
	Note        string          `json:"note,omitempty" validate:"max=500"`
}

// ToInput convierte el request al input del coordinador.
func (r CreateStockInRequest) ToInput() (ledger.CreateStockInInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.CreateStockInInput{}, err
	}
	return ledger.CreateStockInInput{
		Date:        date,
		OrderType:   r.OrderType,
		CategoryID:  r.CategoryID,
		ProductName: r.ProductName,
		VariantAttr: r.VariantAttr,
		Quantities:  r.Quantities,
		UnitCost:    r.UnitCost,
		Note:        r.Note,
	}, nil
}

// EditStockInRequest body para PATCH /api/stock-ins/:id. Campos ausentes no cambian.
type EditStockInRequest struct {
	Date       *string          `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	OrderType  *string          `json:"order_type,omitempty" validate:"omitempty,max=50"`
	Quantities map[string]int   `json:"quantities,omitempty" validate:"omitempty,min=1,sizes"`
	UnitCost   *decimal.Decimal `json:"unit_cost,omitempty" validate:"omitempty,decimal_gte0"`
	Note       *string          `json:"note,omitempty" validate:"omitempty,max=500"`
}

func (r EditStockInRequest) ToInput() (ledger.EditStockInInput, error) {
	in := ledger.EditStockInInput{
		OrderType:  r.OrderType,
		Quantities: r.Quantities,
		UnitCost:   r.UnitCost,
		Note:       r.Note,
	}
	if r.Date != nil {
		date, err := parseDate(*r.Date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	}
	return in, nil
}

// StockInResponse entrada de mercancía.
type StockInResponse struct {
	ID            int64           `json:"id"`
	ProductID     int64           `json:"product_id"`
	Date          string          `json:"date"`
	OrderType     string          `json:"order_type"`
	CategoryID    int64           `json:"category_id"`
	ProductName   string          `json:"product_name"`
	VariantAttr   string          `json:"variant_attr"`
	Quantities    map[string]int  `json:"quantities"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalQuantity int             `json:"total_quantity"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Note          string          `json:"note"`
}

func NewStockInResponse(e *entity.StockInEntry) StockInResponse {
	return StockInResponse{
		ID:            e.ID,
		ProductID:     e.ProductID,
		Date:          e.Date.Format(DateLayout),
		OrderType:     e.OrderType,
		CategoryID:    e.CategoryID,
		ProductName:   e.ProductName,
		VariantAttr:   e.VariantAttr,
		Quantities:    e.Quantities,
		UnitCost:      e.UnitCost,
		TotalQuantity: e.TotalQuantity,
		TotalCost:     e.TotalCost,
		Note:          e.Note,
	}
}

// StockInResultResponse respuesta de POST /api/stock-ins.
type StockInResultResponse struct {
	StockInID int64           `json:"stock_in_id"`
	ProductID int64           `json:"product_id"`
	Product   ProductResponse `json:"product"`
}

func NewStockInResultResponse(r *ledger.StockInResult) StockInResultResponse {
	return StockInResultResponse{StockInID: r.StockInID, ProductID: r.ProductID, Product: NewProductResponse(r.Product)}
}

// RevisionResponse respuesta de PATCH y DELETE /api/stock-ins/:id.
type RevisionResponse struct {
	ProductID            int64            `json:"product_id"`
	RecomputedSalesCount int              `json:"recomputed_sales_count"`
	Product              *ProductResponse `json:"product,omitempty"`
}

func NewRevisionResponse(r *ledger.RevisionOutcome) RevisionResponse {
	out := RevisionResponse{ProductID: r.ProductID, RecomputedSalesCount: r.RecomputedSalesCount}
	if r.Product != nil {
		p := NewProductResponse(r.Product)
		out.Product = &p
	}
	return out
}

// ── Ventas ──

// CreateSaleRequest body para POST /api/sales. Size nulo o vacío = producto sin tallas.
type CreateSaleRequest struct {
	Date           string          `json:"date" validate:"required,datetime=2006-01-02"`
	CustomerType   string          `json:"customer_type" validate:"max=50"`
	ProductID      int64           `json:"product_id" validate:"required,gt=0"`
	Size           *string         `json:"size,omitempty" validate:"omitempty,max=20"`
	Channel        string          `json:"channel" validate:"max=50"`
	ShippingMethod string          `json:"shipping_method" validate:"max=50"`
	UnitPrice      decimal.Decimal `json:"unit_price" validate:"decimal_gte0"`
	Quantity       int             `json:"quantity" validate:"required,gt=0"`
	Note           string          `json:"note,omitempty" validate:"max=500"`
}

func (r CreateSaleRequest) ToInput() (ledger.CreateSaleInput, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return ledger.CreateSaleInput{}, err
	}
	return ledger.CreateSaleInput{
		Date:           date,
		CustomerType:   r.CustomerType,
		ProductID:      r.ProductID,
		Size:           r.Size,
		Channel:        r.Channel,
		ShippingMethod: r.ShippingMethod,
		UnitPrice:      r.UnitPrice,
		Quantity:       r.Quantity,
		Note:           r.Note,
	}, nil
}

// SaleResponse venta con utilidad bruta derivada.
type SaleResponse struct {
	ID              int64           `json:"id"`
	ProductID       int64           `json:"product_id"`
	Date            string          `json:"date"`
	CustomerType    string          `json:"customer_type"`
	Size            *string         `json:"size"`
	Channel         string          `json:"channel"`
	ShippingMethod  string          `json:"shipping_method"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	Quantity        int             `json:"quantity"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	CostOfGoodsSold decimal.Decimal `json:"cost_of_goods_sold"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	Note            string          `json:"note"`
}

func NewSaleResponse(s *entity.SaleEntry) SaleResponse {
	return SaleResponse{
		ID:              s.ID,
		ProductID:       s.ProductID,
		Date:            s.Date.Format(DateLayout),
		CustomerType:    s.CustomerType,
		Size:            s.Size,
		Channel:         s.Channel,
		ShippingMethod:  s.ShippingMethod,
		UnitPrice:       s.UnitPrice,
		Quantity:        s.Quantity,
		TotalAmount:     s.TotalAmount,
		CostOfGoodsSold: s.CostOfGoodsSold,
		GrossProfit:     s.GrossProfit(),
		Note:            s.Note,
	}
}

// SaleResultResponse respuesta de POST /api/sales.
type SaleResultResponse struct {
	SaleID          int64           `json:"sale_id"`
	ProductID       int64           `json:"product_id"`
	CostOfGoodsSold decimal.Decimal `json:"cost_of_goods_sold"`
	Product         ProductResponse `json:"product"`
}

func NewSaleResultResponse(r *ledger.SaleResult) SaleResultResponse {
	return SaleResultResponse{SaleID: r.SaleID, ProductID: r.ProductID, CostOfGoodsSold: r.CostOfGoodsSold, Product: NewProductResponse(r.Product)}
}

// DeleteSaleResponse respuesta de DELETE /api/sales/:id.
type DeleteSaleResponse struct {
	ProductID        int64           `json:"product_id"`
	RestoredQuantity int             `json:"restored_quantity"`
	RestoredCost     decimal.Decimal `json:"restored_cost"`
	Product          ProductResponse `json:"product"`
}

func NewDeleteSaleResponse(r *ledger.DeleteSaleResult) DeleteSaleResponse {
	return DeleteSaleResponse{
		ProductID:        r.ProductID,
		RestoredQuantity: r.RestoredQuantity,
		RestoredCost:     r.RestoredCost,
		Product:          NewProductResponse(r.Product),
	}
}

// ── Productos y movimientos ──

// ResolveProductRequest body para POST /api/products/resolve.
type ResolveProductRequest struct {
	CategoryID  int64   `json:"category_id" validate:"required,gt=0"`
	Name        string  `json:"name" validate:"required,max=200"`
	VariantAttr *string `json:"variant_attr,omitempty" validate:"omitempty,max=100"`
}

// ProductResponse variante en stock con costos.
type ProductResponse struct {
	ID             int64           `json:"id"`
	CategoryID     int64           `json:"category_id"`
	Name           string          `json:"name"`
	VariantAttr    string          `json:"variant_attr"`
	SizeStock      map[string]int  `json:"size_stock"`
	TotalStock     int             `json:"total_stock"`
	AvgUnitCost    decimal.Decimal `json:"avg_unit_cost"`
	TotalCostValue decimal.Decimal `json:"total_cost_value"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

func NewProductResponse(p *entity.Product) ProductResponse {
	if p == nil {
		return ProductResponse{}
	}
	return ProductResponse{
		ID:             p.ID,
		CategoryID:     p.CategoryID,
		Name:           p.Name,
		VariantAttr:    p.VariantAttr,
		SizeStock:      p.SizeStock,
		TotalStock:     p.TotalStock,
		AvgUnitCost:    p.AvgUnitCost,
		TotalCostValue: p.TotalCostValue,
		UpdatedAt:      p.UpdatedAt,
	}
}

// MovementResponse registro del log de movimientos.
type MovementResponse struct {
	ID            int64     `json:"id"`
	TransactionID string    `json:"transaction_id"`
	Type          string    `json:"type"`
	Size          string    `json:"size"`
	Quantity      int       `json:"quantity"`
	PreviousTotal int       `json:"previous_total"`
	CurrentTotal  int       `json:"current_total"`
	ReferenceType string    `json:"reference_type"`
	ReferenceID   int64     `json:"reference_id"`
	Note          string    `json:"note,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewMovementResponse(m *entity.Movement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		TransactionID: m.TransactionID,
		Type:          m.Type,
		Size:          m.Size,
		Quantity:      m.Quantity,
		PreviousTotal: m.PreviousTotal,
		CurrentTotal:  m.CurrentTotal,
		ReferenceType: m.ReferenceType,
		ReferenceID:   m.ReferenceID,
		Note:          m.Note,
		CreatedAt:     m.CreatedAt,
	}
}

// ListResponse envoltorio de listados.
type ListResponse[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

// MapList aplica fn a cada elemento y devuelve el envoltorio.
func MapList[E any, T any](list []E, fn func(E) T) ListResponse[T] {
	items := make([]T, 0, len(list))
	for _, e := range list {
		items = append(items, fn(e))
	}
	return ListResponse[T]{Total: len(items), Items: items}
}

func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: fecha inválida %q", domain.ErrInvalidInput, s)
	}
	return t, nil
}
