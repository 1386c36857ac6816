package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Códigos de hallazgo de la conciliación.
const (
	IssueIdentityDivergence = "identity_divergence" // compras != valor en stock + COGS
	IssueSizeTotalMismatch  = "size_total_mismatch" // sum(SizeStock) != TotalStock
	IssueNegativeStock      = "negative_stock"      // TotalStock o alguna talla < 0
	IssueCostValueDrift     = "cost_value_drift"    // TotalCostValue != AvgUnitCost * TotalStock
	IssueQuantityDrift      = "quantity_drift"      // comprado - vendido != TotalStock
	IssueMovementLogDrift   = "movement_log_drift"  // último CurrentTotal != TotalStock
	IssueOrphanSale         = "orphan_sale"         // venta sin producto
	IssueOrphanStockIn      = "orphan_stock_in"     // entrada sin producto
	IssueReadFailure        = "read_failure"
)

// AuditIssue hallazgo individual.
type AuditIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ProductAudit resultado de conciliar un producto.
type ProductAudit struct {
	ProductID         int64           `json:"product_id"`
	Consistent        bool            `json:"consistent"`
	PurchasedCost     decimal.Decimal `json:"purchased_cost"`
	PurchasedQuantity int             `json:"purchased_quantity"`
	SoldQuantity      int             `json:"sold_quantity"`
	TotalCostValue    decimal.Decimal `json:"total_cost_value"`
	TotalCOGS         decimal.Decimal `json:"total_cogs"`
	Divergence        decimal.Decimal `json:"divergence"` // compras - (valor en stock + COGS)
	Issues            []AuditIssue    `json:"issues"`
}

// AuditReport resultado de conciliar todos los productos.
type AuditReport struct {
	GeneratedAt      time.Time      `json:"generated_at"`
	ProductsChecked  int            `json:"products_checked"`
	Inconsistent     int            `json:"inconsistent"`
	Products         []ProductAudit `json:"products"`
	OrphanSaleIDs    []int64        `json:"orphan_sale_ids"`
	OrphanStockInIDs []int64        `json:"orphan_stock_in_ids"`
	Issues           []AuditIssue   `json:"issues"` // hallazgos no atribuibles a un producto
}

// Healthy indica que no hay divergencias ni huérfanos.
func (r *AuditReport) Healthy() bool {
	return r.Inconsistent == 0 && len(r.OrphanSaleIDs) == 0 && len(r.OrphanStockInIDs) == 0 && len(r.Issues) == 0
}
