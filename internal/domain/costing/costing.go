// Package costing implementa el motor de costo promedio ponderado del libro de inventario.
// Funciones puras sobre Product y las entradas/ventas: no hacen I/O ni mutan sus argumentos.
//
// Identidad contable que preservan todas las operaciones, por producto:
//
//	sum(StockInEntry.TotalCost) == Product.TotalCostValue + sum(SaleEntry.CostOfGoodsSold)
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// Escalas de redondeo: costo unitario promedio a 6 decimales, montos a 4.
const (
	CostScale  int32 = 6
	MoneyScale int32 = 4
)

// Epsilon tolerancia de las comparaciones monetarias (0.01 unidades de moneda).
var Epsilon = decimal.New(1, -2)

// WeightedAverage costo promedio ponderado = costoTotal / cantidadTotal (0 si la cantidad es 0).
func WeightedAverage(totalCost decimal.Decimal, totalQty int) decimal.Decimal {
	if totalQty <= 0 {
		return decimal.Zero
	}
	return totalCost.Div(decimal.NewFromInt(int64(totalQty))).Round(CostScale)
}

// Money redondea un monto (o un costo/precio unitario capturado) a la escala monetaria,
// la misma de las columnas NUMERIC(18,4).
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyScale)
}

// Cost = costo unitario * cantidad, redondeado a la escala monetaria.
func Cost(unitCost decimal.Decimal, qty int) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(qty))).Round(MoneyScale)
}

// ApplyStockIn fusiona una entrada en el producto:
//
//	NuevoStock = Stock + CantEntrada
//	NuevoValor = Valor + CostoEntrada
//	NuevoCosto = NuevoValor / NuevoStock
func ApplyStockIn(p *entity.Product, e *entity.StockInEntry) (*entity.Product, error) {
	if err := validateQuantities(e.Quantities); err != nil {
		return nil, err
	}
	entry := e.Clone()
	entry.Recompute()
	if entry.TotalQuantity <= 0 {
		return nil, domain.ErrNonPositiveQuantity
	}

	next := p.Clone()
	next.TotalStock += entry.TotalQuantity
	for size, q := range entry.Quantities {
		if size != entity.NoSize {
			next.SizeStock[size] += q
		}
	}
	if err := checkSizing(next); err != nil {
		return nil, err
	}
	next.TotalCostValue = p.TotalCostValue.Add(entry.TotalCost)
	next.AvgUnitCost = WeightedAverage(next.TotalCostValue, next.TotalStock)
	return next, nil
}

// SaleResult resultado de aplicar una venta.
type SaleResult struct {
	Product *entity.Product
	COGS    decimal.Decimal
}

// ApplySale descuenta quantity del producto al costo promedio vigente.
// La venta no altera el promedio; solo reduce cantidad y valor en stock.
// Si la venta agota el producto, o el COGS redondeado supera el valor en stock,
// el COGS es exactamente el valor en stock y este queda en 0.
func ApplySale(p *entity.Product, size string, quantity int) (SaleResult, error) {
	if quantity <= 0 {
		return SaleResult{}, domain.ErrNonPositiveQuantity
	}
	switch {
	case p.Sized() && size == entity.NoSize:
		return SaleResult{}, domain.ErrSizeMismatch
	case !p.Sized() && size != entity.NoSize && p.TotalStock > 0:
		return SaleResult{}, domain.ErrSizeMismatch
	}
	if p.Available(size) < quantity {
		return SaleResult{}, domain.ErrInsufficientStock
	}
	if !p.AvgUnitCost.IsPositive() {
		return SaleResult{}, domain.ErrZeroCostSale
	}

	cogs := Cost(p.AvgUnitCost, quantity)
	next := p.Clone()
	next.TotalStock -= quantity
	if size != entity.NoSize {
		next.SizeStock[size] -= quantity
		if next.SizeStock[size] == 0 {
			delete(next.SizeStock, size)
		}
	}
	if next.TotalStock == 0 || cogs.GreaterThan(p.TotalCostValue) {
		cogs = floorZero(p.TotalCostValue)
	}
	next.TotalCostValue = floorZero(p.TotalCostValue.Sub(cogs))
	return SaleResult{Product: next, COGS: cogs}, nil
}

// RestoreSale revierte una venta eliminada usando el COGS guardado en la venta,
// nunca UnitPrice * Quantity. El costo promedio no cambia.
func RestoreSale(p *entity.Product, sale *entity.SaleEntry) (*entity.Product, error) {
	if sale.Quantity <= 0 {
		return nil, domain.ErrNonPositiveQuantity
	}
	next := p.Clone()
	next.TotalStock += sale.Quantity
	if size := sale.SizeKey(); size != entity.NoSize {
		next.SizeStock[size] += sale.Quantity
	}
	if err := checkSizing(next); err != nil {
		return nil, err
	}
	next.TotalCostValue = p.TotalCostValue.Add(sale.CostOfGoodsSold)
	return next, nil
}

// Revision entrada de ReviseStockIn. New == nil representa la eliminación de Old.
// Others son las demás entradas vigentes del producto (sin Old).
type Revision struct {
	Product *entity.Product
	Old     *entity.StockInEntry
	New     *entity.StockInEntry
	Others  []*entity.StockInEntry
	Sales   []*entity.SaleEntry
}

// RevisionResult nuevo estado consistente del producto y las ventas cuyo COGS cambió.
type RevisionResult struct {
	Product           *entity.Product
	PreviousAvg       decimal.Decimal
	RecomputedSales   []*entity.SaleEntry
	SizeDeltas        map[string]int
	PurchasedCost     decimal.Decimal
	PurchasedQuantity int
}

// ReviseStockIn recalcula el producto tras editar o eliminar una entrada.
// El promedio se deriva del conjunto completo de entradas vigentes (no del delta);
// si cambia, el COGS de todas las ventas del producto se recalcula y el valor en stock
// queda como compras - sum(COGS). Si el producto queda agotado (o el valor sería negativo)
// el residuo de redondeo va a la última venta (Sales en orden de fecha) y el valor queda en 0.
func ReviseStockIn(r Revision) (RevisionResult, error) {
	if r.Old == nil {
		return RevisionResult{}, domain.ErrInvalidInput
	}
	var newQty map[string]int
	var newEntry *entity.StockInEntry
	if r.New != nil {
		if err := validateQuantities(r.New.Quantities); err != nil {
			return RevisionResult{}, err
		}
		newEntry = r.New.Clone()
		newEntry.Recompute()
		if newEntry.TotalQuantity <= 0 {
			return RevisionResult{}, domain.ErrNonPositiveQuantity
		}
		newQty = newEntry.Quantities
	}

	deltas := make(map[string]int)
	for size, q := range r.Old.Quantities {
		deltas[size] -= q
	}
	for size, q := range newQty {
		deltas[size] += q
	}

	next := r.Product.Clone()
	for size, d := range deltas {
		if d == 0 {
			delete(deltas, size)
			continue
		}
		next.TotalStock += d
		if size == entity.NoSize {
			continue
		}
		next.SizeStock[size] += d
		if next.SizeStock[size] < 0 {
			return RevisionResult{}, domain.ErrInsufficientHistoricalStock
		}
		if next.SizeStock[size] == 0 {
			delete(next.SizeStock, size)
		}
	}
	if next.TotalStock < 0 {
		return RevisionResult{}, domain.ErrInsufficientHistoricalStock
	}
	if err := checkSizing(next); err != nil {
		return RevisionResult{}, err
	}

	purchasedCost := decimal.Zero
	purchasedQty := 0
	for _, e := range r.Others {
		purchasedCost = purchasedCost.Add(e.TotalCost)
		purchasedQty += e.TotalQuantity
	}
	if newEntry != nil {
		purchasedCost = purchasedCost.Add(newEntry.TotalCost)
		purchasedQty += newEntry.TotalQuantity
	}

	soldQty := 0
	for _, s := range r.Sales {
		soldQty += s.Quantity
	}
	if soldQty > purchasedQty {
		return RevisionResult{}, domain.ErrInsufficientHistoricalStock
	}

	newAvg := WeightedAverage(purchasedCost, purchasedQty)
	result := RevisionResult{
		PreviousAvg:       r.Product.AvgUnitCost,
		SizeDeltas:        deltas,
		PurchasedCost:     purchasedCost,
		PurchasedQuantity: purchasedQty,
	}

	repriced := !newAvg.Equal(r.Product.AvgUnitCost)
	cogs := make([]decimal.Decimal, len(r.Sales))
	totalCOGS := decimal.Zero
	for i, s := range r.Sales {
		cogs[i] = s.CostOfGoodsSold
		if repriced {
			cogs[i] = Cost(newAvg, s.Quantity)
		}
		totalCOGS = totalCOGS.Add(cogs[i])
	}

	value := purchasedCost.Sub(totalCOGS)
	if last := len(cogs) - 1; last >= 0 && (next.TotalStock == 0 || value.IsNegative()) {
		if adjusted := cogs[last].Add(value); !adjusted.IsNegative() {
			cogs[last] = adjusted
			value = decimal.Zero
		}
	}
	for i, s := range r.Sales {
		if !cogs[i].Equal(s.CostOfGoodsSold) {
			cp := *s
			cp.CostOfGoodsSold = cogs[i]
			result.RecomputedSales = append(result.RecomputedSales, &cp)
		}
	}

	next.AvgUnitCost = newAvg
	next.TotalCostValue = floorZero(value)
	result.Product = next
	return result, nil
}

// Balance devuelve la divergencia de la identidad contable:
// compras - (valor en stock + sum(COGS)). Cero significa consistente.
func Balance(p *entity.Product, entries []*entity.StockInEntry, sales []*entity.SaleEntry) decimal.Decimal {
	purchased := decimal.Zero
	for _, e := range entries {
		purchased = purchased.Add(e.TotalCost)
	}
	cogs := decimal.Zero
	for _, s := range sales {
		cogs = cogs.Add(s.CostOfGoodsSold)
	}
	return purchased.Sub(p.TotalCostValue.Add(cogs))
}

// WithinEpsilon indica si |d| <= Epsilon.
func WithinEpsilon(d decimal.Decimal) bool {
	return d.Abs().LessThanOrEqual(Epsilon)
}

func validateQuantities(q map[string]int) error {
	if len(q) == 0 {
		return domain.ErrNonPositiveQuantity
	}
	for _, v := range q {
		if v <= 0 {
			return domain.ErrNonPositiveQuantity
		}
	}
	_, hasNoSize := q[entity.NoSize]
	if hasNoSize && len(q) > 1 {
		return domain.ErrSizeMismatch
	}
	return nil
}

// checkSizing: si el producto maneja tallas, la suma por talla debe igualar el total.
func checkSizing(p *entity.Product) error {
	if !p.Sized() {
		return nil
	}
	sum := 0
	for _, v := range p.SizeStock {
		sum += v
	}
	if sum != p.TotalStock {
		return domain.ErrSizeMismatch
	}
	return nil
}

func floorZero(d decimal.Decimal) decimal.Decimal {
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
