package costing_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/costing"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func emptyProduct() *entity.Product {
	return &entity.Product{ID: 1, CategoryID: 1, Name: "Polo", SizeStock: map[string]int{}}
}

func entry(id int64, unitCost string, q map[string]int) *entity.StockInEntry {
	e := &entity.StockInEntry{ID: id, ProductID: 1, Quantities: q, UnitCost: dec(unitCost)}
	e.Recompute()
	return e
}

func sale(id int64, qty int, cogs string) *entity.SaleEntry {
	return &entity.SaleEntry{ID: id, ProductID: 1, Quantity: qty, UnitPrice: dec("150"), CostOfGoodsSold: dec(cogs)}
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got)
}

// ──────────────────────────────────────────────────────────────────────────────
// WeightedAverage
// ──────────────────────────────────────────────────────────────────────────────

func TestWeightedAverage(t *testing.T) {
	assertDec(t, "145.454545", costing.WeightedAverage(dec("1600"), 11), "promedio redondeado a 6 decimales")
	assertDec(t, "0", costing.WeightedAverage(dec("1600"), 0), "cantidad 0 devuelve 0")
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplyStockIn
// ──────────────────────────────────────────────────────────────────────────────

func TestApplyStockIn_ProductoNuevo(t *testing.T) {
	p := emptyProduct()
	next, err := costing.ApplyStockIn(p, entry(1, "100", map[string]int{entity.NoSize: 10}))
	require.NoError(t, err)

	assert.Equal(t, 10, next.TotalStock)
	assert.Empty(t, next.SizeStock, "producto sin tallas no registra la talla sintética")
	assertDec(t, "100", next.AvgUnitCost, "costo promedio")
	assertDec(t, "1000", next.TotalCostValue, "valor en stock")
	assert.Equal(t, 0, p.TotalStock, "no debe mutar el argumento")
}

func TestApplyStockIn_FusionaTallas(t *testing.T) {
	p := emptyProduct()
	p, err := costing.ApplyStockIn(p, entry(1, "10", map[string]int{"M": 2, "L": 3}))
	require.NoError(t, err)
	p, err = costing.ApplyStockIn(p, entry(2, "20", map[string]int{"M": 5}))
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"M": 7, "L": 3}, p.SizeStock)
	assert.Equal(t, 10, p.TotalStock)
	assertDec(t, "150", p.TotalCostValue, "50 + 100")
	assertDec(t, "15", p.AvgUnitCost, "150 / 10")
}

func TestApplyStockIn_CantidadNoPositiva(t *testing.T) {
	_, err := costing.ApplyStockIn(emptyProduct(), entry(1, "10", map[string]int{"M": 0}))
	assert.ErrorIs(t, err, domain.ErrNonPositiveQuantity)
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "NonPositiveQuantity es un ValidationError")

	_, err = costing.ApplyStockIn(emptyProduct(), entry(1, "10", map[string]int{}))
	assert.ErrorIs(t, err, domain.ErrNonPositiveQuantity)
}

func TestApplyStockIn_TallasIncompatibles(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "10", map[string]int{"M": 2}))
	require.NoError(t, err)

	_, err = costing.ApplyStockIn(p, entry(2, "10", map[string]int{entity.NoSize: 2}))
	assert.ErrorIs(t, err, domain.ErrSizeMismatch, "entrada sin talla sobre producto con tallas")

	_, err = costing.ApplyStockIn(emptyProduct(), entry(3, "10", map[string]int{entity.NoSize: 1, "M": 1}))
	assert.ErrorIs(t, err, domain.ErrSizeMismatch, "mezcla de talla sintética y tallas reales")
}

// ──────────────────────────────────────────────────────────────────────────────
// ApplySale
// ──────────────────────────────────────────────────────────────────────────────

func TestApplySale_NoCambiaPromedio(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "100", map[string]int{entity.NoSize: 10}))
	require.NoError(t, err)

	res, err := costing.ApplySale(p, entity.NoSize, 4)
	require.NoError(t, err)
	assertDec(t, "400", res.COGS, "COGS = promedio * cantidad")
	assert.Equal(t, 6, res.Product.TotalStock)
	assertDec(t, "100", res.Product.AvgUnitCost, "la venta no altera el promedio")
	assertDec(t, "600", res.Product.TotalCostValue, "valor en stock")
}

func TestApplySale_EliminaTallaEnCero(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "10", map[string]int{"M": 2, "L": 1}))
	require.NoError(t, err)

	res, err := costing.ApplySale(p, "L", 1)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"M": 2}, res.Product.SizeStock)
	assert.Equal(t, 2, res.Product.TotalStock)
}

func TestApplySale_Errores(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "10", map[string]int{"M": 2}))
	require.NoError(t, err)

	_, err = costing.ApplySale(p, "M", 3)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)

	_, err = costing.ApplySale(p, "XL", 1)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock, "talla sin stock")

	_, err = costing.ApplySale(p, entity.NoSize, 1)
	assert.ErrorIs(t, err, domain.ErrSizeMismatch, "producto con tallas exige talla")

	_, err = costing.ApplySale(p, "M", 0)
	assert.ErrorIs(t, err, domain.ErrNonPositiveQuantity)
}

// Un producto con stock y costo promedio 0 no puede venderse.
func TestApplySale_CostoCeroRechazado(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "0", map[string]int{entity.NoSize: 5}))
	require.NoError(t, err)
	require.Equal(t, 5, p.TotalStock)

	_, err = costing.ApplySale(p, entity.NoSize, 1)
	assert.ErrorIs(t, err, domain.ErrZeroCostSale)
}

func TestApplySale_AgotarAbsorbeElValor(t *testing.T) {
	p := emptyProduct()
	p.TotalStock = 3
	p.AvgUnitCost = dec("10")
	p.TotalCostValue = dec("29.99")

	res, err := costing.ApplySale(p, entity.NoSize, 3)
	require.NoError(t, err)
	assertDec(t, "29.99", res.COGS, "el COGS es el valor restante")
	assertDec(t, "0", res.Product.TotalCostValue, "nunca negativo")
}

// $100 sobre 150 u: promedio 0.666667 y 150 * promedio = 100.0001.
func TestApplySale_PromedioRedondeadoHaciaArriba(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "1", map[string]int{entity.NoSize: 100}))
	require.NoError(t, err)
	p, err = costing.ApplyStockIn(p, entry(2, "0", map[string]int{entity.NoSize: 50}))
	require.NoError(t, err)
	assertDec(t, "0.666667", p.AvgUnitCost, "promedio redondeado")

	res, err := costing.ApplySale(p, entity.NoSize, 150)
	require.NoError(t, err)
	assertDec(t, "100", res.COGS, "agotar cuesta exactamente el valor en stock")
	assertDec(t, "0", res.Product.TotalCostValue, "valor agotado")

	s := &entity.SaleEntry{Quantity: 150, CostOfGoodsSold: res.COGS}
	restored, err := costing.RestoreSale(res.Product, s)
	require.NoError(t, err)
	assertDec(t, "100", restored.TotalCostValue, "la restauración vuelve al valor previo")

	partial, err := costing.ApplySale(p, entity.NoSize, 149)
	require.NoError(t, err)
	assertDec(t, "99.3334", partial.COGS, "sin agotar se usa el promedio")
	assertDec(t, "0.6666", partial.Product.TotalCostValue, "100 - 99.3334")
}

// ──────────────────────────────────────────────────────────────────────────────
// RestoreSale
// ──────────────────────────────────────────────────────────────────────────────

// Venta y restauración devuelven exactamente el estado previo, usando el COGS guardado.
func TestRestoreSale_IdaYVueltaExacta(t *testing.T) {
	p, err := costing.ApplyStockIn(emptyProduct(), entry(1, "33.333333", map[string]int{"S": 3, "M": 4}))
	require.NoError(t, err)

	res, err := costing.ApplySale(p, "S", 2)
	require.NoError(t, err)
	size := "S"
	s := &entity.SaleEntry{Quantity: 2, Size: &size, UnitPrice: dec("999"), CostOfGoodsSold: res.COGS}

	restored, err := costing.RestoreSale(res.Product, s)
	require.NoError(t, err)
	assert.Equal(t, p.SizeStock, restored.SizeStock)
	assert.Equal(t, p.TotalStock, restored.TotalStock)
	assert.True(t, p.TotalCostValue.Equal(restored.TotalCostValue), "valor exacto, no aproximado")
	assert.True(t, p.AvgUnitCost.Equal(restored.AvgUnitCost))
}

func TestRestoreSale_NoUsaPrecioDeVenta(t *testing.T) {
	p := emptyProduct()
	p.AvgUnitCost = dec("100")
	s := sale(1, 2, "200")
	s.TotalAmount = dec("300")

	restored, err := costing.RestoreSale(p, s)
	require.NoError(t, err)
	assertDec(t, "200", restored.TotalCostValue, "se restaura el COGS, no el precio")
	assertDec(t, "100", restored.AvgUnitCost, "promedio intacto")
}

// ──────────────────────────────────────────────────────────────────────────────
// ReviseStockIn
// ──────────────────────────────────────────────────────────────────────────────

// 10 u @ $100, venta de 3 (COGS $300); editar costo a $150 ⇒ COGS $450 y valor $1050.
func TestReviseStockIn_RecalculoRetroactivo(t *testing.T) {
	old := entry(1, "100", map[string]int{entity.NoSize: 10})
	p, err := costing.ApplyStockIn(emptyProduct(), old)
	require.NoError(t, err)
	res, err := costing.ApplySale(p, entity.NoSize, 3)
	require.NoError(t, err)
	s := sale(1, 3, res.COGS.String())

	out, err := costing.ReviseStockIn(costing.Revision{
		Product: res.Product,
		Old:     old,
		New:     entry(1, "150", map[string]int{entity.NoSize: 10}),
		Sales:   []*entity.SaleEntry{s},
	})
	require.NoError(t, err)
	require.Len(t, out.RecomputedSales, 1)
	assertDec(t, "450", out.RecomputedSales[0].CostOfGoodsSold, "COGS recalculado")
	assertDec(t, "1050", out.Product.TotalCostValue, "10*150 - 450")
	assertDec(t, "150", out.Product.AvgUnitCost, "nuevo promedio")
	assert.Equal(t, 7, out.Product.TotalStock)
	assertDec(t, "300", s.CostOfGoodsSold, "la venta original no se muta")
}

// Escenario completo: entrada 10@100, venta 4, entrada 5@200, eliminar la primera entrada.
func TestReviseStockIn_EliminarEntradaOriginal(t *testing.T) {
	first := entry(1, "100", map[string]int{entity.NoSize: 10})
	second := entry(2, "200", map[string]int{entity.NoSize: 5})

	p, err := costing.ApplyStockIn(emptyProduct(), first)
	require.NoError(t, err)
	res, err := costing.ApplySale(p, entity.NoSize, 4)
	require.NoError(t, err)
	assertDec(t, "400", res.COGS, "COGS de la venta")
	p, err = costing.ApplyStockIn(res.Product, second)
	require.NoError(t, err)
	assert.Equal(t, 11, p.TotalStock)
	assertDec(t, "1600", p.TotalCostValue, "600 + 1000")
	assertDec(t, "145.454545", p.AvgUnitCost, "(600+1000)/11")

	out, err := costing.ReviseStockIn(costing.Revision{
		Product: p,
		Old:     first,
		Others:  []*entity.StockInEntry{second},
		Sales:   []*entity.SaleEntry{sale(1, 4, "400")},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, out.Product.TotalStock, "11 - 10")
	assertDec(t, "200", out.Product.AvgUnitCost, "solo queda 5@200")
	assertDec(t, "800", out.RecomputedSales[0].CostOfGoodsSold, "4 * 200")
	assertDec(t, "200", out.Product.TotalCostValue, "1000 - 800")
	assert.True(t, out.Product.TotalCostValue.Equal(out.Product.AvgUnitCost.Mul(decimal.NewFromInt(1))))
}

// Eliminar compras ya vendidas deja ventas sin unidades que las respalden.
func TestReviseStockIn_SobreventaHistorica(t *testing.T) {
	first := entry(1, "100", map[string]int{entity.NoSize: 10})
	p, err := costing.ApplyStockIn(emptyProduct(), first)
	require.NoError(t, err)
	res, err := costing.ApplySale(p, entity.NoSize, 8)
	require.NoError(t, err)

	_, err = costing.ReviseStockIn(costing.Revision{
		Product: res.Product,
		Old:     first,
		New:     entry(1, "100", map[string]int{entity.NoSize: 5}),
		Sales:   []*entity.SaleEntry{sale(1, 8, "800")},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientHistoricalStock)
}

func TestReviseStockIn_TallaNegativa(t *testing.T) {
	first := entry(1, "10", map[string]int{"M": 3, "L": 3})
	p, err := costing.ApplyStockIn(emptyProduct(), first)
	require.NoError(t, err)
	res, err := costing.ApplySale(p, "M", 3)
	require.NoError(t, err)

	_, err = costing.ReviseStockIn(costing.Revision{
		Product: res.Product,
		Old:     first,
		New:     entry(1, "10", map[string]int{"M": 1, "L": 5}),
		Sales:   []*entity.SaleEntry{sale(1, 3, res.COGS.String())},
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientHistoricalStock, "M quedaría en -2")
}

// Un cambio que no mueve el promedio no reescribe ventas.
func TestReviseStockIn_SinCambioDePromedio(t *testing.T) {
	first := entry(1, "100", map[string]int{entity.NoSize: 10})
	p, err := costing.ApplyStockIn(emptyProduct(), first)
	require.NoError(t, err)
	res, err := costing.ApplySale(p, entity.NoSize, 2)
	require.NoError(t, err)

	edited := first.Clone()
	edited.Note = "solo nota"
	out, err := costing.ReviseStockIn(costing.Revision{
		Product: res.Product,
		Old:     first,
		New:     edited,
		Sales:   []*entity.SaleEntry{sale(1, 2, "200")},
	})
	require.NoError(t, err)
	assert.Empty(t, out.RecomputedSales)
	assert.Empty(t, out.SizeDeltas)
	assertDec(t, "800", out.Product.TotalCostValue, "1000 - 200")
}

// Producto agotado y recosteado: el residuo de redondeo va a la última venta.
func TestReviseStockIn_AgotadoAsignaResiduoALaUltimaVenta(t *testing.T) {
	first := entry(1, "3", map[string]int{entity.NoSize: 100})
	second := entry(2, "0", map[string]int{entity.NoSize: 50})
	p, err := costing.ApplyStockIn(emptyProduct(), first)
	require.NoError(t, err)
	p, err = costing.ApplyStockIn(p, second)
	require.NoError(t, err)
	res, err := costing.ApplySale(p, entity.NoSize, 100)
	require.NoError(t, err)
	s1 := sale(1, 100, res.COGS.String())
	res, err = costing.ApplySale(res.Product, entity.NoSize, 50)
	require.NoError(t, err)
	s2 := sale(2, 50, res.COGS.String())
	require.Equal(t, 0, res.Product.TotalStock)

	edited := first.Clone()
	edited.UnitCost = dec("1")
	edited.Recompute()
	out, err := costing.ReviseStockIn(costing.Revision{
		Product: res.Product,
		Old:     first,
		New:     edited,
		Others:  []*entity.StockInEntry{second},
		Sales:   []*entity.SaleEntry{s1, s2},
	})
	require.NoError(t, err)
	assertDec(t, "0.666667", out.Product.AvgUnitCost, "nuevo promedio")
	require.Len(t, out.RecomputedSales, 2)
	assertDec(t, "66.6667", out.RecomputedSales[0].CostOfGoodsSold, "100 * promedio")
	assertDec(t, "33.3333", out.RecomputedSales[1].CostOfGoodsSold, "33.3334 menos el residuo")
	assertDec(t, "0", out.Product.TotalCostValue, "agotado")

	all := []*entity.StockInEntry{edited, second}
	sales := []*entity.SaleEntry{out.RecomputedSales[0], out.RecomputedSales[1]}
	assertDec(t, "0", costing.Balance(out.Product, all, sales), "identidad exacta")
}

func TestReviseStockIn_EliminarUltimaEntradaSinVentas(t *testing.T) {
	first := entry(1, "100", map[string]int{"M": 10})
	p, err := costing.ApplyStockIn(emptyProduct(), first)
	require.NoError(t, err)

	out, err := costing.ReviseStockIn(costing.Revision{Product: p, Old: first})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Product.TotalStock)
	assert.Empty(t, out.Product.SizeStock)
	assertDec(t, "0", out.Product.AvgUnitCost, "sin compras el promedio es 0")
	assertDec(t, "0", out.Product.TotalCostValue, "sin compras no hay valor")
}

// ──────────────────────────────────────────────────────────────────────────────
// Identidad contable en una secuencia de operaciones
// ──────────────────────────────────────────────────────────────────────────────

func TestBalance_SecuenciaMixta(t *testing.T) {
	entries := []*entity.StockInEntry{
		entry(1, "12.37", map[string]int{"S": 7, "M": 5}),
		entry(2, "13.91", map[string]int{"M": 4}),
		entry(3, "11.05", map[string]int{"S": 9, "L": 2}),
	}
	p := emptyProduct()
	var sales []*entity.SaleEntry
	var err error
	for i, e := range entries {
		p, err = costing.ApplyStockIn(p, e)
		require.NoError(t, err)
		res, err := costing.ApplySale(p, "S", 3)
		require.NoError(t, err)
		p = res.Product
		size := "S"
		sales = append(sales, &entity.SaleEntry{ID: int64(i + 1), Quantity: 3, Size: &size, CostOfGoodsSold: res.COGS})
	}
	assert.True(t, costing.WithinEpsilon(costing.Balance(p, entries, sales)), "identidad tras entradas y ventas")

	out, err := costing.ReviseStockIn(costing.Revision{
		Product: p,
		Old:     entries[1],
		New:     entry(2, "19.99", map[string]int{"M": 6}),
		Others:  []*entity.StockInEntry{entries[0], entries[2]},
		Sales:   sales,
	})
	require.NoError(t, err)

	updated := map[int64]*entity.SaleEntry{}
	for _, s := range out.RecomputedSales {
		updated[s.ID] = s
	}
	for i, s := range sales {
		if u, ok := updated[s.ID]; ok {
			sales[i] = u
		}
	}
	entries[1] = entry(2, "19.99", map[string]int{"M": 6})
	assert.True(t, costing.Balance(out.Product, entries, sales).IsZero(), "identidad exacta tras la revisión")
	assert.Equal(t, 20, out.Product.TotalStock, "27 comprado - 9 vendido + 2 de la edición")
}
