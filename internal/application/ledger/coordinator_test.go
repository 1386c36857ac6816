package ledger_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/costing"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/infrastructure/lock"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers
// ──────────────────────────────────────────────────────────────────────────────

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }
func strPtr(s string) *string      { return &s }

func newCoordinator() (*ledger.Coordinator, *memory.Store) {
	store := memory.New()
	c := ledger.NewCoordinator(store, store.Ledger(), lock.NewKeyedMutex(), zerolog.Nop())
	return c, store
}

func stockIn(t *testing.T, c *ledger.Coordinator, name string, attr *string, q map[string]int, unitCost string) *ledger.StockInResult {
	t.Helper()
	res, err := c.CreateStockIn(context.Background(), ledger.CreateStockInInput{
		OrderType:   "compra",
		CategoryID:  1,
		ProductName: name,
		VariantAttr: attr,
		Quantities:  q,
		UnitCost:    dec(unitCost),
	})
	require.NoError(t, err)
	return res
}

func sell(t *testing.T, c *ledger.Coordinator, productID int64, size *string, qty int) *ledger.SaleResult {
	t.Helper()
	res, err := c.CreateSale(context.Background(), ledger.CreateSaleInput{
		CustomerType: "minorista",
		ProductID:    productID,
		Size:         size,
		UnitPrice:    dec("150"),
		Quantity:     qty,
	})
	require.NoError(t, err)
	return res
}

func assertDec(t *testing.T, want string, got decimal.Decimal, msg string) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "%s: esperado %s, obtenido %s", msg, want, got)
}

// assertIdentity verifica compras == valor en stock + COGS y stock por talla.
func assertIdentity(t *testing.T, store *memory.Store, productID int64) {
	t.Helper()
	ctx := context.Background()
	repos := store.Ledger()
	p, err := repos.Products.GetByID(ctx, productID)
	require.NoError(t, err)
	require.NotNil(t, p)
	entries, err := repos.StockIns.ListByProduct(ctx, productID)
	require.NoError(t, err)
	sales, err := repos.Sales.ListByProduct(ctx, productID)
	require.NoError(t, err)

	d := costing.Balance(p, entries, sales)
	assert.True(t, costing.WithinEpsilon(d), "identidad contable rota: divergencia %s", d)
	assert.GreaterOrEqual(t, p.TotalStock, 0)
	if p.Sized() {
		sum := 0
		for _, v := range p.SizeStock {
			assert.GreaterOrEqual(t, v, 0)
			sum += v
		}
		assert.Equal(t, p.TotalStock, sum)
	}
}

func snapshot(t *testing.T, c *ledger.Coordinator, productID int64) *entity.Product {
	t.Helper()
	p, err := c.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// Escenarios de punta a punta
// ──────────────────────────────────────────────────────────────────────────────

func TestCoordinator_EscenarioCompleto(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	first := stockIn(t, c, "Polo", nil, map[string]int{entity.NoSize: 10}, "100")
	assert.Equal(t, 10, first.Product.TotalStock)
	assertDec(t, "100", first.Product.AvgUnitCost, "promedio inicial")
	assertDec(t, "1000", first.Product.TotalCostValue, "valor inicial")

	s := sell(t, c, first.ProductID, nil, 4)
	assertDec(t, "400", s.CostOfGoodsSold, "COGS de la venta")
	assert.Equal(t, 6, s.Product.TotalStock)
	assertDec(t, "600", s.Product.TotalCostValue, "valor tras la venta")

	second := stockIn(t, c, "Polo", strPtr(""), map[string]int{entity.NoSize: 5}, "200")
	require.Equal(t, first.ProductID, second.ProductID, "\"\" y nil deben resolver al mismo producto")
	assert.Equal(t, 11, second.Product.TotalStock)
	assertDec(t, "145.454545", second.Product.AvgUnitCost, "promedio ponderado")
	assertDec(t, "1600", second.Product.TotalCostValue, "valor tras segunda entrada")

	out, err := c.DeleteStockIn(ctx, first.StockInID, false)
	require.NoError(t, err)
	assert.Equal(t, 1, out.RecomputedSalesCount)
	assert.Equal(t, 1, out.Product.TotalStock)
	assertDec(t, "200", out.Product.AvgUnitCost, "promedio con la entrada restante")
	assertDec(t, "200", out.Product.TotalCostValue, "valor = 1000 - 800")

	sale, err := c.GetSale(ctx, s.SaleID)
	require.NoError(t, err)
	assertDec(t, "800", sale.CostOfGoodsSold, "COGS recalculado")
	assertIdentity(t, store, first.ProductID)
}

func TestCoordinator_RecalculoRetroactivo(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Chaqueta", nil, map[string]int{entity.NoSize: 10}, "100")
	s := sell(t, c, in.ProductID, nil, 3)
	assertDec(t, "300", s.CostOfGoodsSold, "COGS al crear")

	cost := dec("150")
	out, err := c.EditStockIn(ctx, in.StockInID, ledger.EditStockInInput{UnitCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, in.ProductID, out.ProductID)
	assert.Equal(t, 1, out.RecomputedSalesCount)
	assertDec(t, "150", out.Product.AvgUnitCost, "nuevo promedio")
	assertDec(t, "1050", out.Product.TotalCostValue, "10*150 - 450")

	sale, err := c.GetSale(ctx, s.SaleID)
	require.NoError(t, err)
	assertDec(t, "450", sale.CostOfGoodsSold, "COGS retroactivo")

	entry, err := c.GetStockIn(ctx, in.StockInID)
	require.NoError(t, err)
	assertDec(t, "1500", entry.TotalCost, "total de la entrada derivado")
	assertIdentity(t, store, in.ProductID)
}

func TestCoordinator_EdicionSoloNotaNoRecalcula(t *testing.T) {
	c, _ := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Gorra", nil, map[string]int{entity.NoSize: 4}, "25")
	sell(t, c, in.ProductID, nil, 1)
	note := "factura 123"
	out, err := c.EditStockIn(ctx, in.StockInID, ledger.EditStockInInput{Note: &note})
	require.NoError(t, err)
	assert.Equal(t, 0, out.RecomputedSalesCount)

	movs, err := c.ListMovements(ctx, in.ProductID, 0)
	require.NoError(t, err)
	assert.Len(t, movs, 2, "una edición sin cambios de cantidad ni costo no deja movimientos")
}

func TestCoordinator_IdaYVueltaVenta(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Camisa", strPtr("Azul"), map[string]int{"M": 3, "L": 2}, "33.33")
	before := snapshot(t, c, in.ProductID)

	s := sell(t, c, in.ProductID, strPtr("M"), 2)
	assertDec(t, "66.66", s.CostOfGoodsSold, "COGS")

	out, err := c.DeleteSale(ctx, s.SaleID)
	require.NoError(t, err)
	assert.Equal(t, 2, out.RestoredQuantity)
	assertDec(t, "66.66", out.RestoredCost, "costo restituido = COGS guardado")

	after := snapshot(t, c, in.ProductID)
	assert.Equal(t, before.TotalStock, after.TotalStock)
	assert.Equal(t, before.SizeStock, after.SizeStock)
	assert.True(t, before.TotalCostValue.Equal(after.TotalCostValue), "valor restituido exacto")
	assert.True(t, before.AvgUnitCost.Equal(after.AvgUnitCost))

	_, err = c.GetSale(ctx, s.SaleID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assertIdentity(t, store, in.ProductID)
}

// Promedio 0.666667 redondeado hacia arriba: vender todo no puede costar más que el valor en stock.
func TestCoordinator_AgotarStockConservaLaIdentidad(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Media", nil, map[string]int{entity.NoSize: 100000}, "2")
	stockIn(t, c, "Media", nil, map[string]int{entity.NoSize: 200000}, "0")
	before := snapshot(t, c, in.ProductID)
	assertDec(t, "0.666667", before.AvgUnitCost, "promedio")
	assertDec(t, "200000", before.TotalCostValue, "valor antes de vender")

	s := sell(t, c, in.ProductID, nil, 300000)
	assertDec(t, "200000", s.CostOfGoodsSold, "COGS = valor en stock")
	assertDec(t, "0", s.Product.TotalCostValue, "agotado")
	assertIdentity(t, store, in.ProductID)

	_, err := c.DeleteSale(ctx, s.SaleID)
	require.NoError(t, err)
	after := snapshot(t, c, in.ProductID)
	assert.Equal(t, before.TotalStock, after.TotalStock)
	assert.True(t, before.TotalCostValue.Equal(after.TotalCostValue),
		"valor restituido exacto: esperado %s, obtenido %s", before.TotalCostValue, after.TotalCostValue)
	assertIdentity(t, store, in.ProductID)
}

func TestCoordinator_RecosteoDeProductoAgotado(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	first := stockIn(t, c, "Gorra", nil, map[string]int{entity.NoSize: 100}, "3")
	stockIn(t, c, "Gorra", nil, map[string]int{entity.NoSize: 50}, "0")
	s1 := sell(t, c, first.ProductID, nil, 100)
	s2 := sell(t, c, first.ProductID, nil, 50)
	require.Equal(t, 0, s2.Product.TotalStock)

	cost := dec("1")
	out, err := c.EditStockIn(ctx, first.StockInID, ledger.EditStockInInput{UnitCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, 2, out.RecomputedSalesCount)
	assertDec(t, "0.666667", out.Product.AvgUnitCost, "nuevo promedio")
	assertDec(t, "0", out.Product.TotalCostValue, "sigue agotado")

	got1, err := c.GetSale(ctx, s1.SaleID)
	require.NoError(t, err)
	got2, err := c.GetSale(ctx, s2.SaleID)
	require.NoError(t, err)
	assertDec(t, "66.6667", got1.CostOfGoodsSold, "primera venta al promedio")
	assertDec(t, "33.3333", got2.CostOfGoodsSold, "la última venta absorbe el residuo")
	assertIdentity(t, store, first.ProductID)

	repos := store.Ledger()
	p, err := repos.Products.GetByID(ctx, first.ProductID)
	require.NoError(t, err)
	entries, err := repos.StockIns.ListByProduct(ctx, first.ProductID)
	require.NoError(t, err)
	sales, err := repos.Sales.ListByProduct(ctx, first.ProductID)
	require.NoError(t, err)
	assertDec(t, "0", costing.Balance(p, entries, sales), "identidad exacta")
}

// Costo y precio con más de 4 decimales se guardan como los guarda la columna NUMERIC(18,4).
func TestCoordinator_CostoYPrecioAEscalaMonetaria(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Cinta", nil, map[string]int{entity.NoSize: 10}, "0.12345")
	e, err := c.GetStockIn(ctx, in.StockInID)
	require.NoError(t, err)
	assertDec(t, "0.1235", e.UnitCost, "costo unitario redondeado")
	assertDec(t, "1.235", e.TotalCost, "total derivado del costo guardado")

	res, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: in.ProductID, UnitPrice: dec("1.23456"), Quantity: 2})
	require.NoError(t, err)
	sale, err := c.GetSale(ctx, res.SaleID)
	require.NoError(t, err)
	assertDec(t, "1.2346", sale.UnitPrice, "precio redondeado")
	assertDec(t, "2.4692", sale.TotalAmount, "total derivado del precio guardado")

	note := "revisada"
	out, err := c.EditStockIn(ctx, in.StockInID, ledger.EditStockInInput{Note: &note})
	require.NoError(t, err)
	assert.Zero(t, out.RecomputedSalesCount, "editar la nota no recostea")
	e, err = c.GetStockIn(ctx, in.StockInID)
	require.NoError(t, err)
	assertDec(t, "1.235", e.TotalCost, "el total no cambia")
	assertIdentity(t, store, in.ProductID)
}

func TestCoordinator_MovimientosEncadenados(t *testing.T) {
	c, _ := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Buzo", nil, map[string]int{"M": 3, "L": 2}, "10")
	sell(t, c, in.ProductID, strPtr("L"), 1)

	movs, err := c.ListMovements(ctx, in.ProductID, 10)
	require.NoError(t, err)
	require.Len(t, movs, 3)

	// Más recientes primero.
	assert.Equal(t, entity.MovementTypeSale, movs[0].Type)
	assert.Equal(t, -1, movs[0].Quantity)
	assert.Equal(t, 5, movs[0].PreviousTotal)
	assert.Equal(t, 4, movs[0].CurrentTotal)

	assert.Equal(t, "M", movs[1].Size)
	assert.Equal(t, 2, movs[1].PreviousTotal)
	assert.Equal(t, 5, movs[1].CurrentTotal)
	assert.Equal(t, "L", movs[2].Size)
	assert.Equal(t, 0, movs[2].PreviousTotal)
	assert.Equal(t, movs[1].TransactionID, movs[2].TransactionID, "misma operación, misma correlación")
	assert.NotEqual(t, movs[0].TransactionID, movs[1].TransactionID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Rechazos sin efecto
// ──────────────────────────────────────────────────────────────────────────────

func TestCoordinator_VentaCostoCeroRechazada(t *testing.T) {
	c, _ := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Muestra", nil, map[string]int{entity.NoSize: 5}, "0")
	_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: in.ProductID, UnitPrice: dec("10"), Quantity: 1})
	require.ErrorIs(t, err, domain.ErrZeroCostSale)
	assert.Equal(t, domain.KindZeroCostSale, domain.Kind(err))

	p := snapshot(t, c, in.ProductID)
	assert.Equal(t, 5, p.TotalStock)
	sales, err := c.ListSales(ctx, in.ProductID)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCoordinator_ErroresDeValidacion(t *testing.T) {
	c, _ := newCoordinator()
	ctx := context.Background()
	in := stockIn(t, c, "Short", nil, map[string]int{"S": 2}, "10")

	cases := []struct {
		name string
		run  func() error
		want error
	}{
		{"cantidad cero en entrada", func() error {
			_, err := c.CreateStockIn(ctx, ledger.CreateStockInInput{CategoryID: 1, ProductName: "Short", Quantities: map[string]int{"S": 0}, UnitCost: dec("1")})
			return err
		}, domain.ErrInvalidInput},
		{"sin nombre", func() error {
			_, err := c.CreateStockIn(ctx, ledger.CreateStockInInput{CategoryID: 1, ProductName: "  ", Quantities: map[string]int{"S": 1}, UnitCost: dec("1")})
			return err
		}, domain.ErrInvalidInput},
		{"costo negativo", func() error {
			_, err := c.CreateStockIn(ctx, ledger.CreateStockInInput{CategoryID: 1, ProductName: "Short", Quantities: map[string]int{"S": 1}, UnitCost: dec("-1")})
			return err
		}, domain.ErrInvalidInput},
		{"venta sin talla en producto con tallas", func() error {
			_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: in.ProductID, UnitPrice: dec("1"), Quantity: 1})
			return err
		}, domain.ErrSizeMismatch},
		{"venta mayor al stock", func() error {
			_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: in.ProductID, Size: strPtr("S"), UnitPrice: dec("1"), Quantity: 3})
			return err
		}, domain.ErrInsufficientStock},
		{"producto inexistente", func() error {
			_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: 99, UnitPrice: dec("1"), Quantity: 1})
			return err
		}, domain.ErrNotFound},
		{"entrada inexistente", func() error {
			_, err := c.DeleteStockIn(ctx, 99, false)
			return err
		}, domain.ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.run(), tc.want)
		})
	}

	p := snapshot(t, c, in.ProductID)
	assert.Equal(t, 2, p.TotalStock, "ningún rechazo debe mutar el producto")
}

func TestCoordinator_SobreventaHistoricaRevierte(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()

	in := stockIn(t, c, "Bolso", nil, map[string]int{entity.NoSize: 5}, "10")
	sell(t, c, in.ProductID, nil, 4)
	before := snapshot(t, c, in.ProductID)

	_, err := c.DeleteStockIn(ctx, in.StockInID, false)
	require.ErrorIs(t, err, domain.ErrInsufficientHistoricalStock)
	assert.Equal(t, domain.KindInsufficientHistoricalStock, domain.Kind(err))

	assert.Equal(t, before, snapshot(t, c, in.ProductID))
	_, err = c.GetStockIn(ctx, in.StockInID)
	assert.NoError(t, err, "la entrada sigue existiendo")
	assertIdentity(t, store, in.ProductID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Atomicidad
// ──────────────────────────────────────────────────────────────────────────────

func TestCoordinator_FalloDePersistenciaNoDejaRastro(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()
	in := stockIn(t, c, "Polo", nil, map[string]int{entity.NoSize: 10}, "100")
	s := sell(t, c, in.ProductID, nil, 3)
	before := snapshot(t, c, in.ProductID)

	boom := errors.New("disco lleno")
	for _, op := range []string{"movements.append", "sales.update_cogs", "products.update"} {
		t.Run(op, func(t *testing.T) {
			store.InjectFault(func(name string) error {
				if name == op {
					return boom
				}
				return nil
			})
			defer store.InjectFault(nil)

			cost := dec("150")
			_, errEdit := c.EditStockIn(ctx, in.StockInID, ledger.EditStockInInput{UnitCost: &cost})
			_, errSale := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: in.ProductID, UnitPrice: dec("1"), Quantity: 1})
			failed := 0
			for _, err := range []error{errEdit, errSale} {
				if err != nil {
					failed++
					assert.ErrorIs(t, err, domain.ErrPersistence)
					assert.ErrorIs(t, err, boom)
					assert.Equal(t, domain.KindPersistence, domain.Kind(err))
				}
			}
			require.Positive(t, failed)
		})
	}

	store.InjectFault(nil)
	after := snapshot(t, c, in.ProductID)
	sale, err := c.GetSale(ctx, s.SaleID)
	require.NoError(t, err)
	assertDec(t, "300", sale.CostOfGoodsSold, "el COGS no debe cambiar si la edición falló")

	// Solo las ventas que no tocaron el punto de fallo quedan registradas.
	sales, err := c.ListSales(ctx, in.ProductID)
	require.NoError(t, err)
	assert.Equal(t, before.TotalStock-(len(sales)-1), after.TotalStock)
	assertIdentity(t, store, in.ProductID)
}

func TestCoordinator_CancelacionAntesDelCommit(t *testing.T) {
	c, store := newCoordinator()
	in := stockIn(t, c, "Polo", nil, map[string]int{entity.NoSize: 10}, "100")
	before := snapshot(t, c, in.ProductID)

	ctx, cancel := context.WithCancel(context.Background())
	store.InjectFault(func(op string) error {
		if op == "movements.append" {
			cancel()
		}
		return nil
	})
	defer store.InjectFault(nil)

	_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: in.ProductID, UnitPrice: dec("150"), Quantity: 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, before, snapshot(t, c, in.ProductID))
	sales, err := c.ListSales(context.Background(), in.ProductID)
	require.NoError(t, err)
	assert.Empty(t, sales)
}

func TestCoordinator_EscritoresConcurrentes(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()
	a := stockIn(t, c, "Polo", nil, map[string]int{entity.NoSize: 100}, "10")
	b := stockIn(t, c, "Gorra", nil, map[string]int{"U": 50}, "7.77")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(3)
		go func() {
			defer wg.Done()
			_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: a.ProductID, UnitPrice: dec("15"), Quantity: 1})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := c.CreateStockIn(ctx, ledger.CreateStockInInput{
				CategoryID: 1, ProductName: "polo", Quantities: map[string]int{entity.NoSize: 1}, UnitCost: dec("13.3"),
			})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := c.CreateSale(ctx, ledger.CreateSaleInput{ProductID: b.ProductID, Size: strPtr("U"), UnitPrice: dec("9"), Quantity: 2})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	pa := snapshot(t, c, a.ProductID)
	assert.Equal(t, 100, pa.TotalStock)
	pb := snapshot(t, c, b.ProductID)
	assert.Equal(t, 10, pb.TotalStock)
	assert.Equal(t, 10, pb.SizeStock["U"])

	products, err := c.ListProducts(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, products, 2, "la misma clave natural no debe crear duplicados")
	assertIdentity(t, store, a.ProductID)
	assertIdentity(t, store, b.ProductID)
}

// ──────────────────────────────────────────────────────────────────────────────
// Datos heredados
// ──────────────────────────────────────────────────────────────────────────────

func TestCoordinator_VarianteAmbigua(t *testing.T) {
	c, store := newCoordinator()
	store.Seed([]*entity.Product{
		{CategoryID: 1, Name: "Gorra", SizeStock: map[string]int{}},
		{CategoryID: 1, Name: " gorra ", SizeStock: map[string]int{}},
	}, nil, nil)

	_, err := c.CreateStockIn(context.Background(), ledger.CreateStockInInput{
		CategoryID: 1, ProductName: "Gorra", Quantities: map[string]int{entity.NoSize: 1}, UnitCost: dec("5"),
	})
	require.ErrorIs(t, err, domain.ErrAmbiguousVariant)

	_, err = c.ResolveProduct(context.Background(), 1, "GORRA", nil)
	assert.ErrorIs(t, err, domain.ErrAmbiguousVariant)
}

func TestCoordinator_ResolveProductCreaUnaVez(t *testing.T) {
	c, _ := newCoordinator()
	ctx := context.Background()
	id1, err := c.ResolveProduct(ctx, 2, "Media", strPtr("  "))
	require.NoError(t, err)
	id2, err := c.ResolveProduct(ctx, 2, "Media", nil)
	require.NoError(t, err)
	assert.Equal(t, id1, id2)

	p := snapshot(t, c, id1)
	assert.Equal(t, 0, p.TotalStock)
	assert.True(t, p.AvgUnitCost.IsZero())
}

func TestCoordinator_EntradaHeredadaSeAdopta(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()
	product := &entity.Product{
		CategoryID: 1, Name: "Polo", SizeStock: map[string]int{},
		TotalStock: 10, AvgUnitCost: dec("100"), TotalCostValue: dec("1000"),
	}
	legacy := &entity.StockInEntry{
		CategoryID: 1, ProductName: " polo", Quantities: map[string]int{entity.NoSize: 10}, UnitCost: dec("100"),
	}
	legacy.Recompute()
	store.Seed([]*entity.Product{product}, []*entity.StockInEntry{legacy}, nil)

	cost := dec("120")
	out, err := c.EditStockIn(ctx, legacy.ID, ledger.EditStockInInput{UnitCost: &cost})
	require.NoError(t, err)
	assert.Equal(t, product.ID, out.ProductID)
	assertDec(t, "120", out.Product.AvgUnitCost, "promedio")
	assertDec(t, "1200", out.Product.TotalCostValue, "valor")

	entry, err := c.GetStockIn(ctx, legacy.ID)
	require.NoError(t, err)
	assert.Equal(t, product.ID, entry.ProductID, "la entrada queda atada al id del producto")
	assertIdentity(t, store, product.ID)
}

func TestCoordinator_EntradaHuerfana(t *testing.T) {
	c, store := newCoordinator()
	ctx := context.Background()
	in := stockIn(t, c, "Polo", nil, map[string]int{entity.NoSize: 3}, "10")
	store.RemoveProduct(in.ProductID)

	_, err := c.DeleteStockIn(ctx, in.StockInID, false)
	require.ErrorIs(t, err, domain.ErrOrphanedReference)
	cost := dec("1")
	_, err = c.EditStockIn(ctx, in.StockInID, ledger.EditStockInInput{UnitCost: &cost})
	require.ErrorIs(t, err, domain.ErrOrphanedReference, "force solo aplica a la eliminación")

	out, err := c.DeleteStockIn(ctx, in.StockInID, true)
	require.NoError(t, err)
	assert.Equal(t, in.ProductID, out.ProductID)
	assert.Nil(t, out.Product)

	_, err = c.GetStockIn(ctx, in.StockInID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	movs, err := store.Ledger().Movements.ListByProduct(ctx, in.ProductID, 0)
	require.NoError(t, err)
	require.NotEmpty(t, movs)
	assert.Equal(t, entity.MovementTypeAdjustment, movs[0].Type)
	assert.Equal(t, 0, movs[0].Quantity)
}
