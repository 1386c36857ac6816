// Package audit implementa la conciliación del libro: recalcula la identidad contable
// y los invariantes estructurales de cada producto sin escribir nada.
package audit

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/jhoicas/ledger-api/internal/domain"
	"github.com/jhoicas/ledger-api/internal/domain/costing"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
)

const reportCacheKey = "ledger:audit:report"

// Config parámetros del auditor.
type Config struct {
	Tolerance   decimal.Decimal // divergencia máxima aceptada; cero = costing.Epsilon
	Concurrency int             // productos auditados en paralelo
	CacheTTL    time.Duration   // cero desactiva el cache
}

// Auditor lee sin candados: una escritura concurrente puede producir un hallazgo transitorio.
type Auditor struct {
	repos    repository.Ledger
	cache    ReportCache
	renderer ReportRenderer
	cfg      Config
	log      zerolog.Logger
	now      func() time.Time
}

// NewAuditor construye el auditor. cache y renderer pueden ser nil.
func NewAuditor(repos repository.Ledger, cache ReportCache, renderer ReportRenderer, cfg Config, log zerolog.Logger) *Auditor {
	if !cfg.Tolerance.IsPositive() {
		cfg.Tolerance = costing.Epsilon
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 4
	}
	return &Auditor{
		repos:    repos,
		cache:    cache,
		renderer: renderer,
		cfg:      cfg,
		log:      log.With().Str("component", "auditor").Logger(),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AuditProduct concilia un producto. Nunca se cachea.
func (a *Auditor) AuditProduct(ctx context.Context, productID int64) (*entity.ProductAudit, error) {
	p, err := a.repos.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, domain.Persistence(err)
	}
	if p == nil {
		return nil, domain.ErrNotFound
	}
	return a.audit(ctx, p)
}

func (a *Auditor) audit(ctx context.Context, p *entity.Product) (*entity.ProductAudit, error) {
	entries, err := a.repos.StockIns.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, domain.Persistence(fmt.Errorf("list stock-ins: %w", err))
	}
	sales, err := a.repos.Sales.ListByProduct(ctx, p.ID)
	if err != nil {
		return nil, domain.Persistence(fmt.Errorf("list sales: %w", err))
	}
	last, err := a.repos.Movements.ListByProduct(ctx, p.ID, 1)
	if err != nil {
		return nil, domain.Persistence(fmt.Errorf("list movements: %w", err))
	}

	res := &entity.ProductAudit{
		ProductID:      p.ID,
		PurchasedCost:  decimal.Zero,
		TotalCostValue: p.TotalCostValue,
		TotalCOGS:      decimal.Zero,
		Issues:         []entity.AuditIssue{},
	}
	for _, e := range entries {
		res.PurchasedCost = res.PurchasedCost.Add(e.TotalCost)
		res.PurchasedQuantity += e.TotalQuantity
	}
	for _, s := range sales {
		res.TotalCOGS = res.TotalCOGS.Add(s.CostOfGoodsSold)
		res.SoldQuantity += s.Quantity
	}
	res.Divergence = costing.Balance(p, entries, sales)

	if res.Divergence.Abs().GreaterThan(a.cfg.Tolerance) {
		res.Issues = append(res.Issues, issue(entity.IssueIdentityDivergence,
			"compras %s != valor en stock %s + COGS %s (divergencia %s)",
			res.PurchasedCost, p.TotalCostValue, res.TotalCOGS, res.Divergence))
	}
	if p.TotalStock < 0 {
		res.Issues = append(res.Issues, issue(entity.IssueNegativeStock, "stock total %d", p.TotalStock))
	}
	if p.Sized() {
		sum := 0
		for _, size := range sortedKeys(p.SizeStock) {
			q := p.SizeStock[size]
			if q < 0 {
				res.Issues = append(res.Issues, issue(entity.IssueNegativeStock, "talla %s con %d unidades", size, q))
			}
			sum += q
		}
		if sum != p.TotalStock {
			res.Issues = append(res.Issues, issue(entity.IssueSizeTotalMismatch,
				"suma por talla %d != stock total %d", sum, p.TotalStock))
		}
	}
	expected := p.AvgUnitCost.Mul(decimal.NewFromInt(int64(p.TotalStock)))
	if drift := p.TotalCostValue.Sub(expected); drift.Abs().GreaterThan(a.cfg.Tolerance) {
		res.Issues = append(res.Issues, issue(entity.IssueCostValueDrift,
			"valor en stock %s != promedio %s x %d (diferencia %s)",
			p.TotalCostValue, p.AvgUnitCost, p.TotalStock, drift.Round(costing.MoneyScale)))
	}
	if net := res.PurchasedQuantity - res.SoldQuantity; net != p.TotalStock {
		res.Issues = append(res.Issues, issue(entity.IssueQuantityDrift,
			"comprado %d - vendido %d = %d != stock total %d",
			res.PurchasedQuantity, res.SoldQuantity, net, p.TotalStock))
	}
	if len(last) > 0 && last[0].CurrentTotal != p.TotalStock {
		res.Issues = append(res.Issues, issue(entity.IssueMovementLogDrift,
			"último movimiento #%d deja %d unidades, el producto tiene %d",
			last[0].ID, last[0].CurrentTotal, p.TotalStock))
	}
	res.Consistent = len(res.Issues) == 0
	return res, nil
}

// AuditAll concilia todos los productos con concurrencia acotada y reporta huérfanos.
// Los fallos de lectura por producto quedan en el reporte (read_failure) y no abortan el resto.
// Con useCache devuelve el último reporte guardado si sigue vigente.
func (a *Auditor) AuditAll(ctx context.Context, useCache bool) (*entity.AuditReport, error) {
	if useCache && a.cache != nil && a.cfg.CacheTTL > 0 {
		cached, ok, err := a.cache.Get(ctx, reportCacheKey)
		if err != nil {
			a.log.Warn().Err(err).Msg("cache de auditoría no disponible")
		} else if ok {
			return cached, nil
		}
	}

	products, err := a.repos.Products.List(ctx, nil)
	if err != nil {
		return nil, domain.Persistence(err)
	}

	audits := make([]*entity.ProductAudit, len(products))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.cfg.Concurrency)
	for i, p := range products {
		i, p := i, p
		g.Go(func() error {
			res, err := a.audit(gctx, p)
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return ctxErr
				}
				a.log.Warn().Err(err).Int64("product_id", p.ID).Msg("no se pudo auditar el producto")
				res = &entity.ProductAudit{
					ProductID: p.ID,
					Issues:    []entity.AuditIssue{issue(entity.IssueReadFailure, "%v", err)},
				}
			}
			audits[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &entity.AuditReport{
		GeneratedAt:      a.now(),
		ProductsChecked:  len(audits),
		Products:         make([]entity.ProductAudit, 0, len(audits)),
		OrphanSaleIDs:    []int64{},
		OrphanStockInIDs: []int64{},
		Issues:           []entity.AuditIssue{},
	}
	for _, res := range audits {
		if !res.Consistent {
			report.Inconsistent++
		}
		report.Products = append(report.Products, *res)
	}

	if ids, err := a.repos.Sales.ListOrphanIDs(ctx); err != nil {
		a.log.Warn().Err(err).Msg("no se pudieron listar ventas huérfanas")
		report.Issues = append(report.Issues, issue(entity.IssueReadFailure, "ventas huérfanas: %v", err))
	} else if len(ids) > 0 {
		report.OrphanSaleIDs = ids
		report.Issues = append(report.Issues, issue(entity.IssueOrphanSale, "%d ventas sin producto", len(ids)))
	}
	if ids, err := a.repos.StockIns.ListOrphanIDs(ctx); err != nil {
		a.log.Warn().Err(err).Msg("no se pudieron listar entradas huérfanas")
		report.Issues = append(report.Issues, issue(entity.IssueReadFailure, "entradas huérfanas: %v", err))
	} else if len(ids) > 0 {
		report.OrphanStockInIDs = ids
		report.Issues = append(report.Issues, issue(entity.IssueOrphanStockIn, "%d entradas sin producto", len(ids)))
	}

	a.log.Info().
		Int("products", report.ProductsChecked).
		Int("inconsistent", report.Inconsistent).
		Int("orphan_sales", len(report.OrphanSaleIDs)).
		Int("orphan_stock_ins", len(report.OrphanStockInIDs)).
		Msg("auditoría completa")

	if a.cache != nil && a.cfg.CacheTTL > 0 {
		if err := a.cache.Set(ctx, reportCacheKey, report, a.cfg.CacheTTL); err != nil {
			a.log.Warn().Err(err).Msg("no se pudo guardar el reporte en cache")
		}
	}
	return report, nil
}

// RenderReport audita todo y devuelve el reporte como documento.
func (a *Auditor) RenderReport(ctx context.Context, useCache bool) ([]byte, *entity.AuditReport, error) {
	if a.renderer == nil {
		return nil, nil, fmt.Errorf("%w: sin generador de reportes", domain.ErrInvalidInput)
	}
	report, err := a.AuditAll(ctx, useCache)
	if err != nil {
		return nil, nil, err
	}
	doc, err := a.renderer.RenderAuditReport(ctx, report)
	if err != nil {
		return nil, nil, fmt.Errorf("render audit report: %w", err)
	}
	return doc, report, nil
}

func issue(code, format string, args ...any) entity.AuditIssue {
	return entity.AuditIssue{Code: code, Message: fmt.Sprintf(format, args...)}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
