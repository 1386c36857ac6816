package main

import (
	"github.com/jhoicas/ledger-api/internal/domain/entity"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

// summarize registra el resultado y cada producto inconsistente. Devuelve report.Healthy().
func summarize(log *logger.Logger, report *entity.AuditReport) bool {
	for _, p := range report.Products {
		if p.Consistent {
			continue
		}
		ev := log.Warn().Int64("product_id", p.ProductID).Str("divergence", p.Divergence.String())
		for _, issue := range p.Issues {
			ev = ev.Str(issue.Code, issue.Message)
		}
		ev.Msg("producto inconsistente")
	}
	for _, issue := range report.Issues {
		log.Warn().Str("code", issue.Code).Msg(issue.Message)
	}

	log.Info().
		Int("products_checked", report.ProductsChecked).
		Int("inconsistent", report.Inconsistent).
		Int("orphan_sales", len(report.OrphanSaleIDs)).
		Int("orphan_stock_ins", len(report.OrphanStockInIDs)).
		Bool("healthy", report.Healthy()).
		Msg("conciliación terminada")
	return report.Healthy()
}
