// Comando audit concilia el libro completo (pensado para ejecución programada).
// Sale con código 1 si hay divergencias o referencias huérfanas, 2 si no pudo auditar.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/audit"
	infrapdf "github.com/jhoicas/ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ledger-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

func main() {
	pdfPath := flag.String("pdf", "", "ruta del reporte PDF (vacío = no generar)")
	timeout := flag.Duration("timeout", 5*time.Minute, "tiempo máximo de la conciliación")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: cfg.App.Name + "-audit"})

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		os.Exit(2)
	}
	defer pool.Close()

	auditor := audit.NewAuditor(postgres.NewLedger(pool), nil, infrapdf.NewAuditReportGenerator(cfg.App.Name), audit.Config{
		Tolerance:   cfg.Ledger.AuditTolerance,
		Concurrency: cfg.Ledger.AuditConcurrency,
	}, log.Zerolog())

	var healthy bool
	if *pdfPath != "" {
		data, report, err := auditor.RenderReport(ctx, false)
		if err != nil {
			log.Error().Err(err).Msg("generar reporte")
			os.Exit(2)
		}
		if err := os.WriteFile(*pdfPath, data, 0o644); err != nil {
			log.Error().Err(err).Str("path", *pdfPath).Msg("escribir PDF")
			os.Exit(2)
		}
		healthy = summarize(log, report)
	} else {
		report, err := auditor.AuditAll(ctx, false)
		if err != nil {
			log.Error().Err(err).Msg("conciliación")
			os.Exit(2)
		}
		healthy = summarize(log, report)
	}

	if !healthy {
		os.Exit(1)
	}
}
