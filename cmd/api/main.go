package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/redis/go-redis/v9"

	"github.com/jhoicas/ledger-api/internal/application/audit"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
	"github.com/jhoicas/ledger-api/internal/domain/repository"
	"github.com/jhoicas/ledger-api/internal/infrastructure/cache"
	"github.com/jhoicas/ledger-api/internal/infrastructure/lock"
	"github.com/jhoicas/ledger-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/ledger-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ledger-api/internal/infrastructure/postgres"
	httpRouter "github.com/jhoicas/ledger-api/internal/interfaces/http"
	"github.com/jhoicas/ledger-api/pkg/config"
	"github.com/jhoicas/ledger-api/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.Ledger.Store).
		Msg("iniciando aplicación")

	ctx := context.Background()

	// Almacén del libro: PostgreSQL o memoria (desarrollo y demos).
	var (
		repos    repository.Ledger
		txRunner ledger.TxRunner
	)
	switch cfg.Ledger.Store {
	case config.StoreMemory:
		store := memory.New()
		repos, txRunner = store.Ledger(), store
		log.Warn().Msg("almacén en memoria: los datos se pierden al reiniciar")
	default:
		pool, err := postgres.NewPool(ctx, cfg.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a PostgreSQL")
		}
		defer pool.Close()
		repos, txRunner = postgres.NewLedger(pool), postgres.NewTxRunner(pool)
	}

	// Redis opcional: candado distribuido por producto y caché del reporte de conciliación.
	var (
		locker      ledger.Locker = lock.NewKeyedMutex()
		reportCache audit.ReportCache
	)
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatal().Err(err).Str("addr", cfg.Redis.Addr).Msg("conexión a Redis")
		}
		locker = lock.NewRedisLocker(rdb, cfg.App.Name+":lock:", cfg.Ledger.LockTTL, cfg.Ledger.LockWait, log.Zerolog())
		reportCache = cache.NewRedisReportCache(rdb, cfg.App.Name+":")
	} else {
		reportCache = cache.NoopReportCache{}
	}

	coordinator := ledger.NewCoordinator(txRunner, repos, locker, log.Zerolog())
	auditor := audit.NewAuditor(repos, reportCache, infrapdf.NewAuditReportGenerator(cfg.App.Name), audit.Config{
		Tolerance:   cfg.Ledger.AuditTolerance,
		Concurrency: cfg.Ledger.AuditConcurrency,
		CacheTTL:    cfg.Ledger.AuditCacheTTL,
	}, log.Zerolog())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "Ledger API",
	}))

	httpRouter.Router(app, httpRouter.RouterDeps{
		Ledger:  coordinator,
		Auditor: auditor,
		AppName: cfg.App.Name,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
