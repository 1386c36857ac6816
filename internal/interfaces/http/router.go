package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/audit"
	"github.com/jhoicas/ledger-api/internal/application/ledger"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Ledger  *ledger.Coordinator
	Auditor *audit.Auditor
	AppName string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": deps.AppName})
	})

	api := app.Group("/api")

	// Entradas de mercancía
	stockIns := api.Group("/stock-ins")
	stockInHandler := NewStockInHandler(deps.Ledger)
	stockIns.Post("/", stockInHandler.Create)
	stockIns.Get("/", stockInHandler.List)
	stockIns.Get("/:id", stockInHandler.GetByID)
	stockIns.Patch("/:id", stockInHandler.Edit)
	stockIns.Delete("/:id", stockInHandler.Delete)

	// Ventas
	sales := api.Group("/sales")
	saleHandler := NewSaleHandler(deps.Ledger)
	sales.Post("/", saleHandler.Create)
	sales.Get("/", saleHandler.List)
	sales.Get("/:id", saleHandler.GetByID)
	sales.Delete("/:id", saleHandler.Delete)

	// Productos (solo lectura; se crean desde las entradas)
	products := api.Group("/products")
	productHandler := NewProductHandler(deps.Ledger, deps.Auditor)
	products.Get("/", productHandler.List)
	products.Post("/resolve", productHandler.Resolve)
	products.Get("/:id", productHandler.GetByID)
	products.Get("/:id/movements", productHandler.Movements)
	products.Get("/:id/audit", productHandler.Audit)

	// Conciliación
	auditGroup := api.Group("/audit")
	auditHandler := NewAuditHandler(deps.Auditor)
	auditGroup.Get("/", auditHandler.Report)
	auditGroup.Get("/report.pdf", auditHandler.ReportPDF)
}
