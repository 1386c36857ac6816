package http

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/ledger-api/internal/application/audit"
)

// AuditHandler conciliación global del libro.
type AuditHandler struct {
	auditor *audit.Auditor
}

func NewAuditHandler(a *audit.Auditor) *AuditHandler {
	return &AuditHandler{auditor: a}
}

// Report godoc
// @Summary      Conciliar todos los productos
// @Description  Incluye entradas y ventas huérfanas. refresh=true ignora el caché.
// @Tags         audit
// @Produce      json
// @Param        refresh  query  bool  false  "Ignorar caché"
// @Success      200  {object}  entity.AuditReport
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/audit [get]
func (h *AuditHandler) Report(c *fiber.Ctx) error {
	report, err := h.auditor.AuditAll(c.UserContext(), !c.QueryBool("refresh", false))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

// ReportPDF godoc
// @Summary      Reporte de conciliación en PDF
// @Tags         audit
// @Produce      application/pdf
// @Param        refresh  query  bool  false  "Ignorar caché"
// @Success      200  {file}    binary
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/audit/report.pdf [get]
func (h *AuditHandler) ReportPDF(c *fiber.Ctx) error {
	pdf, report, err := h.auditor.RenderReport(c.UserContext(), !c.QueryBool("refresh", false))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="conciliacion-%s.pdf"`, report.GeneratedAt.Format("20060102-150405")))
	return c.Send(pdf)
}
