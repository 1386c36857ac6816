// Package pdf genera el reporte de conciliación del libro de inventario.
//
// Layout de la página A4:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: título + fecha de generación │ estado (OK/ALERTA)  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RESUMEN: productos revisados / inconsistentes / huérfanos  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Producto | Compras | Valor stock | COGS | Diverg.   │
//	│         (hallazgos bajo cada producto inconsistente)        │
//	│  ─────────────────────────────────────────────────────────  │
//	│  HALLAZGOS GLOBALES: huérfanos y fallos de lectura          │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"context"
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/ledger-api/internal/application/audit"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

var _ audit.ReportRenderer = (*AuditReportGenerator)(nil)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorAlert   = &props.Color{Red: 180, Green: 30, Blue: 30}
	colorOK      = &props.Color{Red: 20, Green: 120, Blue: 60}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// AuditReportGenerator implementa audit.ReportRenderer usando Maroto v2.
type AuditReportGenerator struct {
	title string
}

// NewAuditReportGenerator construye el generador. appName aparece como autor y en el título.
func NewAuditReportGenerator(appName string) *AuditReportGenerator {
	return &AuditReportGenerator{title: nonEmpty(appName, "ledger") + " · conciliación de inventario"}
}

// RenderAuditReport genera el PDF y devuelve sus bytes.
func (g *AuditReportGenerator) RenderAuditReport(_ context.Context, report *entity.AuditReport) ([]byte, error) {
	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle(g.title, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(g.title, report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(summaryRow(report))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(productRows(report.Products)...)

	if len(report.Issues) > 0 {
		m.AddRows(line.NewRow(3))
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(globalIssueRows(report)...)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(title string, report *entity.AuditReport) core.Row {
	status, color := "SIN HALLAZGOS", colorOK
	if !report.Healthy() {
		status, color = "CON HALLAZGOS", colorAlert
	}
	return row.New(16).Add(
		col.New(8).Add(
			text.New(strings.ToUpper(title), props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("Generado: "+report.GeneratedAt.Format("02/01/2006 15:04 MST"), props.Text{
				Size: 8, Top: 9, Color: colorGray,
			}),
		),
		col.New(4).Add(
			text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: color, Top: 4,
			}),
		),
	)
}

func summaryRow(report *entity.AuditReport) core.Row {
	cell := func(label string, value int) core.Col {
		return col.New(3).Add(
			text.New(label, props.Text{Size: 7, Color: colorGray, Align: align.Center, Top: 1}),
			text.New(fmt.Sprintf("%d", value), props.Text{
				Style: fontstyle.Bold, Size: 12, Align: align.Center, Top: 5,
			}),
		)
	}
	return row.New(14).Add(
		cell("Productos revisados", report.ProductsChecked),
		cell("Inconsistentes", report.Inconsistent),
		cell("Ventas huérfanas", len(report.OrphanSaleIDs)),
		cell("Entradas huérfanas", len(report.OrphanStockInIDs)),
	)
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a,
			Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Producto", 2, align.Left),
		h("Compras", 2, align.Right),
		h("Valor stock", 2, align.Right),
		h("COGS", 2, align.Right),
		h("Divergencia", 2, align.Right),
		h("Estado", 2, align.Center),
	)
}

// productRows: una fila por producto y, debajo, sus hallazgos.
func productRows(products []entity.ProductAudit) []core.Row {
	rows := make([]core.Row, 0, len(products))
	for _, p := range products {
		status, color := "OK", colorOK
		if !p.Consistent {
			status, color = "REVISAR", colorAlert
		}
		rows = append(rows, row.New(6).Add(
			col.New(2).Add(text.New(fmt.Sprintf("#%d", p.ProductID), props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(money(p.PurchasedCost)),
			col.New(2).Add(money(p.TotalCostValue)),
			col.New(2).Add(money(p.TotalCOGS)),
			col.New(2).Add(money(p.Divergence)),
			col.New(2).Add(text.New(status, props.Text{
				Style: fontstyle.Bold, Size: 8, Align: align.Center, Top: 1, Color: color,
			})),
		))
		for _, is := range p.Issues {
			rows = append(rows, issueRow(is))
		}
	}
	return rows
}

func globalIssueRows(report *entity.AuditReport) []core.Row {
	rows := []core.Row{
		row.New(6).Add(col.New(12).Add(
			text.New("HALLAZGOS GLOBALES", props.Text{
				Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1,
			}),
		)),
	}
	for _, is := range report.Issues {
		rows = append(rows, issueRow(is))
	}
	if len(report.OrphanSaleIDs) > 0 {
		rows = append(rows, idListRow("Ventas huérfanas", report.OrphanSaleIDs))
	}
	if len(report.OrphanStockInIDs) > 0 {
		rows = append(rows, idListRow("Entradas huérfanas", report.OrphanStockInIDs))
	}
	return rows
}

func issueRow(is entity.AuditIssue) core.Row {
	return row.New(5).Add(col.New(12).Add(
		text.New(fmt.Sprintf("• [%s] %s", is.Code, is.Message), props.Text{
			Size: 7, Color: colorGray, Left: 4, Top: 0.5,
		}),
	))
}

func idListRow(label string, ids []int64) core.Row {
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("#%d", id))
	}
	return row.New(5).Add(col.New(12).Add(
		text.New(label+": "+strings.Join(parts, ", "), props.Text{Size: 7, Left: 4, Top: 0.5}),
	))
}

// ── helpers ───────────────────────────────────────────────────────────────────

func money(d decimal.Decimal) core.Component {
	return text.New("$"+formatMoney(d.StringFixed(2)), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})
}

func nonEmpty(s, fallback string) string {
	if s != "" {
		return s
	}
	return fallback
}

// formatMoney inserta puntos de miles en la parte entera y usa coma decimal.
// Ej: "25000.50" → "25.000,50", "-1234.00" → "-1.234,00"
func formatMoney(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	intPart, frac, hasFrac := strings.Cut(s, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(intPart) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, c)
	}
	if hasFrac {
		return sign + string(buf) + "," + frac
	}
	return sign + string(buf)
}
