package pdf

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

func TestFormatMoney(t *testing.T) {
	assert.Equal(t, "25.000,50", formatMoney("25000.50"))
	assert.Equal(t, "-1.234,00", formatMoney("-1234.00"))
	assert.Equal(t, "999", formatMoney("999"))
	assert.Equal(t, "1.000.000,01", formatMoney("1000000.01"))
}

func TestRenderAuditReport_GeneraPDF(t *testing.T) {
	report := &entity.AuditReport{
		GeneratedAt:     time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		ProductsChecked: 2,
		Inconsistent:    1,
		Products: []entity.ProductAudit{
			{ProductID: 1, Consistent: true, PurchasedCost: decimal.NewFromInt(1000), TotalCostValue: decimal.NewFromInt(600), TotalCOGS: decimal.NewFromInt(400)},
			{
				ProductID: 2, PurchasedCost: decimal.NewFromInt(50), Divergence: decimal.NewFromInt(5),
				Issues: []entity.AuditIssue{{Code: entity.IssueIdentityDivergence, Message: "compras 50 != 45"}},
			},
		},
		OrphanSaleIDs: []int64{7},
		Issues:        []entity.AuditIssue{{Code: entity.IssueOrphanSale, Message: "1 ventas sin producto"}},
	}

	doc, err := NewAuditReportGenerator("ledger-api").RenderAuditReport(context.Background(), report)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF")), "debe ser un PDF")
}
