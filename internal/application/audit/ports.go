package audit

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

// ReportCache guarda el último reporte completo. Solo optimiza lecturas: un fallo
// del cache nunca impide auditar.
type ReportCache interface {
	Get(ctx context.Context, key string) (*entity.AuditReport, bool, error)
	Set(ctx context.Context, key string, report *entity.AuditReport, ttl time.Duration) error
}

// ReportRenderer convierte un reporte en un documento (PDF).
type ReportRenderer interface {
	RenderAuditReport(ctx context.Context, report *entity.AuditReport) ([]byte, error)
}
