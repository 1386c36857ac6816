// Package cache guarda el último reporte de conciliación (optimización de lectura).
package cache

import (
	"context"
	"time"

	"github.com/jhoicas/ledger-api/internal/application/audit"
	"github.com/jhoicas/ledger-api/internal/domain/entity"
)

var (
	_ audit.ReportCache = NoopReportCache{}
	_ audit.ReportCache = (*RedisReportCache)(nil)
)

// NoopReportCache no guarda nada: cada consulta audita de nuevo.
type NoopReportCache struct{}

func (NoopReportCache) Get(_ context.Context, _ string) (*entity.AuditReport, bool, error) {
	return nil, false, nil
}

func (NoopReportCache) Set(_ context.Context, _ string, _ *entity.AuditReport, _ time.Duration) error {
	return nil
}
