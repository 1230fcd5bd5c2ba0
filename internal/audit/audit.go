// Package audit registra eventos de auditoría (emisión, verificación,
// descarga) en un logger propio, separado del log de requests.
package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/dropDatabas3/hellocert/internal/observability/logger"
)

// Eventos conocidos.
const (
	EventIssued         = "certificate.issued"
	EventIssueFailed    = "certificate.issue_failed"
	EventVerified       = "certificate.verified"
	EventFetched        = "certificate.fetched"
	EventFetchNotExists = "certificate.fetch_missing"
)

// Log escribe un evento con el request_id/requester_key del logger de ctx.
func Log(ctx context.Context, event string, fields ...zap.Field) {
	logger.From(ctx).Named("audit").Info(event, append([]zap.Field{zap.String("event", event)}, fields...)...)
}
