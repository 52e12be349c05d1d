package shared

import (
	"context"
	"log/slog"
	"net/http"

	"staffeval/internal/domain/audit"
	"staffeval/internal/transport/http/middleware"
)

type Auditor interface {
	Record(ctx context.Context, evt audit.Event, detail any) error
}

// Audit logs one destructive operation. A failed write is logged and
// never fails the request.
func Audit(r *http.Request, a Auditor, action, entityType, entityID string, detail any) {
	if a == nil {
		return
	}
	evt := audit.Event{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		RequestID:  middleware.GetRequestID(r.Context()),
	}
	if err := a.Record(r.Context(), evt, detail); err != nil {
		slog.Warn("audit record failed", "action", action, "err", err)
	}
}
