// Package audit emits structured pipeline events to the audit sink.
// Emission is strictly best-effort: a failed write is logged and
// swallowed so the audit trail can never abort document processing.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/core/ports"
)

type Emitter struct {
	sink   ports.AuditSink
	logger *slog.Logger
	now    func() time.Time
}

func NewEmitter(sink ports.AuditSink, logger *slog.Logger) *Emitter {
	return &Emitter{
		sink:   sink,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Emit appends one event to the audit trail. Never returns an error.
func (e *Emitter) Emit(ctx context.Context, auditID, documentID, eventType string, payload map[string]any) {
	event := domain.AuditEvent{
		AuditID:    auditID,
		DocumentID: documentID,
		EventType:  eventType,
		Timestamp:  e.now(),
		Payload:    payload,
	}
	if err := e.sink.Append(ctx, event); err != nil {
		e.logger.Warn("audit_write_failed",
			"audit_id", auditID,
			"document_id", documentID,
			"event_type", eventType,
			"error", err,
		)
	}
}
