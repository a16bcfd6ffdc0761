package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// auditRetention is the retention hint stamped on every audit row; a
// scheduled cleanup drops rows past it.
const auditRetention = 365 * 24 * time.Hour

type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// Append writes one audit event. Rows are append-only; there is no
// update path.
func (r *AuditRepository) Append(ctx context.Context, event domain.AuditEvent) error {
	payload := event.Payload
	if payload == nil {
		payload = map[string]any{}
	}
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO audit_trail (audit_id, document_id, event_type, payload, retain_until, created_at)
VALUES ($1,$2,$3,$4,$5,$6)
`,
		event.AuditID, event.DocumentID, event.EventType, payloadJSON,
		event.Timestamp.Add(auditRetention), event.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}
