package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

type ResultRepository struct {
	db *sql.DB
}

func NewResultRepository(db *sql.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// UpsertResult writes the combined classification+extraction record.
// One row per document id; a redelivered document overwrites its prior
// row rather than duplicating it.
func (r *ResultRepository) UpsertResult(ctx context.Context, rec domain.ProcessedRecord) error {
	fieldsJSON, err := json.Marshal(rec.Extraction.Fields)
	if err != nil {
		return fmt.Errorf("marshal extracted fields: %w", err)
	}
	issues := rec.Extraction.Retry.Issues
	if issues == nil {
		issues = []string{}
	}
	issuesJSON, err := json.Marshal(issues)
	if err != nil {
		return fmt.Errorf("marshal validation issues: %w", err)
	}

	var succeededOn sql.NullInt32
	if rec.Extraction.Retry.SucceededOnAttempt != nil {
		succeededOn = sql.NullInt32{Int32: int32(*rec.Extraction.Retry.SucceededOnAttempt), Valid: true}
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO processed_documents (
	document_id, source_bucket, source_key, status,
	document_type, classification_confidence, complexity_score, model_tier_used, escalated,
	extracted_fields, extraction_confidence, extraction_notes,
	attempts_made, succeeded_on_attempt, validation_passed, validation_issues,
	classification_cost, extraction_cost, total_cost, optimization_note,
	image_quality_score, audit_id, processed_at, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24)
ON CONFLICT (document_id) DO UPDATE SET
	status = EXCLUDED.status,
	document_type = EXCLUDED.document_type,
	classification_confidence = EXCLUDED.classification_confidence,
	complexity_score = EXCLUDED.complexity_score,
	model_tier_used = EXCLUDED.model_tier_used,
	escalated = EXCLUDED.escalated,
	extracted_fields = EXCLUDED.extracted_fields,
	extraction_confidence = EXCLUDED.extraction_confidence,
	extraction_notes = EXCLUDED.extraction_notes,
	attempts_made = EXCLUDED.attempts_made,
	succeeded_on_attempt = EXCLUDED.succeeded_on_attempt,
	validation_passed = EXCLUDED.validation_passed,
	validation_issues = EXCLUDED.validation_issues,
	classification_cost = EXCLUDED.classification_cost,
	extraction_cost = EXCLUDED.extraction_cost,
	total_cost = EXCLUDED.total_cost,
	optimization_note = EXCLUDED.optimization_note,
	image_quality_score = EXCLUDED.image_quality_score,
	audit_id = EXCLUDED.audit_id,
	processed_at = EXCLUDED.processed_at,
	updated_at = EXCLUDED.updated_at
`,
		rec.DocumentID, rec.SourceBucket, rec.SourceKey, string(rec.Status),
		string(rec.Classification.DocumentType),
		rec.Classification.Confidence.String(),
		rec.Classification.ComplexityScore.String(),
		string(rec.Classification.ModelTierUsed),
		rec.Classification.Escalated,
		fieldsJSON,
		rec.Extraction.Confidence.String(),
		rec.Extraction.Notes,
		rec.Extraction.Retry.AttemptsMade,
		succeededOn,
		rec.Extraction.Retry.ValidationPassed,
		issuesJSON,
		rec.Costs.ClassificationCost.String(),
		rec.Costs.ExtractionCost.String(),
		rec.Costs.TotalCost.String(),
		rec.Costs.OptimizationNote,
		rec.ImageQualityScore.String(),
		rec.AuditID,
		rec.ProcessedAt,
		time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert processed document: %w", err)
	}
	return nil
}
