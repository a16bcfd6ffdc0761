package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

// EnsureSchema creates the result and audit tables. Confidence, score
// and cost columns are NUMERIC on purpose: the pipeline hands them over
// as fixed-point strings, never as binary floats.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS processed_documents (
	document_id TEXT PRIMARY KEY,
	source_bucket TEXT NOT NULL,
	source_key TEXT NOT NULL,
	status TEXT NOT NULL,
	document_type TEXT NOT NULL,
	classification_confidence NUMERIC NOT NULL,
	complexity_score NUMERIC NOT NULL,
	model_tier_used TEXT NOT NULL,
	escalated BOOLEAN NOT NULL,
	extracted_fields JSONB NOT NULL DEFAULT '{}'::jsonb,
	extraction_confidence NUMERIC NOT NULL,
	extraction_notes TEXT,
	attempts_made INTEGER NOT NULL,
	succeeded_on_attempt INTEGER,
	validation_passed BOOLEAN NOT NULL,
	validation_issues JSONB NOT NULL DEFAULT '[]'::jsonb,
	classification_cost NUMERIC NOT NULL,
	extraction_cost NUMERIC NOT NULL,
	total_cost NUMERIC NOT NULL,
	optimization_note TEXT,
	image_quality_score NUMERIC NOT NULL,
	audit_id TEXT NOT NULL,
	processed_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_processed_documents_type ON processed_documents(document_type);
CREATE INDEX IF NOT EXISTS idx_processed_documents_processed_at ON processed_documents(processed_at DESC);

CREATE TABLE IF NOT EXISTS audit_trail (
	id BIGSERIAL PRIMARY KEY,
	audit_id TEXT NOT NULL,
	document_id TEXT NOT NULL,
	event_type TEXT NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}'::jsonb,
	retain_until TIMESTAMPTZ NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_audit_trail_document ON audit_trail(document_id, created_at);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}
