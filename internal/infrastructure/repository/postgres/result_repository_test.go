package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

func newResultRepoWithMock(t *testing.T) (*ResultRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	return &ResultRepository{db: db}, mock, func() { _ = db.Close() }
}

func sampleRecord() domain.ProcessedRecord {
	value := "LC-2024-001"
	attempt := 1
	return domain.ProcessedRecord{
		DocumentID:   "doc_abc123def456",
		SourceBucket: "trade-docs",
		SourceKey:    "incoming/lc-001.png",
		Status:       domain.StatusProcessed,
		Classification: domain.ClassificationResult{
			DocumentType:    domain.TypeLetterOfCredit,
			Confidence:      decimal.RequireFromString("0.92"),
			ComplexityScore: decimal.RequireFromString("0.4"),
			ModelTierUsed:   domain.TierCheap,
		},
		Extraction: domain.ExtractionResult{
			Fields:     map[string]*string{"lc_number": &value},
			Confidence: decimal.RequireFromString("0.88"),
			Retry: domain.RetryMetadata{
				AttemptsMade:       1,
				SucceededOnAttempt: &attempt,
				ValidationPassed:   true,
			},
		},
		Costs: domain.CostEstimate{
			ClassificationCost: decimal.RequireFromString("0.0005"),
			ExtractionCost:     decimal.RequireFromString("0.006"),
			TotalCost:          decimal.RequireFromString("0.0065"),
			OptimizationNote:   "used cheap classification model",
		},
		ImageQualityScore: decimal.RequireFromString("0.6"),
		AuditID:           "audit-1",
		ProcessedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
}

func TestUpsertResultPersistsDecimalsAsStrings(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	rec := sampleRecord()
	mock.ExpectExec("INSERT INTO processed_documents").
		WithArgs(
			rec.DocumentID, rec.SourceBucket, rec.SourceKey, "processed",
			"LETTER_OF_CREDIT", "0.92", "0.4", "cheap", false,
			sqlmock.AnyArg(), "0.88", "",
			1, sqlmock.AnyArg(), true, sqlmock.AnyArg(),
			"0.0005", "0.006", "0.0065", "used cheap classification model",
			"0.6", "audit-1", rec.ProcessedAt, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertResult(context.Background(), rec); err != nil {
		t.Fatalf("UpsertResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertResultWrapsDriverError(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO processed_documents").
		WillReturnError(errors.New("connection refused"))

	err := repo.UpsertResult(context.Background(), sampleRecord())
	if err == nil {
		t.Fatal("expected error")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestUpsertResultNilIssuesBecomeEmptyArray(t *testing.T) {
	repo, mock, done := newResultRepoWithMock(t)
	defer done()

	rec := sampleRecord()
	rec.Extraction.Retry.Issues = nil
	mock.ExpectExec("INSERT INTO processed_documents").
		WithArgs(
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), []byte("[]"),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
			sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpsertResult(context.Background(), rec); err != nil {
		t.Fatalf("UpsertResult() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
