package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/audit"
	"github.com/finbridge/tradedocs/internal/core/costing"
	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/core/ports"
)

// ProcessDocumentUseCase is one document's full session: fetch,
// classify (with escalation), extract (bounded retry), estimate cost,
// persist, audit. Stateless and idempotent per invocation; duplicate
// deliveries are short-circuited through the dedup cache.
type ProcessDocumentUseCase struct {
	storage    ports.ObjectStorage
	classifier ports.DocumentClassifier
	extractor  ports.FieldExtractor
	estimator  *costing.Estimator
	results    ports.ResultStore
	cache      ports.DedupCache
	audit      *audit.Emitter
	logger     *slog.Logger
}

func NewProcessDocumentUseCase(
	storage ports.ObjectStorage,
	classifier ports.DocumentClassifier,
	extractor ports.FieldExtractor,
	estimator *costing.Estimator,
	results ports.ResultStore,
	cache ports.DedupCache,
	emitter *audit.Emitter,
	logger *slog.Logger,
) *ProcessDocumentUseCase {
	return &ProcessDocumentUseCase{
		storage:    storage,
		classifier: classifier,
		extractor:  extractor,
		estimator:  estimator,
		results:    results,
		cache:      cache,
		audit:      emitter,
		logger:     logger,
	}
}

// Process returns the stored record, or nil when the event was a
// duplicate delivery for an already-processed object.
func (uc *ProcessDocumentUseCase) Process(ctx context.Context, event domain.FileEvent) (*domain.ProcessedRecord, error) {
	auditID := uuid.NewString()
	ctx = withAuditID(ctx, auditID)

	if priorID, seen := uc.alreadyProcessed(ctx, event); seen {
		uc.audit.Emit(ctx, auditID, priorID, domain.EventDuplicateSkipped, map[string]any{
			"bucket": event.Bucket,
			"key":    event.Key,
		})
		uc.logger.Info("duplicate_delivery_skipped", "bucket", event.Bucket, "key", event.Key, "document_id", priorID)
		return nil, nil
	}

	documentID := newDocumentID()
	uc.audit.Emit(ctx, auditID, documentID, domain.EventProcessingStarted, map[string]any{
		"bucket":         event.Bucket,
		"key":            event.Key,
		"file_extension": event.FileExtension,
	})

	doc, err := uc.fetchDocument(ctx, auditID, documentID, event)
	if err != nil {
		uc.failed(ctx, auditID, documentID, err)
		return nil, err
	}

	classification, err := uc.classifier.Classify(ctx, doc)
	if err != nil {
		uc.failed(ctx, auditID, documentID, err)
		return nil, err
	}

	extraction := uc.extractor.Extract(ctx, doc, classification.DocumentType)
	costs := uc.estimator.Estimate(classification.ModelTierUsed, classification.Escalated)

	record := domain.ProcessedRecord{
		DocumentID:        documentID,
		SourceBucket:      event.Bucket,
		SourceKey:         event.Key,
		Status:            domain.StatusProcessed,
		Classification:    classification,
		Extraction:        extraction,
		Costs:             costs,
		ImageQualityScore: imageQualityScore(len(doc.Image)),
		AuditID:           auditID,
		ProcessedAt:       time.Now().UTC(),
	}

	if err := uc.results.UpsertResult(ctx, record); err != nil {
		err = fmt.Errorf("store result: %w", err)
		uc.failed(ctx, auditID, documentID, err)
		return nil, err
	}
	uc.audit.Emit(ctx, auditID, documentID, domain.EventResultsStored, map[string]any{
		"document_type": record.Classification.DocumentType,
	})

	uc.markProcessed(ctx, event, documentID)

	uc.audit.Emit(ctx, auditID, documentID, domain.EventProcessingCompleted, map[string]any{
		"document_type":             record.Classification.DocumentType,
		"classification_confidence": record.Classification.Confidence.String(),
		"extraction_confidence":     record.Extraction.Confidence.String(),
		"total_cost_estimate":       record.Costs.TotalCost.String(),
	})
	return &record, nil
}

func (uc *ProcessDocumentUseCase) fetchDocument(ctx context.Context, auditID, documentID string, event domain.FileEvent) (*domain.Document, error) {
	image, err := uc.storage.Fetch(ctx, event.Bucket, event.Key)
	if err != nil {
		uc.audit.Emit(ctx, auditID, documentID, domain.EventDownloadFailed, map[string]any{
			"bucket": event.Bucket,
			"key":    event.Key,
			"error":  err.Error(),
		})
		return nil, fmt.Errorf("fetch source image: %w", err)
	}
	uc.audit.Emit(ctx, auditID, documentID, domain.EventDownloadCompleted, map[string]any{
		"image_size_bytes": len(image),
	})

	return &domain.Document{
		ID:            documentID,
		SourceBucket:  event.Bucket,
		SourceKey:     event.Key,
		FileExtension: event.FileExtension,
		Image:         image,
		QueuedAt:      event.QueuedAt,
	}, nil
}

// alreadyProcessed checks the dedup cache. Cache outages degrade to
// reprocessing; the pipeline result is idempotent anyway.
func (uc *ProcessDocumentUseCase) alreadyProcessed(ctx context.Context, event domain.FileEvent) (string, bool) {
	if uc.cache == nil {
		return "", false
	}
	priorID, seen, err := uc.cache.SeenDocumentID(ctx, event.Bucket, event.Key)
	if err != nil {
		uc.logger.Warn("dedup_lookup_failed", "bucket", event.Bucket, "key", event.Key, "error", err)
		return "", false
	}
	return priorID, seen
}

func (uc *ProcessDocumentUseCase) markProcessed(ctx context.Context, event domain.FileEvent, documentID string) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.MarkProcessed(ctx, event.Bucket, event.Key, documentID); err != nil {
		uc.logger.Warn("dedup_mark_failed", "bucket", event.Bucket, "key", event.Key, "error", err)
	}
}

func (uc *ProcessDocumentUseCase) failed(ctx context.Context, auditID, documentID string, err error) {
	uc.audit.Emit(ctx, auditID, documentID, domain.EventProcessingFailed, map[string]any{
		"error": err.Error(),
	})
}

func newDocumentID() string {
	return "doc_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// imageQualityScore is a byte-size heuristic recorded as processing
// metadata for the downstream monitoring job.
func imageQualityScore(sizeBytes int) decimal.Decimal {
	switch {
	case sizeBytes < 50_000:
		return decimal.RequireFromString("0.3")
	case sizeBytes > 500_000:
		return decimal.RequireFromString("0.9")
	default:
		return decimal.RequireFromString("0.6")
	}
}
