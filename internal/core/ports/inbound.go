package ports

import (
	"context"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// DocumentProcessor is the inbound contract for one document's full
// classify-extract-persist session.
type DocumentProcessor interface {
	Process(ctx context.Context, event domain.FileEvent) (*domain.ProcessedRecord, error)
}

// DocumentClassifier settles the document type through the two-stage
// escalation policy.
type DocumentClassifier interface {
	Classify(ctx context.Context, doc *domain.Document) (domain.ClassificationResult, error)
}

// FieldExtractor runs the bounded-retry extraction loop. It never
// returns an error: every path yields a well-formed result, degraded if
// necessary.
type FieldExtractor interface {
	Extract(ctx context.Context, doc *domain.Document, docType domain.DocumentType) domain.ExtractionResult
}

// FileRouter dispatches a landed file to its processor queue.
type FileRouter interface {
	Route(ctx context.Context, event domain.FileEvent) (domain.Route, error)
}
