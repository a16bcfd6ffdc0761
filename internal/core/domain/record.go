package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessedRecord is the combined classification+extraction record
// upserted into the result store, keyed by DocumentID.
type ProcessedRecord struct {
	DocumentID   string
	SourceBucket string
	SourceKey    string
	Status       DocumentStatus

	Classification ClassificationResult
	Extraction     ExtractionResult
	Costs          CostEstimate

	ImageQualityScore decimal.Decimal
	AuditID           string
	ProcessedAt       time.Time
}
