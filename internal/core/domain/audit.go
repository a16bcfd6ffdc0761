package domain

import "time"

// Audit event types, one per pipeline state transition.
const (
	EventProcessingStarted       = "PROCESSING_STARTED"
	EventDownloadCompleted       = "DOWNLOAD_COMPLETED"
	EventDownloadFailed          = "DOWNLOAD_FAILED"
	EventClassificationStage1    = "CLASSIFICATION_STAGE1_STARTED"
	EventClassificationEscalated = "CLASSIFICATION_ESCALATED"
	EventClassificationCompleted = "CLASSIFICATION_COMPLETED"
	EventExtractionAttempt       = "EXTRACTION_ATTEMPT_STARTED"
	EventExtractionRetry         = "EXTRACTION_RETRY_SCHEDULED"
	EventExtractionCompleted     = "EXTRACTION_COMPLETED"
	EventResultsStored           = "RESULTS_STORED"
	EventProcessingCompleted     = "PROCESSING_COMPLETED"
	EventProcessingFailed        = "PROCESSING_FAILED"
	EventDuplicateSkipped        = "DUPLICATE_SKIPPED"
)

// AuditEvent is one append-only record in the audit trail. AuditID
// correlates every event of a single processing invocation. Writing an
// event must never abort the pipeline; the emitter logs and continues.
type AuditEvent struct {
	AuditID    string
	DocumentID string
	EventType  string
	Timestamp  time.Time
	Payload    map[string]any
}
