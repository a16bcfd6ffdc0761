package ports

import (
	"context"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// VisionInvoker is the uniform call into the external vision-inference
// endpoint. Implementations make exactly one network call per Invoke
// and never retry; retry policy lives in the controllers above.
type VisionInvoker interface {
	Invoke(ctx context.Context, image []byte, prompt string, tier domain.ModelTier) (string, domain.TokenUsage, error)
}

// ObjectStorage reads source document images.
type ObjectStorage interface {
	Fetch(ctx context.Context, bucket, key string) ([]byte, error)
}

// ResultStore upserts the combined classification+extraction record
// keyed by document id. Implementations must persist decimal values in
// a fixed-point representation, not binary floats.
type ResultStore interface {
	UpsertResult(ctx context.Context, rec domain.ProcessedRecord) error
}

// AuditSink appends one audit event. Callers treat failures as
// non-fatal; the emitter wrapper logs and continues.
type AuditSink interface {
	Append(ctx context.Context, event domain.AuditEvent) error
}

// DedupCache remembers which source objects have already been
// processed, so queue redeliveries do not pay for a second inference
// pass. A cache outage degrades to reprocessing, never to failure.
type DedupCache interface {
	SeenDocumentID(ctx context.Context, bucket, key string) (string, bool, error)
	MarkProcessed(ctx context.Context, bucket, key, documentID string) error
}

// MessageQueue carries routing events and vision work items.
type MessageQueue interface {
	PublishFileEvent(ctx context.Context, subject string, event domain.FileEvent) error
	SubscribeFileEvents(ctx context.Context, subject string, handler func(context.Context, domain.FileEvent) error) error
}
