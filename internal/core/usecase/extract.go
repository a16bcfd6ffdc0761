package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/audit"
	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/core/parse"
	"github.com/finbridge/tradedocs/internal/core/ports"
	"github.com/finbridge/tradedocs/internal/core/quality"
)

// maxExtractionAttempts is a hard ceiling on upstream extraction calls
// per document. Keep it at 2; raising it requires a cost review.
const maxExtractionAttempts = 2

var terminalConfidence = decimal.RequireFromString("0.1")

// ExtractionConfig carries the per-type prompt catalog and the fixed
// pause between attempts. The pause exists to avoid hammering the
// upstream service, it is not a backoff schedule.
type ExtractionConfig struct {
	Prompts        map[domain.DocumentType]string
	FallbackPrompt string
	AttemptPause   time.Duration
}

// ExtractFieldsUseCase drives the bounded retry loop: at most
// maxExtractionAttempts upstream calls under every code path, including
// invoker failures on both attempts. It never returns an error; a
// document that cannot be extracted yields a terminal low-confidence
// result instead.
type ExtractFieldsUseCase struct {
	invoker ports.VisionInvoker
	cfg     ExtractionConfig
	audit   *audit.Emitter
	logger  *slog.Logger

	// pause is replaceable so tests do not sleep.
	pause func(ctx context.Context, d time.Duration)
}

func NewExtractFieldsUseCase(
	invoker ports.VisionInvoker,
	cfg ExtractionConfig,
	emitter *audit.Emitter,
	logger *slog.Logger,
) *ExtractFieldsUseCase {
	return &ExtractFieldsUseCase{
		invoker: invoker,
		cfg:     cfg,
		audit:   emitter,
		logger:  logger,
		pause:   sleepContext,
	}
}

func (uc *ExtractFieldsUseCase) Extract(ctx context.Context, doc *domain.Document, docType domain.DocumentType) domain.ExtractionResult {
	prompt := uc.promptFor(docType)

	var best domain.ExtractionResult
	var bestIssues []string

	for attempt := 1; attempt <= maxExtractionAttempts; attempt++ {
		uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventExtractionAttempt, map[string]any{
			"attempt":       attempt,
			"max_attempts":  maxExtractionAttempts,
			"document_type": docType,
		})

		text, _, err := uc.invoker.Invoke(ctx, doc.Image, prompt, domain.TierExpensive)
		if err != nil {
			uc.logger.Warn("extraction_attempt_failed",
				"document_id", doc.ID,
				"attempt", attempt,
				"error", err,
			)
			if attempt == maxExtractionAttempts {
				return uc.terminalFailure(ctx, doc, attempt, err)
			}
			uc.scheduleRetry(ctx, doc, attempt)
			continue
		}

		result := parse.Extraction(text)
		assessment := quality.Validate(result, docType)
		if assessment.IsAcceptable {
			succeeded := attempt
			result.Retry = domain.RetryMetadata{
				AttemptsMade:       attempt,
				SucceededOnAttempt: &succeeded,
				ValidationPassed:   true,
				Issues:             assessment.Issues,
			}
			uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventExtractionCompleted, map[string]any{
				"attempt":       attempt,
				"quality_score": assessment.QualityScore.String(),
				"fields_filled": result.FilledFieldCount(),
			})
			return result
		}

		best = result
		bestIssues = assessment.Issues
		if attempt < maxExtractionAttempts {
			uc.scheduleRetry(ctx, doc, attempt)
		}
	}

	// Best-effort: the final attempt parsed but did not pass validation.
	best.Retry = domain.RetryMetadata{
		AttemptsMade:       maxExtractionAttempts,
		SucceededOnAttempt: nil,
		ValidationPassed:   false,
		Issues:             bestIssues,
	}
	uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventExtractionCompleted, map[string]any{
		"attempt":           maxExtractionAttempts,
		"validation_passed": false,
		"issues":            bestIssues,
	})
	return best
}

func (uc *ExtractFieldsUseCase) scheduleRetry(ctx context.Context, doc *domain.Document, attempt int) {
	uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventExtractionRetry, map[string]any{
		"after_attempt": attempt,
		"pause_ms":      uc.cfg.AttemptPause.Milliseconds(),
	})
	uc.pause(ctx, uc.cfg.AttemptPause)
}

// terminalFailure is the never-raise outcome for an invoker error on
// the final attempt: empty fields, confidence pinned low, the upstream
// message preserved for operators.
func (uc *ExtractFieldsUseCase) terminalFailure(ctx context.Context, doc *domain.Document, attempt int, err error) domain.ExtractionResult {
	uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventExtractionCompleted, map[string]any{
		"attempt":           attempt,
		"validation_passed": false,
		"error":             err.Error(),
	})
	return domain.ExtractionResult{
		Fields:     map[string]*string{},
		Confidence: terminalConfidence,
		Notes:      fmt.Sprintf("extraction failed after %d attempts: %v", attempt, err),
		Retry: domain.RetryMetadata{
			AttemptsMade:       attempt,
			SucceededOnAttempt: nil,
			ValidationPassed:   false,
			FinalError:         err.Error(),
		},
	}
}

func (uc *ExtractFieldsUseCase) promptFor(docType domain.DocumentType) string {
	if prompt, ok := uc.cfg.Prompts[docType]; ok {
		return prompt
	}
	return uc.cfg.FallbackPrompt
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
