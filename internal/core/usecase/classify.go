package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/audit"
	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/core/parse"
	"github.com/finbridge/tradedocs/internal/core/ports"
)

// ClassificationConfig is the immutable policy for the two-stage
// classification. Threshold compares exactly: a stage-1 confidence
// equal to the threshold stays on the cheap tier.
type ClassificationConfig struct {
	Threshold decimal.Decimal
	Prompt    string
}

// ClassifyDocumentUseCase runs the cheap-first, escalate-once
// classification state machine. STAGE1 terminates on sufficient
// confidence; STAGE2 always terminates regardless of its confidence,
// there is no third tier.
type ClassifyDocumentUseCase struct {
	invoker ports.VisionInvoker
	cfg     ClassificationConfig
	audit   *audit.Emitter
	logger  *slog.Logger
}

func NewClassifyDocumentUseCase(
	invoker ports.VisionInvoker,
	cfg ClassificationConfig,
	emitter *audit.Emitter,
	logger *slog.Logger,
) *ClassifyDocumentUseCase {
	return &ClassifyDocumentUseCase{
		invoker: invoker,
		cfg:     cfg,
		audit:   emitter,
		logger:  logger,
	}
}

func (uc *ClassifyDocumentUseCase) Classify(ctx context.Context, doc *domain.Document) (domain.ClassificationResult, error) {
	uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventClassificationStage1, map[string]any{
		"tier":      domain.TierCheap,
		"threshold": uc.cfg.Threshold.String(),
	})

	stage1, err := uc.classifyOnce(ctx, doc, domain.TierCheap)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("classification stage 1: %w", err)
	}

	if stage1.Confidence.GreaterThanOrEqual(uc.cfg.Threshold) {
		result := domain.ClassificationResult{
			DocumentType:    stage1.DocumentType,
			Confidence:      stage1.Confidence,
			ComplexityScore: stage1.ComplexityScore,
			ModelTierUsed:   domain.TierCheap,
			Escalated:       false,
			RawResponse:     stage1.RawResponse,
		}
		uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventClassificationCompleted, map[string]any{
			"stage":         1,
			"tier":          domain.TierCheap,
			"document_type": result.DocumentType,
			"confidence":    result.Confidence.String(),
		})
		return result, nil
	}

	uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventClassificationEscalated, map[string]any{
		"stage1_confidence": stage1.Confidence.String(),
		"threshold":         uc.cfg.Threshold.String(),
	})
	uc.logger.Info("classification_escalated",
		"document_id", doc.ID,
		"stage1_confidence", stage1.Confidence.String(),
	)

	stage2, err := uc.classifyOnce(ctx, doc, domain.TierExpensive)
	if err != nil {
		return domain.ClassificationResult{}, fmt.Errorf("classification stage 2: %w", err)
	}

	result := domain.ClassificationResult{
		DocumentType:    stage2.DocumentType,
		Confidence:      stage2.Confidence,
		ComplexityScore: stage2.ComplexityScore,
		ModelTierUsed:   domain.TierExpensive,
		Escalated:       true,
		RawResponse:     stage2.RawResponse,
	}
	uc.audit.Emit(ctx, auditID(ctx), doc.ID, domain.EventClassificationCompleted, map[string]any{
		"stage":         2,
		"tier":          domain.TierExpensive,
		"document_type": result.DocumentType,
		"confidence":    result.Confidence.String(),
	})
	return result, nil
}

func (uc *ClassifyDocumentUseCase) classifyOnce(ctx context.Context, doc *domain.Document, tier domain.ModelTier) (parse.ClassificationReply, error) {
	text, _, err := uc.invoker.Invoke(ctx, doc.Image, uc.cfg.Prompt, tier)
	if err != nil {
		return parse.ClassificationReply{}, err
	}
	return parse.Classification(text), nil
}
