package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/audit"
	"github.com/finbridge/tradedocs/internal/core/domain"
)

type invokeCall struct {
	prompt string
	tier   domain.ModelTier
}

// invokerFake replays canned responses in order; an entry with err set
// fails that call.
type invokerFake struct {
	replies []string
	errs    []error
	calls   []invokeCall
}

func (f *invokerFake) Invoke(_ context.Context, _ []byte, prompt string, tier domain.ModelTier) (string, domain.TokenUsage, error) {
	idx := len(f.calls)
	f.calls = append(f.calls, invokeCall{prompt: prompt, tier: tier})
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", domain.TokenUsage{}, f.errs[idx]
	}
	if idx >= len(f.replies) {
		return "", domain.TokenUsage{}, errors.New("unexpected extra call")
	}
	return f.replies[idx], domain.TokenUsage{}, nil
}

type sinkFake struct {
	events []domain.AuditEvent
	err    error
}

func (f *sinkFake) Append(_ context.Context, event domain.AuditEvent) error {
	f.events = append(f.events, event)
	return f.err
}

func (f *sinkFake) eventTypes() []string {
	types := make([]string, 0, len(f.events))
	for _, e := range f.events {
		types = append(types, e.EventType)
	}
	return types
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEmitter(sink *sinkFake) *audit.Emitter {
	return audit.NewEmitter(sink, testLogger())
}

func testDoc() *domain.Document {
	return &domain.Document{ID: "doc_test00000001", Image: []byte("png-bytes")}
}

func classifyUC(invoker *invokerFake, threshold string) (*ClassifyDocumentUseCase, *sinkFake) {
	sink := &sinkFake{}
	uc := NewClassifyDocumentUseCase(invoker, ClassificationConfig{
		Threshold: decimal.RequireFromString(threshold),
		Prompt:    "classify this document",
	}, testEmitter(sink), testLogger())
	return uc, sink
}

func TestClassifyHighConfidenceStaysCheap(t *testing.T) {
	invoker := &invokerFake{replies: []string{
		`{"document_type": "LETTER_OF_CREDIT", "confidence": 0.92, "complexity_score": 0.4}`,
	}}
	uc, _ := classifyUC(invoker, "0.8")

	result, err := uc.Classify(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if len(invoker.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(invoker.calls))
	}
	if invoker.calls[0].tier != domain.TierCheap {
		t.Errorf("tier = %s, want cheap", invoker.calls[0].tier)
	}
	if result.Escalated {
		t.Error("should not escalate at 0.92")
	}
	if result.ModelTierUsed != domain.TierCheap {
		t.Errorf("tier used = %s, want cheap", result.ModelTierUsed)
	}
	if result.DocumentType != domain.TypeLetterOfCredit {
		t.Errorf("document type = %s", result.DocumentType)
	}
}

func TestClassifyConfidenceEqualToThresholdDoesNotEscalate(t *testing.T) {
	invoker := &invokerFake{replies: []string{
		`{"document_type": "COMMERCIAL_INVOICE", "confidence": 0.8}`,
	}}
	uc, _ := classifyUC(invoker, "0.8")

	result, err := uc.Classify(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if len(invoker.calls) != 1 {
		t.Fatalf("calls = %d, want 1; equality must stay on the cheap tier", len(invoker.calls))
	}
	if result.Escalated {
		t.Error("confidence equal to threshold must not escalate")
	}
}

func TestClassifyLowConfidenceEscalatesOnce(t *testing.T) {
	invoker := &invokerFake{replies: []string{
		`{"document_type": "OTHER", "confidence": 0.79}`,
		`{"document_type": "LETTER_OF_CREDIT", "confidence": 0.95, "complexity_score": 0.7}`,
	}}
	uc, sink := classifyUC(invoker, "0.8")

	result, err := uc.Classify(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if len(invoker.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(invoker.calls))
	}
	if invoker.calls[1].tier != domain.TierExpensive {
		t.Errorf("stage 2 tier = %s, want expensive", invoker.calls[1].tier)
	}
	if !result.Escalated {
		t.Error("want escalated")
	}
	if result.ModelTierUsed != domain.TierExpensive {
		t.Errorf("tier used = %s, want expensive", result.ModelTierUsed)
	}
	if result.DocumentType != domain.TypeLetterOfCredit {
		t.Errorf("document type = %s, want stage 2 verdict", result.DocumentType)
	}
	if !result.Confidence.Equal(decimal.RequireFromString("0.95")) {
		t.Errorf("confidence = %s, want 0.95", result.Confidence)
	}

	types := sink.eventTypes()
	if !hasEvent(types, domain.EventClassificationEscalated) {
		t.Errorf("audit events = %v, want escalation recorded", types)
	}
}

func TestClassifyStage2IsTerminalEvenWhenUnsure(t *testing.T) {
	invoker := &invokerFake{replies: []string{
		`{"document_type": "OTHER", "confidence": 0.2}`,
		`{"document_type": "OTHER", "confidence": 0.3}`,
	}}
	uc, _ := classifyUC(invoker, "0.8")

	result, err := uc.Classify(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	if len(invoker.calls) != 2 {
		t.Fatalf("calls = %d, want exactly 2; there is no third tier", len(invoker.calls))
	}
	if !result.Confidence.Equal(decimal.RequireFromString("0.3")) {
		t.Errorf("confidence = %s, want the stage 2 value unmodified", result.Confidence)
	}
}

func TestClassifyExactDecimalThresholdComparison(t *testing.T) {
	// A confidence a hair under the threshold escalates even when a
	// float64 round-trip would land it exactly on 0.8.
	invoker := &invokerFake{replies: []string{
		`{"document_type": "OTHER", "confidence": 0.7999999999999999}`,
		`{"document_type": "CERTIFICATE", "confidence": 0.9}`,
	}}
	uc, _ := classifyUC(invoker, "0.8")

	result, err := uc.Classify(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if !result.Escalated {
		t.Error("0.7999999999999999 < 0.8 must escalate")
	}
}

func TestClassifyMalformedStage1Escalates(t *testing.T) {
	invoker := &invokerFake{replies: []string{
		"the model returned prose instead of JSON",
		`{"document_type": "COMMERCIAL_INVOICE", "confidence": 0.9}`,
	}}
	uc, _ := classifyUC(invoker, "0.8")

	result, err := uc.Classify(context.Background(), testDoc())
	if err != nil {
		t.Fatalf("classify: %v", err)
	}

	// Parse failure defaults stage 1 to confidence 0.3, which is below
	// any sane threshold.
	if !result.Escalated {
		t.Error("unparseable stage 1 reply should escalate")
	}
	if result.DocumentType != domain.TypeCommercialInvoice {
		t.Errorf("document type = %s", result.DocumentType)
	}
}

func TestClassifyStage1InvokerError(t *testing.T) {
	invoker := &invokerFake{errs: []error{errors.New("throttled")}}
	uc, _ := classifyUC(invoker, "0.8")

	_, err := uc.Classify(context.Background(), testDoc())
	if err == nil {
		t.Fatal("want error")
	}
	if len(invoker.calls) != 1 {
		t.Errorf("calls = %d, want 1", len(invoker.calls))
	}
}

func TestClassifyStage2InvokerError(t *testing.T) {
	invoker := &invokerFake{
		replies: []string{`{"document_type": "OTHER", "confidence": 0.1}`, ""},
		errs:    []error{nil, errors.New("model unavailable")},
	}
	uc, _ := classifyUC(invoker, "0.8")

	_, err := uc.Classify(context.Background(), testDoc())
	if err == nil {
		t.Fatal("want error from stage 2")
	}
}

func hasEvent(types []string, want string) bool {
	for _, tt := range types {
		if tt == want {
			return true
		}
	}
	return false
}
