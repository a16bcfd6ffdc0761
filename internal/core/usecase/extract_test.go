package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/domain"
	"github.com/finbridge/tradedocs/internal/prompts"
)

const goodLCReply = `{
	"extracted_fields": {
		"lc_number": "LC-2024-001",
		"beneficiary": "Exporter Ltd",
		"applicant": "Importer GmbH",
		"credit_amount": "150000.00",
		"expiry_date": "2026-12-31"
	},
	"confidence": 0.9
}`

const poorReply = `{"extracted_fields": {}, "confidence": 0.2}`

func extractUC(invoker *invokerFake) (*ExtractFieldsUseCase, *sinkFake, *int) {
	sink := &sinkFake{}
	uc := NewExtractFieldsUseCase(invoker, ExtractionConfig{
		Prompts:        prompts.ExtractionCatalog(),
		FallbackPrompt: prompts.Generic,
		AttemptPause:   250 * time.Millisecond,
	}, testEmitter(sink), testLogger())

	pauses := 0
	uc.pause = func(context.Context, time.Duration) { pauses++ }
	return uc, sink, &pauses
}

func TestExtractFirstAttemptSucceeds(t *testing.T) {
	invoker := &invokerFake{replies: []string{goodLCReply}}
	uc, _, pauses := extractUC(invoker)

	result := uc.Extract(context.Background(), testDoc(), domain.TypeLetterOfCredit)

	if len(invoker.calls) != 1 {
		t.Fatalf("calls = %d, want 1", len(invoker.calls))
	}
	if invoker.calls[0].tier != domain.TierExpensive {
		t.Errorf("tier = %s, extraction always runs expensive", invoker.calls[0].tier)
	}
	if result.Retry.AttemptsMade != 1 {
		t.Errorf("attempts = %d, want 1", result.Retry.AttemptsMade)
	}
	if result.Retry.SucceededOnAttempt == nil || *result.Retry.SucceededOnAttempt != 1 {
		t.Errorf("succeeded on = %v, want 1", result.Retry.SucceededOnAttempt)
	}
	if !result.Retry.ValidationPassed {
		t.Error("want validation passed")
	}
	if *pauses != 0 {
		t.Errorf("pauses = %d, want 0", *pauses)
	}
}

func TestExtractSecondAttemptSucceeds(t *testing.T) {
	invoker := &invokerFake{replies: []string{poorReply, goodLCReply}}
	uc, sink, pauses := extractUC(invoker)

	result := uc.Extract(context.Background(), testDoc(), domain.TypeLetterOfCredit)

	if len(invoker.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(invoker.calls))
	}
	if result.Retry.SucceededOnAttempt == nil || *result.Retry.SucceededOnAttempt != 2 {
		t.Errorf("succeeded on = %v, want 2", result.Retry.SucceededOnAttempt)
	}
	if !result.Retry.ValidationPassed {
		t.Error("want validation passed")
	}
	if *pauses != 1 {
		t.Errorf("pauses = %d, want 1", *pauses)
	}
	if !hasEvent(sink.eventTypes(), domain.EventExtractionRetry) {
		t.Errorf("audit events = %v, want retry recorded", sink.eventTypes())
	}
}

func TestExtractBothAttemptsUnacceptableKeepsBestEffort(t *testing.T) {
	invoker := &invokerFake{replies: []string{poorReply, poorReply}}
	uc, _, _ := extractUC(invoker)

	result := uc.Extract(context.Background(), testDoc(), domain.TypeLetterOfCredit)

	if len(invoker.calls) != 2 {
		t.Fatalf("calls = %d, want exactly 2", len(invoker.calls))
	}
	if result.Retry.SucceededOnAttempt != nil {
		t.Errorf("succeeded on = %v, want nil", result.Retry.SucceededOnAttempt)
	}
	if result.Retry.ValidationPassed {
		t.Error("validation must be marked failed")
	}
	if result.Retry.AttemptsMade != 2 {
		t.Errorf("attempts = %d, want 2", result.Retry.AttemptsMade)
	}
	if len(result.Retry.Issues) == 0 {
		t.Error("want validator issues preserved on the best-effort result")
	}
	// The last parsed reply survives for downstream persistence.
	if !result.Confidence.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("confidence = %s, want 0.2", result.Confidence)
	}
}

func TestExtractErrorThenSuccess(t *testing.T) {
	invoker := &invokerFake{
		replies: []string{"", goodLCReply},
		errs:    []error{errors.New("timeout"), nil},
	}
	uc, _, pauses := extractUC(invoker)

	result := uc.Extract(context.Background(), testDoc(), domain.TypeLetterOfCredit)

	if len(invoker.calls) != 2 {
		t.Fatalf("calls = %d, want 2", len(invoker.calls))
	}
	if result.Retry.SucceededOnAttempt == nil || *result.Retry.SucceededOnAttempt != 2 {
		t.Errorf("succeeded on = %v, want 2", result.Retry.SucceededOnAttempt)
	}
	if *pauses != 1 {
		t.Errorf("pauses = %d, want 1", *pauses)
	}
}

func TestExtractBothAttemptsErrorIsTerminal(t *testing.T) {
	invoker := &invokerFake{
		errs: []error{errors.New("timeout"), errors.New("timeout")},
	}
	uc, _, _ := extractUC(invoker)

	result := uc.Extract(context.Background(), testDoc(), domain.TypeLetterOfCredit)

	if len(invoker.calls) != 2 {
		t.Fatalf("calls = %d, want exactly 2, never more", len(invoker.calls))
	}
	if len(result.Fields) != 0 {
		t.Errorf("fields = %v, want empty", result.Fields)
	}
	if !result.Confidence.Equal(decimal.RequireFromString("0.1")) {
		t.Errorf("confidence = %s, want terminal 0.1", result.Confidence)
	}
	if result.Retry.FinalError == "" {
		t.Error("want the upstream error preserved")
	}
	if result.Retry.SucceededOnAttempt != nil {
		t.Error("terminal failure must not claim a successful attempt")
	}
	if !strings.Contains(result.Notes, "2 attempts") {
		t.Errorf("notes = %q", result.Notes)
	}
}

func TestExtractPromptSelection(t *testing.T) {
	invoker := &invokerFake{replies: []string{goodLCReply}}
	uc, _, _ := extractUC(invoker)

	uc.Extract(context.Background(), testDoc(), domain.TypeLetterOfCredit)
	if invoker.calls[0].prompt != prompts.LetterOfCredit {
		t.Error("letter of credit should use its dedicated prompt")
	}

	invoker2 := &invokerFake{replies: []string{`{"extracted_fields": {"document_number": "X-1", "date": "2026-01-01", "amount": "10"}, "confidence": 0.9}`}}
	uc2, _, _ := extractUC(invoker2)
	uc2.Extract(context.Background(), testDoc(), domain.TypeOther)
	if invoker2.calls[0].prompt != prompts.Generic {
		t.Error("unknown types should fall back to the generic prompt")
	}
}
