// Package quality scores extraction attempts against per-document-type
// critical-field expectations and decides whether an attempt is usable
// or needs another pass.
package quality

import (
	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// Issue codes attached to a QualityAssessment.
const (
	IssueConfidenceTooLow         = "confidence_too_low"
	IssueNoFieldsExtracted        = "no_fields_extracted"
	IssueTooFewFields             = "too_few_fields"
	IssueCriticalFieldsMostlyEmpty = "critical_fields_mostly_empty"
)

var (
	minConfidence    = decimal.RequireFromString("0.3")
	acceptableScore  = decimal.RequireFromString("0.4")
	emptyRatioLimit  = decimal.RequireFromString("0.7")

	penaltyLowConfidence  = decimal.RequireFromString("0.3")
	penaltyNoFields       = decimal.RequireFromString("0.4")
	penaltyFewFields      = decimal.RequireFromString("0.2")
	penaltyCriticalEmpty  = decimal.RequireFromString("0.3")
)

// criticalFields is the minimal usable field set per document type.
// Types without a dedicated table fall back to a generic set.
var criticalFields = map[domain.DocumentType][]string{
	domain.TypeLetterOfCredit: {
		"lc_number", "beneficiary", "applicant", "credit_amount", "expiry_date",
	},
	domain.TypeCommercialInvoice: {
		"invoice_number", "seller", "buyer", "total_amount", "currency",
	},
}

var genericCriticalFields = []string{"document_number", "date", "amount"}

// CriticalFields returns the critical-field set for docType.
func CriticalFields(docType domain.DocumentType) []string {
	if fields, ok := criticalFields[docType]; ok {
		return fields
	}
	return genericCriticalFields
}

// Validate scores one extraction attempt. The score starts at 1.0 and
// is penalized per detected issue; an attempt is acceptable when the
// score stays at or above 0.4 with at most 2 issues.
func Validate(result domain.ExtractionResult, docType domain.DocumentType) domain.QualityAssessment {
	score := decimal.NewFromInt(1)
	var issues []string

	if result.Confidence.LessThan(minConfidence) {
		issues = append(issues, IssueConfidenceTooLow)
		score = score.Sub(penaltyLowConfidence)
	}

	filled := result.FilledFieldCount()
	switch {
	case filled == 0:
		issues = append(issues, IssueNoFieldsExtracted)
		score = score.Sub(penaltyNoFields)
	case filled <= 2:
		issues = append(issues, IssueTooFewFields)
		score = score.Sub(penaltyFewFields)
	}

	critical := CriticalFields(docType)
	criticalFilled := 0
	for _, name := range critical {
		if v, ok := result.Fields[name]; ok && v != nil && *v != "" {
			criticalFilled++
		}
	}
	emptyRatio := decimal.NewFromInt(int64(len(critical) - criticalFilled)).
		Div(decimal.NewFromInt(int64(len(critical))))
	if emptyRatio.GreaterThan(emptyRatioLimit) {
		issues = append(issues, IssueCriticalFieldsMostlyEmpty)
		score = score.Sub(penaltyCriticalEmpty)
	}

	return domain.QualityAssessment{
		IsAcceptable:         score.GreaterThanOrEqual(acceptableScore) && len(issues) <= 2,
		QualityScore:         score,
		Issues:               issues,
		CriticalFieldsFilled: criticalFilled,
	}
}
