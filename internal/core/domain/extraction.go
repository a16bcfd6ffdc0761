package domain

import "github.com/shopspring/decimal"

// RetryMetadata records how the bounded retry loop arrived at its
// result. SucceededOnAttempt is nil when no attempt passed validation.
type RetryMetadata struct {
	AttemptsMade       int
	SucceededOnAttempt *int
	ValidationPassed   bool
	Issues             []string
	FinalError         string
}

// ExtractionResult is one attempt's parsed extraction output. The retry
// controller owns the sequence of attempts and attaches RetryMetadata
// to whichever result it returns.
type ExtractionResult struct {
	Fields     map[string]*string
	Confidence decimal.Decimal
	Notes      string
	RawResponse string
	Retry      RetryMetadata
}

// FilledFieldCount counts fields that carry a non-empty value. Nil
// values and the literal empty string both count as unfilled.
func (r ExtractionResult) FilledFieldCount() int {
	n := 0
	for _, v := range r.Fields {
		if v != nil && *v != "" {
			n++
		}
	}
	return n
}

// QualityAssessment is the validator's verdict on a single extraction
// attempt. Produced per attempt, never persisted on its own.
type QualityAssessment struct {
	IsAcceptable        bool
	QualityScore        decimal.Decimal
	Issues              []string
	CriticalFieldsFilled int
}
