package domain

import "github.com/shopspring/decimal"

// ModelTier selects which vision model answers a call. The cheap tier
// handles the bulk of classification traffic; the expensive tier is
// reserved for escalations and field extraction.
type ModelTier string

const (
	TierCheap     ModelTier = "cheap"
	TierExpensive ModelTier = "expensive"
)

// TokenUsage is the token accounting reported by the inference endpoint
// for a single call.
type TokenUsage struct {
	InputTokens  int32
	OutputTokens int32
}

// ClassificationResult is the settled outcome of the two-stage
// classification. Confidence and ComplexityScore are always inside
// [0,1]; the parser substitutes safe defaults before a result is built.
type ClassificationResult struct {
	DocumentType    DocumentType
	Confidence      decimal.Decimal
	ComplexityScore decimal.Decimal
	ModelTierUsed   ModelTier
	Escalated       bool
	RawResponse     string
}
