package domain

import "github.com/shopspring/decimal"

// CostEstimate is the per-document spend estimate for business
// reporting. Derived and deterministic; recomputed, never treated as a
// source of truth. All values are fixed-point with six fractional
// digits so they survive stores that reject binary floats.
type CostEstimate struct {
	ClassificationCost decimal.Decimal
	ExtractionCost     decimal.Decimal
	TotalCost          decimal.Decimal
	OptimizationNote   string
}
