// Package costing computes deterministic per-document spend estimates
// for business reporting. Pure arithmetic, no I/O.
package costing

import (
	"github.com/shopspring/decimal"

	"github.com/finbridge/tradedocs/internal/core/domain"
)

// costScale keeps estimates at micro-dollar precision, which is what
// the billing exports expect.
const costScale = 6

// TierPrice is the published price per 1000 tokens for one model tier.
type TierPrice struct {
	InputPerKTokens  decimal.Decimal
	OutputPerKTokens decimal.Decimal
}

// Assumptions fixes the token counts an estimate is computed from.
// Estimates are for trend reporting, not invoicing, so typical counts
// beat per-call accounting here.
type Assumptions struct {
	InputTokens  int64
	OutputTokens int64
}

type Estimator struct {
	prices      map[domain.ModelTier]TierPrice
	assumptions Assumptions
}

// DefaultPrices mirrors the published per-1K-token rates for the two
// tiers in use.
func DefaultPrices() map[domain.ModelTier]TierPrice {
	return map[domain.ModelTier]TierPrice{
		domain.TierCheap: {
			InputPerKTokens:  decimal.RequireFromString("0.00025"),
			OutputPerKTokens: decimal.RequireFromString("0.00125"),
		},
		domain.TierExpensive: {
			InputPerKTokens:  decimal.RequireFromString("0.003"),
			OutputPerKTokens: decimal.RequireFromString("0.015"),
		},
	}
}

func DefaultAssumptions() Assumptions {
	return Assumptions{InputTokens: 1000, OutputTokens: 200}
}

func NewEstimator(prices map[domain.ModelTier]TierPrice, assumptions Assumptions) *Estimator {
	return &Estimator{prices: prices, assumptions: assumptions}
}

// Estimate computes the per-stage and total cost for one document.
// Classification is billed at whichever tier settled it; extraction
// always runs on the expensive tier. The total is the exact sum of the
// rounded stage costs.
func (e *Estimator) Estimate(classificationTier domain.ModelTier, escalated bool) domain.CostEstimate {
	classification := e.stageCost(classificationTier)
	extraction := e.stageCost(domain.TierExpensive)

	note := "used cheap classification model"
	if escalated {
		note = "escalated for accuracy"
	}

	return domain.CostEstimate{
		ClassificationCost: classification,
		ExtractionCost:     extraction,
		TotalCost:          classification.Add(extraction),
		OptimizationNote:   note,
	}
}

func (e *Estimator) stageCost(tier domain.ModelTier) decimal.Decimal {
	price := e.prices[tier]
	thousand := decimal.NewFromInt(1000)

	input := decimal.NewFromInt(e.assumptions.InputTokens).Div(thousand).Mul(price.InputPerKTokens)
	output := decimal.NewFromInt(e.assumptions.OutputTokens).Div(thousand).Mul(price.OutputPerKTokens)
	return input.Add(output).Round(costScale)
}
