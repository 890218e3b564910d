package services

import (
	"github.com/shopspring/decimal"

	"github.com/retailpricing/api/internal/domain"
)

const noDiscountDescription = "No discount applicable"

// DefaultDiscountTiers returns the statically configured volume tiers,
// ordered by minimum amount ascending.
func DefaultDiscountTiers() []domain.DiscountTier {
	return []domain.DiscountTier{
		{MinimumAmount: decimal.NewFromInt(100), Percentage: decimal.NewFromInt(5), Description: "5% discount for purchases over 100"},
		{MinimumAmount: decimal.NewFromInt(500), Percentage: decimal.NewFromInt(10), Description: "10% discount for purchases over 500"},
		{MinimumAmount: decimal.NewFromInt(1000), Percentage: decimal.NewFromInt(15), Description: "15% discount for purchases over 1000"},
		{MinimumAmount: decimal.NewFromInt(5000), Percentage: decimal.NewFromInt(20), Description: "20% discount for purchases over 5000"},
	}
}

// DiscountCalculator selects and applies volume discount tiers. The tier
// table is fixed at construction, so the calculator is safe for concurrent
// use without locking.
type DiscountCalculator struct {
	tiers []domain.DiscountTier
}

// NewDiscountCalculator builds a calculator over the provided tiers,
// falling back to the default table when none are given.
func NewDiscountCalculator(tiers []domain.DiscountTier) *DiscountCalculator {
	if len(tiers) == 0 {
		tiers = DefaultDiscountTiers()
	}
	copied := make([]domain.DiscountTier, len(tiers))
	copy(copied, tiers)
	return &DiscountCalculator{tiers: copied}
}

// DiscountResult captures the outcome of applying the best-matching tier to
// a subtotal.
type DiscountResult struct {
	OriginalAmount decimal.Decimal
	Percentage     decimal.Decimal
	Amount         decimal.Decimal
	FinalAmount    decimal.Decimal
	Description    string
}

// ApplicableTier returns the most advantageous tier for the subtotal: among
// tiers whose minimum is met, the one with the highest percentage wins.
// The second return is false when the subtotal is below every minimum.
func (c *DiscountCalculator) ApplicableTier(subtotal decimal.Decimal) (domain.DiscountTier, bool) {
	var best domain.DiscountTier
	found := false
	for _, tier := range c.tiers {
		if subtotal.LessThan(tier.MinimumAmount) {
			continue
		}
		if !found || tier.Percentage.GreaterThan(best.Percentage) {
			best = tier
			found = true
		}
	}
	return best, found
}

// CalculateDiscount applies the applicable tier to the subtotal. A subtotal
// below every tier yields a zero discount; the operation never fails for a
// non-negative subtotal.
func (c *DiscountCalculator) CalculateDiscount(subtotal decimal.Decimal) DiscountResult {
	tier, ok := c.ApplicableTier(subtotal)
	if !ok {
		return DiscountResult{
			OriginalAmount: subtotal,
			Percentage:     decimal.Zero,
			Amount:         decimal.Zero,
			FinalAmount:    subtotal,
			Description:    noDiscountDescription,
		}
	}

	amount := subtotal.Mul(tier.Percentage).Div(decimal.NewFromInt(100)).Round(domain.MoneyScale)
	final := subtotal.Sub(amount).Round(domain.MoneyScale)

	return DiscountResult{
		OriginalAmount: subtotal,
		Percentage:     tier.Percentage,
		Amount:         amount,
		FinalAmount:    final,
		Description:    tier.Description,
	}
}
