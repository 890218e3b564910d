package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailpricing/api/internal/domain"
)

// knownStates is the closed set of jurisdiction codes for this deployment,
// in declaration order.
var knownStates = []string{"UT", "NV", "TX", "AL", "CA"}

// DefaultTaxRates returns the statically configured sales tax table.
func DefaultTaxRates() map[string]domain.TaxRate {
	return map[string]domain.TaxRate{
		"UT": {State: "UT", Percentage: decimal.RequireFromString("6.85"), Description: "Utah Sales Tax", Enabled: true},
		"NV": {State: "NV", Percentage: decimal.RequireFromString("8.00"), Description: "Nevada Sales Tax", Enabled: true},
		"TX": {State: "TX", Percentage: decimal.RequireFromString("6.25"), Description: "Texas Sales Tax", Enabled: true},
		"AL": {State: "AL", Percentage: decimal.RequireFromString("4.00"), Description: "Alabama Sales Tax", Enabled: true},
		"CA": {State: "CA", Percentage: decimal.RequireFromString("8.25"), Description: "California Sales Tax", Enabled: true},
	}
}

// TaxCalculator validates jurisdiction codes and computes sales tax. The
// rate table is fixed at construction and never mutated, so a single
// calculator serves concurrent requests without locking.
type TaxCalculator struct {
	rates  map[string]domain.TaxRate
	logger *zap.Logger
}

// TaxCalculatorDeps configures a TaxCalculator.
type TaxCalculatorDeps struct {
	// Rates overrides the default tax table when non-nil.
	Rates map[string]domain.TaxRate
	// DisabledStates flips Enabled off for the listed codes at startup.
	DisabledStates []string
	Logger         *zap.Logger
}

// NewTaxCalculator constructs the calculator, applying any configured
// disabled-state overrides to a private copy of the rate table.
func NewTaxCalculator(deps TaxCalculatorDeps) *TaxCalculator {
	source := deps.Rates
	if source == nil {
		source = DefaultTaxRates()
	}
	rates := make(map[string]domain.TaxRate, len(source))
	for code, rate := range source {
		rates[code] = rate
	}
	for _, code := range deps.DisabledStates {
		code = strings.ToUpper(strings.TrimSpace(code))
		if rate, ok := rates[code]; ok {
			rate.Enabled = false
			rates[code] = rate
		}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaxCalculator{rates: rates, logger: logger}
}

// ValidStates returns the closed jurisdiction list in declaration order.
func (c *TaxCalculator) ValidStates() []string {
	out := make([]string, len(knownStates))
	copy(out, knownStates)
	return out
}

// Rate returns the configured tax rate entry for a known state.
func (c *TaxCalculator) Rate(state string) (domain.TaxRate, bool) {
	rate, ok := c.rates[state]
	return rate, ok
}

// ValidateState checks a jurisdiction code against the closed set and the
// configured rate table. Unknown codes fail with INVALID_STATE; known codes
// that are unconfigured or disabled fail with STATE_NOT_SUPPORTED.
func (c *TaxCalculator) ValidateState(state string) (domain.TaxRate, error) {
	known := false
	for _, code := range knownStates {
		if code == state {
			known = true
			break
		}
	}
	if !known {
		return domain.TaxRate{}, NewInvalidStateError(state, c.ValidStates())
	}

	rate, ok := c.rates[state]
	if !ok {
		return domain.TaxRate{}, NewStateNotSupportedError(state, "")
	}
	if !rate.Enabled {
		return domain.TaxRate{}, NewStateNotSupportedError(state,
			fmt.Sprintf("tax calculation for state %s is temporarily disabled", state))
	}
	return rate, nil
}

// TaxResult captures one tax computation, including the ordered
// human-readable trace of the arithmetic.
type TaxResult struct {
	OriginalAmount   decimal.Decimal
	State            string
	Rate             decimal.Decimal
	TaxAmount        decimal.Decimal
	FinalAmount      decimal.Decimal
	Description      string
	CalculationSteps []string
}

// CalculateTax computes sales tax on amount for the given state. The amount
// is rounded to two decimals before the rate applies; rounding order is part
// of the contract. Jurisdiction errors pass through unwrapped, every other
// fault surfaces as CALCULATION_ERROR.
func (c *TaxCalculator) CalculateTax(ctx context.Context, amount decimal.Decimal, state string) (TaxResult, error) {
	rate, err := c.ValidateState(state)
	if err != nil {
		return TaxResult{}, err
	}

	if amount.IsNegative() {
		return TaxResult{}, NewCalculationError("amount cannot be negative", map[string]any{
			"amount": amount.String(),
			"state":  state,
		})
	}

	amount = amount.Round(domain.MoneyScale)
	taxAmount := amount.Mul(rate.Percentage).Div(decimal.NewFromInt(100)).Round(domain.MoneyScale)
	finalAmount := amount.Add(taxAmount).Round(domain.MoneyScale)

	steps := []string{
		fmt.Sprintf("1. Base amount: %s", amount.StringFixed(domain.MoneyScale)),
		fmt.Sprintf("2. State %s - tax rate: %s%%", state, rate.Percentage.String()),
		fmt.Sprintf("3. Tax calculation: %s x %s%% = %s",
			amount.StringFixed(domain.MoneyScale), rate.Percentage.String(), taxAmount.StringFixed(domain.MoneyScale)),
		fmt.Sprintf("4. Final amount: %s + %s = %s",
			amount.StringFixed(domain.MoneyScale), taxAmount.StringFixed(domain.MoneyScale), finalAmount.StringFixed(domain.MoneyScale)),
	}

	c.logger.Debug("tax calculated",
		zap.String("state", state),
		zap.String("amount", amount.String()),
		zap.String("tax", taxAmount.String()),
	)

	return TaxResult{
		OriginalAmount:   amount,
		State:            state,
		Rate:             rate.Percentage,
		TaxAmount:        taxAmount,
		FinalAmount:      finalAmount,
		Description:      fmt.Sprintf("%s sales tax (%s%%)", state, rate.Percentage.String()),
		CalculationSteps: steps,
	}, nil
}
