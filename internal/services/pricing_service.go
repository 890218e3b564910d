package services

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/retailpricing/api/internal/domain"
)

// Input limits enforced at the pipeline boundary.
var (
	maxQuantity  = int64(10000)
	maxUnitPrice = decimal.NewFromInt(1_000_000)
	maxTotal     = decimal.NewFromInt(10_000_000)
)

// PriceCalculator orchestrates validation, subtotal, discount, and tax into
// a single itemised breakdown. It holds no mutable state.
type PriceCalculator struct {
	discount *DiscountCalculator
	tax      *TaxCalculator
	logger   *zap.Logger
}

// PriceCalculatorDeps configures a PriceCalculator.
type PriceCalculatorDeps struct {
	Discount *DiscountCalculator
	Tax      *TaxCalculator
	Logger   *zap.Logger
}

// NewPriceCalculator wires the pipeline. The discount and tax calculators
// are required.
func NewPriceCalculator(deps PriceCalculatorDeps) (*PriceCalculator, error) {
	if deps.Discount == nil {
		return nil, errors.New("price calculator: discount calculator is required")
	}
	if deps.Tax == nil {
		return nil, errors.New("price calculator: tax calculator is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PriceCalculator{discount: deps.Discount, tax: deps.Tax, logger: logger}, nil
}

// Tax exposes the underlying tax calculator for callers that need the
// jurisdiction list.
func (c *PriceCalculator) Tax() *TaxCalculator { return c.tax }

// ValidateInputs enforces the numeric limits on quantity and unit price.
// Violations fail with VALIDATION_ERROR before any computation runs.
func (c *PriceCalculator) ValidateInputs(quantity int64, unitPrice decimal.Decimal) error {
	if quantity <= 0 {
		return NewValidationError("quantity must be a positive number")
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return NewValidationError("unit price must be a positive number")
	}
	if quantity > maxQuantity {
		return NewValidationError("quantity cannot exceed 10000")
	}
	if unitPrice.GreaterThan(maxUnitPrice) {
		return NewValidationError("unit price cannot exceed 1000000")
	}
	total := unitPrice.Mul(decimal.NewFromInt(quantity))
	if total.GreaterThan(maxTotal) {
		return NewValidationError("total amount cannot exceed 10 million")
	}
	return nil
}

// CalculateFinalPrice runs the full pipeline: validate, subtotal, discount,
// tax, assemble. Validation and jurisdiction errors return as-is; any other
// failure is re-wrapped as CALCULATION_ERROR carrying the original inputs.
func (c *PriceCalculator) CalculateFinalPrice(ctx context.Context, quantity int64, unitPrice decimal.Decimal, state string) (domain.PriceBreakdown, error) {
	if err := c.ValidateInputs(quantity, unitPrice); err != nil {
		return domain.PriceBreakdown{}, err
	}

	subtotal := unitPrice.Mul(decimal.NewFromInt(quantity)).Round(domain.MoneyScale)
	discount := c.discount.CalculateDiscount(subtotal)

	tax, err := c.tax.CalculateTax(ctx, discount.FinalAmount, state)
	if err != nil {
		if IsStateError(err) {
			return domain.PriceBreakdown{}, err
		}
		return domain.PriceBreakdown{}, c.wrapCalculation(err, quantity, unitPrice, state)
	}

	breakdown := domain.PriceBreakdown{
		Subtotal:           subtotal,
		DiscountPercentage: discount.Percentage,
		DiscountAmount:     discount.Amount,
		PriceAfterDiscount: discount.FinalAmount,
		TaxRate:            tax.Rate,
		TaxAmount:          tax.TaxAmount,
		FinalPrice:         tax.FinalAmount,
		TaxDescription:     tax.Description,
		CalculationSteps:   tax.CalculationSteps,
	}

	if err := breakdown.VerifyConsistency(quantity, unitPrice); err != nil {
		return domain.PriceBreakdown{}, c.wrapCalculation(err, quantity, unitPrice, state)
	}

	c.logger.Debug("price calculated",
		zap.Int64("quantity", quantity),
		zap.String("unit_price", unitPrice.String()),
		zap.String("state", state),
		zap.String("final_price", breakdown.FinalPrice.String()),
	)

	return breakdown, nil
}

// wrapCalculation converts any non-jurisdiction failure into a
// CALCULATION_ERROR carrying the pipeline inputs as diagnostic payload.
func (c *PriceCalculator) wrapCalculation(err error, quantity int64, unitPrice decimal.Decimal, state string) error {
	message := err.Error()
	if pe, ok := AsPricingError(err); ok {
		message = strings.TrimPrefix(pe.Message, "calculation failed: ")
	}
	return NewCalculationError(message, map[string]any{
		"quantity":   quantity,
		"unit_price": unitPrice.String(),
		"state":      state,
	})
}
