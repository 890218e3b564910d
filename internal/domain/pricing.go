package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of decimal places carried by every monetary amount.
const MoneyScale = 2

// consistencyTolerance bounds the acceptable drift between reported and
// recomputed totals on outbound payloads.
var consistencyTolerance = decimal.New(1, -2)

// DiscountTier describes a volume discount that applies once a subtotal
// reaches MinimumAmount. The tier table is immutable, process-wide data.
type DiscountTier struct {
	MinimumAmount decimal.Decimal
	Percentage    decimal.Decimal
	Description   string
}

// TaxRate holds the sales tax configuration for a single state. Entries with
// Enabled false are known states whose tax computation is switched off.
type TaxRate struct {
	State       string
	Percentage  decimal.Decimal
	Description string
	Enabled     bool
}

// PriceBreakdown is the fully itemised result of one price computation.
// It is assembled once and never mutated afterwards.
type PriceBreakdown struct {
	Subtotal           decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	PriceAfterDiscount decimal.Decimal
	TaxRate            decimal.Decimal
	TaxAmount          decimal.Decimal
	FinalPrice         decimal.Decimal
	TaxDescription     string
	CalculationSteps   []string
}

// VerifyConsistency recomputes the gross total and the expected final price
// from the original inputs and rejects breakdowns that drift by more than a
// cent. Callers run this before handing a breakdown to the outside world.
func (b PriceBreakdown) VerifyConsistency(quantity int64, unitPrice decimal.Decimal) error {
	gross := unitPrice.Mul(decimal.NewFromInt(quantity)).Round(MoneyScale)
	if gross.Sub(b.Subtotal).Abs().GreaterThan(consistencyTolerance) {
		return fmt.Errorf("subtotal %s does not match quantity x unit price (%s)", b.Subtotal, gross)
	}

	expected := b.Subtotal.Sub(b.DiscountAmount).Add(b.TaxAmount)
	if expected.Sub(b.FinalPrice).Abs().GreaterThan(consistencyTolerance) {
		return fmt.Errorf("final price %s does not match subtotal - discount + tax (%s)", b.FinalPrice, expected)
	}
	return nil
}
