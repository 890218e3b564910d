// Package format renders priced quotes for human consumption in text, HTML,
// and structured JSON shapes.
package format

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Type selects an output rendering.
type Type string

const (
	TypeText Type = "text"
	TypeHTML Type = "html"
	TypeJSON Type = "json"
)

// ParseType validates a user-supplied format name.
func ParseType(value string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(value))) {
	case TypeText:
		return TypeText, nil
	case TypeHTML:
		return TypeHTML, nil
	case TypeJSON, Type(""):
		return TypeJSON, nil
	}
	return "", fmt.Errorf("unsupported format %q", value)
}

// PriceDetails carries everything the renderers need about one priced quote.
type PriceDetails struct {
	ProductName        string
	Quantity           int64
	UnitPrice          decimal.Decimal
	Subtotal           decimal.Decimal
	DiscountPercentage decimal.Decimal
	DiscountAmount     decimal.Decimal
	PriceAfterDiscount decimal.Decimal
	State              string
	TaxRate            decimal.Decimal
	TaxAmount          decimal.Decimal
	FinalPrice         decimal.Decimal
	CalculationSteps   []string
}

var htmlTemplate = template.Must(template.New("quote").Parse(`<div class="price-details">
  <h2>Price details for {{.ProductName}}</h2>
  <div class="basic-info">
    <p>Quantity: {{.Quantity}}</p>
    <p>Unit price: {{.UnitPrice}}</p>
  </div>
  <div class="calculations">
    <p>Subtotal: {{.Subtotal}}</p>
    <p class="discount">Discount ({{.DiscountPercentage}}): -{{.DiscountAmount}}</p>
    <p>Price after discount: {{.PriceAfterDiscount}}</p>
    <p class="tax">Tax {{.State}} ({{.TaxRate}}): {{.TaxAmount}}</p>
  </div>
  <div class="final-price"><p>Final price: {{.FinalPrice}}</p></div>
  <ul class="calculation-steps">
{{- range .CalculationSteps}}
    <li>{{.}}</li>
{{- end}}
  </ul>
</div>
`))

type htmlQuoteData struct {
	ProductName        string
	Quantity           int64
	UnitPrice          string
	Subtotal           string
	DiscountPercentage string
	DiscountAmount     string
	PriceAfterDiscount string
	State              string
	TaxRate            string
	TaxAmount          string
	FinalPrice         string
	CalculationSteps   []string
}

// Formatter renders price details. Safe for concurrent use.
type Formatter struct {
	printer *message.Printer
	policy  *bluemonday.Policy
}

// NewFormatter builds a formatter with English digit grouping and a strict
// sanitization policy for user-supplied names.
func NewFormatter() *Formatter {
	return &Formatter{
		printer: message.NewPrinter(language.English),
		policy:  bluemonday.StrictPolicy(),
	}
}

// Currency formats a monetary amount with thousands separators.
func (f *Formatter) Currency(amount decimal.Decimal) string {
	return f.printer.Sprintf("$%.2f", amount.InexactFloat64())
}

// Percentage formats a rate with a single decimal place.
func (f *Formatter) Percentage(rate decimal.Decimal) string {
	return rate.StringFixed(1) + "%"
}

// Text renders a plain-text summary of the quote.
func (f *Formatter) Text(details PriceDetails) string {
	var b strings.Builder
	rule := strings.Repeat("-", 46)

	fmt.Fprintf(&b, "Price details for: %s\n", details.ProductName)
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-24s %s\n", "Quantity:", fmt.Sprintf("%d", details.Quantity))
	fmt.Fprintf(&b, "%-24s %s\n", "Unit price:", f.Currency(details.UnitPrice))
	fmt.Fprintf(&b, "%-24s %s\n", "Subtotal:", f.Currency(details.Subtotal))
	fmt.Fprintf(&b, "%-24s -%s\n", fmt.Sprintf("Discount (%s):", f.Percentage(details.DiscountPercentage)), f.Currency(details.DiscountAmount))
	fmt.Fprintf(&b, "%-24s %s\n", "Price after discount:", f.Currency(details.PriceAfterDiscount))
	fmt.Fprintf(&b, "%-24s %s\n", fmt.Sprintf("Tax %s (%s):", details.State, f.Percentage(details.TaxRate)), f.Currency(details.TaxAmount))
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "%-24s %s\n", "Final price:", f.Currency(details.FinalPrice))

	if len(details.CalculationSteps) > 0 {
		b.WriteString("\nCalculation steps:\n")
		for _, step := range details.CalculationSteps {
			b.WriteString(step + "\n")
		}
	}
	return b.String()
}

// HTML renders an HTML fragment for the quote. The product name is run
// through the sanitization policy before templating.
func (f *Formatter) HTML(details PriceDetails) (string, error) {
	data := htmlQuoteData{
		ProductName:        f.policy.Sanitize(details.ProductName),
		Quantity:           details.Quantity,
		UnitPrice:          f.Currency(details.UnitPrice),
		Subtotal:           f.Currency(details.Subtotal),
		DiscountPercentage: f.Percentage(details.DiscountPercentage),
		DiscountAmount:     f.Currency(details.DiscountAmount),
		PriceAfterDiscount: f.Currency(details.PriceAfterDiscount),
		State:              details.State,
		TaxRate:            f.Percentage(details.TaxRate),
		TaxAmount:          f.Currency(details.TaxAmount),
		FinalPrice:         f.Currency(details.FinalPrice),
		CalculationSteps:   details.CalculationSteps,
	}

	var b strings.Builder
	if err := htmlTemplate.Execute(&b, data); err != nil {
		return "", fmt.Errorf("format: html rendering failed: %w", err)
	}
	return b.String(), nil
}

// JSON renders the nested structured shape of the quote.
func (f *Formatter) JSON(details PriceDetails) map[string]any {
	return map[string]any{
		"product": map[string]any{
			"name":       details.ProductName,
			"quantity":   details.Quantity,
			"unit_price": details.UnitPrice.InexactFloat64(),
		},
		"pricing": map[string]any{
			"subtotal": details.Subtotal.InexactFloat64(),
			"discount": map[string]any{
				"percentage":           details.DiscountPercentage.InexactFloat64(),
				"amount":               details.DiscountAmount.InexactFloat64(),
				"price_after_discount": details.PriceAfterDiscount.InexactFloat64(),
			},
			"tax": map[string]any{
				"state":  details.State,
				"rate":   details.TaxRate.InexactFloat64(),
				"amount": details.TaxAmount.InexactFloat64(),
			},
			"final_price": details.FinalPrice.InexactFloat64(),
		},
		"calculation_steps": details.CalculationSteps,
		"formatted_amounts": map[string]any{
			"unit_price":  f.Currency(details.UnitPrice),
			"subtotal":    f.Currency(details.Subtotal),
			"discount":    f.Currency(details.DiscountAmount),
			"tax":         f.Currency(details.TaxAmount),
			"final_price": f.Currency(details.FinalPrice),
		},
	}
}
