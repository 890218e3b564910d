package format

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func sampleDetails() PriceDetails {
	return PriceDetails{
		ProductName:        "Gadget",
		Quantity:           50,
		UnitPrice:          decimal.RequireFromString("100.00"),
		Subtotal:           decimal.RequireFromString("5000.00"),
		DiscountPercentage: decimal.NewFromInt(20),
		DiscountAmount:     decimal.RequireFromString("1000.00"),
		PriceAfterDiscount: decimal.RequireFromString("4000.00"),
		State:              "CA",
		TaxRate:            decimal.RequireFromString("8.25"),
		TaxAmount:          decimal.RequireFromString("330.00"),
		FinalPrice:         decimal.RequireFromString("4330.00"),
		CalculationSteps: []string{
			"1. Base amount: 4000.00",
			"2. State CA - tax rate: 8.25%",
		},
	}
}

func TestParseType(t *testing.T) {
	cases := []struct {
		in      string
		want    Type
		wantErr bool
	}{
		{in: "", want: TypeJSON},
		{in: "json", want: TypeJSON},
		{in: "TEXT", want: TypeText},
		{in: " html ", want: TypeHTML},
		{in: "xml", wantErr: true},
	}
	for _, tc := range cases {
		got, err := ParseType(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseType(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseType(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestCurrencyGrouping(t *testing.T) {
	f := NewFormatter()
	if got := f.Currency(decimal.RequireFromString("4330.00")); got != "$4,330.00" {
		t.Fatalf("Currency = %q", got)
	}
	if got := f.Currency(decimal.RequireFromString("19.90")); got != "$19.90" {
		t.Fatalf("Currency = %q", got)
	}
}

func TestPercentage(t *testing.T) {
	f := NewFormatter()
	if got := f.Percentage(decimal.NewFromInt(5)); got != "5.0%" {
		t.Fatalf("Percentage = %q", got)
	}
	if got := f.Percentage(decimal.RequireFromString("8.25")); got != "8.3%" {
		t.Fatalf("Percentage = %q", got)
	}
}

func TestTextRendering(t *testing.T) {
	f := NewFormatter()
	out := f.Text(sampleDetails())

	for _, want := range []string{
		"Price details for: Gadget",
		fmt.Sprintf("%-24s %s", "Quantity:", "50"),
		fmt.Sprintf("%-24s %s", "Subtotal:", "$5,000.00"),
		fmt.Sprintf("%-24s -%s", "Discount (20.0%):", "$1,000.00"),
		fmt.Sprintf("%-24s %s", "Final price:", "$4,330.00"),
		"Calculation steps:",
		"2. State CA - tax rate: 8.25%",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}
}

func TestHTMLSanitizesProductName(t *testing.T) {
	f := NewFormatter()
	details := sampleDetails()
	details.ProductName = "<script>alert(1)</script>Gadget"

	out, err := f.HTML(details)
	if err != nil {
		t.Fatalf("HTML: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("script tag survived sanitization:\n%s", out)
	}
	if !strings.Contains(out, "Gadget") {
		t.Fatalf("product name missing:\n%s", out)
	}
	if !strings.Contains(out, `<div class="price-details">`) {
		t.Fatalf("unexpected fragment:\n%s", out)
	}
}

func TestJSONShape(t *testing.T) {
	f := NewFormatter()
	out := f.JSON(sampleDetails())

	product, ok := out["product"].(map[string]any)
	if !ok || product["name"] != "Gadget" {
		t.Fatalf("unexpected product section %v", out["product"])
	}

	pricing, ok := out["pricing"].(map[string]any)
	if !ok {
		t.Fatalf("missing pricing section in %v", out)
	}
	if pricing["final_price"] != 4330.0 {
		t.Fatalf("final_price = %v", pricing["final_price"])
	}
	tax, ok := pricing["tax"].(map[string]any)
	if !ok || tax["state"] != "CA" {
		t.Fatalf("unexpected tax section %v", pricing["tax"])
	}

	formatted, ok := out["formatted_amounts"].(map[string]any)
	if !ok || formatted["final_price"] != "$4,330.00" {
		t.Fatalf("unexpected formatted_amounts %v", out["formatted_amounts"])
	}

	steps, ok := out["calculation_steps"].([]string)
	if !ok || len(steps) != 2 {
		t.Fatalf("unexpected calculation_steps %v", out["calculation_steps"])
	}
}
