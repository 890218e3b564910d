package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/retailpricing/api/internal/services"
)

func newProductTestRouter(t *testing.T) http.Handler {
	t.Helper()
	calculator, err := services.NewPriceCalculator(services.PriceCalculatorDeps{
		Discount: services.NewDiscountCalculator(nil),
		Tax:      services.NewTaxCalculator(services.TaxCalculatorDeps{}),
	})
	if err != nil {
		t.Fatalf("NewPriceCalculator: %v", err)
	}
	fixed := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	products := NewProductHandlers(calculator).WithClock(func() time.Time { return fixed })
	return NewRouter(WithProductRoutes(products.Routes))
}

func TestCreateProduct(t *testing.T) {
	router := newProductTestRouter(t)

	rec := postJSON(t, router, "/api/v1/products",
		`{"name": "  Widget  ", "quantity": 1, "unit_price": 100.00, "state": "ca", "product_state": "New", "description": "A widget"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	payload := decodeBody(t, rec)
	id, _ := payload["id"].(string)
	if len(id) != 26 {
		t.Fatalf("expected ULID id, got %q", id)
	}
	if payload["created_at"] != "2026-08-31T12:00:00Z" {
		t.Fatalf("created_at = %v", payload["created_at"])
	}
	if payload["name"] != "Widget" {
		t.Fatalf("name = %v", payload["name"])
	}
	if payload["state"] != "CA" {
		t.Fatalf("state = %v", payload["state"])
	}
	if payload["product_state"] != "new" {
		t.Fatalf("product_state = %v", payload["product_state"])
	}
	if payload["total_price"] != 100.0 {
		t.Fatalf("total_price = %v", payload["total_price"])
	}
	if payload["final_price"] != 102.84 {
		t.Fatalf("final_price = %v", payload["final_price"])
	}
	if payload["tax_description"] != "CA sales tax (8.25%)" {
		t.Fatalf("tax_description = %v", payload["tax_description"])
	}
}

func TestCreateProductValidation(t *testing.T) {
	router := newProductTestRouter(t)

	longName := make([]byte, 101)
	for i := range longName {
		longName[i] = 'a'
	}

	cases := []struct {
		name    string
		body    string
		message string
	}{
		{
			"whitespace name",
			`{"name": "   ", "quantity": 1, "unit_price": 10.00, "state": "CA", "product_state": "new"}`,
			"product name cannot be empty or whitespace only",
		},
		{
			"name too long",
			`{"name": "` + string(longName) + `", "quantity": 1, "unit_price": 10.00, "state": "CA", "product_state": "new"}`,
			"product name cannot exceed 100 characters",
		},
		{
			"bad condition",
			`{"name": "Widget", "quantity": 1, "unit_price": 10.00, "state": "CA", "product_state": "broken"}`,
			"product_state must be one of: new, used, refurbished, damaged",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, router, "/api/v1/products", tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			payload := decodeBody(t, rec)
			if payload["error_code"] != services.CodeValidationError {
				t.Fatalf("error_code = %v", payload["error_code"])
			}
			if payload["message"] != tc.message {
				t.Fatalf("message = %v, want %q", payload["message"], tc.message)
			}
		})
	}
}

func TestCreateProductUnknownField(t *testing.T) {
	router := newProductTestRouter(t)

	rec := postJSON(t, router, "/api/v1/products",
		`{"name": "Widget", "quantity": 1, "unit_price": 10.00, "state": "CA", "product_state": "new", "sku": "X"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if payload := decodeBody(t, rec); payload["error_code"] != "invalid_request" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
}
