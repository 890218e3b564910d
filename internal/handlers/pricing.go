package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	"github.com/retailpricing/api/internal/domain"
	"github.com/retailpricing/api/internal/format"
	"github.com/retailpricing/api/internal/platform/httpx"
	"github.com/retailpricing/api/internal/services"
)

const maxPricingBodySize = 16 * 1024

// PricingHandlers exposes the price computation endpoints.
type PricingHandlers struct {
	calculator *services.PriceCalculator
	formatter  *format.Formatter
}

// NewPricingHandlers constructs handlers around the price calculator.
func NewPricingHandlers(calculator *services.PriceCalculator, formatter *format.Formatter) *PricingHandlers {
	if formatter == nil {
		formatter = format.NewFormatter()
	}
	return &PricingHandlers{calculator: calculator, formatter: formatter}
}

// Routes wires the /pricing endpoints onto the provided router.
func (h *PricingHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/quote", h.calculateQuote)
	r.Get("/states", h.listStates)
}

type quoteRequest struct {
	ProductName string      `json:"product_name,omitempty"`
	Quantity    json.Number `json:"quantity"`
	UnitPrice   json.Number `json:"unit_price"`
	State       string      `json:"state"`
}

type quoteResponse struct {
	QuoteID            string   `json:"quote_id"`
	State              string   `json:"state"`
	Subtotal           float64  `json:"subtotal"`
	DiscountPercentage float64  `json:"discount_percentage"`
	DiscountAmount     float64  `json:"discount_amount"`
	PriceAfterDiscount float64  `json:"price_after_discount"`
	TaxRate            float64  `json:"tax_rate"`
	TaxAmount          float64  `json:"tax_amount"`
	FinalPrice         float64  `json:"final_price"`
	TaxDescription     string   `json:"tax_description"`
	CalculationDetails []string `json:"calculation_details"`
}

func (h *PricingHandlers) calculateQuote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.calculator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	// An absent format yields the flat API payload; an explicit format
	// selects one of the presentation renderings.
	rawFormat := r.URL.Query().Get("format")
	formatType, err := format.ParseType(rawFormat)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
		return
	}

	body, err := readLimitedBody(r, maxPricingBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req quoteRequest
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest))
		return
	}

	quantity, unitPrice, state, err := parsePricingFields(req.Quantity, req.UnitPrice, req.State)
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	breakdown, err := h.calculator.CalculateFinalPrice(ctx, quantity, unitPrice, state)
	if err != nil {
		writePricingError(ctx, w, err)
		return
	}

	if rawFormat == "" {
		writeJSONResponse(w, http.StatusOK, buildQuoteResponse(state, breakdown))
		return
	}

	details := priceDetailsFromBreakdown(req.ProductName, quantity, unitPrice, state, breakdown)
	switch formatType {
	case format.TypeText:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(h.formatter.Text(details)))
	case format.TypeHTML:
		rendered, renderErr := h.formatter.HTML(details)
		if renderErr != nil {
			writePricingError(ctx, w, renderErr)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(rendered))
	default:
		writeJSONResponse(w, http.StatusOK, h.formatter.JSON(details))
	}
}

type stateEntry struct {
	Code        string  `json:"code"`
	Rate        float64 `json:"rate"`
	Description string  `json:"description"`
	Enabled     bool    `json:"enabled"`
}

func (h *PricingHandlers) listStates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.calculator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	tax := h.calculator.Tax()
	entries := make([]stateEntry, 0, len(tax.ValidStates()))
	for _, code := range tax.ValidStates() {
		entry := stateEntry{Code: code}
		if rate, ok := tax.Rate(code); ok {
			entry.Rate = rate.Percentage.InexactFloat64()
			entry.Description = rate.Description
			entry.Enabled = rate.Enabled
		}
		entries = append(entries, entry)
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"states": entries})
}

func buildQuoteResponse(state string, b domain.PriceBreakdown) quoteResponse {
	return quoteResponse{
		QuoteID:            ulid.Make().String(),
		State:              state,
		Subtotal:           b.Subtotal.InexactFloat64(),
		DiscountPercentage: b.DiscountPercentage.InexactFloat64(),
		DiscountAmount:     b.DiscountAmount.InexactFloat64(),
		PriceAfterDiscount: b.PriceAfterDiscount.InexactFloat64(),
		TaxRate:            b.TaxRate.InexactFloat64(),
		TaxAmount:          b.TaxAmount.InexactFloat64(),
		FinalPrice:         b.FinalPrice.InexactFloat64(),
		TaxDescription:     b.TaxDescription,
		CalculationDetails: b.CalculationSteps,
	}
}

func priceDetailsFromBreakdown(name string, quantity int64, unitPrice decimal.Decimal, state string, b domain.PriceBreakdown) format.PriceDetails {
	name = strings.TrimSpace(name)
	if name == "" {
		name = "Order"
	}
	return format.PriceDetails{
		ProductName:        name,
		Quantity:           quantity,
		UnitPrice:          unitPrice,
		Subtotal:           b.Subtotal,
		DiscountPercentage: b.DiscountPercentage,
		DiscountAmount:     b.DiscountAmount,
		PriceAfterDiscount: b.PriceAfterDiscount,
		State:              state,
		TaxRate:            b.TaxRate,
		TaxAmount:          b.TaxAmount,
		FinalPrice:         b.FinalPrice,
		CalculationSteps:   b.CalculationSteps,
	}
}

// parsePricingFields applies the request-schema numeric policy shared by the
// quote and product endpoints. It mirrors the pipeline limits so malformed
// requests never reach the calculator.
func parsePricingFields(rawQuantity, rawUnitPrice json.Number, rawState string) (int64, decimal.Decimal, string, error) {
	if rawQuantity == "" {
		return 0, decimal.Zero, "", services.NewValidationError("quantity is required")
	}
	quantity, err := rawQuantity.Int64()
	if err != nil {
		return 0, decimal.Zero, "", services.NewValidationError("quantity must be an integer")
	}
	if quantity <= 0 {
		return 0, decimal.Zero, "", services.NewValidationError("quantity must be a positive number")
	}
	if quantity > 10000 {
		return 0, decimal.Zero, "", services.NewValidationError("quantity cannot exceed 10000")
	}

	if rawUnitPrice == "" {
		return 0, decimal.Zero, "", services.NewValidationError("unit_price is required")
	}
	unitPrice, err := decimal.NewFromString(rawUnitPrice.String())
	if err != nil {
		return 0, decimal.Zero, "", services.NewValidationError("unit_price must be a number")
	}
	if unitPrice.LessThanOrEqual(decimal.Zero) {
		return 0, decimal.Zero, "", services.NewValidationError("unit price must be a positive number")
	}
	if unitPrice.GreaterThan(decimal.NewFromInt(1_000_000)) {
		return 0, decimal.Zero, "", services.NewValidationError("unit price cannot exceed 1000000")
	}
	if unitPrice.Exponent() < -int32(domain.MoneyScale) {
		return 0, decimal.Zero, "", services.NewValidationError("unit price cannot have more than 2 decimal places")
	}

	state := strings.ToUpper(strings.TrimSpace(rawState))
	if len(state) != 2 {
		return 0, decimal.Zero, "", services.NewValidationError("state must be a 2-character code")
	}

	return quantity, unitPrice, state, nil
}
