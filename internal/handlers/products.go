package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/oklog/ulid/v2"

	"github.com/retailpricing/api/internal/platform/httpx"
	"github.com/retailpricing/api/internal/services"
)

const (
	maxProductBodySize    = 16 * 1024
	maxProductNameLen     = 100
	maxProductDescription = 500
)

// productConditions is the closed set of accepted product conditions.
var productConditions = map[string]struct{}{
	"new":         {},
	"used":        {},
	"refurbished": {},
	"damaged":     {},
}

// ProductHandlers exposes the product pricing endpoint: a product payload in,
// the same product with its computed pricing out. Nothing is persisted.
type ProductHandlers struct {
	calculator *services.PriceCalculator
	clock      func() time.Time
}

// NewProductHandlers constructs the product handlers.
func NewProductHandlers(calculator *services.PriceCalculator) *ProductHandlers {
	return &ProductHandlers{calculator: calculator, clock: time.Now}
}

// WithClock overrides the creation timestamp source, used by tests.
func (h *ProductHandlers) WithClock(clock func() time.Time) *ProductHandlers {
	if clock != nil {
		h.clock = clock
	}
	return h
}

// Routes wires the /products endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/", h.createProduct)
}

type productRequest struct {
	Name         string      `json:"name"`
	Quantity     json.Number `json:"quantity"`
	UnitPrice    json.Number `json:"unit_price"`
	State        string      `json:"state"`
	ProductState string      `json:"product_state"`
	Description  string      `json:"description,omitempty"`
}

type productResponse struct {
	ID                 string   `json:"id"`
	CreatedAt          string   `json:"created_at"`
	Name               string   `json:"name"`
	Quantity           int64    `json:"quantity"`
	UnitPrice          float64  `json:"unit_price"`
	State              string   `json:"state"`
	ProductState       string   `json:"product_state"`
	Description        string   `json:"description,omitempty"`
	TotalPrice         float64  `json:"total_price"`
	DiscountPercentage float64  `json:"discount_percentage"`
	DiscountAmount     float64  `json:"discount_amount"`
	TaxRate            float64  `json:"tax_rate"`
	TaxAmount          float64  `json:"tax_amount"`
	FinalPrice         float64  `json:"final_price"`
	TaxDescription     string   `json:"tax_description"`
	CalculationDetails []string `json:"calculation_details"`
}

func (h *ProductHandlers) createProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.calculator == nil {
		httpx.WriteError(ctx, w, httpx.NewError("pricing_unavailable", "pricing service is unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxProductBodySize)
	if err != nil {
		writeBodyError(ctx, w, err)
		return
	}

	var req productRequest
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", fmt.Sprintf("invalid request body: %v", err), http.StatusBadRequest))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writePricingError(ctx, w, services.NewValidationError("product name cannot be empty or whitespace only"))
		return
	}
	if len(name) > maxProductNameLen {
		writePricingError(ctx, w, services.NewValidationError("product name cannot exceed 100 characters"))
		return
	}

	condition := strings.ToLower(strings.TrimSpace(req.ProductState))
	if _, ok := productConditions[condition]; !ok {
		writePricingError(ctx, w, services.NewValidationError("product_state must be one of: new, used, refurbished, damaged"))
		return
	}

	description := strings.TrimSpace(req.Description)
	if len(description) > maxProductDescription {
		writePricingError(ctx, w, services.NewValidationError("description cannot exceed 500 characters"))
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

	// Output boundary check: the response must agree with its own inputs.
	if err := breakdown.VerifyConsistency(quantity, unitPrice); err != nil {
		writePricingError(ctx, w, services.NewCalculationError(err.Error(), map[string]any{
			"quantity":   quantity,
			"unit_price": unitPrice.String(),
			"state":      state,
		}))
		return
	}

	payload := productResponse{
		ID:                 ulid.Make().String(),
		CreatedAt:          h.clock().UTC().Format(time.RFC3339),
		Name:               name,
		Quantity:           quantity,
		UnitPrice:          unitPrice.InexactFloat64(),
		State:              state,
		ProductState:       condition,
		Description:        description,
		TotalPrice:         breakdown.Subtotal.InexactFloat64(),
		DiscountPercentage: breakdown.DiscountPercentage.InexactFloat64(),
		DiscountAmount:     breakdown.DiscountAmount.InexactFloat64(),
		TaxRate:            breakdown.TaxRate.InexactFloat64(),
		TaxAmount:          breakdown.TaxAmount.InexactFloat64(),
		FinalPrice:         breakdown.FinalPrice.InexactFloat64(),
		TaxDescription:     breakdown.TaxDescription,
		CalculationDetails: breakdown.CalculationSteps,
	}

	writeJSONResponse(w, http.StatusCreated, payload)
}
