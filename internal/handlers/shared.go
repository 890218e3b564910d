package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/retailpricing/api/internal/platform/httpx"
	"github.com/retailpricing/api/internal/platform/requestctx"
	"github.com/retailpricing/api/internal/services"

	"go.uber.org/zap"
)

var errBodyTooLarge = errors.New("request body too large")

func readLimitedBody(r *http.Request, limit int64) ([]byte, error) {
	if r.Body == nil {
		return nil, errors.New("request body is required")
	}
	defer r.Body.Close()

	limited := io.LimitReader(r.Body, limit+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, err
	}
	if int64(len(body)) > limit {
		return nil, errBodyTooLarge
	}
	if len(body) == 0 {
		return nil, errors.New("request body is required")
	}
	return body, nil
}

func writeJSONResponse(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeBodyError(ctx context.Context, w http.ResponseWriter, err error) {
	if errors.Is(err, errBodyTooLarge) {
		httpx.WriteError(ctx, w, httpx.NewError("payload_too_large", "request body exceeds allowed size", http.StatusRequestEntityTooLarge))
		return
	}
	httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
}

// writePricingError maps pricing failures onto the shared error envelope.
// Anything that is not a PricingError surfaces as an opaque 500.
func writePricingError(ctx context.Context, w http.ResponseWriter, err error) {
	if pe, ok := services.AsPricingError(err); ok {
		httpx.WriteError(ctx, w, httpx.NewError(pe.Code, pe.Message, pe.Status).WithAdditionalInfo(pe.Details))
		return
	}
	requestctx.Logger(ctx).Error("unexpected pricing failure", zap.Error(err))
	httpx.WriteError(ctx, w, httpx.NewError("internal_error", "internal server error", http.StatusInternalServerError))
}
