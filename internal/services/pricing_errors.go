package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Error codes surfaced in API envelopes. The set is closed: every failure
// leaving this package carries exactly one of them.
const (
	CodeInvalidState      = "INVALID_STATE"
	CodeStateNotSupported = "STATE_NOT_SUPPORTED"
	CodeCalculationError  = "CALCULATION_ERROR"
	CodeValidationError   = "VALIDATION_ERROR"
)

// PricingError is the structured failure shape shared by every pricing
// fault: a stable code, an HTTP status, a human-readable message, and
// contextual details keyed per code.
type PricingError struct {
	Code    string
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *PricingError) Error() string {
	return fmt.Sprintf("%s: %s", strings.ToLower(e.Code), e.Message)
}

// NewInvalidStateError reports a state code outside the known set, carrying
// the offending code and the full list of valid codes.
func NewInvalidStateError(state string, validStates []string) *PricingError {
	states := make([]string, len(validStates))
	copy(states, validStates)
	return &PricingError{
		Code:    CodeInvalidState,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("state %q is not valid", state),
		Details: map[string]any{
			"provided_state": state,
			"valid_states":   states,
			"suggestion":     "use one of the listed valid states",
		},
	}
}

// NewStateNotSupportedError reports a known state whose tax computation is
// unconfigured or disabled.
func NewStateNotSupportedError(state, suggestion string) *PricingError {
	if suggestion == "" {
		suggestion = "contact support to request tax support for this state"
	}
	return &PricingError{
		Code:    CodeStateNotSupported,
		Status:  http.StatusBadRequest,
		Message: fmt.Sprintf("state %q is not supported for tax calculation", state),
		Details: map[string]any{
			"state":      state,
			"suggestion": suggestion,
		},
	}
}

// NewCalculationError wraps an internal computation fault with the data
// that triggered it. Surfaced as a 500-equivalent, never silently dropped.
func NewCalculationError(message string, calculationData map[string]any) *PricingError {
	data := make(map[string]any, len(calculationData))
	for k, v := range calculationData {
		data[k] = v
	}
	return &PricingError{
		Code:    CodeCalculationError,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("calculation failed: %s", message),
		Details: map[string]any{
			"calculation_data": data,
			"suggestion":       "verify the supplied input data",
		},
	}
}

// NewValidationError reports structurally invalid input. No computation has
// taken place when it is returned.
func NewValidationError(message string) *PricingError {
	return &PricingError{
		Code:    CodeValidationError,
		Status:  http.StatusBadRequest,
		Message: message,
	}
}

// AsPricingError unwraps err into a *PricingError when possible.
func AsPricingError(err error) (*PricingError, bool) {
	var pe *PricingError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

// IsStateError reports whether err is a jurisdiction failure. Jurisdiction
// failures pass through the pipeline unwrapped so callers can tell bad
// input apart from internal computation faults.
func IsStateError(err error) bool {
	pe, ok := AsPricingError(err)
	if !ok {
		return false
	}
	return pe.Code == CodeInvalidState || pe.Code == CodeStateNotSupported
}
