package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/retailpricing/api/internal/platform/requestctx"
)

func TestWriteErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, NewError("INVALID_STATE", "state \"ZZ\" is not valid", http.StatusBadRequest))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("Content-Type = %q", ct)
	}

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["error_code"] != "INVALID_STATE" {
		t.Fatalf("error_code = %v", payload["error_code"])
	}
	if payload["message"] != "state \"ZZ\" is not valid" {
		t.Fatalf("message = %v", payload["message"])
	}
	// additional_info is always present, defaulting to an empty object.
	info, ok := payload["additional_info"].(map[string]any)
	if !ok || len(info) != 0 {
		t.Fatalf("additional_info = %v", payload["additional_info"])
	}
	if _, ok := payload["request_id"]; ok {
		t.Fatal("request_id should be absent without middleware")
	}
}

func TestWriteErrorAdditionalInfo(t *testing.T) {
	rec := httptest.NewRecorder()
	err := NewError("STATE_NOT_SUPPORTED", "state not supported", http.StatusBadRequest).
		WithAdditionalInfo(map[string]any{"state": "CA"})
	WriteError(context.Background(), rec, err)

	var payload map[string]any
	if jerr := json.Unmarshal(rec.Body.Bytes(), &payload); jerr != nil {
		t.Fatalf("invalid JSON: %v", jerr)
	}
	info, ok := payload["additional_info"].(map[string]any)
	if !ok || info["state"] != "CA" {
		t.Fatalf("additional_info = %v", payload["additional_info"])
	}
}

func TestWriteErrorContextIdentifiers(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDKey, "req-123")
	ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{TraceID: "abc123"})

	rec := httptest.NewRecorder()
	WriteError(ctx, rec, NewError("internal_error", "boom", http.StatusInternalServerError))

	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if payload["request_id"] != "req-123" {
		t.Fatalf("request_id = %v", payload["request_id"])
	}
	if payload["trace_id"] != "abc123" {
		t.Fatalf("trace_id = %v", payload["trace_id"])
	}
}

func TestNewErrorSanitizesMessage(t *testing.T) {
	err := NewError("bad\ncode", "line one\nline two", http.StatusBadRequest)
	if err.Code != "bad code" {
		t.Fatalf("Code = %q", err.Code)
	}
	if err.Message != "line one line two" {
		t.Fatalf("Message = %q", err.Message)
	}
}

func TestWriteErrorDefaultsStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(context.Background(), rec, Error{Code: "internal_error", Message: "boom"})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rec.Code)
	}
}
