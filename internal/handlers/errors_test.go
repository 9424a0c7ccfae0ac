package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"playlearn/internal/progression"
	"playlearn/internal/repository"
	"playlearn/internal/service"
	"playlearn/internal/validation"
)

func TestRespondWithErrorWritesStatusAndBody(t *testing.T) {
	recorder := httptest.NewRecorder()

	respondWithError(recorder, zap.NewNop(), 418, "TEAPOT", "Teapot", nil)

	if recorder.Code != 418 {
		t.Fatalf("expected status 418, got %d", recorder.Code)
	}
	if ct := recorder.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected JSON content type, got %q", ct)
	}

	var body errorResponse
	if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if body.Error != "Teapot" || body.Code != "TEAPOT" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestRespondWithErrorLogsServerErrors(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	respondWithError(httptest.NewRecorder(), logger, 500, CodeInternal, "Internal server error", errors.New("boom"))
	respondWithError(httptest.NewRecorder(), logger, 404, CodeNotFound, "Not found", errors.New("missing"))

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected one log entry, got %d", len(entries))
	}
	if entries[0].Message != "Internal server error" {
		t.Fatalf("expected log to include user message, got %q", entries[0].Message)
	}
	if got := entries[0].ContextMap()["error"]; got != "boom" {
		t.Fatalf("expected log to include error, got %v", got)
	}
}

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "validation",
			err:        &validation.Error{Fields: []validation.FieldError{{Field: "accuracy", Message: "must be at most 100"}}},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeValidationFailed,
		},
		{
			name:       "policy denial",
			err:        &progression.DeniedError{Code: progression.CodeLevelLocked, Message: "complete level 2 first"},
			wantStatus: http.StatusForbidden,
			wantCode:   progression.CodeLevelLocked,
		},
		{name: "forbidden", err: service.ErrForbidden, wantStatus: http.StatusForbidden, wantCode: CodeForbidden},
		{name: "child not found", err: service.ErrChildNotFound, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "game not found", err: service.ErrGameNotFound, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "conflict", err: fmt.Errorf("settle: %w", repository.ErrVersionConflict), wantStatus: http.StatusConflict, wantCode: CodeConflict},
		{name: "unexpected", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := httptest.NewRecorder()
			respondWithServiceError(recorder, zap.NewNop(), tt.err)

			if recorder.Code != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, recorder.Code)
			}
			var body errorResponse
			if err := json.NewDecoder(recorder.Body).Decode(&body); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if body.Code != tt.wantCode {
				t.Fatalf("expected code %q, got %q", tt.wantCode, body.Code)
			}
			if body.Error == "" {
				t.Fatal("expected an error message")
			}
		})
	}
}
