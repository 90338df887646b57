package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name     string
		appErr   *AppError
		expected string
	}{
		{
			name:     "without underlying error",
			appErr:   New(CodeNotFound, "booking not found", http.StatusNotFound),
			expected: "NOT_FOUND: booking not found",
		},
		{
			name:     "with underlying error",
			appErr:   Internal("store failure", errors.New("connection reset")),
			expected: "INTERNAL_ERROR: store failure (caused by: connection reset)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.appErr.Error(); got != tt.expected {
				t.Errorf("Error() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantCode   string
		wantStatus int
	}{
		{"invalid input", InvalidInput("bad"), CodeInvalidInput, http.StatusBadRequest},
		{"validation", Validation("bad", nil), CodeValidation, http.StatusUnprocessableEntity},
		{"not found", NotFoundWithID("Booking", "1"), CodeNotFound, http.StatusNotFound},
		{"conflict", Conflict("slot held"), CodeConflict, http.StatusConflict},
		{"forbidden", Forbidden("no"), CodeForbidden, http.StatusForbidden},
		{"unauthorized", Unauthorized("no"), CodeUnauthorized, http.StatusUnauthorized},
		{"internal", Internal("boom", nil), CodeInternal, http.StatusInternalServerError},
		{"timeout", Timeout("slow"), CodeTimeout, http.StatusGatewayTimeout},
		{"unavailable", Unavailable("mongo"), CodeUnavailable, http.StatusServiceUnavailable},
		{"bad gateway", BadGateway("Payment initiation failed", nil), CodeBadGateway, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Code != tt.wantCode {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.wantCode)
			}
			if tt.err.StatusCode() != tt.wantStatus {
				t.Errorf("StatusCode() = %d, want %d", tt.err.StatusCode(), tt.wantStatus)
			}
		})
	}
}

func TestNotFoundWithID_Details(t *testing.T) {
	err := NotFoundWithID("Booking", "abc")
	if err.Message != "Booking not found" {
		t.Errorf("Message = %q", err.Message)
	}
	if err.Details["id"] != "abc" || err.Details["resource"] != "Booking" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestAppError_Unwrap(t *testing.T) {
	cause := errors.New("original")
	appErr := Wrap(cause, CodeInternal, "wrapped", http.StatusInternalServerError)
	if !errors.Is(appErr, cause) {
		t.Error("errors.Is should reach the wrapped cause")
	}
}

func TestAsAppError(t *testing.T) {
	conflict := Conflict("slot held")

	if got := AsAppError(conflict); got != conflict {
		t.Error("AsAppError should return the same AppError")
	}

	wrapped := fmt.Errorf("transaction failed: %w", conflict)
	if got := AsAppError(wrapped); got != conflict {
		t.Error("AsAppError should find an AppError through wrapping")
	}
	if !IsAppError(wrapped) {
		t.Error("IsAppError should see through wrapping")
	}

	plain := errors.New("plain")
	got := AsAppError(plain)
	if got.Code != CodeInternal || !errors.Is(got, plain) {
		t.Errorf("plain errors should become Internal wrapping the cause, got %v", got)
	}
}

func TestHasCode(t *testing.T) {
	if !HasCode(Conflict("x"), CodeConflict) {
		t.Error("expected conflict code")
	}
	if HasCode(Conflict("x"), CodeNotFound) {
		t.Error("unexpected not found code")
	}
	if HasCode(errors.New("x"), CodeInternal) {
		t.Error("plain error has no code")
	}
}

func TestStatusCode_DefaultsToInternal(t *testing.T) {
	err := &AppError{Code: "CUSTOM"}
	if err.StatusCode() != http.StatusInternalServerError {
		t.Errorf("StatusCode() = %d, want 500", err.StatusCode())
	}
}
