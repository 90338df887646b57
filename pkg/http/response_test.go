package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "tibacare/pkg/errors"
)

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantMsg    string
	}{
		{"conflict", apperrors.Conflict("slot held"), http.StatusConflict, apperrors.CodeConflict, "slot held"},
		{"not found", apperrors.NotFoundWithID("Booking", "x"), http.StatusNotFound, apperrors.CodeNotFound, "Booking not found"},
		{"forbidden", apperrors.Forbidden("nope"), http.StatusForbidden, apperrors.CodeForbidden, "nope"},
		{"bad gateway", apperrors.BadGateway("Payment initiation failed", errors.New("dial")), http.StatusBadGateway, apperrors.CodeBadGateway, "Payment initiation failed"},
		{"plain error is hidden", errors.New("secret detail"), http.StatusInternalServerError, apperrors.CodeInternal, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			if err := WriteError(rec, tt.err); err != nil {
				t.Fatalf("WriteError returned %v", err)
			}
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			var body ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Code != tt.wantCode || body.Error != tt.wantMsg {
				t.Errorf("body = %+v", body)
			}
		})
	}
}

func TestExtractLimitOffset(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=5&offset=10", nil)
	limit, offset, err := ExtractLimitOffset(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 5 || offset != 10 {
		t.Errorf("got limit=%d offset=%d", limit, offset)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/bookings?limit=abc", nil)
	if _, _, err := ExtractLimitOffset(r); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}

	r = httptest.NewRequest(http.MethodGet, "/api/v1/bookings?offset=-3", nil)
	limit, offset, err = ExtractLimitOffset(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if limit != 10 || offset != 0 {
		t.Errorf("defaults not applied: limit=%d offset=%d", limit, offset)
	}
}

func TestDecodeBody(t *testing.T) {
	var v struct {
		Name string `json:"name"`
	}
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"amina"}`))
	if err := DecodeBody(r, &v); err != nil || v.Name != "amina" {
		t.Fatalf("DecodeBody = %v, name=%q", err, v.Name)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{bad`))
	if err := DecodeBody(r, &v); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input, got %v", err)
	}

	r = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(``))
	if err := DecodeBody(r, &v); !apperrors.HasCode(err, apperrors.CodeInvalidInput) {
		t.Errorf("expected invalid input for empty body, got %v", err)
	}
}
