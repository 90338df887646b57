package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	paymenterrors "tibacare/internal/payments/errors"
	"tibacare/internal/payments/mpesa"
	apperrors "tibacare/pkg/errors"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockPaymentService struct {
	initiateFunc func(ctx context.Context, req *model.PaymentRequest) (*mpesa.STKPushResponse, error)
	callbackFunc func(ctx context.Context, ref string, cb *mpesa.Callback) error
}

func (m *mockPaymentService) Initiate(ctx context.Context, req *model.PaymentRequest) (*mpesa.STKPushResponse, error) {
	if m.initiateFunc != nil {
		return m.initiateFunc(ctx, req)
	}
	return &mpesa.STKPushResponse{}, nil
}

func (m *mockPaymentService) HandleCallback(ctx context.Context, ref string, cb *mpesa.Callback) error {
	if m.callbackFunc != nil {
		return m.callbackFunc(ctx, ref, cb)
	}
	return nil
}

func newTestRouter(svc *mockPaymentService) *httprouter.Router {
	log := logger.New(logger.Config{
		Level:   "info",
		Format:  logger.JSON,
		Service: "test",
	})
	router := httprouter.New()
	NewPaymentHandler(svc, log).RegisterRoutes(router)
	return router
}

func TestInitiate(t *testing.T) {
	router := newTestRouter(&mockPaymentService{
		initiateFunc: func(ctx context.Context, req *model.PaymentRequest) (*mpesa.STKPushResponse, error) {
			if req.Phone != "0712345678" || req.Amount != 500 {
				t.Errorf("unexpected request: %+v", req)
			}
			return &mpesa.STKPushResponse{CheckoutRequestID: "ws_CO_1", ResponseCode: "0"}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"phone":"0712345678","amount":500}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	var ack mpesa.STKPushResponse
	if err := json.NewDecoder(w.Body).Decode(&ack); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if ack.CheckoutRequestID != "ws_CO_1" {
		t.Errorf("expected provider acknowledgement, got %+v", ack)
	}
}

func TestInitiate_Failure(t *testing.T) {
	router := newTestRouter(&mockPaymentService{
		initiateFunc: func(ctx context.Context, req *model.PaymentRequest) (*mpesa.STKPushResponse, error) {
			return nil, apperrors.BadGateway("Payment initiation failed", errors.New("timeout"))
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payments", strings.NewReader(`{"phone":"0712345678","amount":500}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadGateway {
		t.Fatalf("expected status %d, got %d", http.StatusBadGateway, w.Code)
	}
	if strings.Contains(w.Body.String(), "timeout") {
		t.Errorf("underlying cause leaked into response: %s", w.Body.String())
	}
}

func TestCallback_AlwaysAcknowledges(t *testing.T) {
	tests := []struct {
		name string
		body string
		err  error
	}{
		{"accepted", `{"Body":{"stkCallback":{"ResultCode":0}}}`, nil},
		{"untrusted", `{"Body":{"stkCallback":{"ResultCode":0}}}`, paymenterrors.ErrUntrustedCallback},
		{"unreadable", `{"Body":`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotRef string
			router := newTestRouter(&mockPaymentService{
				callbackFunc: func(ctx context.Context, ref string, cb *mpesa.Callback) error {
					gotRef = ref
					return tt.err
				},
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/callback?ref=tok", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
			}
			var resp map[string]string
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["message"] != "Callback received" {
				t.Errorf("unexpected body: %v", resp)
			}
			if tt.name != "unreadable" && gotRef != "tok" {
				t.Errorf("expected ref tok, got %q", gotRef)
			}
		})
	}
}
