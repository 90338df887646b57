package handler

import (
	"encoding/json"
	"net/http"

	"tibacare/internal/payments/mpesa"
	"tibacare/internal/payments/service"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type PaymentHandler struct {
	service service.PaymentService
	log     *logger.Logger
}

func NewPaymentHandler(service service.PaymentService, log *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		service: service,
		log:     log,
	}
}

func (h *PaymentHandler) Initiate(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req model.PaymentRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "Initiate", err)
		return
	}

	ack, err := h.service.Initiate(r.Context(), &req)
	if err != nil {
		h.writeError(w, "Initiate", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, ack); err != nil {
		h.log.Error("failed to write json response", "handler", "Initiate", "operation", "WriteJSON", "error", err)
	}
}

// Callback always acknowledges; Daraja retries anything else.
func (h *PaymentHandler) Callback(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var cb mpesa.Callback
	if err := json.NewDecoder(r.Body).Decode(&cb); err != nil {
		h.log.Warn("Unreadable M-Pesa callback", "error", err)
	} else if err := h.service.HandleCallback(r.Context(), r.URL.Query().Get(service.CallbackRefParam), &cb); err != nil {
		if service.IsUntrustedCallback(err) {
			h.log.Warn("Rejected M-Pesa callback", "remote_addr", r.RemoteAddr, "error", err)
		} else {
			h.log.Error("Failed to handle M-Pesa callback", "error", err)
		}
	}

	if err := httputil.WriteJSON(w, http.StatusOK, map[string]string{"message": "Callback received"}); err != nil {
		h.log.Error("failed to write json response", "handler", "Callback", "operation", "WriteJSON", "error", err)
	}
}

func (h *PaymentHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *PaymentHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/payments", h.Initiate)
	router.POST("/api/v1/payments/callback", h.Callback)
}
