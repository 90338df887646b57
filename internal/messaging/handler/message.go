package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"tibacare/internal/messaging/service"
	"tibacare/internal/messaging/whatsapp"
	"tibacare/pkg/auth"
	apperrors "tibacare/pkg/errors"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"
	"tibacare/pkg/middleware"
	"tibacare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

const webhookPath = "/api/v1/webhooks/whatsapp"

// Result is the envelope of the document endpoint.
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

type MessageHandler struct {
	service     service.MessageService
	verifyToken string
	appSecret   string
	log         *logger.Logger
}

func NewMessageHandler(service service.MessageService, verifyToken, appSecret string, log *logger.Logger) *MessageHandler {
	return &MessageHandler{
		service:     service,
		verifyToken: verifyToken,
		appSecret:   appSecret,
		log:         log,
	}
}

func (h *MessageHandler) SendDocument(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var msg model.DocumentMessage
	if err := httputil.DecodeBody(r, &msg); err != nil {
		h.writeFailure(w, err)
		return
	}

	resp, err := h.service.SendDocument(r.Context(), auth.FromContext(r.Context()), &msg)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, Result{Success: true, Data: resp}); err != nil {
		h.log.Error("failed to write json response", "handler", "SendDocument", "operation", "WriteJSON", "error", err)
	}
}

func (h *MessageHandler) writeFailure(w http.ResponseWriter, err error) {
	appErr := apperrors.AsAppError(err)
	if writeErr := httputil.WriteJSON(w, appErr.StatusCode(), Result{Message: appErr.Message}); writeErr != nil {
		h.log.Error("failed to write json response", "handler", "SendDocument", "operation", "WriteJSON", "error", writeErr)
	}
}

// Verify answers Meta's subscription handshake.
func (h *MessageHandler) Verify(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	if h.verifyToken == "" || query.Get("hub.mode") != "subscribe" || query.Get("hub.verify_token") != h.verifyToken {
		h.log.Warn("WhatsApp webhook verification rejected", "remote_addr", r.RemoteAddr)
		w.WriteHeader(http.StatusForbidden)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, query.Get("hub.challenge"))
}

// Inbound runs behind the signature middleware, so the body is trusted here.
func (h *MessageHandler) Inbound(w http.ResponseWriter, r *http.Request) {
	var event whatsapp.WebhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		h.log.Warn("Unreadable WhatsApp webhook", "error", err)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	for _, status := range event.Statuses() {
		h.log.Info("WhatsApp message status",
			"message_id", status.ID,
			"status", status.Status,
			"recipient", status.RecipientID,
		)
	}
	for _, msg := range event.Messages() {
		h.log.Info("WhatsApp message received",
			"message_id", msg.ID,
			"from", msg.From,
			"type", msg.Type,
		)
	}

	w.WriteHeader(http.StatusOK)
}

func (h *MessageHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/messages/documents", h.SendDocument)
	router.GET(webhookPath, h.Verify)
	router.Handler(http.MethodPost, webhookPath,
		middleware.WhatsAppSignatureVerification(h.appSecret, h.log)(http.HandlerFunc(h.Inbound)))
}
