package handler

import (
	"net/http"

	"tibacare/internal/bookings/service"
	"tibacare/pkg/auth"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

type AdmissionResponse struct {
	ProviderID    string       `json:"providerId"`
	PreferredTime string       `json:"preferredTime"`
	Status        model.Status `json:"status"`
}

// Create is public: patients book without an account.
func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var booking model.Booking
	if err := httputil.DecodeBody(r, &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), &booking); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, booking); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	providerID := r.URL.Query().Get("provider_id")
	bookings, total, err := h.service.GetAll(r.Context(), auth.FromContext(r.Context()), providerID, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), auth.FromContext(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) Start(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.StartConsultation(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Start", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "Start", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) End(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	result, err := h.service.EndConsultation(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "End", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "End", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) Dashboard(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	providerID := r.URL.Query().Get("provider_id")
	dashboard, err := h.service.Dashboard(r.Context(), auth.FromContext(r.Context()), providerID)
	if err != nil {
		h.writeError(w, "Dashboard", err)
		return
	}

	if err := httputil.WriteSuccess(w, dashboard); err != nil {
		h.log.Error("failed to write success response", "handler", "Dashboard", "operation", "WriteSuccess", "error", err)
	}
}

// Admission previews the status a booking for the slot would get now.
func (h *BookingHandler) Admission(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	query := r.URL.Query()
	providerID := query.Get("provider_id")
	preferredTime := query.Get("preferred_time")

	status, err := h.service.PreviewAdmission(r.Context(), providerID, preferredTime)
	if err != nil {
		h.writeError(w, "Admission", err)
		return
	}

	if err := httputil.WriteSuccess(w, AdmissionResponse{
		ProviderID:    providerID,
		PreferredTime: preferredTime,
		Status:        status,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Admission", "operation", "WriteSuccess", "error", err)
	}
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
	router.POST("/api/v1/bookings/id/:id/start", h.Start)
	router.POST("/api/v1/bookings/id/:id/end", h.End)
	router.GET("/api/v1/bookings/dashboard", h.Dashboard)
	router.GET("/api/v1/bookings/admission", h.Admission)
}
