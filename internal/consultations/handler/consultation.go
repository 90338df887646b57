package handler

import (
	"context"
	"net/http"

	"tibacare/internal/consultations/service"
	"tibacare/pkg/auth"
	apperrors "tibacare/pkg/errors"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"
	"tibacare/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type ConsultationHandler struct {
	service service.ConsultationService
	log     *logger.Logger
}

func NewConsultationHandler(service service.ConsultationService, log *logger.Logger) *ConsultationHandler {
	return &ConsultationHandler{
		service: service,
		log:     log,
	}
}

type UrgencyRequest struct {
	Urgent *bool `json:"urgent"`
}

func (h *ConsultationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var consultation model.Consultation
	if err := httputil.DecodeBody(r, &consultation); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := h.service.Create(r.Context(), auth.FromContext(r.Context()), &consultation); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, consultation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "operation", "WriteCreated", "error", err)
	}
}

func (h *ConsultationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	consultation, err := h.service.GetByID(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, consultation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "operation", "WriteSuccess", "error", err)
	}
}

// GetAll accepts provider_id, status and q (search) query parameters.
func (h *ConsultationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := model.ConsultationFilter{
		ProviderID: query.Get("provider_id"),
		Status:     model.ConsultationStatus(query.Get("status")),
		Query:      query.Get("q"),
	}

	consultations, total, err := h.service.GetAll(r.Context(), auth.FromContext(r.Context()), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, consultations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "operation", "WritePaginated", "error", err)
	}
}

func (h *ConsultationHandler) UpdateDetails(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var details model.ConsultationDetails
	if err := httputil.DecodeBody(r, &details); err != nil {
		h.writeError(w, "UpdateDetails", err)
		return
	}

	consultation, err := h.service.UpdateDetails(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &details)
	h.writeRecord(w, "UpdateDetails", consultation, err)
}

func (h *ConsultationHandler) SaveClinicalNote(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var note model.ClinicalNote
	if err := httputil.DecodeBody(r, &note); err != nil {
		h.writeError(w, "SaveClinicalNote", err)
		return
	}

	consultation, err := h.service.SaveClinicalNote(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), &note)
	h.writeRecord(w, "SaveClinicalNote", consultation, err)
}

func (h *ConsultationHandler) SetUrgent(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	var req UrgencyRequest
	if err := httputil.DecodeBody(r, &req); err != nil {
		h.writeError(w, "SetUrgent", err)
		return
	}
	if req.Urgent == nil {
		h.writeError(w, "SetUrgent", apperrors.Validation("Urgency validation failed", map[string]any{
			"fields": map[string]any{"urgent": "urgent is required"},
		}))
		return
	}

	consultation, err := h.service.SetUrgent(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"), *req.Urgent)
	h.writeRecord(w, "SetUrgent", consultation, err)
}

type statusAction func(ctx context.Context, c auth.Capability, id string) (*model.Consultation, error)

// statusChange adapts a service transition to a bodiless POST route.
func (h *ConsultationHandler) statusChange(name string, action statusAction) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		consultation, err := action(r.Context(), auth.FromContext(r.Context()), ps.ByName("id"))
		h.writeRecord(w, name, consultation, err)
	}
}

func (h *ConsultationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if err := h.service.Delete(r.Context(), auth.FromContext(r.Context()), ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ConsultationHandler) writeRecord(w http.ResponseWriter, handler string, consultation *model.Consultation, err error) {
	if err != nil {
		h.writeError(w, handler, err)
		return
	}
	if err := httputil.WriteSuccess(w, consultation); err != nil {
		h.log.Error("failed to write success response", "handler", handler, "operation", "WriteSuccess", "error", err)
	}
}

func (h *ConsultationHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ConsultationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/consultations", h.Create)
	router.GET("/api/v1/consultations", h.GetAll)
	router.GET("/api/v1/consultations/id/:id", h.GetByID)
	router.PUT("/api/v1/consultations/id/:id", h.UpdateDetails)
	router.DELETE("/api/v1/consultations/id/:id", h.Delete)
	router.PUT("/api/v1/consultations/id/:id/clinical-note", h.SaveClinicalNote)
	router.PUT("/api/v1/consultations/id/:id/urgent", h.SetUrgent)
	router.POST("/api/v1/consultations/id/:id/start", h.statusChange("Start", h.service.Start))
	router.POST("/api/v1/consultations/id/:id/complete", h.statusChange("Complete", h.service.Complete))
	router.POST("/api/v1/consultations/id/:id/reopen", h.statusChange("Reopen", h.service.Reopen))
	router.POST("/api/v1/consultations/id/:id/no-show", h.statusChange("MarkNoShow", h.service.MarkNoShow))
	router.POST("/api/v1/consultations/id/:id/cancel", h.statusChange("Cancel", h.service.Cancel))
}
