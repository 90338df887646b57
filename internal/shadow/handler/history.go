package handler

import (
	"net/http"

	"tibacare/internal/shadow/repository"
	"tibacare/pkg/auth"
	apperrors "tibacare/pkg/errors"
	httputil "tibacare/pkg/http"
	"tibacare/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type HistoryHandler struct {
	repo repository.ShadowRepository
	log  *logger.Logger
}

func NewHistoryHandler(repo repository.ShadowRepository, log *logger.Logger) *HistoryHandler {
	return &HistoryHandler{repo: repo, log: log}
}

// History lists a booking's status transitions. Admin only: the shadow
// store does not know which provider owns the booking at read time.
func (h *HistoryHandler) History(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	if c := auth.FromContext(r.Context()); !c.IsAdmin() {
		err := apperrors.Forbidden("Administrator role required")
		if !c.IsAuthenticated() {
			err = apperrors.Unauthorized("Authentication required")
		}
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "History", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	id := ps.ByName("id")
	transitions, err := h.repo.History(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to read booking history", "booking_id", id, "error", err)
		if writeErr := httputil.WriteError(w, apperrors.Internal("Failed to read booking history", err)); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "History", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, transitions); err != nil {
		h.log.Error("failed to write success response", "handler", "History", "operation", "WriteSuccess", "error", err)
	}
}

func (h *HistoryHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/history/bookings/id/:id", h.History)
}
