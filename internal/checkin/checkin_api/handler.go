package checkin_api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"ms-checkin/internal/auth"
	"ms-checkin/internal/checkin"
	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
	"ms-checkin/internal/utils"
)

type Handler struct {
	CheckInService *checkin.Service
	Logger         *logger.Logger
}

// CheckInGuest handles POST /api/roster/checkin.
//
// Body: {"guest_id": "...", "plus_ones": n}. plus_ones defaults to 0 when
// omitted (primary guest only); the caller decides the count. performed_by
// is the authenticated subject and is passed into the service explicitly.
func (h *Handler) CheckInGuest(w http.ResponseWriter, r *http.Request) {
	var req models.CheckInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request body", err.Error()))
		return
	}

	performedBy := auth.UserID(r.Context())
	if performedBy == "" {
		// Gateway-stripped deployments hand us a raw bearer token instead.
		sub, err := auth.BearerSubject(r)
		if err != nil {
			utils.WriteJSON(w, http.StatusUnauthorized, utils.ErrorResponse("authentication required", err.Error()))
			return
		}
		performedBy = sub
	}

	view, err := h.CheckInService.CheckIn(r.Context(), req.GuestID, performedBy, req.PlusOnes)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CheckInGuest: guest=%s plus_ones=%d: %v", req.GuestID, req.PlusOnes, err))
		h.writeServiceError(w, err)
		return
	}

	h.Logger.LogAPI(r.Method, r.URL.Path, "200", "ok")
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("guest checked in", view))
}

// GuestLedger handles GET /api/roster/guests/{guestID}/ledger and returns
// the audit trail for one guest, oldest entry first.
func (h *Handler) GuestLedger(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestID")

	entries, err := h.CheckInService.Ledger(r.Context(), guestID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GuestLedger: guest=%s: %v", guestID, err))
		h.writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("check-in ledger", entries))
}

// writeServiceError maps the service error kinds onto HTTP statuses:
// retryable storage trouble gets 503, everything else tells the caller to
// fix the request.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
	case errors.Is(err, models.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("guest not found", err.Error()))
	case errors.Is(err, models.ErrInvariantViolation):
		utils.WriteJSON(w, http.StatusConflict, utils.ErrorResponse("plus-one allowance exceeded", err.Error()))
	case errors.Is(err, models.ErrStorageUnavailable):
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("storage unavailable, retry later", err.Error()))
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("internal error", err.Error()))
	}
}
