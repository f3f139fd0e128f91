package roster_api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"ms-checkin/internal/badge"
	"ms-checkin/internal/logger"
	"ms-checkin/internal/models"
	"ms-checkin/internal/roster"
	rosterdb "ms-checkin/internal/roster/db"
	"ms-checkin/internal/utils"
)

// GuestGetter resolves one guest for the badge endpoint.
type GuestGetter interface {
	GetGuest(ctx context.Context, guestID string) (*models.GuestView, error)
}

type Handler struct {
	RosterService *roster.Service
	Guests        GuestGetter
	Badges        *badge.Generator
	Logger        *logger.Logger
}

// ListGuests handles GET /api/roster/guests.
//
// Query params: status, ticket_type, page (default 1), page_size
// (default 20, capped server-side).
func (h *Handler) ListGuests(w http.ResponseWriter, r *http.Request) {
	page, err := queryInt(r, "page", 1)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}
	pageSize, err := queryInt(r, "page_size", roster.DefaultPageSize)
	if err != nil {
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
		return
	}

	filters := rosterdb.Filters{
		Status:     r.URL.Query().Get("status"),
		TicketType: r.URL.Query().Get("ticket_type"),
	}

	result, err := h.RosterService.ListGuests(r.Context(), filters, page, pageSize)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListGuests: %v", err))
		h.writeServiceError(w, err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("guest roster", result))
}

// GetStats handles GET /api/roster/stats.
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.RosterService.GetStats(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetStats: %v", err))
		h.writeServiceError(w, err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("roster stats", stats))
}

// GuestBadge handles GET /api/roster/guests/{guestID}/badge and returns a
// printable PNG QR badge for the guest.
func (h *Handler) GuestBadge(w http.ResponseWriter, r *http.Request) {
	guestID := chi.URLParam(r, "guestID")

	guest, err := h.Guests.GetGuest(r.Context(), guestID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GuestBadge: guest=%s: %v", guestID, err))
		h.writeServiceError(w, err)
		return
	}

	png, err := h.Badges.BadgePNG(*guest)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GuestBadge: rendering badge for guest=%s: %v", guestID, err))
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("failed to render badge", err.Error()))
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrValidation):
		utils.WriteJSON(w, http.StatusBadRequest, utils.ErrorResponse("invalid request", err.Error()))
	case errors.Is(err, models.ErrNotFound):
		utils.WriteJSON(w, http.StatusNotFound, utils.ErrorResponse("guest not found", err.Error()))
	case errors.Is(err, models.ErrStorageUnavailable):
		utils.WriteJSON(w, http.StatusServiceUnavailable, utils.ErrorResponse("storage unavailable, retry later", err.Error()))
	default:
		utils.WriteJSON(w, http.StatusInternalServerError, utils.ErrorResponse("internal error", err.Error()))
	}
}

func queryInt(r *http.Request, key string, defaultValue int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue, nil
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", key, raw)
	}
	return parsed, nil
}
