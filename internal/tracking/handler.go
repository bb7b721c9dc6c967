package tracking

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearth-erp/hearth-erp/internal/platform/httpx"
)

// Handler exposes job tracking endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers tracking routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/tracking/{invoiceID}", h.take)
	r.Get("/tracking/{invoiceID}", h.get)
	r.Post("/tracking/{invoiceID}/status", h.setStatus)
	r.Post("/tracking/{invoiceID}/step", h.setStep)
}

func (h *Handler) take(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Take(r.Context(), h.invoiceID(r))
	if err != nil {
		h.logger.Error("take into tracking", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), h.invoiceID(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) setStatus(w http.ResponseWriter, r *http.Request) {
	var req SetStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	rec, err := h.service.SetStatus(r.Context(), h.invoiceID(r), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) setStep(w http.ResponseWriter, r *http.Request) {
	var req SetStepRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	rec, err := h.service.SetStep(r.Context(), h.invoiceID(r), req)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rec)
}

func (h *Handler) invoiceID(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "invoiceID"), 10, 64)
	return id
}
