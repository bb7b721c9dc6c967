package assignments

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearth-erp/hearth-erp/internal/platform/httpx"
)

// Handler exposes assignment endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers assignment routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/assignments", h.list)
	r.Post("/assignments", h.create)
	r.Get("/assignments/{id}", h.get)
	r.Post("/assignments/{id}/status", h.updateStatus)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateAssignmentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	assignment, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create assignment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, assignment)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	assignment, err := h.service.Get(r.Context(), h.id(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListAssignmentsRequest{}
	if v := r.URL.Query().Get("team_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.TeamID = &id
		}
	}
	if v := r.URL.Query().Get("invoice_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.InvoiceID = &id
		}
	}
	assignments, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list assignments", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"assignments": assignments})
}

func (h *Handler) updateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	assignment, err := h.service.UpdateStatus(r.Context(), h.id(r), req)
	if err != nil {
		h.logger.Error("update assignment status", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, assignment)
}

func (h *Handler) id(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}
