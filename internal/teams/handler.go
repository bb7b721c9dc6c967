package teams

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearth-erp/hearth-erp/internal/platform/httpx"
)

// Handler exposes team and ledger endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers team routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/teams", h.list)
	r.Post("/teams", h.create)
	r.Get("/teams/ledger", h.dashboard)
	r.Get("/teams/{id}", h.get)
	r.Get("/teams/{id}/ledger", h.ledger)
	r.Get("/teams/{id}/payments", h.listPayments)
	r.Post("/teams/{id}/payments", h.recordPayment)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	team, err := h.service.CreateTeam(r.Context(), req)
	if err != nil {
		h.logger.Error("create team", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, team)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	team, err := h.service.GetTeam(r.Context(), h.id(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, team)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	teams, err := h.service.ListTeams(r.Context())
	if err != nil {
		h.logger.Error("list teams", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"teams": teams})
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	ledger, err := h.service.Ledger(r.Context(), h.id(r))
	if err != nil {
		h.logger.Error("team ledger", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, ledger)
}

func (h *Handler) dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.service.Dashboard(r.Context())
	if err != nil {
		h.logger.Error("ledger dashboard", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, dashboard)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	payments, err := h.service.ListPayments(r.Context(), h.id(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"payments": payments})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	payment, err := h.service.RecordPayment(r.Context(), h.id(r), req)
	if err != nil {
		h.logger.Error("record team payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func (h *Handler) id(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}
