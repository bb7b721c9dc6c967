package documents

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hearth-erp/hearth-erp/internal/observability"
	"github.com/hearth-erp/hearth-erp/internal/platform/httpx"
)

// Handler exposes commercial document endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	metrics *observability.Metrics
}

// NewHandler builds a Handler instance. Metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, metrics: metrics}
}

// MountRoutes registers document routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/documents", h.list)
	r.Post("/documents", h.create)
	r.Get("/documents/{id}", h.get)
	r.Put("/documents/{id}/lines", h.replaceLines)
	r.Post("/documents/{id}/status", h.transition)
	r.Post("/documents/{id}/convert", h.convert)
	r.Post("/documents/{id}/tax", h.setTax)
	r.Get("/documents/{id}/payments", h.listPayments)
	r.Post("/documents/{id}/payments", h.recordPayment)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	doc, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.logger.Error("create document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, doc)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), h.id(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, detail)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	req := ListDocumentsRequest{}
	q := r.URL.Query()
	if v := q.Get("kind"); v != "" {
		kind := Kind(v)
		req.Kind = &kind
	}
	if v := q.Get("status"); v != "" {
		status := Status(v)
		req.Status = &status
	}
	if v := q.Get("customer_id"); v != "" {
		if id, err := strconv.ParseInt(v, 10, 64); err == nil {
			req.CustomerID = &id
		}
	}
	req.Page, _ = strconv.Atoi(q.Get("page"))
	req.PerPage, _ = strconv.Atoi(q.Get("per_page"))

	docs, pagination, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list documents", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"documents": docs, "pagination": pagination})
}

func (h *Handler) replaceLines(w http.ResponseWriter, r *http.Request) {
	var req ReplaceLinesRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	doc, err := h.service.ReplaceLines(r.Context(), h.id(r), req)
	if err != nil {
		h.logger.Error("replace lines", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) transition(w http.ResponseWriter, r *http.Request) {
	var req TransitionRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	result, err := h.service.Transition(r.Context(), h.id(r), req)
	if err != nil {
		h.logger.Error("transition document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if result.Conversion != nil {
		h.metrics.ObserveConversion(string(result.Conversion.SourceKind), result.Conversion.Created)
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) convert(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Convert(r.Context(), h.id(r))
	if err != nil {
		h.logger.Error("convert document", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.metrics.ObserveConversion(string(result.SourceKind), result.Created)
	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	httpx.JSON(w, status, result)
}

func (h *Handler) setTax(w http.ResponseWriter, r *http.Request) {
	var req SetTaxRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	doc, err := h.service.SetTax(r.Context(), h.id(r), req)
	if err != nil {
		h.logger.Error("set document tax", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	detail, err := h.service.Get(r.Context(), h.id(r))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"payments":       detail.Payments,
		"paid_amount":    detail.PaidAmount,
		"payment_status": detail.PaymentState,
	})
}

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req RecordPaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Invalid JSON", err.Error())
		return
	}
	detail, err := h.service.RecordPayment(r.Context(), h.id(r), req)
	if err != nil {
		h.logger.Error("record payment", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, detail)
}

func (h *Handler) id(r *http.Request) int64 {
	id, _ := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id
}
